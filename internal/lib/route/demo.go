package route

import "github.com/chane12/fuelroute/server/internal/lib/geo"

// demoRoute runs from central Madrid north to Miraflores de la Sierra
var demoRoute = []geo.Point{
	{Latitude: 40.4168, Longitude: -3.7038}, // Puerta del Sol
	{Latitude: 40.4531, Longitude: -3.6883},
	{Latitude: 40.4977, Longitude: -3.6794},
	{Latitude: 40.5493, Longitude: -3.6922},
	{Latitude: 40.6008, Longitude: -3.7086}, // Tres Cantos
	{Latitude: 40.6590, Longitude: -3.7676}, // Colmenar Viejo
	{Latitude: 40.7115, Longitude: -3.7801},
	{Latitude: 40.7547, Longitude: -3.7800}, // Soto del Real
	{Latitude: 40.8136, Longitude: -3.7617}, // Miraflores de la Sierra
}

// DemoSamples returns the fixed demo route
func DemoSamples() []Sample {
	return SamplesFromPoints(demoRoute)
}
