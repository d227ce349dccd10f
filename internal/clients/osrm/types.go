package osrm

import (
	"errors"
	"fmt"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
)

// ErrNoRoute is returned when no endpoint produced a usable route
var ErrNoRoute = errors.New("no route available")

// NoResultsError is returned when the geocoder knows no place by that name
type NoResultsError struct {
	Query string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no geocoding results for %q", e.Query)
}

// Place is a geocoded place name
type Place struct {
	Query       string    `json:"query"`
	DisplayName string    `json:"display_name,omitempty"`
	Position    geo.Point `json:"position"`
	Cached      bool      `json:"cached"`
}

// Result is a driving route between two named places
type Result struct {
	Origin      Place          `json:"origin"`
	Destination Place          `json:"destination"`
	Samples     []route.Sample `json:"-"`
	Encoded     string         `json:"polyline"`
	Distance    float64        `json:"distance"` // meters, as reported by the router
	Duration    float64        `json:"duration"` // seconds
	Endpoint    string         `json:"endpoint"`
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}
