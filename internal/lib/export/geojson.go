package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// Layers are the map layers of one analysis, in geographic coordinates
type Layers struct {
	Route    []geo.Point
	Corridor orb.MultiPolygon
	Matches  []routing.MatchedStation
	Plan     trip.Plan
}

// CorridorOutline converts the corridor polygon back to (lon, lat)
func CorridorOutline(c *corridor.Corridor, projection geo.UTM) orb.MultiPolygon {
	projected := c.Outline()
	out := make(orb.MultiPolygon, len(projected))
	for i, poly := range projected {
		out[i] = make(orb.Polygon, len(poly))
		for j, ring := range poly {
			r := make(orb.Ring, len(ring))
			for k, p := range ring {
				r[k] = projection.Inverse(p).Orb()
			}
			out[i][j] = r
		}
	}
	return out
}

// GeoJSON renders the layers as one FeatureCollection. Every feature carries
// a "layer" property: route, corridor, station or stop.
func GeoJSON(layers Layers) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	if len(layers.Route) > 0 {
		line := make(orb.LineString, len(layers.Route))
		for i, p := range layers.Route {
			line[i] = p.Orb()
		}
		f := geojson.NewFeature(line)
		f.Properties["layer"] = "route"
		fc.Append(f)
	}

	if len(layers.Corridor) > 0 {
		f := geojson.NewFeature(layers.Corridor)
		f.Properties["layer"] = "corridor"
		fc.Append(f)
	}

	for _, m := range layers.Matches {
		f := geojson.NewFeature(m.Position.Orb())
		f.ID = m.ID
		f.Properties["layer"] = "station"
		stationProperties(f.Properties, m)
		fc.Append(f)
	}

	for i, e := range layers.Plan.Entries() {
		f := geojson.NewFeature(e.Position.Orb())
		f.Properties["layer"] = "stop"
		f.Properties["position"] = i + 1
		f.Properties["label"] = StopName(i+1, e)
		stationProperties(f.Properties, e)
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return data, nil
}

func stationProperties(props geojson.Properties, m routing.MatchedStation) {
	props["id"] = m.ID
	props["name"] = m.Name()
	props["fuel"] = string(m.Fuel)
	props["price"] = m.Price
	props["distance_along_route"] = m.DistanceAlongRoute
	props["lateral_offset"] = m.LateralOffset
	props["proximity"] = string(m.Proximity)
}
