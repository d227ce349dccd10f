package export

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

const (
	creator    = "fuelroute"
	fuelSymbol = "Fuel"
)

// EnrichGPX adds every plan stop as a waypoint to an existing GPX document.
// Tracks, routes and existing waypoints are carried over unchanged.
func EnrichGPX(original []byte, plan trip.Plan) ([]byte, error) {
	doc, err := gpx.ParseBytes(original)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}
	doc.Waypoints = append(doc.Waypoints, stopWaypoints(plan)...)
	return encodeGPX(doc)
}

// RouteGPX writes the route as a single-segment track plus the plan stops,
// for routes that did not come from a GPX file.
func RouteGPX(name string, route []geo.Point, plan trip.Plan) ([]byte, error) {
	if len(route) < 2 {
		return nil, fmt.Errorf("route needs at least 2 points, got %d", len(route))
	}

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, len(route))}
	for i, p := range route {
		segment.Points[i] = gpx.GPXPoint{Point: gpx.Point{Latitude: p.Latitude, Longitude: p.Longitude}}
	}

	doc := &gpx.GPX{
		Name:      name,
		Waypoints: stopWaypoints(plan),
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}
	return encodeGPX(doc)
}

func stopWaypoints(plan trip.Plan) []gpx.GPXPoint {
	entries := plan.Entries()
	points := make([]gpx.GPXPoint, len(entries))
	for i, e := range entries {
		points[i] = gpx.GPXPoint{
			Point:       gpx.Point{Latitude: e.Position.Latitude, Longitude: e.Position.Longitude},
			Name:        StopName(i+1, e),
			Description: StopDescription(e),
			Symbol:      fuelSymbol,
			Type:        string(e.Fuel),
		}
	}
	return points
}

func encodeGPX(doc *gpx.GPX) ([]byte, error) {
	doc.Creator = creator
	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GPX: %w", err)
	}
	return data, nil
}
