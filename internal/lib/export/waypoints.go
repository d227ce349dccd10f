// Package export serializes a trip plan for external tools: a maps deep link,
// GPX and KML documents with the stops as named points, and GeoJSON layers.
// Nothing here performs network calls.
package export

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// MaxMapsWaypoints is the number of intermediate stops a maps link accepts
const MaxMapsWaypoints = 9

const mapsBaseURL = "https://www.google.com/maps/dir/"

// Waypoint is one named position of an exported trip
type Waypoint struct {
	Name     string    `json:"name"`
	Position geo.Point `json:"position"`
}

// Waypoints lists origin, every plan stop in plan order and destination
func Waypoints(origin, destination geo.Point, plan trip.Plan) []Waypoint {
	entries := plan.Entries()
	out := make([]Waypoint, 0, len(entries)+2)
	out = append(out, Waypoint{Name: "Origin", Position: origin})
	for i, e := range entries {
		out = append(out, Waypoint{Name: StopName(i+1, e), Position: e.Position})
	}
	return append(out, Waypoint{Name: "Destination", Position: destination})
}

// MapsLink is a driving-directions deep link
type MapsLink struct {
	URL string `json:"url"`

	// Truncated counts plan stops left out of the link
	Truncated int `json:"truncated"`
}

// GoogleMapsURL builds a directions link from origin to destination through
// the plan stops. Stops past MaxMapsWaypoints are dropped and counted.
func GoogleMapsURL(origin, destination geo.Point, plan trip.Plan) MapsLink {
	entries := plan.Entries()
	truncated := 0
	if len(entries) > MaxMapsWaypoints {
		truncated = len(entries) - MaxMapsWaypoints
		entries = entries[:MaxMapsWaypoints]
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", latLng(origin))
	q.Set("destination", latLng(destination))
	q.Set("travelmode", "driving")
	if len(entries) > 0 {
		stops := make([]string, len(entries))
		for i, e := range entries {
			stops[i] = latLng(e.Position)
		}
		q.Set("waypoints", strings.Join(stops, "|"))
	}

	return MapsLink{URL: mapsBaseURL + "?" + q.Encode(), Truncated: truncated}
}

// StopName labels a plan stop with its position, brand and price
func StopName(position int, m routing.MatchedStation) string {
	return fmt.Sprintf("%d. %s (%.3f €/L)", position, m.Name(), m.Price)
}

// StopDescription summarizes where a stop sits on the route
func StopDescription(m routing.MatchedStation) string {
	parts := []string{
		fmt.Sprintf("%s %.3f €/L", m.Fuel.Label(), m.Price),
		fmt.Sprintf("km %.1f of route", m.DistanceAlongRoute/1000),
		fmt.Sprintf("%.0f m off route", m.LateralOffset),
	}
	if m.Address != "" {
		parts = append(parts, m.Address)
	}
	if m.Municipality != "" {
		parts = append(parts, m.Municipality)
	}
	return strings.Join(parts, " · ")
}

func latLng(p geo.Point) string {
	return strconv.FormatFloat(p.Latitude, 'f', 6, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', 6, 64)
}
