package export

import (
	"bytes"
	"fmt"

	"github.com/twpayne/go-kml/v2"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// KML writes a document with the route as a line placemark followed by one
// point placemark per plan stop, in plan order.
func KML(name string, route []geo.Point, plan trip.Plan) ([]byte, error) {
	coords := make([]kml.Coordinate, len(route))
	for i, p := range route {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}

	children := []kml.Element{
		kml.Name(name),
		kml.Placemark(
			kml.Name(name),
			kml.LineString(kml.Coordinates(coords...)),
		),
	}
	for i, e := range plan.Entries() {
		children = append(children, kml.Placemark(
			kml.Name(StopName(i+1, e)),
			kml.Description(StopDescription(e)),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: e.Position.Longitude, Lat: e.Position.Latitude})),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to encode KML: %w", err)
	}
	return buf.Bytes(), nil
}
