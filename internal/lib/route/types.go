package route

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

// ErrInvalidRoute is returned for routes that cannot enter the pipeline:
// fewer than two points, coordinates outside geographic bounds, or a route
// outside the operating region.
var ErrInvalidRoute = errors.New("invalid route")

// Default normalizer settings
const (
	// DefaultTolerance is the RDP tolerance in degrees (~50 m in latitude)
	DefaultTolerance = 0.0005

	// DefaultMaxPoints bounds the raw sample count accepted for one route
	DefaultMaxPoints = 50000
)

// SpainBounds covers the peninsula, the Balearic and Canary islands,
// Ceuta and Melilla. Under UTM30N, distances on the Canary Islands come out
// about 2 % long.
var SpainBounds = geo.Bounds{
	MinLatitude:  27.6,
	MaxLatitude:  44.0,
	MinLongitude: -18.2,
	MaxLongitude: 4.3,
}

// Sample is one raw route sample as read from a track or routing service
type Sample struct {
	Longitude float64
	Latitude  float64
	Elevation *float64
	Time      time.Time
}

// SamplesFromPoints wraps plain coordinates as samples
func SamplesFromPoints(points []geo.Point) []Sample {
	samples := make([]Sample, len(points))
	for i, p := range points {
		samples[i] = Sample{Longitude: p.Longitude, Latitude: p.Latitude}
	}
	return samples
}

// Geometry holds a route polyline in both reference systems. Projected is
// always derived from Geographic and has the same length and order.
type Geometry struct {
	geographic []geo.Point
	projected  orb.LineString
	projection geo.UTM
}

func newGeometry(points []geo.Point, projection geo.UTM) Geometry {
	geographic := make([]geo.Point, len(points))
	copy(geographic, points)
	return Geometry{
		geographic: geographic,
		projected:  projection.ForwardAll(geographic),
		projection: projection,
	}
}

// Geographic returns a copy of the (lon, lat) points in travel order
func (g Geometry) Geographic() []geo.Point {
	out := make([]geo.Point, len(g.geographic))
	copy(out, g.geographic)
	return out
}

// Projected returns a copy of the metric polyline
func (g Geometry) Projected() orb.LineString {
	return g.projected.Clone()
}

// Projection returns the metric reference system of Projected
func (g Geometry) Projection() geo.UTM {
	return g.projection
}

// Len returns the number of vertices
func (g Geometry) Len() int {
	return len(g.geographic)
}

// Length returns the metric path length in meters
func (g Geometry) Length() float64 {
	return planar.Length(g.projected)
}

// Origin returns the first point
func (g Geometry) Origin() geo.Point {
	return g.geographic[0]
}

// Destination returns the last point
func (g Geometry) Destination() geo.Point {
	return g.geographic[len(g.geographic)-1]
}

// Simplified is the reduced-vertex route used by the corridor and matcher.
// Original keeps the full-resolution geometry for display and export.
type Simplified struct {
	Geometry
	Original  Geometry
	Tolerance float64
}
