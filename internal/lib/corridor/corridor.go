// Package corridor builds the search corridor around a projected route.
//
// The corridor is the Minkowski sum of the route path and a disc of the
// configured radius (round caps and joins). Membership is decided
// analytically as "distance to path <= radius", which is exactly that
// shape; Outline only produces a polygon rendering of it.
package corridor

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidRadius is returned for a non-positive or non-finite radius
var ErrInvalidRadius = errors.New("invalid corridor radius")

// Radius limits exposed to callers, in meters
const (
	MinRadius     = 1000.0
	MaxRadius     = 15000.0
	DefaultRadius = 5000.0
)

// Vertices used to approximate half a cap in Outline
const arcSteps = 16

// Corridor is an immutable buffer of a metric path. Changing the radius or
// the route means building a new Corridor.
type Corridor struct {
	path   orb.LineString
	radius float64
	bound  orb.Bound
}

// Build buffers the metric path at radius meters
func Build(path orb.LineString, radius float64) (*Corridor, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("corridor path needs at least 2 points, got %d", len(path))
	}

	p := path.Clone()
	return &Corridor{
		path:   p,
		radius: radius,
		bound:  p.Bound().Pad(radius),
	}, nil
}

// Radius returns the buffer distance in meters
func (c *Corridor) Radius() float64 {
	return c.radius
}

// Path returns a copy of the buffered path
func (c *Corridor) Path() orb.LineString {
	return c.path.Clone()
}

// Bound returns the corridor's bounding box
func (c *Corridor) Bound() orb.Bound {
	return c.bound
}

// Distance returns the shortest distance from p to the path in meters
func (c *Corridor) Distance(p orb.Point) float64 {
	min := math.Inf(1)
	for i := 0; i < len(c.path)-1; i++ {
		d := planar.DistanceFromSegment(c.path[i], c.path[i+1], p)
		if d < min {
			min = d
		}
	}
	return min
}

// Contains reports whether p lies in the corridor. The boundary is inside.
func (c *Corridor) Contains(p orb.Point) bool {
	if !c.bound.Contains(p) {
		return false
	}
	return c.Distance(p) <= c.radius
}

// Outline returns one capsule per path segment. Their union is the corridor
// polygon; the arcs are circumscribed so the outline never cuts into it.
func (c *Corridor) Outline() orb.MultiPolygon {
	r := c.radius / math.Cos(math.Pi/(2*arcSteps))

	outline := make(orb.MultiPolygon, 0, len(c.path)-1)
	for i := 0; i < len(c.path)-1; i++ {
		outline = append(outline, orb.Polygon{capsule(c.path[i], c.path[i+1], r)})
	}
	return outline
}

// Area approximates the corridor area in square meters as path length times
// width plus one disc for the end caps. Overlaps at sharp turns are counted once.
func (c *Corridor) Area() float64 {
	return planar.Length(c.path)*2*c.radius + math.Pi*c.radius*c.radius
}

// capsule returns a counter-clockwise ring around segment a-b at radius r
func capsule(a, b orb.Point, r float64) orb.Ring {
	heading := math.Atan2(b[1]-a[1], b[0]-a[0])
	if a.Equal(b) {
		heading = 0
	}

	ring := make(orb.Ring, 0, 2*(arcSteps+1)+1)
	for i := 0; i <= arcSteps; i++ {
		theta := heading - math.Pi/2 + math.Pi*float64(i)/arcSteps
		ring = append(ring, orb.Point{b[0] + r*math.Cos(theta), b[1] + r*math.Sin(theta)})
	}
	for i := 0; i <= arcSteps; i++ {
		theta := heading + math.Pi/2 + math.Pi*float64(i)/arcSteps
		ring = append(ring, orb.Point{a[0] + r*math.Cos(theta), a[1] + r*math.Sin(theta)})
	}
	ring = append(ring, ring[0])
	return ring
}
