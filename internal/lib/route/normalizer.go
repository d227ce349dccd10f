package route

import (
	"context"
	"fmt"

	"github.com/dpup/prefab/logging"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

// Options configures the geometry normalizer
type Options struct {
	// Tolerance for Ramer-Douglas-Peucker in degrees
	Tolerance float64
	// Projection is the fixed metric plane for the deployment region
	Projection geo.UTM
	// Region rejects routes whose centroid falls outside it; zero disables
	Region geo.Bounds
	// MaxPoints rejects oversized inputs; zero disables
	MaxPoints int
}

// DefaultOptions returns the settings for the Spanish deployment
func DefaultOptions() Options {
	return Options{
		Tolerance:  DefaultTolerance,
		Projection: geo.UTM30N,
		Region:     SpainBounds,
		MaxPoints:  DefaultMaxPoints,
	}
}

// Normalizer turns raw samples into a simplified, projected route
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer, filling unset options with defaults
func NewNormalizer(opts Options) *Normalizer {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Projection.Zone == 0 {
		opts.Projection = geo.UTM30N
	}
	return &Normalizer{opts: opts}
}

// Projection returns the normalizer's metric reference system
func (n *Normalizer) Projection() geo.UTM {
	return n.opts.Projection
}

// Parse validates raw samples and returns their geographic points
func (n *Normalizer) Parse(samples []Sample) ([]geo.Point, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidRoute, len(samples))
	}
	if n.opts.MaxPoints > 0 && len(samples) > n.opts.MaxPoints {
		return nil, fmt.Errorf("%w: %d points exceeds the maximum of %d", ErrInvalidRoute, len(samples), n.opts.MaxPoints)
	}

	points := make([]geo.Point, len(samples))
	for i, s := range samples {
		p := geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
		if !geo.IsValid(p) {
			return nil, fmt.Errorf("%w: point %d (lat=%f, lon=%f) is outside geographic bounds",
				ErrInvalidRoute, i, s.Latitude, s.Longitude)
		}
		points[i] = p
	}

	if !n.opts.Region.IsZero() {
		c := geo.Centroid(points)
		if !n.opts.Region.Contains(c) {
			return nil, fmt.Errorf("%w: centroid (lat=%.3f, lon=%.3f) is outside the operating region",
				ErrInvalidRoute, c.Latitude, c.Longitude)
		}
	}

	return points, nil
}

// Normalize parses, simplifies and reprojects a route
func (n *Normalizer) Normalize(ctx context.Context, samples []Sample) (*Simplified, error) {
	points, err := n.Parse(samples)
	if err != nil {
		return nil, err
	}

	simplified := Simplify(points, n.opts.Tolerance)
	logging.Infow(ctx, "Route simplified",
		"vertices.before", len(points), "vertices.after", len(simplified), "tolerance", n.opts.Tolerance)

	return &Simplified{
		Geometry:  newGeometry(simplified, n.opts.Projection),
		Original:  newGeometry(points, n.opts.Projection),
		Tolerance: n.opts.Tolerance,
	}, nil
}

// Simplify applies Ramer-Douglas-Peucker in degree space. Endpoints are kept
// and output order follows input order. The input is not modified.
func Simplify(points []geo.Point, tolerance float64) []geo.Point {
	if len(points) <= 2 {
		out := make([]geo.Point, len(points))
		copy(out, points)
		return out
	}

	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.Orb()
	}

	reduced := simplify.DouglasPeucker(tolerance).Simplify(ls).(orb.LineString)

	out := make([]geo.Point, len(reduced))
	for i, p := range reduced {
		out[i] = geo.FromOrb(p)
	}
	return out
}
