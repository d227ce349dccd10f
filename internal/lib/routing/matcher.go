package routing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dpup/prefab/logging"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// DefaultOnRouteThreshold is the lateral offset in meters under which a
// station counts as being on the road itself
const DefaultOnRouteThreshold = 100.0

// stationMatcher implements the StationMatcher interface
type stationMatcher struct {
	projection       geo.UTM
	mu               sync.RWMutex
	onRouteThreshold float64
}

// NewStationMatcher creates a matcher that projects stations with the given
// metric projection. It must be the projection the corridor was built in.
func NewStationMatcher(projection geo.UTM) StationMatcher {
	return &stationMatcher{
		projection:       projection,
		onRouteThreshold: DefaultOnRouteThreshold,
	}
}

// Match projects every candidate, keeps those inside the corridor (boundary
// included) and drops those without a price for the fuel.
func (m *stationMatcher) Match(ctx context.Context, c *corridor.Corridor, candidates []stations.Station, fuel stations.FuelType) (MatchResult, error) {
	if c == nil {
		return MatchResult{}, fmt.Errorf("corridor is required")
	}
	if !fuel.Valid() {
		return MatchResult{}, fmt.Errorf("%w: %q", stations.ErrUnknownFuelType, fuel)
	}

	path := c.Path()
	length := planar.Length(path)
	threshold := m.GetOnRouteThreshold()

	result := MatchResult{
		Matches:     []MatchedStation{},
		Considered:  len(candidates),
		RouteLength: length,
	}

	for _, station := range candidates {
		projected := m.projection.Forward(station.Position)
		if !c.Contains(projected) {
			result.OutsideCorridor++
			continue
		}

		price, ok := station.Price(fuel)
		if !ok {
			result.Unpriced = append(result.Unpriced, station.ID)
			continue
		}

		pos := Locate(path, projected)
		proximity := Nearby
		if pos.Offset <= threshold {
			proximity = OnRoute
		}

		result.Matches = append(result.Matches, MatchedStation{
			Station:            station,
			Fuel:               fuel,
			Price:              price,
			DistanceAlongRoute: pos.Along,
			LateralOffset:      pos.Offset,
			Proximity:          proximity,
			Projected:          projected,
		})
	}

	logging.Infow(ctx, "Matched stations against corridor",
		"fuel", fuel,
		"radius", c.Radius(),
		"considered", result.Considered,
		"matched", len(result.Matches),
		"unpriced", len(result.Unpriced),
		"outside", result.OutsideCorridor)

	return result, nil
}

// SetOnRouteThreshold changes the on-route offset in meters
func (m *stationMatcher) SetOnRouteThreshold(thresholdMeters float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRouteThreshold = thresholdMeters
}

// GetOnRouteThreshold returns the current on-route offset in meters
func (m *stationMatcher) GetOnRouteThreshold() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onRouteThreshold
}

// Locate projects p onto the nearest point of path and returns the distance
// along the path to it and the offset from it. When two segments are equally
// near, the earlier one wins. Along always lies in [0, length(path)].
func Locate(path orb.LineString, p orb.Point) Position {
	if len(path) == 0 {
		return Position{Offset: math.Inf(1)}
	}
	if len(path) == 1 {
		return Position{Offset: planar.Distance(path[0], p), Nearest: path[0]}
	}

	best := Position{Offset: math.Inf(1)}
	travelled := 0.0
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		segLength := math.Hypot(dx, dy)

		t := 0.0
		if segLength > 0 {
			t = ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (segLength * segLength)
			t = math.Max(0, math.Min(1, t))
		}
		nearest := orb.Point{a[0] + t*dx, a[1] + t*dy}
		offset := planar.Distance(nearest, p)

		if offset < best.Offset {
			best = Position{
				Along:   travelled + t*segLength,
				Offset:  offset,
				Segment: i,
				Nearest: nearest,
			}
		}
		travelled += segLength
	}

	best.Along = math.Max(0, math.Min(travelled, best.Along))
	return best
}
