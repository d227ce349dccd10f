package routing

import (
	"context"
	"errors"

	"github.com/paulmach/orb"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// ErrInvalidTopN is returned when a ranking is asked for N <= 0 stations
var ErrInvalidTopN = errors.New("invalid top N")

// DefaultTopN is the number of cheapest stations shown by default
const DefaultTopN = 5

// Proximity describes how close a matched station sits to the route
type Proximity string

const (
	OnRoute Proximity = "on_route" // lateral offset within the on-route threshold
	Nearby  Proximity = "nearby"   // inside the corridor, off the road itself
)

// MatchedStation is a catalog station found inside the corridor, with its
// selected-fuel price and linear position on the route.
type MatchedStation struct {
	stations.Station
	Fuel  stations.FuelType `json:"fuel"`
	Price float64           `json:"price"`

	// DistanceAlongRoute is measured in meters from the route origin along
	// the simplified path to the station's nearest point on it.
	DistanceAlongRoute float64 `json:"distance_along_route"`

	// LateralOffset is the straight-line distance in meters from the
	// station to that nearest point.
	LateralOffset float64   `json:"lateral_offset"`
	Proximity     Proximity `json:"proximity"`

	Projected orb.Point `json:"-"`
}

// MatchResult is the unordered output of one corridor join
type MatchResult struct {
	Matches []MatchedStation `json:"matches"`

	// Station IDs inside the corridor that had no price for the fuel
	Unpriced []string `json:"unpriced,omitempty"`

	Considered      int     `json:"considered"`
	OutsideCorridor int     `json:"outside_corridor"`
	RouteLength     float64 `json:"route_length"`
}

// Position is a point referenced against a path
type Position struct {
	Along   float64   // meters from the path start
	Offset  float64   // meters from the path
	Segment int       // index of the segment holding the nearest point
	Nearest orb.Point // nearest point on the path
}

// StationMatcher joins station points against a route corridor
type StationMatcher interface {
	// Match keeps the stations inside the corridor that price the fuel
	Match(ctx context.Context, c *corridor.Corridor, candidates []stations.Station, fuel stations.FuelType) (MatchResult, error)
}

// NewStationMatcher is implemented in matcher.go
