package trip

import (
	"math"

	"github.com/chane12/fuelroute/server/internal/lib/routing"
)

// AttentionFraction of autonomy at which a leg starts to need attention
const AttentionFraction = 0.8

// Level grades a leg against the vehicle autonomy
type Level string

const (
	Safe      Level = "safe"
	Attention Level = "attention"
	Critical  Level = "critical"
)

// Leg is one stretch of the plan. For stops, Station is the stop the leg
// ends at; the final leg to the destination has no station.
type Leg struct {
	Position int                     `json:"position"`
	Station  *routing.MatchedStation `json:"station,omitempty"`
	From     float64                 `json:"from"`
	To       float64                 `json:"to"`
	Distance float64                 `json:"distance"`
	Critical bool                    `json:"critical"`
	Level    Level                   `json:"level"`
}

// Analysis annotates a plan with leg distances. Distances are in meters.
type Analysis struct {
	Legs     []Leg   `json:"legs"`
	Final    Leg     `json:"final"`
	Autonomy float64 `json:"autonomy"`

	// RouteOrdered is false when the stops do not follow the route
	// direction; leg lengths then describe the chosen order only and the
	// critical flags are of limited meaning.
	RouteOrdered  bool `json:"route_ordered"`
	CriticalCount int  `json:"critical_count"`
}

// HasCritical reports whether any leg, including the final one, is critical
func (a Analysis) HasCritical() bool {
	return a.CriticalCount > 0
}

// Analyze computes every leg of the plan in plan order: origin to the first
// stop, stop to stop, and the last stop to the destination. A leg is critical
// when it is strictly longer than autonomy. An autonomy <= 0 means unknown
// and no leg is flagged. The analysis is recomputed in full on every call.
func Analyze(plan Plan, autonomy, routeLength float64) Analysis {
	entries := plan.Entries()
	analysis := Analysis{
		Legs:         make([]Leg, 0, len(entries)),
		Autonomy:     autonomy,
		RouteOrdered: plan.IsRouteOrdered(),
	}

	previous := 0.0
	for i := range entries {
		station := entries[i]
		leg := newLeg(i+1, previous, station.DistanceAlongRoute, autonomy)
		leg.Station = &station
		analysis.Legs = append(analysis.Legs, leg)
		previous = station.DistanceAlongRoute
	}

	analysis.Final = newLeg(len(entries)+1, previous, routeLength, autonomy)

	for _, leg := range analysis.Legs {
		if leg.Critical {
			analysis.CriticalCount++
		}
	}
	if analysis.Final.Critical {
		analysis.CriticalCount++
	}
	return analysis
}

func newLeg(position int, from, to, autonomy float64) Leg {
	distance := math.Abs(to - from)
	return Leg{
		Position: position,
		From:     from,
		To:       to,
		Distance: distance,
		Critical: autonomy > 0 && distance > autonomy,
		Level:    level(distance, autonomy),
	}
}

func level(distance, autonomy float64) Level {
	switch {
	case autonomy <= 0:
		return Safe
	case distance > autonomy:
		return Critical
	case distance >= autonomy*AttentionFraction:
		return Attention
	default:
		return Safe
	}
}
