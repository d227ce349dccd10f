package trip

import (
	"fmt"
	"sort"

	"github.com/chane12/fuelroute/server/internal/lib/routing"
)

// Plan is the user's ordered selection of stops. Every edit returns a new
// Plan; the receiver is never modified. Order is whatever the user chose,
// which need not follow the route.
type Plan struct {
	entries []routing.MatchedStation
}

// NewPlan builds a plan in the given order, dropping repeated station IDs
func NewPlan(entries ...routing.MatchedStation) Plan {
	var p Plan
	for _, e := range entries {
		p, _ = p.Add(e)
	}
	return p
}

// Entries returns a copy of the stops in plan order
func (p Plan) Entries() []routing.MatchedStation {
	out := make([]routing.MatchedStation, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of stops
func (p Plan) Len() int {
	return len(p.entries)
}

// Index returns the position of the station in the plan, or -1
func (p Plan) Index(stationID string) int {
	for i, e := range p.entries {
		if e.ID == stationID {
			return i
		}
	}
	return -1
}

// Contains reports whether the station is already a stop
func (p Plan) Contains(stationID string) bool {
	return p.Index(stationID) >= 0
}

// Add appends a stop. It reports false and returns p unchanged when the
// station is already planned.
func (p Plan) Add(m routing.MatchedStation) (Plan, bool) {
	if p.Contains(m.ID) {
		return p, false
	}
	entries := make([]routing.MatchedStation, len(p.entries), len(p.entries)+1)
	copy(entries, p.entries)
	return Plan{entries: append(entries, m)}, true
}

// Insert places a stop before the first stop that lies further along the
// route. It reports false when the station is already planned.
func (p Plan) Insert(m routing.MatchedStation) (Plan, bool) {
	if p.Contains(m.ID) {
		return p, false
	}
	at := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].DistanceAlongRoute > m.DistanceAlongRoute
	})
	entries := make([]routing.MatchedStation, 0, len(p.entries)+1)
	entries = append(entries, p.entries[:at]...)
	entries = append(entries, m)
	entries = append(entries, p.entries[at:]...)
	return Plan{entries: entries}, true
}

// Remove drops the stop for the station if present
func (p Plan) Remove(stationID string) Plan {
	i := p.Index(stationID)
	if i < 0 {
		return p
	}
	entries := make([]routing.MatchedStation, 0, len(p.entries)-1)
	entries = append(entries, p.entries[:i]...)
	entries = append(entries, p.entries[i+1:]...)
	return Plan{entries: entries}
}

// Move relocates the stop at from to index to
func (p Plan) Move(from, to int) (Plan, error) {
	if from < 0 || from >= len(p.entries) || to < 0 || to >= len(p.entries) {
		return p, fmt.Errorf("move %d to %d out of range for plan of %d stops", from, to, len(p.entries))
	}
	entries := p.Entries()
	moved := entries[from]
	entries = append(entries[:from], entries[from+1:]...)
	entries = append(entries[:to], append([]routing.MatchedStation{moved}, entries[to:]...)...)
	return Plan{entries: entries}, nil
}

// SortByRoute returns the plan ordered by distance along the route
func (p Plan) SortByRoute() Plan {
	return Plan{entries: routing.SortByRoute(p.entries)}
}

// IsRouteOrdered reports whether stops follow the direction of travel
func (p Plan) IsRouteOrdered() bool {
	for i := 1; i < len(p.entries); i++ {
		if p.entries[i].DistanceAlongRoute < p.entries[i-1].DistanceAlongRoute {
			return false
		}
	}
	return true
}
