package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/export"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// Snapshot is the immutable result of one analysis run. Replan returns a new
// Snapshot rather than editing this one.
type Snapshot struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Fuel      stations.FuelType `json:"fuel"`
	Radius    float64           `json:"radius"`
	TopN      int               `json:"top_n"`
	Vehicle   trip.Vehicle      `json:"vehicle"`
	Route     RouteSummary      `json:"route"`

	// Matches holds every priced station in the corridor in ranking order
	Matches    []routing.MatchedStation `json:"matches"`
	Top        []routing.MatchedStation `json:"top"`
	PerSegment []routing.MatchedStation `json:"per_segment,omitempty"`
	Considered int                      `json:"considered"`
	Unpriced   int                      `json:"unpriced"`
	Skipped    int                      `json:"skipped"`

	// Feasibility is nil when the catalog could not be fetched
	Feasibility *trip.Feasibility `json:"feasibility,omitempty"`
	Plan        trip.Plan         `json:"-"`
	Legs        trip.Analysis     `json:"legs"`
	Maps        export.MapsLink   `json:"maps"`
	Waypoints   []export.Waypoint `json:"waypoints"`

	CatalogUnavailable bool     `json:"catalog_unavailable"`
	RouteUnavailable   bool     `json:"route_unavailable"`
	Warnings           []string `json:"warnings,omitempty"`

	route      *route.Simplified
	corridor   *corridor.Corridor
	projection geo.UTM
	gpxSource  []byte
	autonomy   float64
	chosen     string
}

// Replan returns a copy of the snapshot with a new stop plan. Matches are
// reused; legs, feasibility and links are recomputed from scratch.
func (s *Snapshot) Replan(stationIDs []string, sortByRoute bool) *Snapshot {
	next := *s
	next.ID = uuid.NewString()
	next.Warnings = append([]string(nil), s.Warnings...)
	next.applyPlan(stationIDs, sortByRoute)
	return &next
}

// Station returns a matched station by ID
func (s *Snapshot) Station(id string) (routing.MatchedStation, bool) {
	if id == "" {
		return routing.MatchedStation{}, false
	}
	for _, m := range s.Matches {
		if m.ID == id {
			return m, true
		}
	}
	return routing.MatchedStation{}, false
}

// PlanStations lists the plan stops in plan order
func (s *Snapshot) PlanStations() []routing.MatchedStation {
	return s.Plan.Entries()
}

func (s *Snapshot) applyPlan(stationIDs []string, sortByRoute bool) {
	if s.route == nil {
		return
	}

	var entries []routing.MatchedStation
	for _, id := range stationIDs {
		m, ok := s.Station(id)
		if !ok {
			s.Warnings = append(s.Warnings, fmt.Sprintf("plan station %s is not in the corridor", id))
			continue
		}
		entries = append(entries, m)
	}
	plan := trip.NewPlan(entries...)
	if sortByRoute {
		plan = plan.SortByRoute()
	}
	s.Plan = plan
	s.Legs = trip.Analyze(plan, s.autonomy, s.Route.Length)

	s.Feasibility = nil
	if !s.CatalogUnavailable {
		var chosen *routing.MatchedStation
		if m, ok := s.Station(s.chosen); ok {
			chosen = &m
		} else if plan.Len() > 0 {
			first := plan.Entries()[0]
			chosen = &first
		}
		// The vehicle was validated before the run started.
		if f, err := trip.Assess(s.Route.Length, s.Vehicle, s.Matches, chosen); err == nil {
			s.Feasibility = &f
		}
	}

	s.Maps = export.GoogleMapsURL(s.Route.Origin, s.Route.Destination, plan)
	s.Waypoints = export.Waypoints(s.Route.Origin, s.Route.Destination, plan)
}

// GPX returns the uploaded GPX with stop waypoints added, or a new GPX of the
// full-resolution route when the route did not come from a file
func (s *Snapshot) GPX() ([]byte, error) {
	if s.route == nil {
		return nil, fmt.Errorf("snapshot %s has no route", s.ID)
	}
	if len(s.gpxSource) > 0 {
		return export.EnrichGPX(s.gpxSource, s.Plan)
	}
	return export.RouteGPX(s.name(), s.route.Original.Geographic(), s.Plan)
}

// KML returns the route and stops as a KML document
func (s *Snapshot) KML() ([]byte, error) {
	if s.route == nil {
		return nil, fmt.Errorf("snapshot %s has no route", s.ID)
	}
	return export.KML(s.name(), s.route.Original.Geographic(), s.Plan)
}

// GeoJSON returns the route, corridor outline, matches and stops
func (s *Snapshot) GeoJSON() ([]byte, error) {
	if s.route == nil {
		return nil, fmt.Errorf("snapshot %s has no route", s.ID)
	}
	return export.GeoJSON(export.Layers{
		Route:    s.route.Geographic(),
		Corridor: export.CorridorOutline(s.corridor, s.projection),
		Matches:  s.Matches,
		Plan:     s.Plan,
	})
}

func (s *Snapshot) name() string {
	if len(s.Route.Places) == 2 {
		return s.Route.Places[0].Query + " - " + s.Route.Places[1].Query
	}
	return "fuelroute " + s.Fuel.Label()
}
