package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/google/uuid"

	"github.com/chane12/fuelroute/server/internal/clients/osrm"
	"github.com/chane12/fuelroute/server/internal/config"
	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// ErrInvalidSegment is returned for a negative per-segment ranking length
var ErrInvalidSegment = errors.New("invalid segment length")

// CatalogSource provides the station catalog for one analysis
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (stations.Catalog, error)
}

// RouteSource turns a pair of place names into a driving route
type RouteSource interface {
	Route(ctx context.Context, origin, destination string) (*osrm.Result, error)
}

// RouteInput selects where the route comes from. The first non-empty source
// wins in field order.
type RouteInput struct {
	Samples     []route.Sample `json:"-"`
	GPX         []byte         `json:"-"`
	KML         []byte         `json:"-"`
	Polyline    string         `json:"polyline,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	Destination string         `json:"destination,omitempty"`
	Demo        bool           `json:"demo,omitempty"`
}

// Params are the inputs of one analysis run. Distances are in meters.
// Callers start from AnalysisService.DefaultParams; Radius and TopN are
// validated as given.
type Params struct {
	Route     RouteInput        `json:"route"`
	Fuel      stations.FuelType `json:"fuel"`
	Radius    float64           `json:"radius"`
	TopN      int               `json:"top_n"`
	SegmentKm float64           `json:"segment_km,omitempty"`
	Vehicle   trip.Vehicle      `json:"vehicle"`

	// Autonomy for the leg check. Zero uses the configured autonomy, else the
	// vehicle's useful range, and a negative value disables critical flags.
	Autonomy float64 `json:"autonomy,omitempty"`

	// Plan lists station IDs in the user's stop order
	Plan          []string `json:"plan,omitempty"`
	SortPlan      bool     `json:"sort_plan,omitempty"`
	ChosenStation string   `json:"chosen_station,omitempty"`
}

// RouteSummary describes the analysed route
type RouteSummary struct {
	Source           string       `json:"source"`
	Origin           geo.Point    `json:"origin"`
	Destination      geo.Point    `json:"destination"`
	Length           float64      `json:"length"`
	Vertices         int          `json:"vertices"`
	OriginalVertices int          `json:"original_vertices"`
	Polyline         string       `json:"polyline"`
	Places           []osrm.Place `json:"places,omitempty"`
}

// AnalysisService runs the corridor pipeline end to end. It keeps no
// results between runs; every call produces a fresh Snapshot.
type AnalysisService struct {
	catalog    CatalogSource
	routes     RouteSource
	normalizer *route.Normalizer
	matcher    routing.StationMatcher
	projection geo.UTM
	defaults   Params
	now        func() time.Time
}

// NewAnalysisService creates a new AnalysisService. routes may be nil when
// named routes are not supported.
func NewAnalysisService(catalog CatalogSource, routes RouteSource, cfg *config.Config) *AnalysisService {
	a := cfg.Analysis
	matcher := routing.NewStationMatcher(a.Projection)
	if a.OnRouteThreshold > 0 {
		if m, ok := matcher.(interface{ SetOnRouteThreshold(float64) }); ok {
			m.SetOnRouteThreshold(a.OnRouteThreshold)
		}
	}

	fuel, _ := stations.ParseFuelType(a.Fuel)
	return &AnalysisService{
		catalog:    catalog,
		routes:     routes,
		normalizer: route.NewNormalizer(a.RouteOptions()),
		matcher:    matcher,
		projection: a.Projection,
		defaults: Params{
			Fuel:      fuel,
			Radius:    a.Radius,
			TopN:      a.TopN,
			SegmentKm: a.SegmentKm,
			Vehicle:   cfg.DefaultVehicle(),
			Autonomy:  a.AutonomyKm * 1000,
		},
		now: time.Now,
	}
}

// DefaultParams returns the configured defaults with no route selected
func (s *AnalysisService) DefaultParams() Params {
	return s.defaults
}

// Analyze runs the pipeline. Invalid parameters or routes are returned as
// errors before anything is fetched; an unreachable catalog or router yields
// a flagged Snapshot instead.
func (s *AnalysisService) Analyze(ctx context.Context, p Params) (*Snapshot, error) {
	ctx = logging.EnsureLogger(ctx)
	if err := s.validate(&p); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:         uuid.NewString(),
		CreatedAt:  s.now(),
		Fuel:       p.Fuel,
		Radius:     p.Radius,
		TopN:       p.TopN,
		Vehicle:    p.Vehicle,
		projection: s.projection,
	}

	samples, summary, err := s.resolveRoute(ctx, p.Route)
	if errors.Is(err, errRouteUnavailable) {
		snap.RouteUnavailable = true
		snap.Warnings = append(snap.Warnings, err.Error())
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	snap.gpxSource = p.Route.GPX

	simplified, err := s.normalizer.Normalize(ctx, samples)
	if err != nil {
		return nil, err
	}
	c, err := corridor.Build(simplified.Projected(), p.Radius)
	if err != nil {
		return nil, err
	}

	summary.Origin = simplified.Origin()
	summary.Destination = simplified.Destination()
	summary.Length = simplified.Length()
	summary.Vertices = simplified.Len()
	summary.OriginalVertices = simplified.Original.Len()
	summary.Polyline = geo.EncodePolyline(simplified.Geographic())
	snap.Route = summary
	snap.route = simplified
	snap.corridor = c

	var candidates []stations.Station
	catalog, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		logging.Errorw(ctx, "Analysis: price catalog unavailable", "error", err)
		snap.CatalogUnavailable = true
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("price catalog unavailable: %v", err))
	} else {
		candidates = catalog.Stations
		snap.Skipped = len(catalog.Skipped)
	}

	result, err := s.matcher.Match(ctx, c, candidates, p.Fuel)
	if err != nil {
		return nil, err
	}
	snap.Considered = result.Considered
	snap.Unpriced = len(result.Unpriced)
	snap.Matches = routing.SortByPrice(result.Matches)

	if snap.Top, err = routing.RankCheapest(snap.Matches, p.TopN); err != nil {
		return nil, err
	}
	if p.SegmentKm > 0 {
		if snap.PerSegment, err = routing.RankCheapestPerSegment(snap.Matches, p.TopN, p.SegmentKm*1000); err != nil {
			return nil, err
		}
	}

	snap.autonomy = p.Autonomy
	snap.chosen = p.ChosenStation
	snap.applyPlan(p.Plan, p.SortPlan)

	logging.Infow(ctx, "Analysis complete",
		"snapshot", snap.ID, "route.length", summary.Length, "matches", len(snap.Matches),
		"plan", snap.Plan.Len(), "catalog.unavailable", snap.CatalogUnavailable)
	return snap, nil
}

func (s *AnalysisService) validate(p *Params) error {
	if p.Fuel == "" {
		p.Fuel = s.defaults.Fuel
	}
	if !p.Fuel.Valid() {
		fuel, err := stations.ParseFuelType(string(p.Fuel))
		if err != nil {
			return err
		}
		p.Fuel = fuel
	}
	if !(p.Radius >= corridor.MinRadius && p.Radius <= corridor.MaxRadius) {
		return fmt.Errorf("%w: %v m outside %v-%v m", corridor.ErrInvalidRadius, p.Radius, corridor.MinRadius, corridor.MaxRadius)
	}
	if p.TopN <= 0 {
		return fmt.Errorf("%w: %d", routing.ErrInvalidTopN, p.TopN)
	}
	if p.SegmentKm < 0 {
		return fmt.Errorf("%w: %v km", ErrInvalidSegment, p.SegmentKm)
	}

	// A vehicle with no tank or consumption is the configured one at the
	// given fuel level
	if p.Vehicle.TankCapacity == 0 && p.Vehicle.Consumption == 0 {
		level := p.Vehicle.FuelLevel
		p.Vehicle = s.defaults.Vehicle
		p.Vehicle.FuelLevel = level
	}
	if err := p.Vehicle.Validate(); err != nil {
		return err
	}

	switch {
	case p.Autonomy == 0 && s.defaults.Autonomy > 0:
		p.Autonomy = s.defaults.Autonomy
	case p.Autonomy == 0:
		p.Autonomy = p.Vehicle.UsefulRange()
	case p.Autonomy < 0:
		p.Autonomy = 0
	}
	return nil
}

var errRouteUnavailable = errors.New("route service unavailable")

func (s *AnalysisService) resolveRoute(ctx context.Context, in RouteInput) ([]route.Sample, RouteSummary, error) {
	switch {
	case len(in.Samples) > 0:
		return in.Samples, RouteSummary{Source: "samples"}, nil

	case len(in.GPX) > 0:
		samples, err := route.ReadGPX(in.GPX)
		if err != nil && !errors.Is(err, route.ErrInvalidRoute) {
			err = fmt.Errorf("%w: %v", route.ErrInvalidRoute, err)
		}
		return samples, RouteSummary{Source: "gpx"}, err

	case len(in.KML) > 0:
		samples, err := route.ReadKML(in.KML)
		if err != nil && !errors.Is(err, route.ErrInvalidRoute) {
			err = fmt.Errorf("%w: %v", route.ErrInvalidRoute, err)
		}
		return samples, RouteSummary{Source: "kml"}, err

	case in.Polyline != "":
		points, err := geo.DecodePolyline(in.Polyline)
		if err != nil {
			return nil, RouteSummary{}, fmt.Errorf("%w: %v", route.ErrInvalidRoute, err)
		}
		return route.SamplesFromPoints(points), RouteSummary{Source: "polyline"}, nil

	case in.Origin != "" || in.Destination != "":
		if in.Origin == "" || in.Destination == "" {
			return nil, RouteSummary{}, fmt.Errorf("%w: origin and destination are both required", route.ErrInvalidRoute)
		}
		if s.routes == nil {
			return nil, RouteSummary{}, fmt.Errorf("%w: no route service configured", errRouteUnavailable)
		}
		result, err := s.routes.Route(ctx, in.Origin, in.Destination)
		if err != nil {
			logging.Errorw(ctx, "Analysis: route service failed",
				"origin", in.Origin, "destination", in.Destination, "error", err)
			return nil, RouteSummary{}, fmt.Errorf("%w: %v", errRouteUnavailable, err)
		}
		return result.Samples, RouteSummary{
			Source: "router:" + result.Endpoint,
			Places: []osrm.Place{result.Origin, result.Destination},
		}, nil

	case in.Demo:
		return route.DemoSamples(), RouteSummary{Source: "demo"}, nil
	}
	return nil, RouteSummary{}, fmt.Errorf("%w: no route given", route.ErrInvalidRoute)
}
