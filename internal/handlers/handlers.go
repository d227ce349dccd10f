// Package handlers exposes the analysis pipeline over a small JSON API.
// Every request runs a fresh analysis; no snapshot is kept between calls.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dpup/prefab/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
	"github.com/chane12/fuelroute/server/internal/services"
)

// Analyzer runs one analysis
type Analyzer interface {
	Analyze(ctx context.Context, p services.Params) (*services.Snapshot, error)
	DefaultParams() services.Params
}

// StatusReporter reports background catalog refresh state
type StatusReporter interface {
	Status() services.RefreshStatus
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalyzeRequest is the body of the analyze and export endpoints. Distances
// are in kilometers here and converted to meters for the pipeline. Omitted
// fields take the configured defaults; a field that is present, even as 0,
// is validated as given.
type AnalyzeRequest struct {
	Points      []geo.Point `json:"points,omitempty"`
	GPX         string      `json:"gpx,omitempty"`
	KML         string      `json:"kml,omitempty"`
	Polyline    string      `json:"polyline,omitempty"`
	Origin      string      `json:"origin,omitempty"`
	Destination string      `json:"destination,omitempty"`
	Demo        bool        `json:"demo,omitempty"`

	Fuel       string        `json:"fuel,omitempty"`
	RadiusKm   *float64      `json:"radius_km,omitempty"`
	TopN       *int          `json:"top_n,omitempty"`
	SegmentKm  *float64      `json:"segment_km,omitempty"`
	Vehicle    *trip.Vehicle `json:"vehicle,omitempty"`
	AutonomyKm float64       `json:"autonomy_km,omitempty"`

	Plan          []string `json:"plan,omitempty"`
	SortPlan      bool     `json:"sort_plan,omitempty"`
	ChosenStation string   `json:"chosen_station,omitempty"`
}

// Params overlays the request on the service defaults
func (r AnalyzeRequest) Params(defaults services.Params) services.Params {
	p := defaults
	p.Route = services.RouteInput{
		Polyline:    r.Polyline,
		Origin:      r.Origin,
		Destination: r.Destination,
		Demo:        r.Demo,
	}
	if r.Fuel != "" {
		p.Fuel = stations.FuelType(r.Fuel)
	}
	if r.RadiusKm != nil {
		p.Radius = *r.RadiusKm * 1000
	}
	if r.TopN != nil {
		p.TopN = *r.TopN
	}
	if r.SegmentKm != nil {
		p.SegmentKm = *r.SegmentKm
	}
	if r.AutonomyKm != 0 {
		p.Autonomy = r.AutonomyKm * 1000
	}
	p.Plan = r.Plan
	p.SortPlan = r.SortPlan
	p.ChosenStation = r.ChosenStation

	if len(r.Points) > 0 {
		p.Route.Samples = route.SamplesFromPoints(r.Points)
	}
	if r.GPX != "" {
		p.Route.GPX = []byte(r.GPX)
	}
	if r.KML != "" {
		p.Route.KML = []byte(r.KML)
	}
	if r.Vehicle != nil {
		p.Vehicle = *r.Vehicle
	}
	return p
}

// Handler serves the analysis API
type Handler struct {
	analyzer Analyzer
	status   StatusReporter
	logger   logging.Logger
}

// NewHandler creates a new Handler. status may be nil.
func NewHandler(analyzer Analyzer, status StatusReporter) *Handler {
	return &Handler{analyzer: analyzer, status: status, logger: logging.NewProdLogger()}
}

// Router mounts the API under /api/v1
func (h *Handler) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(h.withLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fuels", h.ListFuels)
		r.Get("/status", h.Status)
		r.Post("/analyze", h.Analyze)
		r.Post("/export/{format}", h.Export)
	})
	return r
}

// withLogger attaches the handler's logger to requests that arrive without
// one, e.g. when the router is served outside prefab
func (h *Handler) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.FromContext(r.Context()) == nil {
			r = r.WithContext(logging.With(r.Context(), h.logger.Named(r.URL.Path)))
		}
		next.ServeHTTP(w, r)
	})
}

// FuelResponse describes one supported fuel
type FuelResponse struct {
	ID     stations.FuelType `json:"id"`
	Label  string            `json:"label"`
	Column string            `json:"column"`
}

// ListFuels handles GET /api/v1/fuels
func (h *Handler) ListFuels(w http.ResponseWriter, r *http.Request) {
	fuels := make([]FuelResponse, 0, len(stations.FuelTypes))
	for _, f := range stations.FuelTypes {
		fuels = append(fuels, FuelResponse{ID: f, Label: f.Label(), Column: f.Column()})
	}
	writeJSON(w, http.StatusOK, fuels)
}

// Status handles GET /api/v1/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusOK, services.RefreshStatus{})
		return
	}
	writeJSON(w, http.StatusOK, h.status.Status())
}

// Analyze handles POST /api/v1/analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Export handles POST /api/v1/export/{format} for gpx, kml and geojson
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	var contentType string
	switch format {
	case "gpx":
		contentType = "application/gpx+xml"
	case "kml":
		contentType = "application/vnd.google-earth.kml+xml"
	case "geojson":
		contentType = "application/geo+json"
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown export format", Details: format})
		return
	}

	snap, ok := h.run(w, r)
	if !ok {
		return
	}
	if snap.RouteUnavailable {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "route service unavailable", Details: firstWarning(snap)})
		return
	}

	var (
		body []byte
		err  error
	)
	switch format {
	case "gpx":
		body, err = snap.GPX()
	case "kml":
		body, err = snap.KML()
	default:
		body, err = snap.GeoJSON()
	}
	if err != nil {
		logging.Errorw(r.Context(), "Export failed", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "export failed", Details: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="fuelroute.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return nil, false
	}

	snap, err := h.analyzer.Analyze(r.Context(), req.Params(h.analyzer.DefaultParams()))
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid analysis parameters", Details: err.Error()})
			return nil, false
		}
		logging.Errorw(r.Context(), "Analysis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "analysis failed", Details: err.Error()})
		return nil, false
	}
	return snap, true
}

func isValidationError(err error) bool {
	for _, target := range []error{
		route.ErrInvalidRoute,
		corridor.ErrInvalidRadius,
		routing.ErrInvalidTopN,
		trip.ErrInvalidVehicle,
		stations.ErrUnknownFuelType,
		services.ErrInvalidSegment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func firstWarning(snap *services.Snapshot) string {
	if len(snap.Warnings) == 0 {
		return ""
	}
	return snap.Warnings[0]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
