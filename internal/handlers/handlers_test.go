package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chane12/fuelroute/server/internal/config"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/services"
)

type staticCatalog struct{}

func (staticCatalog) FetchCatalog(ctx context.Context) (stations.Catalog, error) {
	return stations.Catalog{Stations: []stations.Station{{
		ID:       "4375",
		Brand:    "REPSOL",
		Position: geo.Point{Latitude: 40.6008, Longitude: -3.7086},
		Prices:   map[stations.FuelType]float64{stations.Diesel: 1.459},
	}}}, nil
}

type fixedStatus struct{}

func (fixedStatus) Status() services.RefreshStatus {
	return services.RefreshStatus{Running: true, Stations: 11000, LastRefresh: time.Unix(0, 0).UTC()}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := services.NewAnalysisService(staticCatalog{}, nil, config.DefaultConfig())
	srv := httptest.NewServer(NewHandler(svc, fixedStatus{}).Router([]string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListFuels(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/fuels")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fuels []FuelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fuels))
	assert.Len(t, fuels, len(stations.FuelTypes))
	assert.Equal(t, "Precio Gasoleo A", fuels[0].Column)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status services.RefreshStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Running)
	assert.Equal(t, 11000, status.Stations)
}

func TestAnalyze_Demo(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/v1/analyze", `{"demo": true, "fuel": "diesel", "radius_km": 5, "plan": ["4375"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID    string `json:"id"`
		Route struct {
			Source string  `json:"source"`
			Length float64 `json:"length"`
		} `json:"route"`
		Top []struct {
			ID    string  `json:"id"`
			Price float64 `json:"price"`
		} `json:"top"`
		Maps struct {
			URL string `json:"url"`
		} `json:"maps"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "demo", body.Route.Source)
	assert.Greater(t, body.Route.Length, 40000.0)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "4375", body.Top[0].ID)
	assert.Equal(t, 1.459, body.Top[0].Price)
	assert.Contains(t, body.Maps.URL, "waypoints=")
}

func TestAnalyze_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	for name, body := range map[string]string{
		"malformed json": `{"demo": `,
		"radius":         `{"demo": true, "radius_km": 50}`,
		"radius zero":    `{"demo": true, "radius_km": 0}`,
		"top n":          `{"demo": true, "top_n": -2}`,
		"top n zero":     `{"demo": true, "top_n": 0}`,
		"fuel":           `{"demo": true, "fuel": "kerosene"}`,
		"segment":        `{"demo": true, "segment_km": -5}`,
		"no route":       `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/v1/analyze", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestAnalyzeRequest_Params(t *testing.T) {
	svc := services.NewAnalysisService(staticCatalog{}, nil, config.DefaultConfig())
	defaults := svc.DefaultParams()

	var omitted AnalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"demo": true}`), &omitted))
	p := omitted.Params(defaults)
	assert.Equal(t, defaults.Radius, p.Radius)
	assert.Equal(t, defaults.TopN, p.TopN)
	assert.Equal(t, defaults.Fuel, p.Fuel)
	assert.Equal(t, defaults.Vehicle, p.Vehicle)
	assert.True(t, p.Route.Demo)

	var given AnalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"radius_km": 0, "top_n": 0, "segment_km": 25, "vehicle": {"fuel_level": 0}}`), &given))
	p = given.Params(defaults)
	assert.Zero(t, p.Radius)
	assert.Zero(t, p.TopN)
	assert.Equal(t, 25.0, p.SegmentKm)
	assert.Zero(t, p.Vehicle.FuelLevel)
}

func TestRouter_AttachesLogger(t *testing.T) {
	h := NewHandler(services.NewAnalysisService(staticCatalog{}, nil, config.DefaultConfig()), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"demo": true}`))
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() { h.Router([]string{"*"}).ServeHTTP(rec, req) })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/v1/export/kml", `{"demo": true, "plan": ["4375"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", resp.Header.Get("Content-Type"))

	resp = post(t, srv.URL+"/api/v1/export/geojson", `{"demo": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc["type"])

	resp = post(t, srv.URL+"/api/v1/export/pdf", `{"demo": true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
