package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/chane12/fuelroute/server/internal/clients/osrm"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
)

// DefaultBaseURL is the Google Routes API v2 host
const DefaultBaseURL = "https://routes.googleapis.com"

const fieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline," +
	"routes.legs.startLocation,routes.legs.endLocation"

// ErrMissingAPIKey is returned when the client has no key configured
var ErrMissingAPIKey = errors.New("google routes API key not configured")

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to Google Routes API v2. Places are sent as
// free-text addresses, so no separate geocoding step is needed.
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a new Google Routes API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, DefaultBaseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: doer,
		baseURL:    baseURL,
	}
}

// Route computes a driving route between two addresses. Traffic is not
// taken into account.
func (c *Client) Route(ctx context.Context, origin, destination string) (*osrm.Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	requestBody := map[string]any{
		"origin":            map[string]any{"address": origin},
		"destination":       map[string]any{"address": destination},
		"travelMode":        "DRIVE",
		"routingPreference": "TRAFFIC_UNAWARE",
		"languageCode":      "es-ES",
		"regionCode":        "es",
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/directions/v2:computeRoutes", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The API rejects requests without a field mask
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response RoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", osrm.ErrNoRoute, origin, destination)
	}

	result, err := processRoute(response.Routes[0], origin, destination)
	if err != nil {
		return nil, err
	}
	logging.Infow(ctx, "Google route computed",
		"origin", origin, "destination", destination, "distance", result.Distance, "points", len(result.Samples))
	return result, nil
}

// processRoute converts an API route into the common route result
func processRoute(r Route, origin, destination string) (*osrm.Result, error) {
	seconds, err := parseDuration(r.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	points, err := geo.DecodePolyline(r.Polyline.EncodedPolyline)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}

	result := &osrm.Result{
		Origin:      osrm.Place{Query: origin, Position: points[0]},
		Destination: osrm.Place{Query: destination, Position: points[len(points)-1]},
		Samples:     route.SamplesFromPoints(points),
		Encoded:     r.Polyline.EncodedPolyline,
		Distance:    float64(r.DistanceMeters),
		Duration:    float64(seconds),
		Endpoint:    "google",
	}
	if len(r.Legs) > 0 {
		result.Origin.Position = r.Legs[0].StartLocation.LatLng.point()
		result.Destination.Position = r.Legs[len(r.Legs)-1].EndLocation.LatLng.point()
	}
	return result, nil
}

// parseDuration parses Google's duration format like "450s" to seconds
func parseDuration(durationStr string) (int32, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if len(durationStr) > 1 && durationStr[len(durationStr)-1] == 's' {
		durationStr = durationStr[:len(durationStr)-1]
	}

	var seconds int32
	_, err := fmt.Sscanf(durationStr, "%d", &seconds)
	return seconds, err
}

// RoutesResponse represents the API response structure
type RoutesResponse struct {
	Routes []Route `json:"routes"`
}

// Route represents a single route in the response
type Route struct {
	Duration       string   `json:"duration"`
	DistanceMeters int32    `json:"distanceMeters"`
	Polyline       Polyline `json:"polyline"`
	Legs           []Leg    `json:"legs,omitempty"`
}

// Polyline represents the route polyline
type Polyline struct {
	EncodedPolyline string `json:"encodedPolyline"`
}

// Leg is one origin-to-destination stretch of a route
type Leg struct {
	StartLocation Location `json:"startLocation"`
	EndLocation   Location `json:"endLocation"`
}

// Location wraps a coordinate pair
type Location struct {
	LatLng LatLng `json:"latLng"`
}

// LatLng is a WGS84 coordinate pair
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l LatLng) point() geo.Point {
	return geo.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}
