package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dpup/prefab/logging"
	"golang.org/x/time/rate"

	"github.com/chane12/fuelroute/server/internal/cache"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
)

// Public service endpoints
const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	DefaultRouterURL    = "https://routing.openstreetmap.de/routed-car/route/v1/driving"
	DemoRouterURL       = "https://router.project-osrm.org/route/v1/driving"
)

// DefaultGeocodeInterval is the usage-policy limit of the public geocoder
const DefaultGeocodeInterval = time.Second

// Endpoint is one OSRM route service and the overview detail asked of it
type Endpoint struct {
	BaseURL  string `yaml:"base_url" koanf:"base_url"`
	Overview string `yaml:"overview" koanf:"overview"`
}

// DefaultEndpoints are tried in order: full geometry, simplified geometry
// for long routes that time out, then the demo server
var DefaultEndpoints = []Endpoint{
	{BaseURL: DefaultRouterURL, Overview: "full"},
	{BaseURL: DefaultRouterURL, Overview: "simplified"},
	{BaseURL: DemoRouterURL, Overview: "simplified"},
}

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves place names and fetches driving routes between them
type Client struct {
	nominatimURL string
	endpoints    []Endpoint
	httpClient   HTTPDoer
	geocodes     *cache.GeocodeCache
	userAgent    string
	limiter      atomic.Pointer[rate.Limiter]
}

// NewClient creates a client against the public services
func NewClient(geocodes *cache.GeocodeCache, timeout time.Duration) *Client {
	return NewClientWithHTTPDoer(DefaultNominatimURL, DefaultEndpoints, &http.Client{Timeout: timeout}, geocodes)
}

// NewClientWithHTTPDoer creates a client with explicit endpoints and transport
func NewClientWithHTTPDoer(nominatimURL string, endpoints []Endpoint, doer HTTPDoer, geocodes *cache.GeocodeCache) *Client {
	c := &Client{
		nominatimURL: nominatimURL,
		endpoints:    endpoints,
		httpClient:   doer,
		geocodes:     geocodes,
		userAgent:    "fuelroute/1.0 (+https://github.com/chane12/fuelroute)",
	}
	c.SetGeocodeInterval(DefaultGeocodeInterval)
	return c
}

// SetGeocodeInterval changes the minimum gap between geocoder requests.
// Zero or less removes the limit.
func (c *Client) SetGeocodeInterval(d time.Duration) {
	limit := rate.Inf
	if d > 0 {
		limit = rate.Every(d)
	}
	c.limiter.Store(rate.NewLimiter(limit, 1))
}

// Route geocodes both places and returns the first route any endpoint gives
func (c *Client) Route(ctx context.Context, origin, destination string) (*Result, error) {
	from, err := c.Geocode(ctx, origin)
	if err != nil {
		return nil, err
	}
	to, err := c.Geocode(ctx, destination)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, endpoint := range c.endpoints {
		result, err := c.fetchRoute(ctx, endpoint, from.Position, to.Position)
		if err != nil {
			logging.Warnw(ctx, "Route endpoint failed", "endpoint", endpoint.BaseURL, "overview", endpoint.Overview, "error", err)
			lastErr = err
			continue
		}
		result.Origin = *from
		result.Destination = *to
		logging.Infow(ctx, "Route fetched",
			"origin", origin, "destination", destination,
			"distance_km", result.Distance/1000, "points", len(result.Samples))
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no endpoints configured")
	}
	return nil, fmt.Errorf("%w from %q to %q: %v", ErrNoRoute, origin, destination, lastErr)
}

// Geocode resolves a place name, preferring the persistent cache
func (c *Client) Geocode(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &NoResultsError{Query: query}
	}

	if c.geocodes != nil {
		p, found, err := c.geocodes.Get(ctx, query)
		if err != nil {
			logging.Warnw(ctx, "Geocode cache read failed", "query", query, "error", err)
		} else if found {
			return &Place{Query: query, Position: p, Cached: true}, nil
		}
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResponse
	if err := c.getJSON(ctx, c.nominatimURL+"?"+q.Encode(), &results); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, &NoResultsError{Query: query}
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, fmt.Errorf("geocode %q: unparseable coordinates %q, %q", query, results[0].Lat, results[0].Lon)
	}
	position, err := geo.NewPoint(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	if c.geocodes != nil {
		if err := c.geocodes.Put(ctx, query, position); err != nil {
			logging.Warnw(ctx, "Geocode cache write failed", "query", query, "error", err)
		}
	}

	return &Place{Query: query, DisplayName: results[0].DisplayName, Position: position}, nil
}

func (c *Client) fetchRoute(ctx context.Context, endpoint Endpoint, from, to geo.Point) (*Result, error) {
	coords := fmt.Sprintf("%s,%s;%s,%s",
		strconv.FormatFloat(from.Longitude, 'f', 6, 64), strconv.FormatFloat(from.Latitude, 'f', 6, 64),
		strconv.FormatFloat(to.Longitude, 'f', 6, 64), strconv.FormatFloat(to.Latitude, 'f', 6, 64))

	q := url.Values{}
	q.Set("overview", endpoint.Overview)
	q.Set("geometries", "polyline")
	q.Set("alternatives", "false")
	q.Set("steps", "false")

	var response routeResponse
	if err := c.getJSON(ctx, strings.TrimRight(endpoint.BaseURL, "/")+"/"+coords+"?"+q.Encode(), &response); err != nil {
		return nil, err
	}
	if response.Code != "" && response.Code != "Ok" {
		return nil, fmt.Errorf("router returned %s: %s", response.Code, response.Message)
	}
	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("router returned no routes")
	}

	best := response.Routes[0]
	points, err := geo.DecodePolyline(best.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("route geometry has %d points", len(points))
	}

	return &Result{
		Samples:  route.SamplesFromPoints(points),
		Encoded:  best.Geometry,
		Distance: best.Distance,
		Duration: best.Duration,
		Endpoint: endpoint.BaseURL,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// wait blocks until the geocoder may be called again
func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Load().Wait(ctx)
}
