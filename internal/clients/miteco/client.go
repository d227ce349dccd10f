package miteco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/chane12/fuelroute/server/internal/cache"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// DefaultURL is the public MITECO price feed for road stations
const DefaultURL = "https://sedeaplicaciones.minetur.gob.es/ServiciosRESTCarburantes/PreciosCarburantes/EstacionesTerrestres/"

// DefaultTTL matches the hourly refresh of the upstream feed
const DefaultTTL = time.Hour

const cacheKey = "miteco:stations"

// ErrUnavailable is returned when neither the feed nor any proxy answered
var ErrUnavailable = errors.New("price catalog unavailable")

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Proxy is a pass-through service tried when the feed blocks the caller.
// Template holds one %s for the escaped feed URL. Wrapped proxies return
// the body as a string in a "contents" field.
type Proxy struct {
	Template string `yaml:"template" koanf:"template"`
	Wrapped  bool   `yaml:"wrapped" koanf:"wrapped"`
}

// DefaultProxies are tried in order after the direct request fails
var DefaultProxies = []Proxy{
	{Template: "https://corsproxy.io/?%s"},
	{Template: "https://api.allorigins.win/get?url=%s", Wrapped: true},
	{Template: "https://api.codetabs.com/v1/proxy?quest=%s"},
}

// Client downloads the national fuel price catalog
type Client struct {
	feedURL    string
	proxies    []Proxy
	httpClient HTTPDoer
	cache      *cache.Cache
	ttl        time.Duration
}

// Response is the feed envelope
type Response struct {
	Date    string           `json:"Fecha"`
	Records []map[string]any `json:"ListaEESSPrecio"`
	Note    string           `json:"Nota"`
	Result  string           `json:"ResultadoConsulta"`
}

// NewClient creates a client for the public feed with the default proxies
func NewClient(c *cache.Cache, timeout time.Duration) *Client {
	return NewClientWithHTTPDoer(DefaultURL, DefaultProxies, &http.Client{Timeout: timeout}, c)
}

// NewClientWithHTTPDoer creates a client with a custom transport, used by tests
func NewClientWithHTTPDoer(feedURL string, proxies []Proxy, doer HTTPDoer, c *cache.Cache) *Client {
	return &Client{
		feedURL:    feedURL,
		proxies:    proxies,
		httpClient: doer,
		cache:      c,
		ttl:        DefaultTTL,
	}
}

// SetTTL changes how long a downloaded catalog is served from cache
func (c *Client) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// FetchRecords returns the raw station records. A fresh cached copy is
// returned without a request; when every source fails a copy up to twice
// the TTL old is served instead.
func (c *Client) FetchRecords(ctx context.Context) ([]map[string]any, error) {
	if c.cache != nil {
		var cached Response
		if found, err := c.cache.Get(cacheKey, &cached); err == nil && found {
			return cached.Records, nil
		}
	}

	response, err := c.download(ctx)
	if err != nil {
		if c.cache != nil {
			var stale Response
			if entry, found, _ := c.cache.GetStale(cacheKey, &stale); found {
				logging.Warnw(ctx, "Price catalog refresh failed, serving stale copy",
					"error", err, "fetched_at", entry.CreatedAt)
				return stale.Records, nil
			}
		}
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, response, c.ttl, "miteco"); err != nil {
			logging.Warnw(ctx, "Failed to cache price catalog", "error", err)
		}
	}
	return response.Records, nil
}

// FetchCatalog downloads and normalizes the catalog
func (c *Client) FetchCatalog(ctx context.Context) (stations.Catalog, error) {
	records, err := c.FetchRecords(ctx)
	if err != nil {
		return stations.Catalog{}, err
	}
	return stations.Normalize(ctx, records), nil
}

// download tries the feed directly, then every proxy in order
func (c *Client) download(ctx context.Context) (*Response, error) {
	response, directErr := c.get(ctx, c.feedURL, false)
	if directErr == nil {
		logging.Infow(ctx, "Price catalog downloaded", "source", "direct", "records", len(response.Records))
		return response, nil
	}
	logging.Warnw(ctx, "Direct price catalog request failed, trying proxies", "error", directErr)

	lastErr := directErr
	for _, proxy := range c.proxies {
		target := fmt.Sprintf(proxy.Template, url.QueryEscape(c.feedURL))
		response, err := c.get(ctx, target, proxy.Wrapped)
		if err != nil {
			logging.Warnw(ctx, "Price catalog proxy failed", "proxy", proxyHost(target), "error", err)
			lastErr = err
			continue
		}
		logging.Infow(ctx, "Price catalog downloaded", "source", proxyHost(target), "records", len(response.Records))
		return response, nil
	}

	return nil, fmt.Errorf("%w: direct: %v; last: %v", ErrUnavailable, directErr, lastErr)
}

func (c *Client) get(ctx context.Context, target string, wrapped bool) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; fuelroute/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if wrapped {
		var envelope struct {
			Contents string `json:"contents"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode proxy envelope: %w", err)
		}
		body = []byte(envelope.Contents)
	}

	return decode(body)
}

func decode(body []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var response Response
	if err := dec.Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(response.Records) == 0 {
		return nil, fmt.Errorf("catalog returned no records (result %q)", response.Result)
	}
	return &response, nil
}

func proxyHost(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	return u.Host
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
