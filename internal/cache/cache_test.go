package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache() (*Cache, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache()
	c.now = clk.now
	return c, clk
}

func TestCache_FreshStaleVeryStale(t *testing.T) {
	c, clk := newTestCache()
	require.NoError(t, c.Set("catalog", []string{"a", "b"}, time.Hour, "miteco"))

	var got []string
	found, err := c.Get("catalog", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)

	clk.t = clk.t.Add(90 * time.Minute)
	assert.True(t, c.IsStale("catalog"))
	assert.False(t, c.IsVeryStale("catalog"))

	found, err = c.Get("catalog", &got)
	require.NoError(t, err)
	assert.False(t, found)

	var stale []string
	entry, found, err := c.GetStale("catalog", &stale)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "miteco", entry.Source)
	assert.Equal(t, []string{"a", "b"}, stale)

	clk.t = clk.t.Add(time.Hour)
	assert.True(t, c.IsVeryStale("catalog"))
	_, found, err = c.GetStale("catalog", &stale)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_StatsAndCleanup(t *testing.T) {
	c, clk := newTestCache()
	require.NoError(t, c.Set("short", 1, time.Minute, "test"))
	require.NoError(t, c.Set("long", 2, time.Hour, "test"))

	clk.t = clk.t.Add(5 * time.Minute)
	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, 1, stats.StaleEntries)

	assert.Equal(t, 1, c.CleanupStale())
	assert.True(t, c.IsStale("short"))
	assert.False(t, c.IsStale("long"))

	c.Delete("long")
	assert.True(t, c.IsStale("long"))

	require.NoError(t, c.Set("x", 1, time.Minute, "test"))
	c.Clear()
	assert.Zero(t, c.Stats().TotalEntries)
}

func TestCache_SetRejectsUnmarshalable(t *testing.T) {
	c := NewCache()
	assert.Error(t, c.Set("bad", make(chan int), time.Minute, "test"))
}

func TestGeocodeCache_RoundTrip(t *testing.T) {
	ctx := logging.EnsureLogger(t.Context())
	g, err := OpenGeocodeCache(ctx, filepath.Join(t.TempDir(), "geocode.db"))
	require.NoError(t, err)
	defer g.Close()

	_, found, err := g.Get(ctx, "Madrid")
	require.NoError(t, err)
	assert.False(t, found)

	madrid := geo.Point{Latitude: 40.4168, Longitude: -3.7038}
	require.NoError(t, g.Put(ctx, "  Madrid ", madrid))

	p, found, err := g.Get(ctx, "madrid")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, madrid, p)

	moved := geo.Point{Latitude: 40.42, Longitude: -3.70}
	require.NoError(t, g.Put(ctx, "MADRID", moved))
	p, _, err = g.Get(ctx, "Madrid")
	require.NoError(t, err)
	assert.Equal(t, moved, p)

	n, err := g.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, g.Put(ctx, "   ", madrid))
}

func TestGeocodeCache_ReopenKeepsEntries(t *testing.T) {
	ctx := logging.EnsureLogger(t.Context())
	path := filepath.Join(t.TempDir(), "geocode.db")

	g, err := OpenGeocodeCache(ctx, path)
	require.NoError(t, err)
	require.NoError(t, g.Put(ctx, "Miraflores de la Sierra", geo.Point{Latitude: 40.8136, Longitude: -3.7617}))
	require.NoError(t, g.Close())

	g, err = OpenGeocodeCache(ctx, path)
	require.NoError(t, err)
	defer g.Close()

	p, found, err := g.Get(ctx, "miraflores  de la sierra")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 40.8136, p.Latitude)
}

func TestPlaceKey(t *testing.T) {
	assert.Equal(t, "san sebastián de los reyes", PlaceKey("  San   Sebastián de los Reyes "))
	assert.Equal(t, "", PlaceKey("   "))
}

func TestCache_PeriodicCleanupWithoutLoggerInContext(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Set("catalog", "stations", time.Millisecond, "test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NotPanics(t, func() { c.StartPeriodicCleanup(ctx, 5*time.Millisecond) })
	assert.Eventually(t, func() bool { return c.Stats().TotalEntries == 0 }, time.Second, 5*time.Millisecond)
}
