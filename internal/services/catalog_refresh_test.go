package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/stretchr/testify/assert"

	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

type countingSource struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (c *countingSource) FetchCatalog(ctx context.Context) (stations.Catalog, error) {
	c.calls.Add(1)
	if c.panic {
		panic("feed exploded")
	}
	if c.err != nil {
		return stations.Catalog{}, c.err
	}
	return stations.Catalog{Stations: make([]stations.Station, 3)}, nil
}

func TestCatalogRefresher_RefreshesUntilStopped(t *testing.T) {
	source := &countingSource{}
	r := NewCatalogRefresher(source, 10*time.Millisecond)

	ctx := logging.EnsureLogger(t.Context())
	r.Start(ctx)
	r.Start(ctx)
	assert.Eventually(t, func() bool { return source.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	r.Stop()
	status := r.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.Stations)
	assert.Empty(t, status.Error)

	stopped := source.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.LessOrEqual(t, source.calls.Load(), stopped+1)
}

func TestCatalogRefresher_RecordsFailures(t *testing.T) {
	source := &countingSource{err: errors.New("proxy timeout")}
	r := NewCatalogRefresher(source, time.Hour)

	r.Refresh(logging.EnsureLogger(t.Context()))
	status := r.Status()
	assert.Equal(t, "proxy timeout", status.Error)
	assert.Zero(t, status.Stations)
	assert.False(t, status.LastRefresh.IsZero())
}

func TestCatalogRefresher_StopsOnContextAndRecoversPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(logging.EnsureLogger(t.Context()))
	r := NewCatalogRefresher(&countingSource{}, 10*time.Millisecond)
	r.Start(ctx)
	cancel()
	assert.Eventually(t, func() bool { return !r.Status().Running }, time.Second, 5*time.Millisecond)

	panicky := NewCatalogRefresher(&countingSource{panic: true}, 10*time.Millisecond)
	panicky.Start(logging.EnsureLogger(t.Context()))
	assert.Eventually(t, func() bool { return !panicky.Status().Running }, time.Second, 5*time.Millisecond)
}

func TestCatalogRefresher_DisabledInterval(t *testing.T) {
	source := &countingSource{}
	r := NewCatalogRefresher(source, 0)
	r.Start(logging.EnsureLogger(t.Context()))
	assert.False(t, r.Status().Running)
	assert.Zero(t, source.calls.Load())
}

func TestCatalogRefresher_StartsWithoutLoggerInContext(t *testing.T) {
	source := &countingSource{}
	r := NewCatalogRefresher(source, 10*time.Millisecond)

	assert.NotPanics(t, func() { r.Start(context.Background()) })
	assert.Eventually(t, func() bool { return source.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	r.Stop()

	assert.NotPanics(t, func() { r.Refresh(context.Background()) })
}
