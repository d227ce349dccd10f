package services

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// CatalogRefresher fetches the price catalog on a timer so the data-source
// cache stays warm between analyses
type CatalogRefresher struct {
	source   CatalogSource
	interval time.Duration
	timeout  time.Duration

	mu          sync.Mutex
	stopChan    chan struct{}
	running     bool
	lastRefresh time.Time
	lastCount   int
	lastErr     error
}

// RefreshStatus reports the outcome of the latest refresh
type RefreshStatus struct {
	Running     bool      `json:"running"`
	LastRefresh time.Time `json:"last_refresh"`
	Stations    int       `json:"stations"`
	Error       string    `json:"error,omitempty"`
}

// NewCatalogRefresher creates a new CatalogRefresher
func NewCatalogRefresher(source CatalogSource, interval time.Duration) *CatalogRefresher {
	return &CatalogRefresher{
		source:   source,
		interval: interval,
		timeout:  2 * time.Minute,
	}
}

// Start begins refreshing every interval, with one refresh right away
func (r *CatalogRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.interval <= 0 {
		return
	}

	ctx = logging.EnsureLogger(ctx)
	r.running = true
	r.stopChan = make(chan struct{})
	logging.Infow(ctx, "Catalog refresh: starting", "interval", r.interval)
	go r.refreshLoop(ctx, r.stopChan)
}

// Stop ends the background refresh
func (r *CatalogRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.stopChan)
}

// Status returns the latest refresh outcome
func (r *CatalogRefresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := RefreshStatus{
		Running:     r.running,
		LastRefresh: r.lastRefresh,
		Stations:    r.lastCount,
	}
	if r.lastErr != nil {
		status.Error = r.lastErr.Error()
	}
	return status
}

func (r *CatalogRefresher) refreshLoop(ctx context.Context, stop <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			err, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "Catalog refresh: recovered from panic",
				"error", rec, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Infow(ctx, "Catalog refresh: stopping, context done")
			r.mu.Lock()
			if r.stopChan == stop {
				r.running = false
			}
			r.mu.Unlock()
			return
		case <-stop:
			logging.Infow(ctx, "Catalog refresh: stopped")
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh fetches the catalog once
func (r *CatalogRefresher) Refresh(ctx context.Context) {
	ctx = logging.EnsureLogger(ctx)
	refreshCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	catalog, err := r.source.FetchCatalog(refreshCtx)

	r.mu.Lock()
	r.lastRefresh = time.Now()
	r.lastErr = err
	if err == nil {
		r.lastCount = len(catalog.Stations)
	}
	r.mu.Unlock()

	if err != nil {
		logging.Errorw(ctx, "Catalog refresh failed", "error", err)
		return
	}
	logging.Infow(ctx, "Catalog refresh: done", "stations", len(catalog.Stations), "skipped", len(catalog.Skipped))
}
