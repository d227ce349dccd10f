package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

// GeocodeCache persists place-name lookups in SQLite so repeated route
// requests do not hit the rate-limited geocoder. Keys are normalized with
// PlaceKey.
type GeocodeCache struct {
	DB *sql.DB
}

// OpenGeocodeCache opens (creating if needed) a SQLite database at path and
// prepares the cache table
func OpenGeocodeCache(ctx context.Context, path string) (*GeocodeCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify geocode cache %q: %w", path, err)
	}

	c := NewGeocodeCache(db)
	if err := c.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func NewGeocodeCache(db *sql.DB) *GeocodeCache {
	return &GeocodeCache{DB: db}
}

// InitSchema creates the cache table when missing
func (g *GeocodeCache) InitSchema(ctx context.Context) error {
	if g.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	_, err := g.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		place TEXT PRIMARY KEY,
		lon REAL NOT NULL,
		lat REAL NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("init geocode cache: create table: %w", err)
	}
	return nil
}

// Get returns the cached position for a place name
func (g *GeocodeCache) Get(ctx context.Context, place string) (geo.Point, bool, error) {
	if g.DB == nil {
		return geo.Point{}, false, errors.New("geocode cache: db is nil")
	}
	key := PlaceKey(place)
	if key == "" {
		return geo.Point{}, false, nil
	}

	var p geo.Point
	err := g.DB.QueryRowContext(ctx, `
	SELECT lon, lat
	FROM geocode_cache
	WHERE place = ?;
	`, key).Scan(&p.Longitude, &p.Latitude)
	if errors.Is(err, sql.ErrNoRows) {
		return geo.Point{}, false, nil
	}
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("get geocode cache place=%q: %w", key, err)
	}
	return p, true, nil
}

// Put stores or replaces the position for a place name
func (g *GeocodeCache) Put(ctx context.Context, place string, p geo.Point) error {
	if g.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	key := PlaceKey(place)
	if key == "" {
		return errors.New("insert geocode cache: empty place key")
	}

	_, err := g.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (place, lon, lat)
	VALUES (?, ?, ?);
	`, key, p.Longitude, p.Latitude)
	if err != nil {
		return fmt.Errorf("insert geocode cache place=%q: %w", key, err)
	}
	return nil
}

// Len returns the number of cached places
func (g *GeocodeCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := g.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count geocode cache: %w", err)
	}
	return n, nil
}

// Close releases the database
func (g *GeocodeCache) Close() error {
	if g.DB == nil {
		return nil
	}
	return g.DB.Close()
}

// PlaceKey normalizes a place name for lookup
func PlaceKey(place string) string {
	return strings.Join(strings.Fields(strings.ToLower(place)), " ")
}
