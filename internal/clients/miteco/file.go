package miteco

import (
	"context"
	"fmt"
	"os"

	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// FileSource reads a saved copy of the feed, for offline runs
type FileSource struct {
	Path string
}

// FetchCatalog reads and normalizes the saved feed
func (f FileSource) FetchCatalog(ctx context.Context) (stations.Catalog, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return stations.Catalog{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	response, err := decode(data)
	if err != nil {
		return stations.Catalog{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, f.Path, err)
	}
	return stations.Normalize(ctx, response.Records), nil
}
