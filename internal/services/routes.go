package services

import (
	"context"
	"errors"

	"github.com/dpup/prefab/logging"

	"github.com/chane12/fuelroute/server/internal/clients/osrm"
)

// RouteSources tries each source in order and returns the first route
type RouteSources []RouteSource

// Route implements RouteSource
func (r RouteSources) Route(ctx context.Context, origin, destination string) (*osrm.Result, error) {
	var errs []error
	for i, source := range r {
		result, err := source.Route(ctx, origin, destination)
		if err == nil {
			return result, nil
		}
		logging.Warnw(ctx, "Route source failed, trying next", "source", i, "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, osrm.ErrNoRoute
	}
	return nil, errors.Join(errs...)
}
