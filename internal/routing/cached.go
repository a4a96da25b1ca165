package routing

import (
	"context"
	"log/slog"

	"github.com/carnest/carnest-go/internal/cache"
	"github.com/carnest/carnest-go/internal/models"
)

// CachedResolver serves repeated lookups for the same coordinate pair from
// a route cache. Cache failures never fail the lookup.
type CachedResolver struct {
	next   Resolver
	cache  cache.RouteCache
	logger *slog.Logger
}

func NewCachedResolver(next Resolver, c cache.RouteCache, logger *slog.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: c, logger: logger}
}

func (r *CachedResolver) Resolve(ctx context.Context, origin, dest models.Coord) (*models.Route, error) {
	route, err := r.cache.GetRoute(ctx, origin, dest)
	if err != nil {
		r.logger.Warn("route cache read failed", slog.String("error", err.Error()))
	} else if route != nil {
		return route, nil
	}

	route, err = r.next.Resolve(ctx, origin, dest)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetRoute(ctx, origin, dest, route); err != nil {
		r.logger.Warn("route cache write failed", slog.String("error", err.Error()))
	}
	return route, nil
}
