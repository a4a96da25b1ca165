package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carnest/carnest-go/internal/models"
	"github.com/redis/go-redis/v9"
)

const routeKeyPrefix = "route:"

// RouteCache stores resolved routes keyed by their coordinate pair.
// A miss is reported as (nil, nil).
type RouteCache interface {
	GetRoute(ctx context.Context, origin, dest models.Coord) (*models.Route, error)
	SetRoute(ctx context.Context, origin, dest models.Coord, route *models.Route) error
}

type redisRouteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisRouteCache(redisClient *redis.Client, ttl time.Duration) RouteCache {
	return &redisRouteCache{redis: redisClient, ttl: ttl}
}

func (c *redisRouteCache) GetRoute(ctx context.Context, origin, dest models.Coord) (*models.Route, error) {
	data, err := c.redis.Get(ctx, routeKeyPrefix+RouteKey(origin, dest)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var route models.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

func (c *redisRouteCache) SetRoute(ctx context.Context, origin, dest models.Coord, route *models.Route) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, routeKeyPrefix+RouteKey(origin, dest), data, c.ttl).Err()
}

// RouteKey formats a coordinate pair at ~10cm precision.
func RouteKey(origin, dest models.Coord) string {
	return fmt.Sprintf("%.6f,%.6f->%.6f,%.6f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}
