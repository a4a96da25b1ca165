package routing

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const quotaKey = "ratelimit:routing"

// Counter increments a windowed counter and returns the new count.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// QuotaResolver caps calls to the routing provider per window. When the
// counter store is unavailable the call is allowed.
type QuotaResolver struct {
	next    Resolver
	counter Counter
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

func NewQuotaResolver(next Resolver, counter Counter, limit int, window time.Duration, logger *slog.Logger) *QuotaResolver {
	return &QuotaResolver{
		next:    next,
		counter: counter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

func (q *QuotaResolver) Resolve(ctx context.Context, origin, dest models.Coord) (*models.Route, error) {
	count, err := q.counter.Incr(ctx, quotaKey, q.window)
	if err != nil {
		q.logger.Warn("route quota check failed, allowing request", slog.String("error", err.Error()))
		return q.next.Resolve(ctx, origin, dest)
	}

	if count > int64(q.limit) {
		return nil, &apperrors.RouteResolutionError{Status: "QuotaExceeded", Err: apperrors.ErrRouteQuotaExceeded}
	}
	return q.next.Resolve(ctx, origin, dest)
}

// RedisCounter is a fixed-window counter backed by INCR + EXPIRE.
type RedisCounter struct {
	redis *redis.Client
}

func NewRedisCounter(redisClient *redis.Client) *RedisCounter {
	return &RedisCounter{redis: redisClient}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.redis.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// LocalQuotaResolver enforces the routing quota in-process with a token
// bucket, for deployments without Redis.
type LocalQuotaResolver struct {
	next    Resolver
	limiter *rate.Limiter
}

func NewLocalQuotaResolver(next Resolver, perMinute int) *LocalQuotaResolver {
	return &LocalQuotaResolver{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (q *LocalQuotaResolver) Resolve(ctx context.Context, origin, dest models.Coord) (*models.Route, error) {
	if !q.limiter.Allow() {
		return nil, &apperrors.RouteResolutionError{Status: "QuotaExceeded", Err: apperrors.ErrRouteQuotaExceeded}
	}
	return q.next.Resolve(ctx, origin, dest)
}
