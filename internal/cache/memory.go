package cache

import (
	"context"
	"sync"
	"time"

	"github.com/carnest/carnest-go/internal/models"
)

// MemoryRouteCache is an in-process RouteCache with a TTL, used when no
// Redis is configured. Expired entries are swept at most once per TTL on
// writes, so keys that are never read again do not accumulate.
type MemoryRouteCache struct {
	mu        sync.RWMutex
	store     map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	route *models.Route
	ts    time.Time
}

func NewMemoryRouteCache(ttl time.Duration) *MemoryRouteCache {
	return &MemoryRouteCache{
		store: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *MemoryRouteCache) GetRoute(_ context.Context, origin, dest models.Coord) (*models.Route, error) {
	k := RouteKey(origin, dest)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return nil, nil
	}
	return e.route, nil
}

func (c *MemoryRouteCache) SetRoute(_ context.Context, origin, dest models.Coord, route *models.Route) error {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
	}
	c.store[RouteKey(origin, dest)] = memoryEntry{route: route, ts: now}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryRouteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *MemoryRouteCache) sweepLocked(now time.Time) {
	for k, e := range c.store {
		if now.Sub(e.ts) > c.ttl {
			delete(c.store, k)
		}
	}
	c.lastSweep = now
}
