package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/defibrain/advisory-engine/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const viewKeyPrefix = "dashboard:view"

// ViewCache stores serialized dashboard views in Redis with a short TTL so a
// restart or a second instance can serve a recent view without a ledger read.
// All failures degrade to a miss; the cache never blocks a refresh.
type ViewCache struct {
	redis  *RedisCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewViewCache creates a new view cache
func NewViewCache(redis *RedisCache, ttl time.Duration, logger *zap.Logger) *ViewCache {
	return &ViewCache{
		redis:  redis,
		ttl:    ttl,
		logger: logger.Named("viewcache"),
	}
}

// viewKey builds the cache key for an address
// Format: dashboard:view:<address>
func viewKey(address string) string {
	return viewKeyPrefix + ":" + strings.ToLower(address)
}

// GetView retrieves a cached view for the address. False means a miss, a
// decode failure, or an unreachable cache.
func (c *ViewCache) GetView(ctx context.Context, address string) (*service.DashboardView, bool) {
	data, err := c.redis.Get(ctx, viewKey(address))
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("view cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var view service.DashboardView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		c.logger.Warn("cached view decode failed, discarding", zap.Error(err))
		_ = c.redis.Del(ctx, viewKey(address))
		return nil, false
	}

	return &view, true
}

// SetView stores the view for the address with the configured TTL
func (c *ViewCache) SetView(ctx context.Context, address string, view *service.DashboardView) {
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("view encode failed, skipping cache write", zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, viewKey(address), data, c.ttl); err != nil {
		c.logger.Warn("view cache write failed", zap.Error(err))
	}
}
