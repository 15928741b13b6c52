package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pricewise/internal/pkg/logger"
	"pricewise/internal/pkg/metrics"
	"pricewise/internal/pkg/redis"
	"pricewise/internal/service/pricing/domain"
)

// CachedCatalog 在任意 ProductCatalog 前加一层 Redis 读缓存。
// 缓存故障只降级为直接读源，不影响定价。
type CachedCatalog struct {
	inner domain.ProductCatalog
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedCatalog(inner domain.ProductCatalog, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, rdb: rdb, ttl: ttl}
}

func productCacheKey(productID string) string {
	return fmt.Sprintf("pricewise:product:{%s}", productID)
}

func (c *CachedCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	key := productCacheKey(productID)
	raw, err := c.rdb.GetClient().Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
		logger.Ctx(ctx).Warn().Str("key", key).Msg("dropping undecodable cache entry")
		c.rdb.GetClient().Del(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	p, err := c.inner.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(p); err == nil {
		if err := c.rdb.GetClient().Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return p, nil
}

// UpdatePrice 先写源再删缓存。
func (c *CachedCatalog) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error {
	if err := c.inner.UpdatePrice(ctx, productID, price); err != nil {
		return err
	}
	if err := c.rdb.GetClient().Del(ctx, productCacheKey(productID)).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product", productID).Msg("catalog cache invalidation failed")
	}
	return nil
}
