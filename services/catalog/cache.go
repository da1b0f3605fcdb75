package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"salonbook/models"
	"salonbook/services/booking"
	"salonbook/utils"

	"go.uber.org/zap"
)

// Cache is the byte cache the catalog is kept in (Redis in production).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCatalog serves salon services and staff from the cache and falls
// back to the backend on a miss. Cache failures never fail a lookup.
type CachedCatalog struct {
	next   booking.Catalog
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedCatalog(next booking.Catalog, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = utils.DefaultCatalogCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, logger: logger}
}

func servicesKey(salonID string) string { return utils.CatalogCachePrefix + "services:" + salonID }
func staffKey(salonID string) string    { return utils.CatalogCachePrefix + "staff:" + salonID }

func (c *CachedCatalog) ListServices(ctx context.Context, sess models.Session, salonID string) ([]models.ServiceOffering, error) {
	key := servicesKey(salonID)
	var cached []models.ServiceOffering
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	services, err := c.next.ListServices(ctx, sess, salonID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, services)
	return services, nil
}

func (c *CachedCatalog) ListStaff(ctx context.Context, sess models.Session, salonID string) ([]models.StaffMember, error) {
	key := staffKey(salonID)
	var cached []models.StaffMember
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	staff, err := c.next.ListStaff(ctx, sess, salonID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, staff)
	return staff, nil
}

func (c *CachedCatalog) load(ctx context.Context, key string, out any) bool {
	b, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, utils.ErrCacheMiss) {
			c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Warn("catalog cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("catalog cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
