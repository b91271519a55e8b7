package fares

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/delivery-fares/pkg/cache"
	"github.com/richxcame/delivery-fares/pkg/logger"
	"go.uber.org/zap"
)

// CachedConfigRepository keeps the active configuration in Redis.
// Redis failures never fail a request; they fall through to the inner store.
//
// Entries are keyed by a generation counter that Rotate bumps after the inner
// rotation commits. A reader that loaded the old configuration while a
// rotation was in flight writes it under the old generation, which no later
// reader looks up.
type CachedConfigRepository struct {
	inner  ConfigRepository
	cache  *cache.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedConfigRepository wraps inner with a Redis cache of the active configuration
func NewCachedConfigRepository(inner ConfigRepository, cache *cache.Manager, ttl time.Duration, log *zap.Logger) *CachedConfigRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedConfigRepository{inner: inner, cache: cache, ttl: ttl, logger: log}
}

var _ ConfigRepository = (*CachedConfigRepository)(nil)

// GetActive serves the active configuration from cache, loading it from the inner store on a miss
func (r *CachedConfigRepository) GetActive(ctx context.Context) (*FareConfiguration, error) {
	gen, err := r.cache.Generation(ctx, cache.Keys.ActiveFareConfigGeneration())
	if err != nil {
		configCacheRequests.WithLabelValues("error").Inc()
		logger.Enrich(ctx, r.logger).Warn("fare config cache generation read failed", zap.Error(err))
		return r.inner.GetActive(ctx)
	}
	key := cache.Keys.ActiveFareConfig(gen)

	var cached FareConfiguration
	err = r.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		configCacheRequests.WithLabelValues("hit").Inc()
		return &cached, nil
	case errors.Is(err, cache.ErrMiss):
		configCacheRequests.WithLabelValues("miss").Inc()
	default:
		configCacheRequests.WithLabelValues("error").Inc()
		logger.Enrich(ctx, r.logger).Warn("fare config cache read failed", zap.String("key", key), zap.Error(err))
	}

	cfg, err := r.inner.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, cfg, r.ttl); err != nil {
		logger.Enrich(ctx, r.logger).Warn("fare config cache write failed", zap.String("key", key), zap.Error(err))
	}
	return cfg, nil
}

// Rotate bumps the cache generation after the inner rotation commits
func (r *CachedConfigRepository) Rotate(ctx context.Context, cfg *FareConfiguration) (string, error) {
	id, err := r.inner.Rotate(ctx, cfg)
	if err != nil {
		return "", err
	}

	gen, err := r.cache.BumpGeneration(ctx, cache.Keys.ActiveFareConfigGeneration())
	if err != nil {
		logger.Enrich(ctx, r.logger).Error("fare config cache invalidation failed",
			zap.String("configuration_id", id), zap.Error(err))
		return id, nil
	}

	// superseded entry
	if err := r.cache.Delete(ctx, cache.Keys.ActiveFareConfig(gen-1)); err != nil {
		logger.Enrich(ctx, r.logger).Warn("fare config cache cleanup failed", zap.Int64("generation", gen-1), zap.Error(err))
	}
	return id, nil
}

// List reads history straight from the inner store
func (r *CachedConfigRepository) List(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	return r.inner.List(ctx, limit)
}
