package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisclient "github.com/richxcame/delivery-fares/pkg/redis"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result.
// A missing key yields ErrMiss; any other error comes from redis or decoding.
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return ErrMiss
		}
		return err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	return m.redis.Delete(ctx, keys...)
}

// Generation reads a counter key; a missing key is generation 0
func (m *Manager) Generation(ctx context.Context, key string) (int64, error) {
	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return 0, nil
		}
		return 0, err
	}

	gen, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid generation %q: %w", data, err)
	}
	return gen, nil
}

// BumpGeneration advances a counter key and returns the new generation
func (m *Manager) BumpGeneration(ctx context.Context, key string) (int64, error) {
	return m.redis.Incr(ctx, key)
}

// CacheKeys defines cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

// ActiveFareConfigGeneration counts fare configuration rotations
func (k CacheKeys) ActiveFareConfigGeneration() string {
	return "fares:config:generation"
}

// ActiveFareConfig is the key holding the active fare configuration as of generation gen
func (k CacheKeys) ActiveFareConfig(gen int64) string {
	return fmt.Sprintf("fares:config:active:%d", gen)
}
