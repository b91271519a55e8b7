package fares

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/richxcame/delivery-fares/pkg/cache"
	"github.com/richxcame/delivery-fares/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCachedRepo(t *testing.T, inner ConfigRepository) (*CachedConfigRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedConfigRepository(inner, cache.NewManager(client), time.Minute, nil), mr
}

func storedConfig() *FareConfiguration {
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	cfg := DefaultFareConfiguration()
	cfg.ID = "cfg-1"
	cfg.IsDefault = false
	cfg.BaseFarePerKm = 3200
	cfg.CreatedAt, cfg.UpdatedAt = created, created
	return cfg
}

func TestCachedConfigRepository_MissThenHit(t *testing.T) {
	ctx := context.Background()
	inner := new(MockConfigRepository)
	inner.On("GetActive", mock.Anything).Return(storedConfig(), nil).Once()

	repo, mr := newCachedRepo(t, inner)
	key := cache.Keys.ActiveFareConfig(0)

	first, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", first.ID)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	second, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", second.ID)
	assert.Equal(t, Amount(3200), second.BaseFarePerKm)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	inner.AssertNumberOfCalls(t, "GetActive", 1)
}

func TestCachedConfigRepository_RotateInvalidates(t *testing.T) {
	ctx := context.Background()
	next := storedConfig()
	next.ID = ""

	inner := new(MockConfigRepository)
	inner.On("GetActive", mock.Anything).Return(storedConfig(), nil)
	inner.On("Rotate", mock.Anything, next).Return("cfg-2", nil)

	repo, mr := newCachedRepo(t, inner)
	key := cache.Keys.ActiveFareConfig(0)

	_, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	id, err := repo.Rotate(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "cfg-2", id)
	assert.False(t, mr.Exists(key))

	gen, err := mr.Get(cache.Keys.ActiveFareConfigGeneration())
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}

func TestCachedConfigRepository_RotationDuringMissIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	rotated := storedConfig()
	rotated.ID = "cfg-2"
	rotated.BaseFarePerKm = 4000

	inner := new(MockConfigRepository)
	var repo *CachedConfigRepository
	// The first load races a rotation: it returns the old row after the new one committed.
	inner.On("GetActive", mock.Anything).Run(func(mock.Arguments) {
		_, err := repo.Rotate(ctx, rotated)
		require.NoError(t, err)
	}).Return(storedConfig(), nil).Once()
	inner.On("GetActive", mock.Anything).Return(rotated, nil).Once()
	inner.On("Rotate", mock.Anything, rotated).Return("cfg-2", nil).Once()

	repo, _ = newCachedRepo(t, inner)

	stale, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", stale.ID)

	fresh, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cfg-2", fresh.ID)
	assert.Equal(t, Amount(4000), fresh.BaseFarePerKm)

	cached, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cfg-2", cached.ID)

	inner.AssertExpectations(t)
}

func TestCachedConfigRepository_RotateFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	inner := new(MockConfigRepository)
	inner.On("GetActive", mock.Anything).Return(storedConfig(), nil)
	inner.On("Rotate", mock.Anything, mock.Anything).Return("", errors.New("tx aborted"))

	repo, mr := newCachedRepo(t, inner)
	_, err := repo.GetActive(ctx)
	require.NoError(t, err)

	_, err = repo.Rotate(ctx, storedConfig())
	require.Error(t, err)
	assert.True(t, mr.Exists(cache.Keys.ActiveFareConfig(0)))
	assert.False(t, mr.Exists(cache.Keys.ActiveFareConfigGeneration()))
}

func TestCachedConfigRepository_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := new(MockConfigRepository)
	inner.On("GetActive", mock.Anything).Return(storedConfig(), nil).Twice()
	inner.On("Rotate", mock.Anything, mock.Anything).Return("cfg-2", nil)

	repo, mr := newCachedRepo(t, inner)
	mr.Close()

	for i := 0; i < 2; i++ {
		cfg, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "cfg-1", cfg.ID)
	}

	id, err := repo.Rotate(ctx, storedConfig())
	require.NoError(t, err)
	assert.Equal(t, "cfg-2", id)
	inner.AssertExpectations(t)
}

func TestCachedConfigRepository_EmptyStoreIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := new(MockConfigRepository)
	inner.On("GetActive", mock.Anything).Return(nil, ErrNoActiveConfiguration)

	repo, mr := newCachedRepo(t, inner)

	_, err := repo.GetActive(ctx)
	assert.ErrorIs(t, err, ErrNoActiveConfiguration)
	assert.False(t, mr.Exists(cache.Keys.ActiveFareConfig(0)))
}

func TestCachedConfigRepository_ListPassesThrough(t *testing.T) {
	inner := new(MockConfigRepository)
	inner.On("List", mock.Anything, 5).Return([]*FareConfiguration{storedConfig()}, nil)

	repo, _ := newCachedRepo(t, inner)
	got, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
