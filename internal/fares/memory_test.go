package fares

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConfigStore_EmptyHasNoActive(t *testing.T) {
	store := NewMemoryConfigStore()

	_, err := store.GetActive(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveConfiguration)
}

func TestMemoryConfigStore_Rotate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfigStore()
	t0 := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	first := DefaultFareConfiguration()
	first.CreatedAt, first.UpdatedAt = t0, t0
	firstID, err := store.Rotate(ctx, first)
	require.NoError(t, err)
	require.NotEmpty(t, firstID)

	second := DefaultFareConfiguration()
	second.BaseFarePerKm = 3500
	second.CreatedAt, second.UpdatedAt = t0.Add(time.Hour), t0.Add(time.Hour)
	secondID, err := store.Rotate(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, secondID, active.ID)
	assert.Equal(t, Amount(3500), active.BaseFarePerKm)
	assert.False(t, active.IsDefault)

	history, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, secondID, history[0].ID)
	assert.Equal(t, firstID, history[1].ID)
	assert.False(t, history[1].IsActive)
	assert.Equal(t, second.CreatedAt, history[1].UpdatedAt)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryConfigStore_ConcurrentRotationsLeaveOneActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfigStore()
	t0 := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := DefaultFareConfiguration()
			cfg.CreatedAt = t0.Add(time.Duration(i) * time.Minute)
			_, err := store.Rotate(ctx, cfg)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := store.List(ctx, MaxHistoryLimit)
	require.NoError(t, err)
	require.Len(t, history, 20)

	active := 0
	for _, c := range history {
		if c.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestMemoryConfigStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfigStore()
	_, err := store.Rotate(ctx, DefaultFareConfiguration())
	require.NoError(t, err)

	got, err := store.GetActive(ctx)
	require.NoError(t, err)
	got.BaseFarePerKm = 1

	again, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseFarePerKm, again.BaseFarePerKm)
}

func TestMemorySurgeRuleStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySurgeRuleStore()

	id, err := store.Create(ctx, &SurgePricingRule{
		Area:       "Kampala",
		Multiplier: 1.5,
		StartTime:  "17:00",
		EndTime:    "20:00",
		Days:       []string{"friday"},
		IsActive:   true,
	})
	require.NoError(t, err)

	rule, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Kampala", rule.Area)

	rule.Multiplier = 2
	require.NoError(t, store.Update(ctx, rule))

	rule, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rule.Multiplier)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSurgeRuleNotFound)

	assert.ErrorIs(t, store.Delete(ctx, id), ErrSurgeRuleNotFound)
	assert.ErrorIs(t, store.Update(ctx, &SurgePricingRule{ID: "missing"}), ErrSurgeRuleNotFound)
}

func TestMemorySurgeRuleStore_FindCandidates(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySurgeRuleStore()

	create := func(area string, days []string, active bool) string {
		id, err := store.Create(ctx, &SurgePricingRule{
			Area: area, Multiplier: 1.2, StartTime: "00:00", EndTime: "23:59", Days: days, IsActive: active,
		})
		require.NoError(t, err)
		return id
	}

	first := create("Kampala", []string{"friday"}, true)
	second := create("Kampala", []string{"friday", "saturday"}, true)
	create("Kampala", []string{"friday"}, false)
	create("Entebbe", []string{"friday"}, true)
	create("Kampala", []string{"monday"}, true)

	got, err := store.FindCandidates(ctx, "Kampala", "friday")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0].ID)
	assert.Equal(t, first, got[1].ID)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
