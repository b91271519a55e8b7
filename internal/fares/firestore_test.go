package fares

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorClient connects to the Firestore emulator under a fresh project
// id so runs never share documents.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "demo-fares-"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFirestoreConfigStore_Rotate(t *testing.T) {
	ctx := context.Background()
	store := NewFirestoreConfigStore(newEmulatorClient(t))

	_, err := store.GetActive(ctx)
	require.ErrorIs(t, err, ErrNoActiveConfiguration)

	t0 := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	first := DefaultFareConfiguration()
	first.CreatedAt, first.UpdatedAt = t0, t0
	firstID, err := store.Rotate(ctx, first)
	require.NoError(t, err)

	second := DefaultFareConfiguration()
	second.BaseFarePerKm = 3400
	second.CreatedAt, second.UpdatedAt = t0.Add(time.Hour), t0.Add(time.Hour)
	secondID, err := store.Rotate(ctx, second)
	require.NoError(t, err)

	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, secondID, active.ID)
	assert.Equal(t, Amount(3400), active.BaseFarePerKm)

	history, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, firstID, history[1].ID)
	assert.False(t, history[1].IsActive)
}

func TestFirestoreSurgeRuleStore(t *testing.T) {
	ctx := context.Background()
	store := NewFirestoreSurgeRuleStore(newEmulatorClient(t))
	now := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

	id, err := store.Create(ctx, &SurgePricingRule{
		Area: "Kampala", Multiplier: 1.5, StartTime: "22:00", EndTime: "06:00",
		Days: []string{"friday"}, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	candidates, err := store.FindCandidates(ctx, "Kampala", "friday")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, id, candidates[0].ID)

	candidates, err = store.FindCandidates(ctx, "Kampala", "monday")
	require.NoError(t, err)
	assert.Empty(t, candidates)

	rule, err := store.Get(ctx, id)
	require.NoError(t, err)
	rule.Multiplier = 2
	require.NoError(t, store.Update(ctx, rule))

	rule, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rule.Multiplier)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSurgeRuleNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), ErrSurgeRuleNotFound)
	assert.ErrorIs(t, store.Update(ctx, rule), ErrSurgeRuleNotFound)
}
