package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockIsUTC(t *testing.T) {
	now := SystemClock{}.Now(context.Background())
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)
	c := NewFixed(start)
	ctx := context.Background()

	assert.Equal(t, start, c.Now(ctx))

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now(ctx))

	other := time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC)
	c.Set(other)
	assert.Equal(t, other, c.Now(ctx))
}
