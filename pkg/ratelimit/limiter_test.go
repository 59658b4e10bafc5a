package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiterStore_PerKey(t *testing.T) {
	store := NewLimiterStore(rate.Every(time.Hour), 1)

	assert.True(t, store.Allow("alice"))
	assert.False(t, store.Allow("alice"))
	assert.True(t, store.Allow("bob"), "keys have separate buckets")
	assert.Same(t, store.GetLimiter("alice"), store.GetLimiter("alice"))
}

func TestLimiterStore_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewLimiterStore(rate.Limit(1), 1)
	store.now = func() time.Time { return now }

	store.GetLimiter("old")
	now = now.Add(10 * time.Minute)
	store.GetLimiter("fresh")

	assert.Equal(t, 1, store.Cleanup(5*time.Minute))
	assert.Equal(t, 1, store.Len())
}
