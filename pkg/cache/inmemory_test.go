package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetAs(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("prices", []float64{1, 2, 3}, DefaultExpiration)
	c.Set("count", 3, DefaultExpiration)

	prices, ok := GetAs[[]float64](c, "prices")
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, prices)

	_, ok = GetAs[[]float64](c, "count")
	assert.False(t, ok, "wrong type must miss")

	_, ok = GetAs[int](c, "missing")
	assert.False(t, ok)
}

func TestCache_Expiration(t *testing.T) {
	c := NewCache(NoExpiration, time.Minute)
	c.Set("short", "v", 20*time.Millisecond)
	c.Set("long", "v", NoExpiration)

	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestCache_DeleteAndFlush(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("a", 1, DefaultExpiration)
	c.Set("b", 2, DefaultExpiration)
	assert.Equal(t, 2, c.ItemCount())

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Flush()
	assert.Equal(t, 0, c.ItemCount())
}

func TestNewCache_Independent(t *testing.T) {
	a := NewCache(time.Minute, time.Minute)
	b := NewCache(time.Minute, time.Minute)
	a.Set("k", 1, DefaultExpiration)

	_, ok := b.Get("k")
	assert.False(t, ok)
}
