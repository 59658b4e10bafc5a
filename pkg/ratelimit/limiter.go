package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterStore hands out one token bucket per key, e.g. per Telegram user.
type LimiterStore struct {
	limiters map[string]*entry
	mu       sync.Mutex
	r        rate.Limit
	burst    int
	now      func() time.Time
}

func NewLimiterStore(r rate.Limit, burst int) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*entry),
		r:        r,
		burst:    burst,
		now:      time.Now,
	}
}

func (s *LimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.limiters[key]; exists {
		e.lastSeen = s.now()
		return e.limiter
	}
	limiter := rate.NewLimiter(s.r, s.burst)
	s.limiters[key] = &entry{limiter: limiter, lastSeen: s.now()}
	return limiter
}

// Allow reports whether key may act now, consuming a token if so.
func (s *LimiterStore) Allow(key string) bool {
	return s.GetLimiter(key).Allow()
}

// Cleanup drops limiters idle for longer than maxIdle and returns how many were removed.
func (s *LimiterStore) Cleanup(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-maxIdle)
	for key, e := range s.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(s.limiters, key)
			removed++
		}
	}
	return removed
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
