package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Rate limit bucket kinds.
const (
	KindAuth = "auth"
	KindAPI  = "api"
)

// RateLimitConfig holds per-minute limits for the gateway.
type RateLimitConfig struct {
	// AuthPerMin caps authentication attempts, successful or not.
	AuthPerMin int `yaml:"auth_per_min"`

	// APIPerMin caps authenticated API requests.
	APIPerMin int `yaml:"api_per_min"`
}

func (c *RateLimitConfig) defaults() {
	if c.AuthPerMin <= 0 {
		c.AuthPerMin = 30
	}
	if c.APIPerMin <= 0 {
		c.APIPerMin = 120
	}
}

// RateLimiter implements sliding window rate limiting. Each bucket keeps
// the timestamps of recent events within its window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter. Zero fields take defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg.defaults()
	return &RateLimiter{
		now: time.Now,
		buckets: map[string]*bucket{
			KindAuth: {window: time.Minute, limit: cfg.AuthPerMin},
			KindAPI:  {window: time.Minute, limit: cfg.APIPerMin},
		},
	}
}

// Allow records one event of kind, or returns ErrRateLimited when the
// bucket is full. Unknown kinds are never limited. A nil limiter allows
// everything.
func (rl *RateLimiter) Allow(kind string) error {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return nil
	}

	now := rl.now()
	b.evict(now)
	if len(b.events) >= b.limit {
		return ErrRateLimited
	}
	b.events = append(b.events, now)
	return nil
}

// evict drops events older than the window. Events are in time order.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
