package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{APIPerMin: 5})
	for i := range 5 {
		if err := rl.Allow(KindAPI); err != nil {
			t.Fatalf("Allow(%d) returned error: %v", i, err)
		}
	}
	if err := rl.Allow(KindAPI); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// Buckets are independent.
	if err := rl.Allow(KindAuth); err != nil {
		t.Fatalf("auth bucket affected: %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{AuthPerMin: 2})
	rl.now = func() time.Time { return now }

	_ = rl.Allow(KindAuth)
	_ = rl.Allow(KindAuth)
	if err := rl.Allow(KindAuth); !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected rate limit")
	}

	now = now.Add(61 * time.Second)
	if err := rl.Allow(KindAuth); err != nil {
		t.Fatalf("expected allow after window, got %v", err)
	}
}

func TestRateLimiter_UnknownKindAndNil(t *testing.T) {
	t.Parallel()

	if err := NewRateLimiter(RateLimitConfig{}).Allow("unknown"); err != nil {
		t.Fatalf("unknown kind: %v", err)
	}
	var rl *RateLimiter
	if err := rl.Allow(KindAPI); err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	if got := rl.buckets[KindAuth].limit; got != 30 {
		t.Errorf("auth limit = %d, want 30", got)
	}
	if got := rl.buckets[KindAPI].limit; got != 120 {
		t.Errorf("api limit = %d, want 120", got)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{APIPerMin: 50})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(KindAPI) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
