package ratelimiter

import (
	"testing"
	"time"

	"github.com/inkwell-labs/inkwell/internal/config"
)

func TestFixedWindowLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 3,
		TimeFrame:            time.Minute,
		Enabled:              true,
	}, nil)

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := limiter.Allow("10.0.0.1")
	if allowed {
		t.Error("fourth request in the window should be rejected")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter = %v, want within (0, 1m]", retryAfter)
	}

	// Other clients have their own counters.
	if allowed, _ := limiter.Allow("10.0.0.2"); !allowed {
		t.Error("a different client should not be affected")
	}
}

func TestFixedWindowLimiterResets(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 1,
		TimeFrame:            10 * time.Millisecond,
		Enabled:              true,
	}, nil)

	if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := limiter.Allow("10.0.0.1"); allowed {
		t.Fatal("second request in the same window should be rejected")
	}

	time.Sleep(15 * time.Millisecond)

	if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
		t.Error("request after window rollover should be allowed")
	}
}
