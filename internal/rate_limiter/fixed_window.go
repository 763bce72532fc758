package ratelimiter

import (
	"sync"
	"time"

	"github.com/inkwell-labs/inkwell/internal/config"
	"go.uber.org/zap"
)

// FixedWindowRateLimiter counts requests per client within a fixed time
// window. Counters reset when the window rolls over.
type FixedWindowRateLimiter struct {
	sync.RWMutex
	cfg      config.RateLimiterConfig
	logger   *zap.SugaredLogger
	clients  map[string]int
	windowAt time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[string]int),
		windowAt: time.Now(),
	}
}

func (rl *FixedWindowRateLimiter) Enabled() bool {
	return rl.cfg.Enabled
}

// Allow reports whether the client may proceed, and if not, how long until
// the current window resets.
func (rl *FixedWindowRateLimiter) Allow(clientID string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := time.Now()
	if now.Sub(rl.windowAt) >= rl.cfg.TimeFrame {
		rl.clients = make(map[string]int)
		rl.windowAt = now
	}

	if rl.clients[clientID] >= rl.cfg.RequestsPerTimeFrame {
		retryAfter := rl.cfg.TimeFrame - now.Sub(rl.windowAt)
		rl.logger.Debugf("Rate limit exceeded for client: %s, retry after: %v", clientID, retryAfter)
		return false, retryAfter
	}

	rl.clients[clientID]++
	return true, 0
}
