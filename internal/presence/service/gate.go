package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSubmissionWindow is the minimum spacing between check-in writes
// sharing a connection key.
const DefaultSubmissionWindow = 6 * time.Second

// SubmissionGate blunts rapid-fire resubmission: at most one allowed
// submission per key per window. Each key gets a single-token bucket that
// refills once per window, so Allow consumes the slot whether or not the
// surrounding operation succeeds — a tight client retry loop cannot earn
// extra attempts.
type SubmissionGate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	window   time.Duration
}

func NewSubmissionGate(window time.Duration) *SubmissionGate {
	if window <= 0 {
		window = DefaultSubmissionWindow
	}
	return &SubmissionGate{
		limiters: make(map[string]*rate.Limiter),
		window:   window,
	}
}

// Window reports the configured spacing, for client-facing wait hints.
func (g *SubmissionGate) Window() time.Duration { return g.window }

// Allow reports whether a submission for key may proceed now. The token is
// consumed under the lock, so a limiter in the table with a full bucket has
// necessarily been idle for at least one window.
func (g *SubmissionGate) Allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	limiter, ok := g.limiters[key]
	if !ok {
		// Sweep before inserting: the new limiter must never be eligible
		// for the same sweep that made room for it.
		g.maybeCleanupLocked()
		limiter = rate.NewLimiter(rate.Every(g.window), 1)
		g.limiters[key] = limiter
	}

	return limiter.Allow()
}

// maybeCleanupLocked drops idle limiters so one-off keys don't accumulate.
// A limiter holding its full burst has been idle for at least one window.
func (g *SubmissionGate) maybeCleanupLocked() {
	if len(g.limiters) < 1024 {
		return
	}
	for key, limiter := range g.limiters {
		if limiter.Tokens() >= 1 {
			delete(g.limiters, key)
		}
	}
}
