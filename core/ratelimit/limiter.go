package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a process-local sliding-window rate limiter keyed by identity.
// It is advisory: state lives in memory only and is lost on restart.
// Construct one per server and inject it, so tests can build isolated
// instances with a controlled clock.
type Limiter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

// New creates a limiter using the wall clock.
func New() *Limiter {
	return &Limiter{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// WithNow replaces the clock, for tests.
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check records an action for identity if allowed and reports the decision.
// At most limit actions may happen inside any window-sized interval. When
// denied, ResetAt is the instant the oldest counted action leaves the window.
func (l *Limiter) Check(identity string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-window)

	timestamps := l.hits[identity]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= limit {
		l.hits[identity] = valid
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   valid[0].Add(window),
		}
	}

	valid = append(valid, now)
	l.hits[identity] = valid

	return Result{
		Allowed:   true,
		Remaining: limit - len(valid),
		ResetAt:   now.Add(window),
	}
}
