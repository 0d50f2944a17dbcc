package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces per-host politeness: a minimum delay between requests and
// an optional requests-per-second limit. A nil *Limiter never waits.
type Limiter struct {
	delay time.Duration
	rps   float64

	mu       sync.Mutex
	next     map[string]time.Time
	limiters map[string]*rate.Limiter
}

// NewLimiter returns a Limiter. delay <= 0 disables the delay and rps <= 0
// disables the rate limit. It returns nil when both are disabled.
func NewLimiter(delay time.Duration, rps float64) *Limiter {
	if delay <= 0 && rps <= 0 {
		return nil
	}
	return &Limiter{
		delay:    delay,
		rps:      rps,
		next:     make(map[string]time.Time),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return nil
	}
	host = strings.ToLower(host)

	var (
		sleep   time.Duration
		limiter *rate.Limiter
	)

	l.mu.Lock()
	if l.delay > 0 {
		// Reserve a slot so concurrent workers space out instead of all
		// waking at the same instant.
		now := time.Now()
		slot := l.next[host]
		if slot.Before(now) {
			slot = now
		}
		sleep = slot.Sub(now)
		l.next[host] = slot.Add(l.delay)
	}
	if l.rps > 0 {
		limiter = l.limiters[host]
		if limiter == nil {
			burst := int(l.rps)
			if burst < 1 {
				burst = 1
			}
			limiter = rate.NewLimiter(rate.Limit(l.rps), burst)
			l.limiters[host] = limiter
		}
	}
	l.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if limiter != nil {
		return limiter.Wait(ctx)
	}
	return nil
}

// WithMinDelay returns a limiter whose delay is at least d. l may be nil.
func (l *Limiter) WithMinDelay(d time.Duration) *Limiter {
	if d <= 0 {
		return l
	}
	if l == nil {
		return NewLimiter(d, 0)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.delay < d {
		l.delay = d
	}
	return l
}
