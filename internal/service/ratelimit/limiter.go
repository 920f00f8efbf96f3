package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key: each key holds up to capacity
// tokens and regains refillPerSec tokens per second.
type Limiter struct {
	burst int
	limit rate.Limit
	now   func() time.Time

	mu sync.Mutex
	m  map[string]*rate.Limiter
}

func New(capacity, refillPerSec float64) *Limiter {
	burst := int(capacity)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		burst: burst,
		limit: rate.Limit(refillPerSec),
		now:   time.Now,
		m:     make(map[string]*rate.Limiter),
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.m[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.m[key] = lim
	}
	l.mu.Unlock()
	return lim.AllowN(l.now(), 1)
}
