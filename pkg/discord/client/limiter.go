package client

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const (
	defaultRatePerSecond = 5
	defaultBurst         = 5
)

// limiterPool keeps one token bucket per channel for reaction calls.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = defaultRatePerSecond
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// Wait blocks until a call on key is allowed or ctx ends.
func (p *limiterPool) Wait(ctx context.Context, key string) error {
	return p.get(key).Wait(ctx)
}

// Reserved reports whether the next call on key would have to wait.
func (p *limiterPool) Reserved(key string) bool {
	return p.get(key).Tokens() < 1
}
