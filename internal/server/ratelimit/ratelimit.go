// Package ratelimit throttles expensive preview-server endpoints per client.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one token bucket per client and endpoint.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  *Config
	now     func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: true, IdleTTL: time.Hour, EndpointConfigs: DefaultEndpointConfigs(30)}
	}
	return &Limiter{
		entries: make(map[string]*entry),
		config:  config,
		now:     time.Now,
	}
}

// Allow reports whether a request from clientID to endpoint is allowed.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil || endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + ":" + endpointConfig.Method + ":" + endpointConfig.Path

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictIdle(now)
	e, ok := l.entries[key]
	if !ok {
		burst := endpointConfig.Burst
		if burst <= 0 {
			burst = endpointConfig.Limit
		}
		every := endpointConfig.Window / time.Duration(endpointConfig.Limit)
		e = &entry{limiter: rate.NewLimiter(rate.Every(every), burst)}
		l.entries[key] = e
	}
	e.lastAccess = now

	info := Info{Limit: endpointConfig.Limit}
	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}
	info.Allowed = true
	info.Remaining = int(math.Max(0, math.Floor(e.limiter.TokensAt(now))))
	return true, info
}

// evictIdle drops buckets unused for longer than IdleTTL. Callers hold l.mu.
func (l *Limiter) evictIdle(now time.Time) {
	if l.config.IdleTTL <= 0 {
		return
	}
	cutoff := now.Add(-l.config.IdleTTL)
	for key, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
