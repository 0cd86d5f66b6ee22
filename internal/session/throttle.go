package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Throttle limits login attempts per staff identifier. Limiters for idle
// identifiers expire from the cache after ttl.
type Throttle struct {
	mu      sync.Mutex
	cache   *cache.Cache
	limit   rate.Limit
	burst   int
	enabled bool
}

func NewThrottle(perMinute float64, burst int, ttl time.Duration) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		cache:   cache.New(ttl, 2*ttl),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		enabled: perMinute > 0,
	}
}

// Allow consumes one attempt for key.
func (t *Throttle) Allow(key string) bool {
	if t == nil || !t.enabled {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := t.cache.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(t.limit, t.burst)
	}
	t.cache.Set(key, limiter, cache.DefaultExpiration)
	return limiter.Allow()
}

// Reset forgets the attempts recorded for key.
func (t *Throttle) Reset(key string) {
	if t == nil {
		return
	}
	t.cache.Delete(key)
}
