package restapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiters hands out one token bucket per client IP. Entries idle longer
// than the prune interval are dropped so the map stays bounded.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	limit    rate.Limit
	burst    int
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterPruneAfter = 10 * time.Minute

func newIPLimiters(requestsPerMinute, burst int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*ipLimiterEntry),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	for key, other := range l.limiters {
		if now.Sub(other.lastSeen) > limiterPruneAfter {
			delete(l.limiters, key)
		}
	}
	return entry.limiter
}

// RateLimitMiddleware rejects callers that exceed the configured per-IP rate
// with 429. A non-positive rate disables the middleware.
func RateLimitMiddleware(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := newIPLimiters(requestsPerMinute, burst)

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
