package httpkit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
	now      func() time.Time
}

func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst, log: log, now: time.Now}
}

func (i *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	entry, ok := i.limiters.Load(ip)
	if !ok {
		fresh := &clientLimiter{limiter: rate.NewLimiter(i.rate, i.burst)}
		entry, _ = i.limiters.LoadOrStore(ip, fresh)
	}
	cl := entry.(*clientLimiter)
	cl.lastSeen.Store(i.now().UnixNano())
	return cl.limiter
}

// RateLimit rejects a client with 429 once its bucket is empty.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if i.limiterFor(ip).Allow() {
			c.Next()
			return
		}

		if i.log != nil {
			i.log.RateLimitExceeded(ip, c.Request.URL.Path)
		}
		c.Header("Retry-After", strconv.Itoa(i.retryAfterSeconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
	}
}

func (i *IPRateLimiter) retryAfterSeconds() int {
	if i.rate <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(i.rate)))
}

// Sweep drops the buckets of clients not seen for idle and returns how many went.
func (i *IPRateLimiter) Sweep(idle time.Duration) int {
	cutoff := i.now().Add(-idle).UnixNano()
	removed := 0
	i.limiters.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			i.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps idle buckets every interval until ctx is done.
func (i *IPRateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Sweep(idle)
		}
	}
}

// IntakeRateLimiter throttles the public submission endpoints.
type IntakeRateLimiter struct {
	*IPRateLimiter
}

// NewIntakeRateLimiter allows 30 submissions per minute per IP with a burst of 10.
func NewIntakeRateLimiter(log *logger.Logger) *IntakeRateLimiter {
	return &IntakeRateLimiter{
		IPRateLimiter: NewIPRateLimiter(rate.Limit(30.0/60.0), 10, log),
	}
}
