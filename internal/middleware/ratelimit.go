package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	RateLimitWindow      = 60 * time.Second
	RateLimitMaxRequests = 8
	limiterIdleTTL       = 10 * time.Minute
)

type RateLimitResult struct {
	Allowed     bool
	WaitSeconds int
}

type RateLimiter interface {
	Check(ip string) RateLimitResult
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter gives each client IP a token bucket refilling
// RateLimitMaxRequests tokens per RateLimitWindow. Idle buckets are pruned on
// access.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

func NewIPRateLimiter(perWindow int, window time.Duration) *IPRateLimiter {
	if perWindow <= 0 {
		perWindow = RateLimitMaxRequests
	}
	if window <= 0 {
		window = RateLimitWindow
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perWindow) / window.Seconds()),
		burst:    perWindow,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) Check(ip string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return RateLimitResult{Allowed: true}
	}
	r.CancelAt(now)
	wait := int(math.Ceil(delay.Seconds()))
	if wait < 1 {
		wait = 1
	}
	return RateLimitResult{Allowed: false, WaitSeconds: wait}
}

func (l *IPRateLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	l.lastPrune = now
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, ip)
		}
	}
}

func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		result := limiter.Check(clientIP)
		if !result.Allowed {
			traceID, _ := c.Get("trace_id")
			slog.Info("Rate limit triggered",
				"trace_id", traceID,
				"ip", clientIP,
				"wait_seconds", result.WaitSeconds,
			)
			c.Header("Retry-After", strconv.Itoa(result.WaitSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":        fmt.Sprintf("Rate limit reached. Please wait %d seconds before trying again.", result.WaitSeconds),
				"wait_seconds": result.WaitSeconds,
			})
			return
		}

		c.Next()
	}
}
