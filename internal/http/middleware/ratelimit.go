package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// CostFunc returns how many tokens a request consumes.
type CostFunc func(*gin.Context) int

// KeyByUserOrIP keys buckets by the caller's user id ("user:<id>") and falls
// back to the client IP ("ip:<addr>") for the anonymous demo identity.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != demoUserID {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// CostByRoute charges cost tokens for requests matching method and the
// registered route template, and one token for everything else. Uploads parse
// and write a whole logbook in one transaction, so they are charged more than
// reads.
func CostByRoute(method, route string, cost int) CostFunc {
	return func(c *gin.Context) int {
		if c.Request.Method == method && c.FullPath() == route {
			return cost
		}
		return 1
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per identity. Idle buckets are
// evicted opportunistically every gcEvery lookups. Safe for concurrent use.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	keyFn  keyFunc
	costFn CostFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
	gcEvery  uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1). Every request costs one token until
// WithCost installs a CostFunc.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		gcEvery:  5000,
	}
}

// WithCost sets the per-request token cost and returns rl.
func (rl *RateLimiter) WithCost(fn CostFunc) *RateLimiter {
	rl.costFn = fn
	return rl
}

// cost bounds the request cost to [1, burst]; a cost above the bucket size
// could never be satisfied.
func (rl *RateLimiter) cost(c *gin.Context) int {
	n := 1
	if rl.costFn != nil {
		n = rl.costFn(c)
	}
	return min(max(n, 1), rl.burst)
}

// getVisitor returns the bucket for key. Eviction runs before the lookup so
// a stale bucket is dropped even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay of a completed import. Replays never touch the logbook tables and
// are not charged.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// retryAfter rounds the wait up to whole seconds, at least 1.
func retryAfter(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Handler enforces the limit. Denied requests get 429 with Retry-After set to
// when enough tokens for this request will be available, and the shared error
// envelope with code too_many_requests.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := time.Now()
		lim := rl.getVisitor(rl.keyFn(c), now)
		n := rl.cost(c)
		if lim.AllowN(now, n) {
			c.Next()
			return
		}

		wait := time.Second
		if r := lim.ReserveN(now, n); r.OK() {
			wait = r.DelayFrom(now)
			r.CancelAt(now)
		}
		c.Header("Retry-After", retryAfter(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
