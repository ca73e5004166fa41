package api

import (
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"credit-risk-workers/internal/common/errors"
)

// Option configures optional router middleware.
type Option func(*gin.Engine, *handlers)

// WithCORS allows browser calls from origins.
func WithCORS(origins []string) Option {
	return func(r *gin.Engine, _ *handlers) {
		if len(origins) == 0 {
			return
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
}

// WithRateLimit limits each client IP to perMinute requests, with a burst of
// half that (at least 5).
func WithRateLimit(perMinute int) Option {
	return func(r *gin.Engine, h *handlers) {
		if perMinute <= 0 {
			return
		}
		r.Use(newIPLimiter(perMinute).middleware(h))
	}
}

// limiterIdleTTL is how long a client's limiter survives without requests. At
// any configured rate a limiter refills its burst well within this window, so
// an evicted client starts over no better off than before.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	burst := perMinute / 2
	if burst < 5 {
		burst = 5
	}
	return &ipLimiter{
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		limiters:  make(map[string]*clientLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweep(now)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops limiters idle for limiterIdleTTL. Callers hold mu.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(l.limiters, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) middleware(h *handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			h.writeError(c, errors.NewRateLimitedError())
			return
		}
		c.Next()
	}
}
