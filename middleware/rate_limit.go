package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// visitorStore keeps one limiter per client IP. Stale entries are swept
// inline whenever the cleanup interval has passed, so the store needs no
// background goroutine and each middleware instance owns its own state
type visitorStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time

	cfg RateLimiterConfig
}

func (s *visitorStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastSweep) > s.cfg.CleanupInterval {
		for ip, v := range s.visitors {
			if time.Since(v.lastSeen) > s.cfg.TTL {
				delete(s.visitors, ip)
			}
		}
		s.lastSweep = time.Now()
	}

	v, exists := s.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)
		s.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// RateLimiterMiddleware throttles requests per client IP. It guards the
// public auth endpoints against code-request floods and brute-forced
// verification attempts.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}

	store := &visitorStore{
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
		cfg:       config,
	}

	return func(c *gin.Context) {
		limiter := store.get(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}
