package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"learnhub/internal/config"
	"learnhub/internal/response"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles the public auth endpoints per client IP.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	retryAfter int
	idle       time.Duration
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(cfg config.RateLimitConfig, log zerolog.Logger) *RateLimiter {
	perMinute := cfg.AuthPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.AuthBurst
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      burst,
		retryAfter: int(math.Ceil(60.0 / float64(perMinute))),
		idle:       10 * time.Minute,
		log:        log,
		clients:    make(map[string]*clientLimiter),
		stopCh:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.get(ip).Allow() {
			c.Header("Retry-After", strconv.Itoa(rl.retryAfter))
			rl.log.Warn().Str("client_ip", ip).Str("path", c.FullPath()).Msg("rate limit exceeded")
			response.Abort(c, response.Response{Kind: response.KindTooManyRequests})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.clients[key]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: time.Now()}
	rl.clients[key] = cl
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.clients {
		if now.Sub(cl.lastAccess) > rl.idle {
			delete(rl.clients, key)
		}
	}
}
