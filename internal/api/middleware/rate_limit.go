package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/utils"
	"golang.org/x/time/rate"
)

// Throttle is a per-client token bucket allowing limit requests per window.
// Clients are keyed by authenticated user id, falling back to the client IP.
type Throttle struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewThrottle(limit int, window time.Duration) *Throttle {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	t := &Throttle{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go t.evictLoop()
	return t
}

func (t *Throttle) evictLoop() {
	tick := time.NewTicker(5 * time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tick.C:
			t.evictIdle()
		}
	}
}

// evictIdle drops clients that have been quiet for two windows; a fresh bucket
// is full anyway.
func (t *Throttle) evictIdle() {
	cutoff := t.now().Add(-2 * t.window)
	t.mu.Lock()
	for k, c := range t.clients {
		if c.lastSeen.Before(cutoff) {
			delete(t.clients, k)
		}
	}
	t.mu.Unlock()
}

func (t *Throttle) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[key]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(t.rate, t.burst)}
		t.clients[key] = c
	}
	c.lastSeen = t.now()
	return c.lim
}

func (t *Throttle) Allow(key string) bool {
	return t.limiter(key).AllowN(t.now(), 1)
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			if s, ok := v.(string); ok && s != "" {
				key = "user:" + s
			}
		}
		if !t.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(int(t.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apiError{
				Code:    utils.CodeRateLimited,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}
