package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/consult-booking-backend/internal/metrics"
)

func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration, limiter string) {
	secs := int(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// memoryLimiter keeps one token bucket per client key. Buckets idle for longer than
// a full refill are dropped, since a fresh bucket behaves the same.
type memoryLimiter struct {
	limiters  sync.Map // map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

func newMemoryLimiter(rps float64, burst int) *memoryLimiter {
	idle := time.Minute
	if rps > 0 {
		if refill := time.Duration(float64(burst+1) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	m := &memoryLimiter{rps: rps, burst: burst, idle: idle, now: time.Now}
	m.lastSweep.Store(m.now().UnixNano())
	return m
}

func (m *memoryLimiter) allow(key string) bool {
	now := m.now()
	m.sweep(now)

	v, ok := m.limiters.Load(key)
	if !ok {
		v, _ = m.limiters.LoadOrStore(key, &limiterEntry{lim: rate.NewLimiter(rate.Limit(m.rps), m.burst)})
	}
	e := v.(*limiterEntry)
	e.lastSeen.Store(now.UnixNano())
	return e.lim.AllowN(now, 1)
}

// sweep evicts idle buckets at most once per idle interval.
func (m *memoryLimiter) sweep(now time.Time) {
	last := m.lastSweep.Load()
	if now.UnixNano()-last < int64(m.idle) || !m.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-m.idle).UnixNano()
	m.limiters.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			m.limiters.Delete(k)
		}
		return true
	})
}

func (m *memoryLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.allow(clientKey(c)) {
			retry := m.idle
			if m.rps > 0 {
				retry = time.Duration(float64(time.Second) / m.rps)
			}
			rejectRateLimited(c, retry, "memory")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// RateLimit returns a per-client token-bucket limiter kept in process memory.
// rps is the refill rate, burst the bucket size.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	return newMemoryLimiter(rps, burst).handler()
}

// redisLimiter counts requests per client in fixed windows aligned to the window size.
// Each window has its own key, so a key that missed its TTL never outlives its window.
type redisLimiter struct {
	client  *redis.Client
	window  time.Duration
	allowed int64
	logger  *zap.Logger
	now     func() time.Time
}

func newRedisLimiter(client *redis.Client, rps float64, burst int, window time.Duration, logger *zap.Logger) *redisLimiter {
	if window < time.Second {
		window = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisLimiter{
		client:  client,
		window:  window,
		allowed: int64(rps*window.Seconds()) + int64(burst),
		logger:  logger,
		now:     time.Now,
	}
}

func (l *redisLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := l.now()
		bucket := now.UnixNano() / int64(l.window)
		key := fmt.Sprintf("rl:booking:%s:%d", clientKey(c), bucket)

		cnt, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if cnt == 1 {
			if err := l.client.Expire(ctx, key, l.window+time.Second).Err(); err != nil {
				l.logger.Error("rate limit key has no expiry", zap.String("key", key), zap.Error(err))
			}
		}
		if cnt > l.allowed {
			windowEnd := time.Unix(0, (bucket+1)*int64(l.window))
			rejectRateLimited(c, windowEnd.Sub(now), "redis")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// RedisRateLimit shares a fixed-window counter per client across instances.
// A window admits floor(rps*window)+burst requests.
// When Redis is unreachable requests are let through.
func RedisRateLimit(client *redis.Client, rps float64, burst int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if client == nil {
		return RateLimit(rps, burst)
	}
	return newRedisLimiter(client, rps, burst, window, logger).handler()
}
