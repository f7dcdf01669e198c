package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazhibayda/blood-service/internal/log"
	"github.com/tazhibayda/blood-service/internal/metrics"
	"github.com/tazhibayda/blood-service/internal/repo"
)

const requestIDKey = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDKey, id)
		c.Next()
	}
}

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithDD(c.Request.Context(), log.L()).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Limiter is a per-key fixed-window request limiter.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type bucket struct {
	tokens  int
	updated time.Time
}

// MemoryLimiter keeps counters in-process; used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[key] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		b.updated = now
		return true
	}
	return false
}

// RedisLimiter shares the window counters across replicas.
type RedisLimiter struct {
	rds    *repo.Redis
	rate   int
	window time.Duration
}

func NewRedisLimiter(rds *repo.Redis, rate int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rds: rds, rate: rate, window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	n, err := rl.rds.IncrWindow(ctx, fmt.Sprintf("rl:%s", key), rl.window)
	if err != nil {
		// Redis недоступен — пропускаем, лимитер не должен ронять логин
		return true
	}
	return n <= int64(rl.rate)
}

func RateLimit(rl Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
