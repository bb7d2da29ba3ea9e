package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in a fixed redis window.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// rateLimiterFromEnv builds the login limiter.
//
// Env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=30
//
// Returns nil when disabled or when redis is not configured.
func rateLimiterFromEnv(client *redis.Client) *RateLimiter {
	if !config.BoolFromEnv("RATE_LIMIT_ENABLED") || client == nil {
		return nil
	}
	limit := int64(config.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 30))
	if limit <= 0 {
		limit = 30
	}
	window := config.DurationFromEnv("RATE_LIMIT_WINDOW_SECONDS", time.Minute)
	return NewRateLimiter(client, "RateLimit:login:", limit, window)
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	if rl == nil || rl.client == nil {
		c.Next()
		return
	}
	key := rl.prefix + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		// fail open
		config.LogError(config.GetLogger(), "rateLimiter.go", "RateLimitMiddleware", "checking window", key, err)
		c.Next()
		return
	}

	if exists == 0 {
		if err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err(); err != nil {
			config.LogError(config.GetLogger(), "rateLimiter.go", "RateLimitMiddleware", "opening window", key, err)
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		config.LogError(config.GetLogger(), "rateLimiter.go", "RateLimitMiddleware", "counting request", key, err)
		c.Next()
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
