package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/metrics"
	"golang.org/x/time/rate"
)

// RateLimit enforces a per-caller token bucket. Authenticated callers are keyed by subject,
// everyone else by client IP.
func RateLimit(name string, rps float64, burst int) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}
	var limiters sync.Map // map[string]*rate.Limiter

	limiterFor := func(key string) *rate.Limiter {
		if v, ok := limiters.Load(key); ok {
			return v.(*rate.Limiter)
		}
		v, _ := limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		return v.(*rate.Limiter)
	}

	return func(c *gin.Context) {
		if !limiterFor(rateLimitKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues(name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if v, ok := c.Get(claimsContextKey); ok {
		if claims, ok := v.(map[string]interface{}); ok {
			if sub, ok := claims["sub"].(string); ok && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
