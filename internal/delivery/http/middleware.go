package http

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/foodlens/backend/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// CORSMiddleware handles CORS for browser and extension clients
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list.
// Entries ending in "*" match by prefix.
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if strings.HasSuffix(allowed, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(allowed, "*")) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// RequestIDMiddleware tags each request with an id, reusing the client's when present
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.With(zap.String("component", "HTTP"))

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("requestID", c.GetString("requestID")),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// RecoveryMiddleware recovers from panics and logs them
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("requestID", c.GetString("requestID")))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "internal server error",
		})
	})
}

// ipLimiter is one client's token bucket
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP
type IPRateLimiter struct {
	perMinute   int
	burst       int
	idleTimeout time.Duration
	limiters    map[string]*ipLimiter
	lastCleanup time.Time
	mu          sync.Mutex
	now         func() time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst
func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		perMinute:   perMinute,
		burst:       burst,
		idleTimeout: 10 * time.Minute,
		limiters:    make(map[string]*ipLimiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether ip may make a request now and consumes a token if so
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > l.idleTimeout {
		l.cleanup(now)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		every := time.Minute / time.Duration(l.perMinute)
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(every), l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// cleanup drops limiters idle for longer than idleTimeout
func (l *IPRateLimiter) cleanup(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTimeout {
			delete(l.limiters, ip)
		}
	}
	l.lastCleanup = now
}

// size returns the number of tracked IPs
func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimitMiddleware rejects requests over the per-IP limit with 429
func RateLimitMiddleware(limiter *IPRateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.perMinute))

		if !limiter.Allow(ip) {
			logger.Warn("rate limit exceeded",
				zap.String("component", "HTTP"),
				zap.String("ip", ip),
				zap.Int("perMinute", limiter.perMinute))

			c.Header("Retry-After", "60")
			abortWithError(c, domain.ErrRateLimited)
			return
		}

		c.Next()
	}
}
