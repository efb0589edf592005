package web

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills one token per interval up to capacity and
// takes one. Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimitMiddleware limits login and register submissions per client IP
// and route. It passes everything through when Redis is not configured,
// the limit is disabled, or Redis fails.
func (s *WebServer) RateLimitMiddleware() gin.HandlerFunc {
	cfg := s.Config.RateLimit
	if !cfg.Enabled || s.redis == nil {
		return func(c *gin.Context) { c.Next() }
	}
	capacity := cfg.Capacity
	if capacity < 1 {
		capacity = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}
	ttl := int64(math.Ceil((time.Duration(capacity) * interval).Seconds()))
	if ttl < 1 {
		ttl = 1
	}

	return func(c *gin.Context) {
		key := s.rateLimitKey(c)
		vals, err := tokenBucketScript.Run(c.Request.Context(), s.redis, []string{key},
			time.Now().UnixMilli(), capacity, interval.Milliseconds(), ttl).Int64Slice()
		if err != nil || len(vals) != 3 {
			log.Printf("[WEB]: rate limit check for %s failed: %v", key, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))
		if vals[0] != 1 {
			secs := int(math.Ceil(float64(vals[2]) / 1000.0))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			if s.Config.Web.Debug {
				log.Printf("[WEB]: rate limited %s, retry in %ds", key, secs)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too_many_requests",
				"message":     "rate limit exceeded",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

func (s *WebServer) rateLimitKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	prefix := s.Config.Redis.Prefix
	if prefix == "" {
		prefix = "guweb"
	}
	route := c.Request.Method + " " + c.FullPath()
	return strings.Join([]string{prefix, "rl", "ip", ip, "route", route}, ":")
}
