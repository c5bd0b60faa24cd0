package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pos-system/internal/config"
)

// limiterScript refills the bucket by whole intervals, then takes one token.
// It returns {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits requests per key with a Redis-backed token bucket.
// It guards the unauthenticated auth routes against credential stuffing.
// Redis errors fail open: the request proceeds and the error is logged.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := takeToken(c, rdb, cfg, key, time.Now())
			if err != nil {
				c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(res.retryAfter) / float64(time.Second)))
			h.Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"retry_after": secs,
			})
		}
	}
}

var errUnexpectedReply = errors.New("unexpected limiter reply")

type bucketResult struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

func takeToken(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (bucketResult, error) {
	vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, errUnexpectedReply
	}
	return bucketResult{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// buildRateKey joins the prefix with the parts selected by KeyStrategy.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user_route":
		parts = append(parts, "ip", ip, "user", rateSubject(c), "route", route)
	default: // ip_route
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
