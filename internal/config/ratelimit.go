package config

import "time"

// RateLimitConfig drives the Redis token bucket placed in front of the
// unauthenticated auth routes (login, refresh).  Capacity is the bucket
// size; RefillTokens are added every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip | route | ip_route | ip_user_route
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads AUTH_RATE_LIMIT_* variables.  The defaults allow
// a burst of 10 attempts per client and route, refilled one every 6s.
func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("AUTH_RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("AUTH_RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("AUTH_RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("AUTH_RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("AUTH_RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("AUTH_RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("AUTH_RATE_LIMIT_PREFIX", "rl:auth"),
		Debug:          envBool("AUTH_RATE_LIMIT_DEBUG", false),
	}
	return def.normalized()
}

// normalized clamps values the Lua script cannot work with.
func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
