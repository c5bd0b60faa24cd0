package config

// Redis backs the auth rate limiter and the catalog response cache.  When
// the server cannot be reached at startup NewRedisClient returns nil and
// both middlewares pass requests through.

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for the shared Redis client.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	TLS         bool
	DialTimeout time.Duration
}

// LoadRedisConfig reads REDIS_* variables:
//
//	REDIS_ADDR               host:port shorthand
//	REDIS_HOST, REDIS_PORT   override REDIS_ADDR when both are set
//	REDIS_PASSWORD           optional
//	REDIS_DB                 database number (default 0)
//	REDIS_TLS                "true" or "1" enables TLS
//	REDIS_DIAL_TIMEOUT       ping timeout at startup (default 2s)
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envInt("REDIS_DB", 0),
		TLS:         envBool("REDIS_TLS", false),
		DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
	}
}

// NewRedisClient connects using cfg and pings the server.  It returns nil
// when the ping fails.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
