package config

import "time"

// RateLimitConfig drives the token-bucket limiter applied to the login
// endpoint. With Enabled false, or without a Redis client, the limiter
// is a pass-through.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size (burst)
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // refill cadence
	TTL            time.Duration // bucket key expiry in Redis
	Prefix         string        // key namespace
}

// LoadRateLimitConfig reads RATE_LIMIT_* environment variables with
// defaults tuned for credential endpoints: a burst of 10 attempts per
// client IP, refilling one token per 6 seconds.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
}

// envDur reads a duration variable (time.ParseDuration syntax), falling
// back to def when unset or unparseable.
func envDur(key string, def time.Duration) time.Duration {
	s := getenv(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
