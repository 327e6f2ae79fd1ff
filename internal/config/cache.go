package config

import "time"

// CacheConfig defines settings for the response cache middleware used on
// the palco listing and grid endpoints. When Enabled is false or no
// Redis client is available, caching is disabled.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration // lifetime of cache entries
	Prefix       string        // key namespace
	MaxBodyBytes int           // responses larger than this are not cached
}

// LoadCacheConfig reads CACHE_* environment variables to build a
// CacheConfig. The short default TTL keeps grids fresh while still
// absorbing bursts from polling clients.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
