// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geofront/cogtune/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. The source of the value is logged for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			return defaultValue
		}
		lowerKey := strings.ToLower(key)
		if strings.Contains(lowerKey, "password") || strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "secret") {
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		} else {
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default, falling back on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseInt64 reads an int64 from an environment variable or returns the default.
func ParseInt64(key string, defaultValue int64) int64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int64("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseFloat reads a float64 from an environment variable or returns the default.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean from an environment variable or returns the
// default. It accepts "true", "false", "1", "0", "yes", "no" case-insensitively.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a Go duration (e.g. "5s") from an environment
// variable or returns the default.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

// mergeEnv applies COGTUNE_* environment variables on top of cfg.
func mergeEnv(cfg *AppConfig) {
	cfg.Listen = ParseString("COGTUNE_LISTEN", cfg.Listen)
	cfg.DataDir = ParseString("COGTUNE_DATA", cfg.DataDir)
	cfg.LogLevel = ParseString("COGTUNE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("COGTUNE_LOG_SERVICE", cfg.LogService)

	cfg.Profile = ParseString("COGTUNE_PROFILE", cfg.Profile)
	cfg.Tune = ParseBool("COGTUNE_TUNE", cfg.Tune)
	cfg.TuneMemoryFraction = ParseFloat("COGTUNE_TUNE_MEMORY_FRACTION", cfg.TuneMemoryFraction)
	cfg.TuneMaxCacheMB = ParseInt64("COGTUNE_TUNE_MAX_CACHE_MB", cfg.TuneMaxCacheMB)
	cfg.EnvFile = ParseString("COGTUNE_ENV_FILE", cfg.EnvFile)

	cfg.Scene.Bucket = ParseString("COGTUNE_SCENE_BUCKET", cfg.Scene.Bucket)
	cfg.Scene.PrefixTemplate = ParseString("COGTUNE_SCENE_PREFIX_TEMPLATE", cfg.Scene.PrefixTemplate)
	cfg.Scene.Scheme = ParseString("COGTUNE_SCENE_SCHEME", cfg.Scene.Scheme)
	cfg.Scene.MinZoom = ParseInt("COGTUNE_SCENE_MINZOOM", cfg.Scene.MinZoom)
	cfg.Scene.MaxZoom = ParseInt("COGTUNE_SCENE_MAXZOOM", cfg.Scene.MaxZoom)
	cfg.Scene.CacheTTL = ParseDuration("COGTUNE_SCENE_CACHE_TTL", cfg.Scene.CacheTTL)

	cfg.Upstream.Backend = ParseString("COGTUNE_UPSTREAM_BACKEND", cfg.Upstream.Backend)
	cfg.Upstream.Endpoint = ParseString("COGTUNE_UPSTREAM_ENDPOINT", cfg.Upstream.Endpoint)
	cfg.Upstream.Region = ParseString("COGTUNE_UPSTREAM_REGION", cfg.Upstream.Region)
	cfg.Upstream.Anonymous = ParseBool("COGTUNE_UPSTREAM_ANONYMOUS", cfg.Upstream.Anonymous)
	cfg.Upstream.RequestPayer = ParseBool("COGTUNE_UPSTREAM_REQUEST_PAYER", cfg.Upstream.RequestPayer)
	cfg.Upstream.RPS = ParseFloat("COGTUNE_UPSTREAM_RPS", cfg.Upstream.RPS)
	cfg.Upstream.Burst = ParseInt("COGTUNE_UPSTREAM_BURST", cfg.Upstream.Burst)

	cfg.Cache.Backend = ParseString("COGTUNE_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.RedisAddr = ParseString("COGTUNE_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ParseString("COGTUNE_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = ParseInt("COGTUNE_REDIS_DB", cfg.Cache.RedisDB)

	cfg.Probe.Timeout = ParseDuration("COGTUNE_PROBE_TIMEOUT", cfg.Probe.Timeout)
	cfg.Probe.IngestWindow = ParseInt64("COGTUNE_PROBE_INGEST_WINDOW", cfg.Probe.IngestWindow)
	cfg.Probe.InsecureTLS = ParseBool("COGTUNE_PROBE_INSECURE_TLS", cfg.Probe.InsecureTLS)
	cfg.Probe.HistoryMaxAge = ParseDuration("COGTUNE_PROBE_HISTORY_MAX_AGE", cfg.Probe.HistoryMaxAge)

	cfg.API.RateLimit = ParseInt("COGTUNE_API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.RateLimitWindow = ParseDuration("COGTUNE_API_RATE_LIMIT_WINDOW", cfg.API.RateLimitWindow)
	cfg.API.TracingEnabled = ParseBool("COGTUNE_TRACING", cfg.API.TracingEnabled)
}
