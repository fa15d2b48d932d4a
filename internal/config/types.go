// SPDX-License-Identifier: MIT

// Package config loads and validates service configuration with the
// precedence ENV > file > defaults, and supports hot reload of the file.
package config

import "time"

// AppConfig is the full service configuration.
type AppConfig struct {
	// Listen is the admin API listen address.
	Listen string `yaml:"listen"`
	// DataDir is the writable state directory (probe history lives here).
	DataDir string `yaml:"data_dir"`

	LogLevel   string `yaml:"log_level"`
	LogService string `yaml:"log_service"`

	// Profile selects the GDAL tuning profile applied at startup.
	Profile string `yaml:"profile"`
	// ProfileOverrides are assignments overlaid on the selected profile.
	ProfileOverrides map[string]string `yaml:"profile_overrides"`
	// Tune derives cache sizes from host resources and overlays them.
	Tune bool `yaml:"tune"`
	// TuneMemoryFraction is the share of available RAM GDAL may use.
	TuneMemoryFraction float64 `yaml:"tune_memory_fraction"`
	// TuneMaxCacheMB caps the derived GDAL_CACHEMAX.
	TuneMaxCacheMB int64 `yaml:"tune_max_cache_mb"`
	// EnvFile, when set, receives the effective profile as a dotenv file.
	EnvFile string `yaml:"env_file"`

	Scene    SceneConfig    `yaml:"scene"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Probe    ProbeConfig    `yaml:"probe"`
	API      APIConfig      `yaml:"api"`

	// Version is injected by the build, not the config file.
	Version string `yaml:"-"`
}

// SceneConfig controls Sentinel-2 scene resolution.
type SceneConfig struct {
	Bucket         string        `yaml:"bucket"`
	PrefixTemplate string        `yaml:"prefix_template"`
	Scheme         string        `yaml:"scheme"`
	MinZoom        int           `yaml:"minzoom"`
	MaxZoom        int           `yaml:"maxzoom"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// UpstreamConfig controls how STAC items are fetched.
type UpstreamConfig struct {
	// Backend is "s3" or "http".
	Backend string `yaml:"backend"`
	// Endpoint is the base URL for the http backend.
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	// Anonymous disables S3 request signing.
	Anonymous bool `yaml:"anonymous"`
	// RequestPayer enables requester-pays access.
	RequestPayer bool    `yaml:"request_payer"`
	RPS          float64 `yaml:"rps"`
	Burst        int     `yaml:"burst"`
}

// CacheConfig selects the STAC item cache backend.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CleanupEvery  time.Duration `yaml:"cleanup_every"`
}

// ProbeConfig controls endpoint probing.
type ProbeConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	IngestWindow  int64         `yaml:"ingest_window"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	HistoryMaxAge time.Duration `yaml:"history_max_age"`
}

// APIConfig controls the admin HTTP server.
type APIConfig struct {
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	TracingEnabled  bool          `yaml:"tracing_enabled"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns the baseline configuration before file and environment
// merging.
func Defaults() *AppConfig {
	return &AppConfig{
		Listen:             ":8080",
		DataDir:            "/var/lib/cogtune",
		LogLevel:           "info",
		LogService:         "cogtune",
		Profile:            "cog",
		TuneMemoryFraction: 0.25,
		Scene: SceneConfig{
			MinZoom:  8,
			MaxZoom:  14,
			CacheTTL: 15 * time.Minute,
		},
		Upstream: UpstreamConfig{
			Backend:   "s3",
			Region:    "us-west-2",
			Anonymous: true,
			RPS:       10,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			CleanupEvery: time.Minute,
		},
		Probe: ProbeConfig{
			Timeout:       10 * time.Second,
			IngestWindow:  32768,
			HistoryMaxAge: 7 * 24 * time.Hour,
		},
		API: APIConfig{
			RateLimit:       60,
			RateLimitWindow: time.Minute,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
