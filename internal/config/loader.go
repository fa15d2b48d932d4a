// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/geofront/cogtune/internal/gdal"
)

var (
	// ErrValidation indicates a configuration that loaded but does not validate.
	ErrValidation = errors.New("invalid configuration")
)

// Loader loads configuration with the precedence ENV > file > defaults.
type Loader struct {
	path    string // optional YAML file
	version string
}

// NewLoader builds a loader. path may be empty to skip file loading.
func NewLoader(path, version string) *Loader {
	return &Loader{path: path, version: version}
}

// Load produces a validated AppConfig.
func (l *Loader) Load() (*AppConfig, error) {
	cfg := Defaults()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
		}
	}

	mergeEnv(cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency and the referenced GDAL profile.
func Validate(cfg *AppConfig) error {
	if cfg.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrValidation)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrValidation)
	}

	if _, err := gdal.ProfileByName(cfg.Profile); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for name, value := range cfg.ProfileOverrides {
		v, ok := gdal.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: profile override %q: %v", ErrValidation, name, gdal.ErrUnknownVariable)
		}
		if err := gdal.CheckValue(v, value); err != nil {
			return fmt.Errorf("%w: profile override %q: %v", ErrValidation, name, err)
		}
	}

	if cfg.TuneMemoryFraction <= 0 || cfg.TuneMemoryFraction > 1 {
		return fmt.Errorf("%w: tune_memory_fraction %v outside (0, 1]", ErrValidation, cfg.TuneMemoryFraction)
	}

	if cfg.Scene.MinZoom < 0 || cfg.Scene.MaxZoom > 24 || cfg.Scene.MinZoom > cfg.Scene.MaxZoom {
		return fmt.Errorf("%w: scene zoom range %d..%d", ErrValidation, cfg.Scene.MinZoom, cfg.Scene.MaxZoom)
	}

	switch cfg.Upstream.Backend {
	case "s3":
	case "http":
		if cfg.Upstream.Endpoint == "" {
			return fmt.Errorf("%w: upstream backend http needs an endpoint", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: upstream backend %q (want s3 or http)", ErrValidation, cfg.Upstream.Backend)
	}
	if cfg.Upstream.RPS < 0 {
		return fmt.Errorf("%w: upstream rps is negative", ErrValidation)
	}

	switch cfg.Cache.Backend {
	case "memory", "none":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache backend redis needs redis_addr", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: cache backend %q (want memory, redis or none)", ErrValidation, cfg.Cache.Backend)
	}

	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("%w: api rate_limit is negative", ErrValidation)
	}
	return nil
}

// EffectiveProfile resolves the configured profile with overrides applied.
// Tuning overlays are the caller's concern; this is pure resolution.
func EffectiveProfile(cfg *AppConfig) (*gdal.Profile, error) {
	p, err := gdal.ProfileByName(cfg.Profile)
	if err != nil {
		return nil, err
	}
	if len(cfg.ProfileOverrides) == 0 {
		return p, nil
	}
	overlay := &gdal.Profile{Name: "overrides"}
	// Map order is random; apply overrides through sorted registry order
	// for stable output.
	for _, v := range gdal.Variables() {
		if val, ok := cfg.ProfileOverrides[v.Name]; ok {
			overlay.Set(v.Name, val)
		}
	}
	merged := p.Merge(overlay)
	merged.Name = p.Name
	return merged, nil
}
