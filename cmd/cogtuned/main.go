// SPDX-License-Identifier: MIT

// cogtuned is the GDAL environment tuning daemon: it applies a tuning
// profile to its process environment, serves the admin API and probes
// remote COG endpoints on request. It doubles as a CLI for one-shot
// rendering, diffing and probing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geofront/cogtune/internal/api"
	"github.com/geofront/cogtune/internal/cache"
	"github.com/geofront/cogtune/internal/config"
	"github.com/geofront/cogtune/internal/gdal"
	"github.com/geofront/cogtune/internal/health"
	"github.com/geofront/cogtune/internal/history"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/metrics"
	"github.com/geofront/cogtune/internal/objstore"
	"github.com/geofront/cogtune/internal/probe"
	"github.com/geofront/cogtune/internal/sentinel"
	"github.com/geofront/cogtune/internal/tuner"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "config", "env", "doctor", "scene":
			os.Exit(runCLI(os.Args[1], os.Args[2:]))
		}
	}
	os.Exit(runDaemon(os.Args[1:]))
}

func runDaemon(args []string) int {
	configPath, err := parseDaemonFlags(args)
	if err != nil {
		return 2
	}

	// Safe defaults until config is loaded.
	log.Configure(log.Config{Level: "info", Service: "cogtune", Version: version})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectivePath := resolveConfigPath(configPath)

	mgr, err := config.NewManager(config.NewLoader(effectivePath, version))
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectivePath).
			Msg("failed to load configuration")
		return 1
	}
	cfg := mgr.Current()

	log.Configure(log.Config{Level: cfg.LogLevel, Service: cfg.LogService, Version: version})

	if effectivePath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectivePath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	applied, err := applyTuning(cfg)
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "profile.apply_failed").
			Str("profile", cfg.Profile).
			Msg("failed to apply GDAL profile")
		return 1
	}

	mgr.OnReload = func(next *config.AppConfig) {
		log.Configure(log.Config{Level: next.LogLevel, Service: next.LogService, Version: version})
		if _, err := applyTuning(next); err != nil {
			logger.Error().
				Err(err).
				Str("event", "profile.apply_failed").
				Str("profile", next.Profile).
				Msg("reloaded config but profile apply failed, environment unchanged")
		}
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.Listen).
		Str("profile", applied.Name).
		Int("vars", len(applied.Vars)).
		Msg("starting cogtuned")

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.data_dir_failed").
			Str("path", cfg.DataDir).
			Msg("data directory is not usable")
		return 1
	}

	itemCache, redisPing := buildCache(cfg)
	store, err := buildStore(cfg)
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.store_failed").
			Msg("failed to build upstream store")
		return 1
	}
	reader := sentinel.NewReader(store, itemCache, sentinel.ReaderOptions{
		Bucket:         cfg.Scene.Bucket,
		PrefixTemplate: cfg.Scene.PrefixTemplate,
		Scheme:         cfg.Scene.Scheme,
		CacheTTL:       cfg.Scene.CacheTTL,
		MinZoom:        cfg.Scene.MinZoom,
		MaxZoom:        cfg.Scene.MaxZoom,
	})

	prober, err := probe.New(probe.Options{
		Timeout:      cfg.Probe.Timeout,
		IngestWindow: cfg.Probe.IngestWindow,
		InsecureTLS:  cfg.Probe.InsecureTLS,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.prober_failed").
			Msg("failed to build prober")
		return 1
	}

	hist, err := history.Open(filepath.Join(cfg.DataDir, "history"))
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "startup.history_unavailable").
			Msg("probe history disabled")
		hist = nil
	} else {
		defer hist.Close()
	}

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewSupportDataChecker("gdal_data", os.Getenv("GDAL_DATA")))
	hm.RegisterChecker(health.NewSupportDataChecker("proj_lib", os.Getenv("PROJ_LIB")))
	hm.RegisterChecker(health.NewDataDirChecker(cfg.DataDir))
	if redisPing != nil {
		hm.RegisterChecker(health.NewPingChecker("redis", true, redisPing))
	}
	if hist != nil {
		hm.RegisterChecker(health.NewPingChecker("probe_history", true, probeStaleness(hist, cfg.Probe.HistoryMaxAge)))
	}

	server := api.New(api.Deps{
		Config:  mgr,
		Health:  hm,
		Prober:  prober,
		Reader:  reader,
		History: hist,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error {
		err := mgr.Watch(gctx)
		if err != nil && gctx.Err() == nil {
			logger.Warn().
				Err(err).
				Str("event", "config.watch_stopped").
				Msg("config watcher stopped")
		}
		return nil
	})
	if hist != nil {
		g.Go(func() error {
			pruneHistory(gctx, hist, cfg.Probe.HistoryMaxAge)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
		return 1
	}
	logger.Info().
		Str("event", "shutdown").
		Msg("cogtuned stopped")
	return 0
}

// resolveConfigPath prefers the --config flag and falls back to
// ${COGTUNE_DATA}/config.yaml when that file exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dataDir := strings.TrimSpace(os.Getenv("COGTUNE_DATA"))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func parseDaemonFlags(args []string) (string, error) {
	fs := newFlagSet("cogtuned")
	configPath := fs.String("config", "", "path to config file (YAML)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	return strings.TrimSpace(*configPath), nil
}

// applyTuning resolves the configured profile, overlays host-derived cache
// sizes when tuning is enabled, applies the result to the process
// environment and optionally renders it to the configured env file.
func applyTuning(cfg *config.AppConfig) (*gdal.Profile, error) {
	p, err := config.EffectiveProfile(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Tune {
		overlay := tuner.Recommend(tuner.Detect(), tuner.Options{
			MemoryFraction: cfg.TuneMemoryFraction,
			MaxCacheMB:     cfg.TuneMaxCacheMB,
		})
		merged := p.Merge(overlay)
		merged.Name = p.Name
		merged.Description = p.Description
		p = merged
	}

	if err := gdal.Apply(p); err != nil {
		return nil, err
	}
	metrics.RecordProfileApplied(p.Name, len(p.Vars))

	if cfg.EnvFile != "" {
		if err := gdal.WriteFile(cfg.EnvFile, p, gdal.FormatDotenv); err != nil {
			return nil, fmt.Errorf("write env file: %w", err)
		}
	}
	return p, nil
}

// buildCache returns the STAC item cache and, for Redis, a ping function
// for the readiness check.
func buildCache(cfg *config.AppConfig) (cache.Cache, func(context.Context) error) {
	logger := log.WithComponent("cache")
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "cache.redis_unavailable").
				Msg("falling back to in-memory cache")
			return cache.NewMemoryCache(cfg.Cache.CleanupEvery), nil
		}
		return rc, rc.HealthCheck
	case "none":
		return cache.NewNoOpCache(), nil
	default:
		return cache.NewMemoryCache(cfg.Cache.CleanupEvery), nil
	}
}

func buildStore(cfg *config.AppConfig) (objstore.Store, error) {
	opts := objstore.Options{
		Region:       cfg.Upstream.Region,
		Anonymous:    cfg.Upstream.Anonymous,
		RequestPayer: cfg.Upstream.RequestPayer,
		RPS:          cfg.Upstream.RPS,
		Burst:        cfg.Upstream.Burst,
	}
	if cfg.Upstream.Backend == "http" {
		return objstore.NewHTTPStore(cfg.Upstream.Endpoint, opts), nil
	}
	return objstore.NewS3Store(opts)
}

// probeStaleness reports when the newest stored probe is older than maxAge.
// An empty history is fine; operators may never use the doctor endpoint.
func probeStaleness(hist *history.Store, maxAge time.Duration) func(context.Context) error {
	return func(context.Context) error {
		last, err := hist.LastCheckedAt()
		if err != nil {
			return err
		}
		if last.IsZero() {
			return nil
		}
		if maxAge > 0 && time.Since(last) > maxAge {
			return fmt.Errorf("last probe was %s ago", time.Since(last).Round(time.Minute))
		}
		return nil
	}
}

// pruneHistory drops expired probe reports once an hour.
func pruneHistory(ctx context.Context, hist *history.Store, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	logger := log.WithComponent("history")
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := hist.Prune(maxAge)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("event", "history.prune_failed").
					Msg("history prune failed")
				continue
			}
			if n > 0 {
				logger.Info().
					Str("event", "history.pruned").
					Int("reports", n).
					Msg("pruned expired probe reports")
			}
		}
	}
}
