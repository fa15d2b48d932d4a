// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/metrics"
)

// Manager holds the current configuration and swaps it atomically on
// reload. Readers always see a complete, validated config.
type Manager struct {
	loader  *Loader
	current atomic.Pointer[AppConfig]
	logger  zerolog.Logger

	// OnReload, if set, runs after a successful reload with the new config.
	OnReload func(*AppConfig)
}

// NewManager loads the initial configuration and wraps it for hot reload.
func NewManager(loader *Loader) (*Manager, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	m := &Manager{
		loader: loader,
		logger: log.WithComponent("config"),
	}
	m.current.Store(cfg)
	return m, nil
}

// Current returns the active configuration.
func (m *Manager) Current() *AppConfig {
	return m.current.Load()
}

// Reload re-runs the loader and swaps the config on success. A failed
// reload keeps the previous config active.
func (m *Manager) Reload(_ context.Context) error {
	cfg, err := m.loader.Load()
	if err != nil {
		metrics.IncConfigReload("failure")
		m.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("configuration reload failed, keeping previous config")
		return err
	}
	m.current.Store(cfg)
	metrics.IncConfigReload("success")
	m.logger.Info().
		Str("event", "config.reloaded").
		Str("profile", cfg.Profile).
		Msg("configuration reloaded")
	if m.OnReload != nil {
		m.OnReload(cfg)
	}
	return nil
}

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the configuration whenever the config file changes, until
// ctx is cancelled. It returns immediately if no file path is configured.
func (m *Manager) Watch(ctx context.Context) error {
	if m.loader.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.loader.path); err != nil {
		return fmt.Errorf("watch %s: %w", m.loader.path, err)
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
			// Atomic replaces (rename over the file) drop the watch on
			// some platforms; re-add so subsequent edits are seen.
			_ = watcher.Add(m.loader.path)
		case <-pending:
			_ = m.Reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn().
				Err(err).
				Str("event", "config.watch_error").
				Msg("config watcher error")
		}
	}
}
