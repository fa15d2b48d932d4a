// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofront/cogtune/internal/config"
	"github.com/geofront/cogtune/internal/gdal"
)

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/cogtune.yaml", resolveConfigPath("/etc/cogtune.yaml"))

	dir := t.TempDir()
	t.Setenv("COGTUNE_DATA", dir)
	assert.Equal(t, "", resolveConfigPath(""), "no auto path before the file exists")

	auto := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(auto, []byte("profile: cog"), 0o644))
	assert.Equal(t, auto, resolveConfigPath(""))
}

func TestApplyTuning(t *testing.T) {
	snap := gdal.TakeSnapshot()
	t.Cleanup(func() { require.NoError(t, snap.Restore()) })

	cfg := config.Defaults()
	cfg.EnvFile = filepath.Join(t.TempDir(), "gdal.env")
	cfg.ProfileOverrides = map[string]string{"GDAL_CACHEMAX": "512"}

	p, err := applyTuning(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cog", p.Name)

	assert.Equal(t, "YES", os.Getenv("GDAL_HTTP_MULTIPLEX"))
	assert.Equal(t, "512", os.Getenv("GDAL_CACHEMAX"))

	data, err := os.ReadFile(cfg.EnvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GDAL_CACHEMAX=512")
}

func TestApplyTuning_WithOverlay(t *testing.T) {
	snap := gdal.TakeSnapshot()
	t.Cleanup(func() { require.NoError(t, snap.Restore()) })

	cfg := config.Defaults()
	cfg.Tune = true

	p, err := applyTuning(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cog", p.Name, "overlay keeps the base profile name")
	assert.NotEmpty(t, os.Getenv("GDAL_CACHEMAX"))
	assert.NotEmpty(t, os.Getenv("GDAL_NUM_THREADS"))
}

func TestBuildStore(t *testing.T) {
	cfg := config.Defaults()
	store, err := buildStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)

	cfg.Upstream.Backend = "http"
	cfg.Upstream.Endpoint = "https://example.com/stac"
	store, err = buildStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestBuildCache(t *testing.T) {
	cfg := config.Defaults()
	c, ping := buildCache(cfg)
	assert.NotNil(t, c)
	assert.Nil(t, ping)

	cfg.Cache.Backend = "none"
	c, ping = buildCache(cfg)
	assert.NotNil(t, c)
	assert.Nil(t, ping)
}