// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManager_CurrentAndReload(t *testing.T) {
	path := writeConfig(t, `listen: ":9001"`)

	m, err := NewManager(NewLoader(path, "test"))
	require.NoError(t, err)
	assert.Equal(t, ":9001", m.Current().Listen)

	require.NoError(t, os.WriteFile(path, []byte(`listen: ":9002"`), 0o644))
	require.NoError(t, m.Reload(context.Background()))
	assert.Equal(t, ":9002", m.Current().Listen)
}

func TestManager_FailedReloadKeepsOldConfig(t *testing.T) {
	path := writeConfig(t, `listen: ":9001"`)

	m, err := NewManager(NewLoader(path, "test"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`profile: bogus`), 0o644))
	assert.Error(t, m.Reload(context.Background()))
	assert.Equal(t, ":9001", m.Current().Listen, "previous config stays active")
}

func TestManager_OnReloadHook(t *testing.T) {
	path := writeConfig(t, `listen: ":9001"`)

	m, err := NewManager(NewLoader(path, "test"))
	require.NoError(t, err)

	called := make(chan *AppConfig, 1)
	m.OnReload = func(cfg *AppConfig) { called <- cfg }

	require.NoError(t, m.Reload(context.Background()))
	select {
	case cfg := <-called:
		assert.Equal(t, ":9001", cfg.Listen)
	default:
		t.Fatal("OnReload was not called")
	}
}

func TestManager_WatchPicksUpChanges(t *testing.T) {
	path := writeConfig(t, `listen: ":9001"`)

	m, err := NewManager(NewLoader(path, "test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()

	require.NoError(t, os.WriteFile(path, []byte(`listen: ":9002"`), 0o644))

	assert.Eventually(t, func() bool {
		return m.Current().Listen == ":9002"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestManager_WatchNoFileReturns(t *testing.T) {
	m, err := NewManager(NewLoader("", "test"))
	require.NoError(t, err)
	assert.NoError(t, m.Watch(context.Background()))
}
