// SPDX-License-Identifier: MIT

package objstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStore_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sentinel-cogs/scenes/item.json":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, Options{})

	data, err := store.Get(context.Background(), "sentinel-cogs", "scenes/item.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	_, err = store.Get(context.Background(), "sentinel-cogs", "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, Options{})
	_, err := store.Get(context.Background(), "b", "k")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestHTTPStore_RateLimiterRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	// One request per hour with burst 1: the second Get must block and then
	// fail once the context is cancelled.
	store := NewHTTPStore(srv.URL, Options{RPS: 1.0 / 3600, Burst: 1})

	_, err := store.Get(context.Background(), "", "k")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Get(ctx, "", "k")
	assert.Error(t, err)
}
