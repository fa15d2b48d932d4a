// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cogServer serves a fake COG that honors byte ranges.
func cogServer(t *testing.T, size int, withValidators bool) *httptest.Server {
	t.Helper()
	body := make([]byte, size)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if withValidators {
			w.Header().Set("ETag", `"abc123"`)
			w.Header().Set("Last-Modified", "Wed, 19 Feb 2020 00:00:00 GMT")
		}
		rng := r.Header.Get("Range")
		if rng == "" {
			w.Header().Set("Content-Length", strconv.Itoa(size))
			_, _ = w.Write(body)
			return
		}
		var from, to int
		_, err := fmt.Sscanf(strings.TrimPrefix(rng, "bytes="), "%d-%d", &from, &to)
		require.NoError(t, err)
		if to >= size {
			to = size - 1
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, to, size))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[from : to+1])
	}))
}

func findCheck(t *testing.T, r *Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return Check{}
}

func recommended(r *Report, name string) (string, bool) {
	for _, a := range r.Recommended {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func TestProbe_RangeCapableServer(t *testing.T) {
	srv := cogServer(t, 1<<20, true)
	defer srv.Close()

	p, err := New(Options{})
	require.NoError(t, err)

	report, err := p.Probe(context.Background(), srv.URL+"/scene/B02.tif")
	require.NoError(t, err)

	assert.Equal(t, StatusPass, findCheck(t, report, "range-requests").Status)
	assert.Equal(t, StatusPass, findCheck(t, report, "ingest-window").Status)
	assert.Equal(t, StatusPass, findCheck(t, report, "cache-validators").Status)
	assert.Equal(t, StatusPass, findCheck(t, report, "extension-allowlist").Status)

	// httptest's default server is HTTP/1.1, so multiplexing is advised off.
	assert.Equal(t, StatusWarn, findCheck(t, report, "http2").Status)
	v, ok := recommended(report, "GDAL_HTTP_MULTIPLEX")
	require.True(t, ok)
	assert.Equal(t, "NO", v)
	v, ok = recommended(report, "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES")
	require.True(t, ok)
	assert.Equal(t, "YES", v)

	assert.Equal(t, StatusWarn, report.Outcome)
}

func TestProbe_NoRangeSupport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ignores Range entirely.
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	p, err := New(Options{})
	require.NoError(t, err)

	report, err := p.Probe(context.Background(), srv.URL+"/data.tif")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, findCheck(t, report, "range-requests").Status)
	assert.Equal(t, StatusFail, report.Outcome)
	_, ok := recommended(report, "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES")
	assert.False(t, ok, "no range merging advice for a server without range support")
}

func TestProbe_MissingValidators(t *testing.T) {
	srv := cogServer(t, 1<<20, false)
	defer srv.Close()

	p, err := New(Options{})
	require.NoError(t, err)

	report, err := p.Probe(context.Background(), srv.URL+"/b.tif")
	require.NoError(t, err)

	assert.Equal(t, StatusWarn, findCheck(t, report, "cache-validators").Status)
	_, ok := recommended(report, "VSI_CACHE")
	assert.False(t, ok)
}

func TestProbe_ExtensionWarning(t *testing.T) {
	srv := cogServer(t, 1<<20, true)
	defer srv.Close()

	p, err := New(Options{})
	require.NoError(t, err)

	report, err := p.Probe(context.Background(), srv.URL+"/scene.jp2")
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, findCheck(t, report, "extension-allowlist").Status)
}

func TestProbe_RejectsNonHTTP(t *testing.T) {
	p, err := New(Options{})
	require.NoError(t, err)

	_, err = p.Probe(context.Background(), "s3://bucket/key.tif")
	assert.Error(t, err)

	_, err = p.Probe(context.Background(), "://broken")
	assert.Error(t, err)
}

func TestProbe_UnreachableServerFailsChecksNotProbe(t *testing.T) {
	p, err := New(Options{})
	require.NoError(t, err)

	report, err := p.Probe(context.Background(), "http://127.0.0.1:1/x.tif")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, report.Outcome)
}

func TestRecommendedProfile(t *testing.T) {
	srv := cogServer(t, 1<<20, true)
	defer srv.Close()

	p, err := New(Options{})
	require.NoError(t, err)
	report, err := p.Probe(context.Background(), srv.URL+"/b.tif")
	require.NoError(t, err)

	overlay := report.RecommendedProfile()
	assert.NotEmpty(t, overlay.Vars)
	v, ok := overlay.Get("GDAL_HTTP_VERSION")
	require.True(t, ok)
	assert.Equal(t, "1.1", v)
}
