// SPDX-License-Identifier: MIT

package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/geofront/cogtune/internal/log"
)

// HTTPStore fetches objects from plain HTTP(S) object hosting, where the
// bucket is a base URL path segment and the key is the object path.
type HTTPStore struct {
	base    string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewHTTPStore builds a store rooted at base, e.g. "https://sentinel-cogs.s3.us-west-2.amazonaws.com".
func NewHTTPStore(base string, opts Options) *HTTPStore {
	return &HTTPStore{
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: opts.limiter(),
		logger:  log.WithComponent("objstore"),
	}
}

// Get downloads the object in full.
func (s *HTTPStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := waitLimiter(ctx, s.limiter); err != nil {
		return nil, err
	}

	u := s.base
	if bucket != "" {
		u += "/" + url.PathEscape(bucket)
	}
	for _, seg := range strings.Split(strings.TrimLeft(key, "/"), "/") {
		u += "/" + url.PathEscape(seg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUpstream, u, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, u, res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUpstream, u, err)
	}

	s.logger.Debug().
		Str("event", "objstore.fetched").
		Str("url", u).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("fetched object")
	return data, nil
}
