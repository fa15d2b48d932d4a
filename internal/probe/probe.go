// SPDX-License-Identifier: MIT

// Package probe checks what a remote COG endpoint is actually capable of
// (range requests, HTTP/2, cache validators) and turns the findings into
// GDAL tuning recommendations. It issues a handful of small HTTP requests;
// it does not read or decode raster data.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	"github.com/geofront/cogtune/internal/gdal"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/metrics"
)

// Status classifies a single check result.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one capability check outcome.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the full result of probing one URL.
type Report struct {
	URL         string            `json:"url"`
	CheckedAt   time.Time         `json:"checked_at"`
	DurationMS  int64             `json:"duration_ms"`
	Checks      []Check           `json:"checks"`
	Outcome     Status            `json:"outcome"`
	Recommended []gdal.Assignment `json:"recommended,omitempty"`
}

// RecommendedProfile wraps the recommendations as a profile overlay for
// merging onto a base profile.
func (r *Report) RecommendedProfile() *gdal.Profile {
	return &gdal.Profile{
		Name:        "probe:" + r.URL,
		Description: "overlay derived from endpoint capabilities",
		Vars:        append([]gdal.Assignment(nil), r.Recommended...),
	}
}

// Options configure the prober.
type Options struct {
	Timeout time.Duration // per-request timeout, default 10s
	// IngestWindow is the open window to verify, default 32768 bytes.
	IngestWindow int64
	// InsecureTLS skips certificate verification, for probing staging hosts.
	InsecureTLS bool
}

// Prober runs capability probes.
type Prober struct {
	client *http.Client
	opts   Options
	logger zerolog.Logger
}

// New builds a Prober whose transport attempts HTTP/2 so protocol
// negotiation can be observed.
func New(opts Options) (*Prober, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.IngestWindow <= 0 {
		opts.IngestWindow = 32768
	}

	tr := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}
	if opts.InsecureTLS {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- explicit opt-in
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return &Prober{
		client: &http.Client{Transport: tr, Timeout: opts.Timeout},
		opts:   opts,
		logger: log.WithComponent("probe"),
	}, nil
}

// Probe runs all capability checks against rawURL. A returned error means
// the probe itself could not run; endpoint shortcomings are reported in the
// Report, not as errors.
func (p *Prober) Probe(ctx context.Context, rawURL string) (*Report, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("probe needs an http(s) URL, got %q", rawURL)
	}

	start := time.Now()
	report := &Report{URL: rawURL, CheckedAt: start.UTC()}

	var rangeCheck, protoCheck, ingestCheck, validatorCheck, extCheck Check

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rangeCheck, protoCheck, validatorCheck = p.checkRangeAndProtocol(gctx, rawURL)
		return nil
	})
	g.Go(func() error {
		ingestCheck = p.checkIngestWindow(gctx, rawURL)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	extCheck = checkExtension(u)

	report.Checks = []Check{rangeCheck, protoCheck, ingestCheck, validatorCheck, extCheck}
	report.Outcome = overall(report.Checks)
	report.Recommended = recommend(report.Checks)
	report.DurationMS = time.Since(start).Milliseconds()

	metrics.IncProbe(string(report.Outcome))
	metrics.ObserveProbeDuration(time.Since(start))

	p.logger.Info().
		Str("event", "probe.completed").
		Str("url", rawURL).
		Str("outcome", string(report.Outcome)).
		Int64("duration_ms", report.DurationMS).
		Msg("probe completed")
	return report, nil
}

// checkRangeAndProtocol issues a 1-byte range request and inspects the
// response for range support, negotiated protocol and cache validators.
func (p *Prober) checkRangeAndProtocol(ctx context.Context, rawURL string) (rangeC, protoC, validatorC Check) {
	rangeC = Check{Name: "range-requests", Status: StatusFail}
	protoC = Check{Name: "http2", Status: StatusWarn, Detail: "could not determine protocol"}
	validatorC = Check{Name: "cache-validators", Status: StatusWarn, Detail: "no response"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		rangeC.Detail = err.Error()
		return
	}
	req.Header.Set("Range", "bytes=0-0")

	res, err := p.client.Do(req)
	if err != nil {
		rangeC.Detail = err.Error()
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1024))
		res.Body.Close()
	}()

	switch res.StatusCode {
	case http.StatusPartialContent:
		rangeC.Status = StatusPass
		rangeC.Detail = "server honors byte ranges"
	case http.StatusOK:
		rangeC.Detail = "server ignores Range and returns the full object"
	default:
		rangeC.Detail = fmt.Sprintf("unexpected status %d for range request", res.StatusCode)
	}

	if res.ProtoMajor >= 2 {
		protoC.Status = StatusPass
		protoC.Detail = res.Proto
	} else {
		protoC.Status = StatusWarn
		protoC.Detail = fmt.Sprintf("%s only; multiplexed range fetches are unavailable", res.Proto)
	}

	etag := res.Header.Get("ETag")
	lastMod := res.Header.Get("Last-Modified")
	switch {
	case etag != "" && lastMod != "":
		validatorC.Status = StatusPass
		validatorC.Detail = "ETag and Last-Modified present"
	case etag != "" || lastMod != "":
		validatorC.Status = StatusPass
		validatorC.Detail = "one cache validator present"
	default:
		validatorC.Status = StatusWarn
		validatorC.Detail = "no ETag or Last-Modified; VSI caching cannot revalidate"
	}
	return
}

// checkIngestWindow verifies the first GDAL_INGESTED_BYTES_AT_OPEN window
// comes back as a single partial response of the right size.
func (p *Prober) checkIngestWindow(ctx context.Context, rawURL string) Check {
	c := Check{Name: "ingest-window", Status: StatusFail}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", p.opts.IngestWindow-1))

	res, err := p.client.Do(req)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusPartialContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1024))
		c.Detail = fmt.Sprintf("expected 206 for header window, got %d", res.StatusCode)
		return c
	}

	n, err := io.Copy(io.Discard, io.LimitReader(res.Body, p.opts.IngestWindow+1))
	if err != nil {
		c.Detail = fmt.Sprintf("read header window: %v", err)
		return c
	}
	if n > p.opts.IngestWindow {
		c.Detail = "server returned more bytes than requested"
		return c
	}

	c.Status = StatusPass
	c.Detail = fmt.Sprintf("%d-byte header window served in one response", n)
	return c
}

// checkExtension flags URLs whose extension falls outside the usual COG
// allowlist, since CPL_VSIL_CURL_ALLOWED_EXTENSIONS would block them.
func checkExtension(u *url.URL) Check {
	c := Check{Name: "extension-allowlist", Status: StatusPass}
	path := strings.ToLower(u.Path)
	for _, ext := range []string{".tif", ".tiff"} {
		if strings.HasSuffix(path, ext) {
			c.Detail = "extension matches the recommended allowlist"
			return c
		}
	}
	c.Status = StatusWarn
	c.Detail = "extension not in .tif/.tiff; adjust CPL_VSIL_CURL_ALLOWED_EXTENSIONS"
	return c
}

func overall(checks []Check) Status {
	out := StatusPass
	for _, c := range checks {
		switch c.Status {
		case StatusFail:
			return StatusFail
		case StatusWarn:
			out = StatusWarn
		}
	}
	return out
}

// recommend maps check outcomes to profile adjustments.
func recommend(checks []Check) []gdal.Assignment {
	byName := make(map[string]Check, len(checks))
	for _, c := range checks {
		byName[c.Name] = c
	}

	var out []gdal.Assignment
	if c, ok := byName["http2"]; ok {
		if c.Status == StatusPass {
			out = append(out,
				gdal.Assignment{Name: "GDAL_HTTP_MULTIPLEX", Value: "YES"},
				gdal.Assignment{Name: "GDAL_HTTP_VERSION", Value: "2"},
			)
		} else {
			out = append(out,
				gdal.Assignment{Name: "GDAL_HTTP_MULTIPLEX", Value: "NO"},
				gdal.Assignment{Name: "GDAL_HTTP_VERSION", Value: "1.1"},
			)
		}
	}
	if c, ok := byName["range-requests"]; ok && c.Status == StatusPass {
		out = append(out, gdal.Assignment{Name: "GDAL_HTTP_MERGE_CONSECUTIVE_RANGES", Value: "YES"})
	}
	if c, ok := byName["cache-validators"]; ok && c.Status == StatusPass {
		out = append(out,
			gdal.Assignment{Name: "VSI_CACHE", Value: "TRUE"},
			gdal.Assignment{Name: "VSI_CACHE_SIZE", Value: "5000000"},
		)
	}
	return out
}
