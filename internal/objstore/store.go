// SPDX-License-Identifier: MIT

// Package objstore retrieves small objects (STAC items, scene manifests)
// from object storage. It is deliberately not a general VSI layer: raster
// bytes are GDAL's business, metadata documents are ours.
package objstore

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

var (
	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrUpstream indicates a non-retriable upstream failure.
	ErrUpstream = errors.New("upstream error")
)

// Store fetches whole objects by bucket and key.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Options configure backend behavior shared by implementations.
type Options struct {
	// RequestPayer enables requester-pays access on S3.
	RequestPayer bool
	// Anonymous disables request signing on S3.
	Anonymous bool
	// Region is the S3 region; empty falls back to the SDK's resolution.
	Region string
	// RPS limits upstream fetches per second; zero disables limiting.
	RPS float64
	// Burst is the limiter burst; zero defaults to max(1, RPS).
	Burst int
}

func (o Options) limiter() *rate.Limiter {
	if o.RPS <= 0 {
		return nil
	}
	burst := o.Burst
	if burst <= 0 {
		burst = int(o.RPS)
		if burst < 1 {
			burst = 1
		}
	}
	return rate.NewLimiter(rate.Limit(o.RPS), burst)
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
