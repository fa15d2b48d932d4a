// SPDX-License-Identifier: MIT

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/geofront/cogtune/internal/log"
)

// S3Store fetches objects from S3 or an S3-compatible endpoint.
type S3Store struct {
	api     s3iface.S3API
	opts    Options
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewS3Store builds a store over the AWS SDK. Public datasets such as the
// Sentinel-2 COG archive need either anonymous access or requester-pays
// depending on the bucket.
func NewS3Store(opts Options) (*S3Store, error) {
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}
	if opts.Anonymous {
		cfg = cfg.WithCredentials(credentials.AnonymousCredentials)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return &S3Store{
		api:     s3.New(sess),
		opts:    opts,
		limiter: opts.limiter(),
		logger:  log.WithComponent("objstore"),
	}, nil
}

// Get downloads the object in full.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := waitLimiter(ctx, s.limiter); err != nil {
		return nil, err
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if s.opts.RequestPayer {
		in.RequestPayer = aws.String(s3.RequestPayerRequester)
	}

	start := time.Now()
	out, err := s.api.GetObjectWithContext(ctx, in)
	if err != nil {
		var ae awserr.Error
		if errors.As(err, &ae) {
			switch ae.Code() {
			case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
				return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
			}
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrUpstream, bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrUpstream, bucket, key, err)
	}

	s.logger.Debug().
		Str("event", "objstore.fetched").
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("fetched object")
	return data, nil
}
