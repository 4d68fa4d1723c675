package s3fs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dokanfs/pkg/dokan"
)

// Client is the subset of the S3 API the volume uses. *s3.Client
// implements it.
type Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

// NewClient builds an S3 client from opts.
//
// Static credentials are used when both keys are set, otherwise the default
// credential chain applies. A custom endpoint implies path-style
// addressing.
func NewClient(ctx context.Context, opts Options) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	if opts.Region != "" {
		configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle || opts.Endpoint != ""
	}), nil
}

// call runs one API request under the rate limiter and the per-request
// timeout, recording its latency.
func (fs *FS) call(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		fs.metrics.ObserveOperation(op, time.Since(start), err)
	}()

	ctx, cancel := context.WithTimeout(ctx, fs.opts.RequestTimeout)
	defer cancel()

	delayed, err := fs.limiter.Wait(ctx)
	if delayed {
		fs.metrics.RecordThrottled(op)
	}
	if err != nil {
		return err
	}
	return fn(ctx)
}

// request is call bound to the volume's lifetime.
func (fs *FS) request(op string, fn func(ctx context.Context) error) error {
	return fs.call(fs.ctx, op, fn)
}

// isNotFound reports whether err is a missing key or object.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// translate maps S3 errors onto statuses the driver understands.
func translate(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return dokan.StatusObjectNameNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("s3fs: %s %q: %w", op, key, err)
}
