// Package s3fs exposes an S3 bucket as a read-only dokan.FileSystem.
//
// Object keys map to paths by replacing "/" with "\" under an optional key
// prefix. Directories are implicit: a path is a directory when objects
// exist below "<key>/", which is how ListObjectsV2 reports them through
// CommonPrefixes. Zero-byte "<key>/" marker objects are hidden from
// listings.
//
// S3 Characteristics:
//   - Keys are case-sensitive, so the volume advertises case-sensitive search
//   - Reads use byte-range GetObject requests; nothing is cached locally
//   - Every API call waits on a shared token-bucket rate limiter
//
// Every operation that would change the bucket fails with
// StatusMediaWriteProtected.
package s3fs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dokanfs/internal/logger"
	"github.com/marmos91/dokanfs/internal/ratelimiter"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/metrics"
)

// Options configures an S3 backed volume.
type Options struct {
	Bucket string `mapstructure:"bucket" validate:"required"`
	// Prefix restricts the volume to keys below it.
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
	// Endpoint selects an S3-compatible service (MinIO, Localstack, ...).
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	MaxRetries      int    `mapstructure:"max_retries" validate:"gte=0"`

	// RequestsPerSecond limits API calls, 0 means unlimited.
	RequestsPerSecond uint `mapstructure:"requests_per_second"`
	Burst             uint `mapstructure:"burst"`
	// RequestTimeout bounds each API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	VolumeName   string `mapstructure:"volume_name"`
	SerialNumber uint32 `mapstructure:"serial_number"`
	// ReportedSize is the volume size shown to callers.
	ReportedSize uint64 `mapstructure:"reported_size"`

	// Client overrides the client built from the fields above.
	Client Client `mapstructure:"-"`
	// Metrics is optional.
	Metrics metrics.S3Metrics `mapstructure:"-"`
}

// Defaults for zero-valued options.
const (
	DefaultVolumeName     = "S3"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 10
	DefaultReportedSize   = 1 << 40
)

// FS is a read-only view of a bucket.
type FS struct {
	dokan.NotImplementedFileSystem

	client  Client
	bucket  string
	prefix  string
	opts    Options
	limiter *ratelimiter.RateLimiter
	metrics metrics.S3Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// mountTime stands in for the timestamps of implicit directories.
	mountTime time.Time
}

var _ dokan.FileSystem = (*FS)(nil)

// New creates the volume and checks that the bucket can be listed.
func New(ctx context.Context, opts Options) (*FS, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3fs: bucket is required")
	}
	if opts.VolumeName == "" {
		opts.VolumeName = DefaultVolumeName
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.ReportedSize == 0 {
		opts.ReportedSize = DefaultReportedSize
	}
	if opts.SerialNumber == 0 {
		opts.SerialNumber = 0x53334653
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopS3Metrics()
	}
	if opts.Client == nil {
		client, err := NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		opts.Client = client
	}

	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	base, cancel := context.WithCancel(context.Background())
	fs := &FS{
		client:    opts.Client,
		bucket:    opts.Bucket,
		prefix:    prefix,
		opts:      opts,
		limiter:   ratelimiter.New(opts.RequestsPerSecond, opts.Burst),
		metrics:   opts.Metrics,
		ctx:       base,
		cancel:    cancel,
		mountTime: time.Now(),
	}

	err := fs.call(ctx, "ListObjectsV2", func(ctx context.Context) error {
		_, err := fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(fs.bucket),
			Prefix:  aws.String(fs.prefix),
			MaxKeys: aws.Int32(1),
		})
		return err
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to access bucket %q: %w", opts.Bucket, err)
	}

	logger.Info("S3 volume initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, prefix)
	return fs, nil
}

// Close aborts requests still in flight.
func (fs *FS) Close() error {
	fs.cancel()
	return nil
}

// ============================================================================
// Volume
// ============================================================================

func (fs *FS) GetDiskFreeSpace(info *dokan.FileInfo) (dokan.DiskFreeSpace, error) {
	return dokan.DiskFreeSpace{TotalNumberOfBytes: fs.opts.ReportedSize}, nil
}

func (fs *FS) GetVolumeInformation(info *dokan.FileInfo) (dokan.VolumeInformation, error) {
	return dokan.VolumeInformation{
		Name:               fs.opts.VolumeName,
		SerialNumber:       fs.opts.SerialNumber,
		MaxComponentLength: 255,
		Features: dokan.FeatureCaseSensitiveSearch |
			dokan.FeatureCasePreservedNames |
			dokan.FeatureUnicodeOnDisk |
			dokan.FeatureReadOnlyVolume |
			dokan.FeatureSupportsRemoteStorage,
		FileSystemName: "S3FS",
	}, nil
}

func (fs *FS) Mounted(info *dokan.FileInfo) error {
	return nil
}

func (fs *FS) Unmounted(info *dokan.FileInfo) error {
	return nil
}
