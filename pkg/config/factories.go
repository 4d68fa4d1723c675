package config

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/marmos91/dokanfs/internal/logger"
	"github.com/marmos91/dokanfs/pkg/bufpool"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/kvfs"
	"github.com/marmos91/dokanfs/pkg/fs/memfs"
	"github.com/marmos91/dokanfs/pkg/fs/mirror"
	"github.com/marmos91/dokanfs/pkg/fs/s3fs"
	promMetrics "github.com/marmos91/dokanfs/pkg/metrics/prometheus"
	"github.com/mitchellh/mapstructure"
)

// CloseFunc releases whatever a backend holds open (database, client).
type CloseFunc func() error

func noClose() error { return nil }

// CreateFileSystem creates the backend selected by cfg.Type.
//
// The type-specific section is decoded into the backend's Options, checked
// with the same validator as the rest of the configuration, and passed to
// the backend's constructor. Collectors from m are attached to backends that
// report metrics; m may be nil.
//
// Supported types:
//   - "memory": pkg/fs/memfs (volatile, in-process)
//   - "mirror": pkg/fs/mirror (exposes a local directory)
//   - "badger": pkg/fs/kvfs (BadgerDB, persistent)
//   - "s3":     pkg/fs/s3fs (read-only view of a bucket)
//
// The returned CloseFunc must be called after the volume is unmounted.
func CreateFileSystem(ctx context.Context, cfg *BackendConfig, m *MetricsResult) (dokan.FileSystem, CloseFunc, error) {
	opts, err := decodeBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch o := opts.(type) {
	case *memfs.Options:
		fs := memfs.New(*o)
		logger.Info("Memory backend initialized: capacity=%d", o.Capacity)
		return fs, noClose, nil

	case *mirror.Options:
		fs, err := mirror.New(*o)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create mirror backend: %w", err)
		}
		logger.Info("Mirror backend initialized: root=%s", o.Root)
		return fs, noClose, nil

	case *kvfs.Options:
		if m != nil {
			o.Metrics = m.StoreMetrics
		}
		fs, err := kvfs.New(*o)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create badger backend: %w", err)
		}
		logger.Info("Badger backend initialized: path=%s, in_memory=%v", o.Path, o.InMemory)
		return fs, fs.Close, nil

	case *s3fs.Options:
		if m != nil {
			o.Metrics = m.S3Metrics
		}
		fs, err := s3fs.New(ctx, *o)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create s3 backend: %w", err)
		}
		return fs, fs.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown backend type: %q", cfg.Type)
}

// decodeBackend decodes and validates the section selected by cfg.Type,
// returning a pointer to the backend's Options.
func decodeBackend(cfg *BackendConfig) (any, error) {
	var (
		section map[string]any
		opts    any
	)
	switch cfg.Type {
	case "memory":
		section, opts = cfg.Memory, &memfs.Options{}
	case "mirror":
		section, opts = cfg.Mirror, &mirror.Options{}
	case "badger":
		section, opts = cfg.Badger, &kvfs.Options{}
	case "s3":
		section, opts = cfg.S3, &s3fs.Options{}
	default:
		return nil, fmt.Errorf("unknown backend type: %q (supported: memory, mirror, badger, s3)", cfg.Type)
	}

	if err := decodeOptions(section, opts); err != nil {
		return nil, fmt.Errorf("failed to decode %s backend options: %w", cfg.Type, err)
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("backend.%s: %w", cfg.Type, formatValidationError(err))
	}
	return opts, nil
}

// decodeOptions decodes a config section into out, accepting duration
// strings such as "30s" and loosely typed scalars from environment
// variables.
func decodeOptions(section map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(section)
}

// MountOptions converts the mount and dispatcher sections into
// dokan.MountOptions.
//
// A fresh buffer pool is created for the mount and, when metrics are
// enabled, exported to Prometheus. m may be nil.
func MountOptions(cfg *Config, m *MetricsResult) (dokan.MountOptions, error) {
	var sd []byte
	if cfg.Mount.VolumeSecurityDescriptor != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.Mount.VolumeSecurityDescriptor)
		if err != nil {
			return dokan.MountOptions{}, fmt.Errorf("mount.volume_security_descriptor: %w", err)
		}
		sd = decoded
	}

	pool := bufpool.New()
	if err := promMetrics.RegisterBufferPool(cfg.Mount.MountPoint, pool); err != nil {
		return dokan.MountOptions{}, fmt.Errorf("failed to register buffer pool metrics: %w", err)
	}

	opts := dokan.MountOptions{
		MountPoint:               cfg.Mount.MountPoint,
		UNCName:                  cfg.Mount.UNCName,
		ThreadCount:              cfg.Mount.ThreadCount,
		Flags:                    cfg.Mount.Flags.mountFlags(),
		Timeout:                  cfg.Mount.Timeout,
		AllocationUnitSize:       cfg.Mount.AllocationUnitSize,
		SectorSize:               cfg.Mount.SectorSize,
		VolumeSecurityDescriptor: sd,
		DisableDirectIO:          cfg.Dispatcher.DirectIO != nil && !*cfg.Dispatcher.DirectIO,
		BufferPool:               pool,
	}
	if m != nil {
		opts.Metrics = m.DokanMetrics
	}
	return opts, nil
}

// mountFlags folds the boolean flags into a dokan.MountFlag set.
func (f MountFlagsConfig) mountFlags() dokan.MountFlag {
	var flags dokan.MountFlag
	set := func(on bool, flag dokan.MountFlag) {
		if on {
			flags |= flag
		}
	}
	set(f.Debug, dokan.FlagDebug)
	set(f.Stderr, dokan.FlagStderr)
	set(f.AltStream, dokan.FlagAltStream)
	set(f.WriteProtect, dokan.FlagWriteProtect)
	set(f.Network, dokan.FlagNetwork)
	set(f.Removable, dokan.FlagRemovable)
	set(f.MountManager, dokan.FlagMountManager)
	set(f.CurrentSession, dokan.FlagCurrentSession)
	set(f.FileLockUserMode, dokan.FlagFileLockUserMode)
	return flags
}
