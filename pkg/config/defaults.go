package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dokanfs/pkg/dokan"
)

// Defaults used when a value is not configured.
const (
	DefaultMountPoint      = `M:\`
	DefaultBackendType     = "memory"
	DefaultMetricsPort     = 9090
	DefaultShutdownTimeout = 30 * time.Second
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the backends themselves, the
//     entries added here only make the generated config file self-describing
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMountDefaults(&cfg.Mount)
	applyDispatcherDefaults(&cfg.Dispatcher)
	applyBackendDefaults(&cfg.Backend)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMountDefaults sets mount defaults. The driver-facing values match
// what dokan.Mount would pick so the config file shows them explicitly.
func applyMountDefaults(cfg *MountConfig) {
	if cfg.MountPoint == "" {
		cfg.MountPoint = DefaultMountPoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = dokan.DefaultTimeout
	}
	if cfg.AllocationUnitSize == 0 {
		cfg.AllocationUnitSize = dokan.DefaultAllocationUnitSize
	}
	if cfg.SectorSize == 0 {
		cfg.SectorSize = dokan.DefaultSectorSize
	}
	// ThreadCount 0 lets the driver decide
	// Flags default to all off
}

// applyDispatcherDefaults enables direct I/O unless explicitly disabled.
func applyDispatcherDefaults(cfg *DispatcherConfig) {
	if cfg.DirectIO == nil {
		enabled := true
		cfg.DirectIO = &enabled
	}
}

// applyBackendDefaults sets backend defaults.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultBackendType
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Mirror == nil {
		cfg.Mirror = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.Memory["capacity"]; !ok {
		cfg.Memory["capacity"] = int64(1073741824) // 1GB
	}
	if _, ok := cfg.Badger["path"]; !ok {
		cfg.Badger["path"] = filepath.Join(os.TempDir(), "dokanfs-badger")
	}
	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = "us-east-1"
	}
	if _, ok := cfg.S3["requests_per_second"]; !ok {
		cfg.S3["requests_per_second"] = 100
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
