package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete dokanfs configuration.
//
// This structure captures all configurable aspects of a mount including:
//   - Logging configuration
//   - Mount point and driver options
//   - Dispatcher behaviour
//   - Backend selection and configuration (backend-specific)
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DOKANFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each backend defines its own Options type. The Config struct carries one
// untyped section per backend (e.g., backend.mirror, backend.s3) and only
// the section matching backend.type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Mount describes where and how the volume is mounted
	Mount MountConfig `mapstructure:"mount" yaml:"mount"`

	// Dispatcher tunes the native call dispatcher
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" yaml:"dispatcher"`

	// Backend selects the filesystem implementation served by the mount
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Server contains process-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// MountConfig mirrors dokan.MountOptions in configuration form.
type MountConfig struct {
	// MountPoint is a drive letter (e.g., "M:\") or an empty NTFS directory
	MountPoint string `mapstructure:"mount_point" yaml:"mount_point" validate:"required"`

	// UNCName is the network share name, only used with flags.network
	UNCName string `mapstructure:"unc_name" yaml:"unc_name"`

	// ThreadCount is the number of driver threads (0 lets the driver decide)
	ThreadCount uint16 `mapstructure:"thread_count" yaml:"thread_count"`

	// Timeout is the per-request timeout enforced by the driver
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`

	// AllocationUnitSize is the cluster size reported to Windows
	AllocationUnitSize uint32 `mapstructure:"allocation_unit_size" yaml:"allocation_unit_size"`

	// SectorSize is the sector size reported to Windows
	SectorSize uint32 `mapstructure:"sector_size" yaml:"sector_size"`

	// Flags toggles the DOKAN_OPTION_* bits
	Flags MountFlagsConfig `mapstructure:"flags" yaml:"flags"`

	// VolumeSecurityDescriptor is a base64 encoded self-relative security
	// descriptor applied to the volume root
	VolumeSecurityDescriptor string `mapstructure:"volume_security_descriptor" yaml:"volume_security_descriptor" validate:"omitempty,base64"`
}

// MountFlagsConfig lists the driver options one boolean at a time.
type MountFlagsConfig struct {
	Debug            bool `mapstructure:"debug" yaml:"debug"`
	Stderr           bool `mapstructure:"stderr" yaml:"stderr"`
	AltStream        bool `mapstructure:"alt_stream" yaml:"alt_stream"`
	WriteProtect     bool `mapstructure:"write_protect" yaml:"write_protect"`
	Network          bool `mapstructure:"network" yaml:"network"`
	Removable        bool `mapstructure:"removable" yaml:"removable"`
	MountManager     bool `mapstructure:"mount_manager" yaml:"mount_manager"`
	CurrentSession   bool `mapstructure:"current_session" yaml:"current_session"`
	FileLockUserMode bool `mapstructure:"filelock_user_mode" yaml:"filelock_user_mode"`
}

// DispatcherConfig tunes how native calls reach the backend.
type DispatcherConfig struct {
	// DirectIO lets backends that support it read and write straight into
	// driver memory. When false every transfer goes through the buffer pool.
	DirectIO *bool `mapstructure:"direct_io" yaml:"direct_io"`
}

// BackendConfig specifies the filesystem backend.
//
// The Type field determines which implementation is used.
// Only the corresponding type-specific section is decoded.
type BackendConfig struct {
	// Type specifies which backend to use
	// Valid values: memory, mirror, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory mirror badger s3"`

	// Memory contains memfs options
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Mirror contains mirror options
	// Only used when Type = "mirror"
	Mirror map[string]any `mapstructure:"mirror" yaml:"mirror"`

	// Badger contains kvfs options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 contains s3fs options
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP server
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port serving /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for the volume to unmount
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DOKANFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the DOKANFS_ prefix and underscores
	// Example: DOKANFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DOKANFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dokanfs/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// envKeys are the settings most often overridden from the environment.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"mount.mount_point",
	"mount.timeout",
	"mount.thread_count",
	"dispatcher.direct_io",
	"backend.type",
	"metrics.enabled",
	"metrics.port",
	"server.shutdown_timeout",
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// A missing file is acceptable: defaults apply
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dokanfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dokanfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
