package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Logging.Level = level

			if err := Validate(cfg); err != nil {
				t.Errorf("Expected lowercase level %q to be accepted, got: %v", level, err)
			}
		})
	}
}

func TestValidate_InvalidBackendType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.Type = "ftp"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown backend type")
	}
}

func TestValidate_MountFields(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "empty mount point",
			modify:  func(c *Config) { c.Mount.MountPoint = "" },
			wantErr: "required",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Mount.Timeout = -time.Second },
			wantErr: "gte",
		},
		{
			name:    "security descriptor not base64",
			modify:  func(c *Config) { c.Mount.VolumeSecurityDescriptor = "not base64!" },
			wantErr: "base64",
		},
		{
			name:    "unc name without network flag",
			modify:  func(c *Config) { c.Mount.UNCName = `\myfs\share` },
			wantErr: "flags.network",
		},
		{
			name: "mount manager with current session",
			modify: func(c *Config) {
				c.Mount.Flags.MountManager = true
				c.Mount.Flags.CurrentSession = true
			},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_NetworkMount(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mount.UNCName = `\myfs\share`
	cfg.Mount.Flags.Network = true

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected network mount with UNC name to be valid, got: %v", err)
	}
}

func TestValidate_InvalidShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown timeout")
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for out of range metrics port")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_BackendSections(t *testing.T) {
	tests := []struct {
		name        string
		backendType string
		section     map[string]any
		wantErr     bool
	}{
		{name: "mirror without root", backendType: "mirror", section: map[string]any{}, wantErr: true},
		{name: "mirror with root", backendType: "mirror", section: map[string]any{"root": "/srv"}},
		{name: "badger without path", backendType: "badger", section: map[string]any{}, wantErr: true},
		{name: "badger in memory", backendType: "badger", section: map[string]any{"in_memory": true}},
		{name: "s3 without bucket", backendType: "s3", section: map[string]any{"region": "us-east-1"}, wantErr: true},
		{name: "s3 negative retries", backendType: "s3", section: map[string]any{"bucket": "b", "max_retries": -1}, wantErr: true},
		{name: "s3 valid", backendType: "s3", section: map[string]any{"bucket": "b", "request_timeout": "5s"}},
		{name: "memory wrong type", backendType: "memory", section: map[string]any{"capacity": "lots"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Backend.Type = tt.backendType
			switch tt.backendType {
			case "memory":
				cfg.Backend.Memory = tt.section
			case "mirror":
				cfg.Backend.Mirror = tt.section
			case "badger":
				cfg.Backend.Badger = tt.section
			case "s3":
				cfg.Backend.S3 = tt.section
			}

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Fatal("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Expected section to be valid, got: %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), tt.backendType) {
				t.Errorf("Expected error to name the %s backend, got: %v", tt.backendType, err)
			}
		})
	}
}
