package config

import (
	"github.com/marmos91/dokanfs/pkg/metrics"
	promMetrics "github.com/marmos91/dokanfs/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// DokanMetrics is the collector for the call dispatcher (never nil, uses noop if disabled)
	DokanMetrics metrics.DokanMetrics

	// StoreMetrics is the collector for the badger backend (never nil)
	StoreMetrics metrics.StoreMetrics

	// S3Metrics is the collector for the s3 backend (never nil)
	S3Metrics metrics.S3Metrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed collectors for the dispatcher and for the
//     selected backend only
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	result := &MetricsResult{
		DokanMetrics: metrics.NewNoopDokanMetrics(),
		StoreMetrics: metrics.NewNoopStoreMetrics(),
		S3Metrics:    metrics.NewNoopS3Metrics(),
	}
	if !cfg.Metrics.Enabled {
		return result
	}

	metrics.InitRegistry()

	result.Server = metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})
	result.DokanMetrics = promMetrics.NewDokanMetrics(cfg.Mount.MountPoint)

	switch cfg.Backend.Type {
	case "badger":
		result.StoreMetrics = promMetrics.NewStoreMetrics("badger")
	case "s3":
		result.S3Metrics = promMetrics.NewS3Metrics()
	}

	return result
}
