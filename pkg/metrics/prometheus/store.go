package prometheus

import (
	"time"

	"github.com/marmos91/dokanfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	storeType          string
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	storageOpsTotal    *prometheus.CounterVec
	storageOpsDuration *prometheus.HistogramVec
	nodes              *prometheus.GaugeVec
}

// NewStoreMetrics creates a new Prometheus-backed StoreMetrics instance.
//
// Parameters:
//   - storeType: Type of store (e.g., "badger").
//     Used as a label to distinguish metrics from different store implementations.
//
// Returns a no-op implementation if metrics are not enabled.
func NewStoreMetrics(storeType string) metrics.StoreMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopStoreMetrics()
	}

	reg := metrics.GetRegistry()

	return &storeMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dokanfs_store_operations_total",
				Help: "Total number of store operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dokanfs_store_operation_duration_seconds",
				Help: "Duration of store operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
		storageOpsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dokanfs_store_storage_operations_total",
				Help: "Total number of low-level storage transactions by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		storageOpsDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dokanfs_store_storage_operation_duration_seconds",
				Help: "Duration of low-level storage transactions in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
		nodes: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dokanfs_store_nodes",
				Help: "Current number of files and directories in the store",
			},
			[]string{"store_type"},
		),
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *storeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(m.storeType, operation, statusLabel(err)).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordStorageOperation(operation string, duration time.Duration, err error) {
	m.storageOpsTotal.WithLabelValues(m.storeType, operation, statusLabel(err)).Inc()
	m.storageOpsDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) SetNodeCount(count int64) {
	m.nodes.WithLabelValues(m.storeType).Set(float64(count))
}
