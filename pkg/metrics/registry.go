// Package metrics defines the observability interfaces of dokanfs components
// and the process-wide Prometheus registry they report to.
//
// All metrics are optional - if not initialized, components use no-op implementations
// that have zero overhead. This allows a volume to be mounted with or without
// metrics collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	dokanMetrics := prometheus.NewDokanMetrics(`M:\`)
//
//	// Announce the mount so the index page and dokanfs_mount_info see it
//	unregister := metrics.RegisterMount(metrics.MountStatus{
//		MountPoint:  inst.MountPoint(),
//		Backend:     "memory",
//		OpenHandles: inst.OpenHandles,
//	})
//	defer unregister()
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is written once by InitRegistry and read without locking.
	registry     *prometheus.Registry
	registryOnce sync.Once

	// mountInfo is 1 for every mounted volume, labelled by mount point and
	// backend. Nil until InitRegistry runs.
	mountInfo *prometheus.GaugeVec

	mountsMu sync.RWMutex
	mounts   = map[string]MountStatus{}
)

// MountStatus describes a mounted volume. The callbacks are read when the
// index page or /mounts is served; either may be nil.
type MountStatus struct {
	MountPoint  string
	Backend     string
	MountedAt   time.Time
	OpenHandles func() int
	IdleBuffers func() int
}

// InitRegistry initializes the global Prometheus registry with the Go
// runtime, process and mount info collectors.
//
// Safe to call multiple times; only the first call has an effect. Until it
// runs GetRegistry returns nil and constructors fall back to no-ops.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "dokanfs"}),
		)

		info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dokanfs_mount_info",
			Help: "Mounted volumes (always 1), labelled by mount point and backend",
		}, []string{"mount_point", "backend"})
		reg.MustRegister(info)

		// Mounts announced before metrics were enabled still get a series.
		mountsMu.Lock()
		for _, m := range mounts {
			info.WithLabelValues(m.MountPoint, m.Backend).Set(1)
		}
		mountInfo = info
		registry = reg
		mountsMu.Unlock()
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

// RegisterMount records a mounted volume and returns the function that
// removes it again. Registering the same mount point twice replaces the
// earlier entry.
func RegisterMount(status MountStatus) (unregister func()) {
	if status.MountedAt.IsZero() {
		status.MountedAt = time.Now()
	}

	mountsMu.Lock()
	if old, ok := mounts[status.MountPoint]; ok && mountInfo != nil {
		mountInfo.DeleteLabelValues(old.MountPoint, old.Backend)
	}
	mounts[status.MountPoint] = status
	if mountInfo != nil {
		mountInfo.WithLabelValues(status.MountPoint, status.Backend).Set(1)
	}
	mountsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mountsMu.Lock()
			defer mountsMu.Unlock()
			// A later RegisterMount for the same point owns the entry now.
			if cur, ok := mounts[status.MountPoint]; !ok || !cur.MountedAt.Equal(status.MountedAt) {
				return
			}
			delete(mounts, status.MountPoint)
			if mountInfo != nil {
				mountInfo.DeleteLabelValues(status.MountPoint, status.Backend)
			}
		})
	}
}

// Mounts returns the registered volumes ordered by mount point.
func Mounts() []MountStatus {
	mountsMu.RLock()
	out := make([]MountStatus, 0, len(mounts))
	for _, m := range mounts {
		out = append(out, m)
	}
	mountsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MountPoint < out[j].MountPoint })
	return out
}
