package prometheus

import (
	"github.com/marmos91/dokanfs/pkg/bufpool"
	"github.com/marmos91/dokanfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBufferPool exports the counters of pool as scrape-time functions.
//
// The pool keeps its own atomic counters, so nothing is recorded on the hot
// path; Prometheus reads a Stats snapshot on every scrape. It is a no-op
// when metrics are disabled.
func RegisterBufferPool(name string, pool *bufpool.Pool) error {
	if !metrics.IsEnabled() || pool == nil {
		return nil
	}

	reg := metrics.GetRegistry()
	labels := prometheus.Labels{"pool": name}

	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "dokanfs_bufpool_hits_total",
			Help:        "Rents served from an idle buffer",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "dokanfs_bufpool_misses_total",
			Help:        "Rents that allocated a new buffer",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "dokanfs_bufpool_discarded_total",
			Help:        "Returned buffers dropped because their length is not a power of two",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stats().Discarded) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "dokanfs_bufpool_idle_buffers",
			Help:        "Buffers currently held idle",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Idle()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "dokanfs_bufpool_idle_bytes",
			Help:        "Total size of idle buffers",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.IdleBytes()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
