package pebble

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	getLatency prometheus.Histogram
	commits    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		getLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pebble_read_latency_seconds",
			Help:    "time spent waiting for db get",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pebble_batch_commits_total",
			Help: "number of committed write batches",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.getLatency, m.commits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observeGet(start time.Time) {
	m.getLatency.Observe(time.Since(start).Seconds())
}
