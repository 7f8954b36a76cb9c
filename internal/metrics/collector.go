// internal/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Trade outcome labels.
const (
	StatusSuccess     = "success"
	StatusFailed      = "failed"
	StatusRateLimited = "rate_limited"
	StatusSlippage    = "slippage"
)

// Collector holds the launchpad metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	tradesTotal     *prometheus.CounterVec
	solVolume       *prometheus.CounterVec
	feesTotal       prometheus.Counter
	curvesCreated   prometheus.Counter
	curvesCompleted prometheus.Counter
	rateLimited     prometheus.Counter
	tradeDuration   *prometheus.HistogramVec
	activeCurves    prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of trades by side and outcome",
			},
			[]string{"side", "status"},
		),
		solVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trade_sol_volume_lamports_total",
				Help:      "SOL moved by successful trades, before fees",
			},
			[]string{"side"},
		),
		feesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_fees_lamports_total",
			Help:      "Fees paid to the fee recipient",
		}),
		curvesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curves_created_total",
			Help:      "Bonding curves created",
		}),
		curvesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curves_completed_total",
			Help:      "Bonding curves that sold out",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Creator trades rejected by the transfer rate limit",
		}),
		tradeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trade_duration_seconds",
				Help:      "Time to validate, settle and commit a trade",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"side"},
		),
		activeCurves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_curves",
			Help:      "Curves that are still trading",
		}),
	}

	if reg == nil {
		return c, nil
	}
	for _, m := range []prometheus.Collector{
		c.tradesTotal, c.solVolume, c.feesTotal, c.curvesCreated,
		c.curvesCompleted, c.rateLimited, c.tradeDuration, c.activeCurves,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}
