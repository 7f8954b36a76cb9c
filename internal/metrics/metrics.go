// internal/metrics/metrics.go
package metrics

import "time"

func side(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

// RecordTrade records a successful trade.
func (c *Collector) RecordTrade(isBuy bool, solAmount, fee uint64, duration time.Duration) {
	if c == nil {
		return
	}
	s := side(isBuy)
	c.tradesTotal.WithLabelValues(s, StatusSuccess).Inc()
	c.solVolume.WithLabelValues(s).Add(float64(solAmount))
	c.feesTotal.Add(float64(fee))
	c.tradeDuration.WithLabelValues(s).Observe(duration.Seconds())
}

// RecordRejected records a trade that failed with the given status label.
func (c *Collector) RecordRejected(isBuy bool, status string) {
	if c == nil {
		return
	}
	c.tradesTotal.WithLabelValues(side(isBuy), status).Inc()
	if status == StatusRateLimited {
		c.rateLimited.Inc()
	}
}

// CurveCreated counts a new curve.
func (c *Collector) CurveCreated() {
	if c == nil {
		return
	}
	c.curvesCreated.Inc()
	c.activeCurves.Inc()
}

// CurveCompleted counts a curve that sold out.
func (c *Collector) CurveCompleted() {
	if c == nil {
		return
	}
	c.curvesCompleted.Inc()
	c.activeCurves.Dec()
}

// SetActiveCurves resets the gauge, e.g. after loading curves from a store.
func (c *Collector) SetActiveCurves(n int) {
	if c == nil {
		return
	}
	c.activeCurves.Set(float64(n))
}
