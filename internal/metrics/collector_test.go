package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTrade(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector("test", reg)
	require.NoError(t, err)

	c.RecordTrade(true, 27_960, 139, time.Millisecond)
	c.RecordTrade(false, 10_000, 50, time.Millisecond)
	c.RecordRejected(true, StatusRateLimited)
	c.RecordRejected(false, StatusSlippage)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.tradesTotal.WithLabelValues("buy", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tradesTotal.WithLabelValues("buy", StatusRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tradesTotal.WithLabelValues("sell", StatusSlippage)))
	assert.Equal(t, 27_960.0, testutil.ToFloat64(c.solVolume.WithLabelValues("buy")))
	assert.Equal(t, 189.0, testutil.ToFloat64(c.feesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited))
	assert.Equal(t, 2, testutil.CollectAndCount(c.tradeDuration))
}

func TestCollector_Curves(t *testing.T) {
	c, err := NewCollector("test", nil)
	require.NoError(t, err)

	c.SetActiveCurves(2)
	c.CurveCreated()
	c.CurveCompleted()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.curvesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.curvesCompleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.activeCurves))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector("test", reg)
	require.NoError(t, err)
	_, err = NewCollector("test", reg)
	assert.Error(t, err)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordTrade(true, 1, 1, time.Second)
		c.RecordRejected(false, StatusFailed)
		c.CurveCreated()
		c.CurveCompleted()
		c.SetActiveCurves(3)
	})
}
