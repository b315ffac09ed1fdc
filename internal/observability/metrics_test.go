package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositioningCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPositioningCollector(reg)
	require.NoError(t, err)

	c.ObserveRecompute(ModeIncremental, OutcomeSolved3D, 2*time.Millisecond)
	c.ObserveRecompute(ModeIncremental, OutcomeSolved3D, time.Millisecond)
	c.ObserveRecompute(ModeBatch, OutcomeInsufficient, time.Millisecond)
	c.IncMobileMarked()
	c.ObserveBatch(time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Recomputes.WithLabelValues(ModeIncremental, OutcomeSolved3D)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Recomputes.WithLabelValues(ModeBatch, OutcomeInsufficient)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MobileMarked))
	assert.Greater(t, testutil.ToFloat64(c.BatchLastSuccess), 0.0)

	n, err := testutil.GatherAndCount(reg, "anchor_recompute_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "incremental, batch and batch_pass series")
}

func TestFailedBatchLeavesLastSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPositioningCollector(reg)
	require.NoError(t, err)

	c.ObserveBatch(time.Second, false)
	assert.Zero(t, testutil.ToFloat64(c.BatchLastSuccess))
}

func TestReRegisterReturnsExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPositioningCollector(reg)
	require.NoError(t, err)
	second, err := NewPositioningCollector(reg)
	require.NoError(t, err)

	second.IncMobileMarked()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.MobileMarked))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *PositioningCollector
	assert.NotPanics(t, func() {
		c.ObserveRecompute(ModeBatch, OutcomeDegenerate, time.Second)
		c.ObserveBatch(time.Second, true)
		c.IncMobileMarked()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPositioningCollector(reg)
	require.NoError(t, err)
	c.ObserveRecompute(ModeIncremental, OutcomeSolved2D, time.Millisecond)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `anchor_recompute_total{mode="incremental",outcome="solved_2d"} 1`)
}
