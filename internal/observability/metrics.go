package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recompute modes
const (
	ModeIncremental = "incremental"
	ModeBatch       = "batch"
)

// Recompute outcomes
const (
	OutcomeSolved3D      = "solved_3d"
	OutcomeSolved2D      = "solved_2d"
	OutcomeInsufficient  = "insufficient"
	OutcomeDegenerate    = "degenerate"
	OutcomeSkippedMobile = "skipped_mobile"
	OutcomeNotFound      = "not_found"
	OutcomeError         = "error"
)

// PositioningCollector exposes anchor recompute metrics.
type PositioningCollector struct {
	gatherer prometheus.Gatherer

	Recomputes        *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	MobileMarked      prometheus.Counter
	BatchLastSuccess  prometheus.Gauge
}

// NewPositioningCollector registers positioning metrics against reg. A nil
// reg uses the default registerer.
func NewPositioningCollector(reg prometheus.Registerer) (*PositioningCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_recompute_total",
		Help: "Anchor position recomputations by mode and outcome.",
	}, []string{"mode", "outcome"})
	recomputes, err := registerCounterVec(reg, recomputes, "anchor_recompute_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anchor_recompute_duration_seconds",
		Help:    "Duration of single-anchor recomputations and whole batch passes.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"mode"})
	duration, err = registerHistogramVec(reg, duration, "anchor_recompute_duration_seconds")
	if err != nil {
		return nil, err
	}

	mobile := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "anchor_mobile_marked_total",
		Help: "Anchors newly classified as mobile.",
	})
	mobile, err = registerCounter(reg, mobile, "anchor_mobile_marked_total")
	if err != nil {
		return nil, err
	}

	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anchor_batch_last_success_timestamp_seconds",
		Help: "Unix time of the last successful batch recompute.",
	})
	lastSuccess, err = registerGauge(reg, lastSuccess, "anchor_batch_last_success_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	return &PositioningCollector{
		gatherer:          gatherer,
		Recomputes:        recomputes,
		RecomputeDuration: duration,
		MobileMarked:      mobile,
		BatchLastSuccess:  lastSuccess,
	}, nil
}

// Handler serves the collector's gatherer in the Prometheus text format.
func (c *PositioningCollector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveRecompute counts one outcome and records its duration.
func (c *PositioningCollector) ObserveRecompute(mode, outcome string, d time.Duration) {
	if c == nil || c.Recomputes == nil {
		return
	}
	c.Recomputes.WithLabelValues(mode, outcome).Inc()
	if c.RecomputeDuration != nil {
		c.RecomputeDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// ObserveBatch records the duration of a whole batch pass.
func (c *PositioningCollector) ObserveBatch(d time.Duration, ok bool) {
	if c == nil || c.RecomputeDuration == nil {
		return
	}
	c.RecomputeDuration.WithLabelValues(ModeBatch + "_pass").Observe(d.Seconds())
	if ok && c.BatchLastSuccess != nil {
		c.BatchLastSuccess.SetToCurrentTime()
	}
}

// IncMobileMarked counts an anchor newly marked mobile.
func (c *PositioningCollector) IncMobileMarked() {
	if c == nil || c.MobileMarked == nil {
		return
	}
	c.MobileMarked.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
