package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records metadata for the dispatch engine's passes.
type DispatchMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	dispatched *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_pass_duration_seconds",
		Help:    "Duration of dispatch passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_pass_success",
		Help: "Dispatch passes that completed without a pass-level error.",
	}, []string{"pass"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_pass_failure",
		Help: "Dispatch passes that reported a pass-level error.",
	}, []string{"pass"})
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Notifications dispatched, labeled by pass.",
	}, []string{"pass"})
	reg.MustRegister(duration, success, failure, dispatched)
	return &DispatchMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		dispatched: dispatched,
	}
}

// ObserveDuration records the duration for the named pass.
func (d *DispatchMetrics) ObserveDuration(pass string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(pass)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named pass.
func (d *DispatchMetrics) IncSuccess(pass string) {
	if d == nil || d.success == nil {
		return
	}
	d.success.WithLabelValues(normalizeLabel(pass)).Inc()
}

// IncFailure increments the failure counter for the named pass.
func (d *DispatchMetrics) IncFailure(pass string) {
	if d == nil || d.failure == nil {
		return
	}
	d.failure.WithLabelValues(normalizeLabel(pass)).Inc()
}

// AddDispatched adds to the dispatched-notification counter for the named pass.
func (d *DispatchMetrics) AddDispatched(pass string, count int) {
	if d == nil || d.dispatched == nil || count <= 0 {
		return
	}
	d.dispatched.WithLabelValues(normalizeLabel(pass)).Add(float64(count))
}

func normalizeLabel(pass string) string {
	if pass == "" {
		return "unknown"
	}
	return pass
}
