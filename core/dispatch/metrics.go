package dispatch

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/routing"
)

var (
	admissionsTotal     *prometheus.CounterVec
	candidatesEvaluated prometheus.Histogram
	admissionLatency    prometheus.Histogram
	candidateFailures   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Histogram, prometheus.Counter) {
	adm := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celer_admissions_total",
			Help: "Admission decisions by outcome",
		},
		[]string{"outcome"},
	)
	cand := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "celer_admission_candidates",
			Help:    "Vehicles within range per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "celer_admission_latency_seconds",
			Help:    "Wall time spent deciding one request",
			Buckets: prometheus.DefBuckets,
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "celer_pickup_route_failures_total",
			Help: "Candidates whose pickup leg could not be routed",
		},
	)
	return adm, cand, lat, fail
}

func init() {
	admissionsTotal, candidatesEvaluated, admissionLatency, candidateFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers admission metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(admissionsTotal, candidatesEvaluated, admissionLatency, candidateFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	admissionsTotal, candidatesEvaluated, admissionLatency, candidateFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// Outcome labels a decision for metrics and logs.
func Outcome(a model.Assignment, err error) string {
	switch {
	case err == nil && a.Accepted():
		return "accepted"
	case errors.Is(err, routing.ErrNoPathFound):
		return "no_path"
	case errors.Is(err, ErrNoAvailableVehicle):
		return "no_vehicle"
	default:
		return "error"
	}
}

func observeAdmission(a model.Assignment, err error, d time.Duration) {
	admissionsTotal.WithLabelValues(Outcome(a, err)).Inc()
	candidatesEvaluated.Observe(float64(a.Candidates))
	admissionLatency.Observe(d.Seconds())
}
