package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/celer/core/metrics"
)

// PromSink records simulation events in Prometheus metrics.
type PromSink struct {
	admissions *prometheus.CounterVec
	latency    prometheus.Histogram
	trips      *prometheus.CounterVec
	revenue    prometheus.Counter
	profit     prometheus.Histogram
	distance   prometheus.Histogram
	duration   prometheus.Histogram
	travelled  prometheus.Counter
	fleet      *prometheus.GaugeVec
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celer_sink_admissions_total",
			Help: "Admission decisions by result",
		}, []string{"accepted"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "celer_sink_admission_latency_seconds",
			Help:    "Wall time spent deciding a request",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "celer_trips_completed_total",
			Help: "Completed legs by fare period",
		}, []string{"period"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "celer_trip_revenue_total",
			Help: "Revenue of completed legs",
		}),
		profit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "celer_trip_profit",
			Help:    "Expected profit of completed legs",
			Buckets: prometheus.LinearBuckets(-5, 2.5, 12),
		}),
		distance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "celer_trip_distance_metres",
			Help:    "Distance driven per completed leg",
			Buckets: prometheus.ExponentialBuckets(250, 2, 8),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "celer_trip_duration_seconds",
			Help:    "Simulated duration of completed legs",
			Buckets: prometheus.ExponentialBuckets(30, 2, 8),
		}),
		travelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "celer_vehicle_travelled_metres_total",
			Help: "Distance advanced by all vehicles",
		}),
		fleet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "celer_fleet_vehicles",
			Help: "Fleet size by state",
		}, []string{"state"}),
	}
	var err error
	if s.admissions, err = register(reg, s.admissions); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.revenue, err = register(reg, s.revenue); err != nil {
		return nil, err
	}
	if s.profit, err = register(reg, s.profit); err != nil {
		return nil, err
	}
	if s.distance, err = register(reg, s.distance); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.travelled, err = register(reg, s.travelled); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, s.fleet); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAdmission counts the decision and observes its latency.
func (s *PromSink) RecordAdmission(r coremetrics.AdmissionResult) error {
	s.admissions.WithLabelValues(strconv.FormatBool(r.Accepted)).Inc()
	s.latency.Observe(r.Latency.Seconds())
	return nil
}

// RecordTrip records a completed leg.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	period := ev.Period
	if period == "" {
		period = "unknown"
	}
	s.trips.WithLabelValues(period).Inc()
	s.revenue.Add(ev.Revenue)
	s.profit.Observe(ev.Profit)
	s.distance.Observe(ev.Distance)
	s.duration.Observe(ev.End.Sub(ev.Start).Seconds())
	return nil
}

// RecordVehicleState accumulates the distance a vehicle advanced.
func (s *PromSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	if ev.Advanced > 0 {
		s.travelled.Add(ev.Advanced)
	}
	return nil
}

// RecordFleetUtilization sets the fleet gauges.
func (s *PromSink) RecordFleetUtilization(u coremetrics.FleetUtilization) error {
	s.fleet.WithLabelValues("total").Set(float64(u.Total))
	s.fleet.WithLabelValues("busy").Set(float64(u.Busy))
	s.fleet.WithLabelValues("idle").Set(float64(u.Total - u.Busy))
	s.fleet.WithLabelValues("pending_requests").Set(float64(u.Pending))
	return nil
}
