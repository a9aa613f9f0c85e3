package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink is called even if
// an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAdmission forwards the decision to all sinks.
func (m *MultiSink) RecordAdmission(res AdmissionResult) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordAdmission(res))
	}
	return errors.Join(errs...)
}

// RecordTrip forwards completed trips to sinks that support them.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			errs = append(errs, rec.RecordTrip(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordVehicleState forwards vehicle snapshots.
func (m *MultiSink) RecordVehicleState(ev VehicleStateEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(VehicleStateRecorder); ok {
			errs = append(errs, rec.RecordVehicleState(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordFleetUtilization forwards utilisation samples.
func (m *MultiSink) RecordFleetUtilization(u FleetUtilization) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetUtilizationRecorder); ok {
			errs = append(errs, rec.RecordFleetUtilization(u))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
