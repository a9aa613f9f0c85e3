package metrics

import (
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/model"
)

// AdmissionResult is the outcome of one admission decision.
type AdmissionResult struct {
	RequestID  string
	VehicleID  model.VehicleID
	Accepted   bool
	Reason     string
	Candidates int
	Fare       float64
	Profit     float64
	Distance   float64
	Latency    time.Duration
	Time       time.Time
}

// MetricsSink records admission decisions for observability purposes.
type MetricsSink interface {
	RecordAdmission(res AdmissionResult) error
}

// TripEvent describes a completed leg.
type TripEvent struct {
	TripID    string
	RequestID string
	VehicleID model.VehicleID
	Distance  float64
	Fare      float64
	Revenue   float64
	Profit    float64
	Period    string
	Start     time.Time
	End       time.Time
}

// TripRecorder records completed trips.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// VehicleStateEvent is a snapshot of a vehicle after a tick.
type VehicleStateEvent struct {
	VehicleID model.VehicleID
	Position  geo.Point
	Available bool
	Advanced  float64
	Time      time.Time
}

// VehicleStateRecorder records vehicle state snapshots.
type VehicleStateRecorder interface {
	RecordVehicleState(ev VehicleStateEvent) error
}

// FleetUtilization summarises the fleet at one clock instant.
type FleetUtilization struct {
	Total   int
	Busy    int
	Pending int
	Time    time.Time
}

// FleetUtilizationRecorder records fleet utilisation samples.
type FleetUtilizationRecorder interface {
	RecordFleetUtilization(u FleetUtilization) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAdmission(AdmissionResult) error { return nil }

func (NopSink) RecordTrip(TripEvent) error                    { return nil }
func (NopSink) RecordVehicleState(VehicleStateEvent) error    { return nil }
func (NopSink) RecordFleetUtilization(FleetUtilization) error { return nil }
