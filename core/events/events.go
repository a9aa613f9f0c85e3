package events

import (
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

// AdmissionEvent is published for every request taken off the queue.
// Err is set when the request was dropped.
type AdmissionEvent struct {
	Assignment model.Assignment
	Err        error
	Latency    time.Duration
	Time       time.Time
}

// TripCompletedEvent is published when a vehicle reaches the drop-off.
type TripCompletedEvent struct {
	VehicleID model.VehicleID
	Trip      model.Trip
	Time      time.Time
}

// VehicleMovedEvent carries the state of a vehicle after a tick that moved it.
type VehicleMovedEvent struct {
	VehicleID model.VehicleID
	Node      graph.NodeID
	Position  geo.Point
	Available bool
	Advanced  float64
	Time      time.Time
}
