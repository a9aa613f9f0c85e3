package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
)

// Trip is a committed leg: from the vehicle's node through the pickup to the
// drop-off.
type Trip struct {
	ID        uuid.UUID      `json:"id"`
	RequestID string         `json:"request_id"`
	Path      []graph.NodeID `json:"path"`
	// Pending holds the nodes still to be reached, in order.
	Pending   []graph.NodeID `json:"pending,omitempty"`
	Starting  geo.Point      `json:"starting"`
	Ending    geo.Point      `json:"ending"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	PickupDistance float64 `json:"pickup_distance"`
	TripDistance   float64 `json:"trip_distance"`
	// Travelled accumulates the edge metres covered so far.
	Travelled float64 `json:"travelled"`
	Fare      float64 `json:"fare"`
	Profit    float64 `json:"profit"`
	// Revenue is the fare including the surcharge of the period the trip
	// started in. It is set on completion.
	Revenue float64 `json:"revenue"`
	Period  string  `json:"period,omitempty"`
}

// NewTrip builds a leg over path starting at start. Pending excludes the
// first node, which the vehicle already occupies.
func NewTrip(req *Request, path []graph.NodeID, start time.Time) *Trip {
	t := &Trip{
		ID:        uuid.New(),
		RequestID: req.ID,
		Path:      path,
		Starting:  req.Start,
		Ending:    req.Stop,
		StartTime: start,
		EndTime:   start,
	}
	if len(path) > 1 {
		t.Pending = append([]graph.NodeID(nil), path[1:]...)
	}
	return t
}

// Length returns the planned distance of the leg in metres.
func (t *Trip) Length() float64 { return t.PickupDistance + t.TripDistance }

// Duration returns the simulated time spent on the leg so far.
func (t *Trip) Duration() time.Duration { return t.EndTime.Sub(t.StartTime) }

// Clone returns a deep copy of t.
func (t Trip) Clone() Trip {
	t.Path = append([]graph.NodeID(nil), t.Path...)
	if t.Pending != nil {
		t.Pending = append([]graph.NodeID(nil), t.Pending...)
	}
	return t
}

// Assignment is the outcome of one admission decision.
type Assignment struct {
	VehicleID      VehicleID `json:"vehicle_id"`
	Request        *Request  `json:"request"`
	Profit         float64   `json:"profit"`
	Fare           float64   `json:"fare"`
	PickupDistance float64   `json:"pickup_distance"`
	TripDistance   float64   `json:"trip_distance"`
	// PickupPath and TripPath are the routes used for scoring.
	PickupPath []graph.NodeID `json:"pickup_path,omitempty"`
	TripPath   []graph.NodeID `json:"trip_path,omitempty"`
	Candidates int            `json:"candidates"`
}

// Accepted reports whether a vehicle was chosen.
func (a Assignment) Accepted() bool { return a.VehicleID != NoVehicle }

// FullPath joins the pickup and trip routes without repeating the pickup
// node.
func (a Assignment) FullPath() []graph.NodeID {
	out := make([]graph.NodeID, 0, len(a.PickupPath)+len(a.TripPath))
	out = append(out, a.PickupPath...)
	if len(out) > 0 && len(a.TripPath) > 0 && out[len(out)-1] == a.TripPath[0] {
		return append(out, a.TripPath[1:]...)
	}
	return append(out, a.TripPath...)
}
