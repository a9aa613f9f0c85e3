package model

import (
	"fmt"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
)

// VehicleID identifies a vehicle within the fleet.
type VehicleID int

// NoVehicle is returned when no vehicle could be assigned.
const NoVehicle VehicleID = -1

// Vehicle is a fleet member. It is Idle when Available with no trips and En
// Route while the head of Trips is being driven.
type Vehicle struct {
	ID VehicleID `json:"id"`
	// Node is the last graph node the vehicle reached.
	Node graph.NodeID `json:"node"`
	// Position is Node's coordinate or a point interpolated on the next edge.
	Position geo.Point `json:"position"`
	// EdgeProgress is the distance in metres already covered on the edge
	// leaving Node.
	EdgeProgress float64 `json:"edge_progress"`
	Available    bool    `json:"available"`
	Seats        int     `json:"seats"`
	// Fuel is the remaining range and is informational only.
	Fuel  float64 `json:"fuel"`
	Trips []*Trip `json:"trips,omitempty"`
	Log   []Trip  `json:"log,omitempty"`
}

// NewVehicle returns an idle vehicle parked on node n.
func NewVehicle(id VehicleID, g *graph.Graph, n graph.NodeID, seats int, fuel float64) *Vehicle {
	return &Vehicle{
		ID:        id,
		Node:      n,
		Position:  g.Point(n),
		Available: true,
		Seats:     seats,
		Fuel:      fuel,
	}
}

// Validate checks the availability invariant.
func (v *Vehicle) Validate() error {
	if v.ID < 0 {
		return fmt.Errorf("vehicle id must be non-negative, got %d", v.ID)
	}
	if !v.Available && len(v.Trips) == 0 {
		return fmt.Errorf("vehicle %d unavailable without a trip", v.ID)
	}
	return nil
}

// ActiveTrip returns the leg being driven or nil.
func (v *Vehicle) ActiveTrip() *Trip {
	if len(v.Trips) == 0 {
		return nil
	}
	return v.Trips[0]
}

// CanCarry reports whether the vehicle has room for seats passengers. A
// zero capacity or request is treated as unconstrained.
func (v *Vehicle) CanCarry(seats int) bool {
	return v.Seats <= 0 || seats <= 0 || seats <= v.Seats
}

// Assign commits t as the active leg.
func (v *Vehicle) Assign(t *Trip) {
	v.Trips = append(v.Trips, t)
	v.Available = false
}

// Complete moves the head trip into the log and marks the vehicle idle.
func (v *Vehicle) Complete() *Trip {
	t := v.ActiveTrip()
	if t == nil {
		return nil
	}
	v.Trips = v.Trips[1:]
	v.Log = append(v.Log, *t)
	v.EdgeProgress = 0
	v.Available = true
	return t
}

// Snapshot returns a deep copy safe to hand to readers.
func (v *Vehicle) Snapshot() Vehicle {
	c := *v
	c.Trips = make([]*Trip, len(v.Trips))
	for i, t := range v.Trips {
		cp := t.Clone()
		c.Trips[i] = &cp
	}
	c.Log = make([]Trip, len(v.Log))
	for i, t := range v.Log {
		c.Log[i] = t.Clone()
	}
	return c
}
