// Package triplog persists completed trips and lets reporting tools query
// them back. Stores are append-only.
package triplog

import (
	"context"
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

// TripRecord captures one completed leg.
type TripRecord struct {
	Timestamp      time.Time       `json:"timestamp"`
	VehicleID      model.VehicleID `json:"vehicle_id"`
	TripID         string          `json:"trip_id"`
	RequestID      string          `json:"request_id"`
	Starting       geo.Point       `json:"starting"`
	Ending         geo.Point       `json:"ending"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Path           []graph.NodeID  `json:"path"`
	PickupDistance float64         `json:"pickup_distance"`
	TripDistance   float64         `json:"trip_distance"`
	Travelled      float64         `json:"travelled"`
	Fare           float64         `json:"fare"`
	Revenue        float64         `json:"revenue"`
	Profit         float64         `json:"profit"`
	Period         string          `json:"period"`
}

// FromTrip builds the record for a leg driven by vehicle id.
func FromTrip(id model.VehicleID, t model.Trip) TripRecord {
	return TripRecord{
		Timestamp:      t.EndTime,
		VehicleID:      id,
		TripID:         t.ID.String(),
		RequestID:      t.RequestID,
		Starting:       t.Starting,
		Ending:         t.Ending,
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		Path:           append([]graph.NodeID(nil), t.Path...),
		PickupDistance: t.PickupDistance,
		TripDistance:   t.TripDistance,
		Travelled:      t.Travelled,
		Fare:           t.Fare,
		Revenue:        t.Revenue,
		Profit:         t.Profit,
		Period:         t.Period,
	}
}

// TripQuery defines filters for retrieving records. Zero values match all.
type TripQuery struct {
	Start     time.Time
	End       time.Time
	VehicleID *model.VehicleID
	Limit     int
}

// ForVehicle returns a copy of q restricted to id.
func (q TripQuery) ForVehicle(id model.VehicleID) TripQuery {
	q.VehicleID = &id
	return q
}

// Match reports whether r satisfies the time and vehicle filters.
func (q TripQuery) Match(r TripRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != nil && r.VehicleID != *q.VehicleID {
		return false
	}
	return true
}

func (q TripQuery) full(n int) bool {
	return q.Limit > 0 && n >= q.Limit
}

// Store persists TripRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec TripRecord) error
	Query(ctx context.Context, q TripQuery) ([]TripRecord, error)
	Close() error
}
