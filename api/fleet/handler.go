// Package fleet serves the live fleet view.
package fleet

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/scheduler"
)

// Source is the read side of the scheduler.
type Source interface {
	Vehicles() []model.Vehicle
	Stats() scheduler.Stats
}

// Status is the public view of one vehicle.
type Status struct {
	ID        model.VehicleID `json:"id"`
	State     string          `json:"state"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Seats     int             `json:"seats"`
	Completed int             `json:"completed"`
	RequestID string          `json:"request_id,omitempty"`
}

// Response is the body of GET /api/fleet.
type Response struct {
	Stats    scheduler.Stats `json:"stats"`
	Vehicles []Status        `json:"vehicles"`
}

const (
	StateIdle    = "idle"
	StateEnRoute = "en_route"
)

func statusOf(v model.Vehicle) Status {
	st := Status{
		ID:        v.ID,
		State:     StateIdle,
		Lat:       v.Position.Lat,
		Lon:       v.Position.Lon,
		Seats:     v.Seats,
		Completed: len(v.Log),
	}
	if t := v.ActiveTrip(); t != nil {
		st.State = StateEnRoute
		st.RequestID = t.RequestID
	}
	return st
}

// NewHandler returns an HTTP handler exposing the fleet via GET /api/fleet.
// The optional state query parameter keeps only idle or en_route vehicles.
func NewHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		state := r.URL.Query().Get("state")
		if state != "" && state != StateIdle && state != StateEnRoute {
			http.Error(w, "state must be idle or en_route", http.StatusBadRequest)
			return
		}
		resp := Response{Stats: src.Stats(), Vehicles: []Status{}}
		for _, v := range src.Vehicles() {
			st := statusOf(v)
			if state != "" && st.State != state {
				continue
			}
			resp.Vehicles = append(resp.Vehicles, st)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
