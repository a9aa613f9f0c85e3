// Package trips serves completed legs from the trip log.
package trips

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/triplog"
)

// ParseQuery builds a TripQuery from the from, to, vehicle_id and limit
// parameters. Times are RFC3339.
func ParseQuery(r *http.Request) (triplog.TripQuery, error) {
	var q triplog.TripQuery
	v := r.URL.Query()
	if s := v.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("from: %w", err)
		}
		q.Start = t
	}
	if s := v.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("to: %w", err)
		}
		q.End = t
	}
	if s := v.Get("vehicle_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id < 0 {
			return q, fmt.Errorf("vehicle_id: invalid value %q", s)
		}
		q = q.ForVehicle(model.VehicleID(id))
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("limit: invalid value %q", s)
		}
		q.Limit = n
	}
	return q, nil
}

// NewHandler returns an HTTP handler exposing trip records via GET /api/trips.
func NewHandler(store triplog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := ParseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []triplog.TripRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
