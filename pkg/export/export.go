// Package export writes trip records for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/celer/core/triplog"
)

var csvHeader = []string{
	"trip_id", "request_id", "vehicle_id", "start_time", "end_time",
	"start_lat", "start_lon", "end_lat", "end_lon",
	"pickup_distance", "trip_distance", "travelled",
	"fare", "revenue", "profit", "period", "nodes",
}

// WriteTripsJSON writes the records to w as one JSON array.
func WriteTripsJSON(w io.Writer, recs []triplog.TripRecord) error {
	if recs == nil {
		recs = []triplog.TripRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteTripsCSV writes one row per record with a header. Distances are in
// metres and times in RFC 3339.
func WriteTripsCSV(w io.Writer, recs []triplog.TripRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.TripID,
			r.RequestID,
			strconv.Itoa(int(r.VehicleID)),
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			ff(r.Starting.Lat),
			ff(r.Starting.Lon),
			ff(r.Ending.Lat),
			ff(r.Ending.Lon),
			ff(r.PickupDistance),
			ff(r.TripDistance),
			ff(r.Travelled),
			ff(r.Fare),
			ff(r.Revenue),
			ff(r.Profit),
			r.Period,
			strconv.Itoa(len(r.Path)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
