package triplog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

var base = time.Date(2015, 1, 1, 8, 0, 0, 0, time.UTC)

func record(vehicle model.VehicleID, end time.Time) TripRecord {
	return FromTrip(vehicle, model.Trip{
		ID:        uuid.New(),
		RequestID: "req",
		Path:      []graph.NodeID{1, 2, 3},
		Starting:  geo.Point{Lat: 40.7, Lon: -74},
		Ending:    geo.Point{Lat: 40.8, Lon: -73.9},
		StartTime: end.Add(-10 * time.Minute),
		EndTime:   end,
		Travelled: 1234,
		Fare:      4.4,
	})
}

// exerciseStore appends three records and checks the filters.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for i, r := range []TripRecord{
		record(1, base),
		record(2, base.Add(time.Hour)),
		record(1, base.Add(2*time.Hour)),
	} {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := s.Query(ctx, TripQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records got %d", len(all))
	}
	if all[0].Travelled != 1234 || len(all[0].Path) != 3 {
		t.Fatalf("record not round-tripped: %+v", all[0])
	}

	v1, err := s.Query(ctx, TripQuery{}.ForVehicle(1))
	if err != nil {
		t.Fatalf("query vehicle: %v", err)
	}
	if len(v1) != 2 {
		t.Fatalf("expected 2 records for vehicle 1 got %d", len(v1))
	}

	window, err := s.Query(ctx, TripQuery{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(window) != 1 || window[0].VehicleID != 2 {
		t.Fatalf("unexpected window result %+v", window)
	}

	limited, err := s.Query(ctx, TripQuery{Limit: 2})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 records with limit got %d", len(limited))
	}
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "trips.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "trips.jsonl"), 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trips.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 3, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = s.Close() }()
	rec := record(1, base)
	rec.Path = make([]graph.NodeID, 60000)
	for i := 0; i < 20; i++ {
		if err := s.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(filepath.Join(dir, "trips-*.jsonl"))
	if len(files) == 0 {
		t.Fatalf("expected rotated files")
	}
	out, err := s.Query(context.Background(), TripQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected records across rotated files")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")})
	if err != nil {
		t.Fatalf("open jsonl: %v", err)
	}
	if _, ok := s.(*JSONLStore); !ok {
		t.Fatalf("expected JSONLStore got %T", s)
	}
	s, err = Open(Options{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 5})
	if err != nil {
		t.Fatalf("open rotating: %v", err)
	}
	if _, ok := s.(*RotatingJSONLStore); !ok {
		t.Fatalf("expected RotatingJSONLStore got %T", s)
	}
	_ = s.Close()
	if _, err := Open(Options{Backend: "csv"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestTripRecord_JSON(t *testing.T) {
	data, err := json.Marshal(record(4, base))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"timestamp", "vehicle_id", "trip_id", "path", "start_time", "end_time", "profit"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
}
