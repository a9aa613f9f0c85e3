package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

var tripColumns = []string{"pickup_time", "start_lat", "start_lon", "stop_lat", "stop_lon", "seats", "max_time"}

// LoadTripsCSV reads requests from r. The header row is required; columns
// may appear in any order and seats/max_time may be omitted.
func LoadTripsCSV(r io.Reader) ([]*model.Request, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range tripColumns[:5] {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var reqs []*model.Request
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		req, err := parseTrip(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseTrip(rec []string, col map[string]int) (*model.Request, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	pickup, err := time.Parse(time.RFC3339, field("pickup_time"))
	if err != nil {
		return nil, fmt.Errorf("pickup_time: %w", err)
	}
	var c [4]float64
	for i, name := range tripColumns[1:5] {
		if c[i], err = num(name); err != nil {
			return nil, err
		}
	}
	seats := 1
	if s := field("seats"); s != "" {
		if seats, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("seats: %w", err)
		}
	}
	req := model.NewRequest(geo.Point{Lat: c[0], Lon: c[1]}, geo.Point{Lat: c[2], Lon: c[3]}, pickup, seats)
	if s := field("max_time"); s != "" {
		if req.MaxTime, err = time.ParseDuration(s); err != nil {
			return nil, fmt.Errorf("max_time: %w", err)
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// LoadTripsFile opens path and calls LoadTripsCSV.
func LoadTripsFile(path string) ([]*model.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reqs, err := LoadTripsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// RandomTrips draws n requests between distinct random nodes of g with
// pickup times spread uniformly over [start, end).
func RandomTrips(g *graph.Graph, rng *rand.Rand, n int, start, end time.Time, seats int) []*model.Request {
	if g.Len() < 2 || n <= 0 {
		return nil
	}
	span := end.Sub(start)
	reqs := make([]*model.Request, 0, n)
	for i := 0; i < n; i++ {
		a := graph.NodeID(rng.Intn(g.Len()))
		b := graph.NodeID(rng.Intn(g.Len() - 1))
		if b >= a {
			b++
		}
		at := start
		if span > 0 {
			at = start.Add(time.Duration(rng.Int63n(int64(span))))
		}
		reqs = append(reqs, model.NewRequest(g.Point(a), g.Point(b), at, seats))
	}
	return reqs
}
