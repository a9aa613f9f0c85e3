package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/celer/core/dispatch"
	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

// NodeDef is a named intersection.
type NodeDef struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// EdgeDef joins two named nodes. A zero distance means the straight line.
type EdgeDef struct {
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Weight   float64 `yaml:"weight"`
	Distance float64 `yaml:"distance,omitempty"`
}

type DispatchDef struct {
	RadiusMetres     float64 `yaml:"radius_metres"`
	CandidateFailure string  `yaml:"candidate_failure"`
	Workers          int     `yaml:"workers"`
	Heuristic        string  `yaml:"heuristic"`
	CheckSeats       bool    `yaml:"check_seats"`
}

// Config returns the admission settings with defaults applied.
func (d DispatchDef) Config() dispatch.Config {
	c := dispatch.Config{
		RadiusMetres:     d.RadiusMetres,
		CandidateFailure: d.CandidateFailure,
		Workers:          d.Workers,
		Heuristic:        d.Heuristic,
		CheckSeats:       d.CheckSeats,
	}
	c.SetDefaults()
	return c
}

type VehicleDef struct {
	ID    int    `yaml:"id"`
	Node  string `yaml:"node"`
	Seats int    `yaml:"seats"`
}

type RequestDef struct {
	Name      string `yaml:"name"`
	AtSeconds int    `yaml:"at_seconds"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Seats     int    `yaml:"seats"`
}

type Expected struct {
	Fulfilled int `yaml:"fulfilled"`
	Dropped   int `yaml:"dropped"`
	Completed int `yaml:"completed"`
	Utilised  int `yaml:"utilised"`
	// Assignments maps request names to the vehicle expected to serve them.
	Assignments map[string]int `yaml:"assignments,omitempty"`
	// TripSeconds maps request names to the simulated leg duration.
	TripSeconds map[string]float64 `yaml:"trip_seconds,omitempty"`
}

type Scenario struct {
	Name            string       `yaml:"name"`
	Description     string       `yaml:"description,omitempty"`
	Start           string       `yaml:"start"`
	TickSeconds     float64      `yaml:"tick_seconds"`
	DurationSeconds float64      `yaml:"duration_seconds"`
	Dispatch        DispatchDef  `yaml:"dispatch"`
	FuelPrice       *float64     `yaml:"fuel_price,omitempty"`
	Nodes           []NodeDef    `yaml:"nodes"`
	Edges           []EdgeDef    `yaml:"edges"`
	Vehicles        []VehicleDef `yaml:"vehicles"`
	Requests        []RequestDef `yaml:"requests"`
	Expected        Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.TickSeconds <= 0 || sc.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%s: tick_seconds and duration_seconds must be positive", path)
	}
	if _, err := sc.StartTime(); err != nil {
		return nil, fmt.Errorf("%s: start: %w", path, err)
	}
	return &sc, nil
}

// StartTime parses Start.
func (sc *Scenario) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, sc.Start)
}

// Build returns the graph with node handles keyed by name.
func (sc *Scenario) Build() (*graph.Graph, map[string]graph.NodeID, error) {
	b := graph.NewBuilder()
	ids := make(map[string]graph.NodeID, len(sc.Nodes))
	for _, n := range sc.Nodes {
		ids[n.Name] = b.AddNode(geo.Point{Lat: n.Lat, Lon: n.Lon})
	}
	for _, e := range sc.Edges {
		u, ok := ids[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("edge %s-%s: unknown node %s", e.From, e.To, e.From)
		}
		v, ok := ids[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("edge %s-%s: unknown node %s", e.From, e.To, e.To)
		}
		d := e.Distance
		if d == 0 {
			d = geo.Haversine(b.Point(u), b.Point(v))
		}
		b.AddEdge(u, v, e.Weight, d, 0)
	}
	g, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return g, ids, nil
}

// Request converts r using the graph built from the scenario.
func (r RequestDef) Request(g *graph.Graph, ids map[string]graph.NodeID, start time.Time) (*model.Request, error) {
	from, ok := ids[r.From]
	if !ok {
		return nil, fmt.Errorf("request %s: unknown node %s", r.Name, r.From)
	}
	to, ok := ids[r.To]
	if !ok {
		return nil, fmt.Errorf("request %s: unknown node %s", r.Name, r.To)
	}
	at := start.Add(time.Duration(r.AtSeconds) * time.Second)
	return model.NewRequest(g.Point(from), g.Point(to), at, r.Seats), nil
}
