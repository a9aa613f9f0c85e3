package kinematics

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

var t0 = time.Date(2015, 1, 1, 8, 0, 0, 0, time.UTC)

// corridor builds A-C-B with two 10 second edges.
func corridor(t *testing.T) (*graph.Graph, graph.NodeID, graph.NodeID, graph.NodeID) {
	t.Helper()
	b := graph.NewBuilder()
	pa := geo.Point{Lat: 40.7000, Lon: -74.0000}
	pc := geo.Point{Lat: 40.7010, Lon: -74.0000}
	pb := geo.Point{Lat: 40.7010, Lon: -73.9990}
	a, c, bb := b.AddNode(pa), b.AddNode(pc), b.AddNode(pb)
	b.AddEdge(a, c, 10, geo.Haversine(pa, pc), 0)
	b.AddEdge(c, bb, 10, geo.Haversine(pc, pb), 0)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g, a, c, bb
}

func assign(g *graph.Graph, v *model.Vehicle, path []graph.NodeID) *model.Trip {
	req := model.NewRequest(g.Point(path[0]), g.Point(path[len(path)-1]), t0, 1)
	trip := model.NewTrip(req, path, t0)
	v.Assign(trip)
	return trip
}

func TestTickScenarioCorridor(t *testing.T) {
	g, a, c, b := corridor(t)
	e := NewEngine(g)
	v := model.NewVehicle(1, g, a, 4, 0)
	trip := assign(g, v, []graph.NodeID{a, c, b})

	s1 := e.Tick(v, t0, 5*time.Second)
	if s1.Completed || v.Node != a || len(trip.Pending) != 2 {
		t.Fatalf("after first tick expected mid-edge, node=%d pending=%v", v.Node, trip.Pending)
	}
	if v.Position.Equal(g.Point(a)) || v.Position.Equal(g.Point(c)) {
		t.Fatalf("expected interpolated position got %s", v.Position)
	}

	s2 := e.Tick(v, t0.Add(5*time.Second), 5*time.Second)
	if s2.Completed || v.Node != c || !v.Position.Equal(g.Point(c)) {
		t.Fatalf("after second tick expected at C got node=%d pos=%s", v.Node, v.Position)
	}
	if len(s2.Reached) != 1 || s2.Reached[0] != c {
		t.Fatalf("expected to reach C got %v", s2.Reached)
	}

	s3 := e.Tick(v, t0.Add(10*time.Second), 10*time.Second)
	if !s3.Completed || v.Node != b || !v.Position.Equal(g.Point(b)) {
		t.Fatalf("after third tick expected completion at B got node=%d", v.Node)
	}
	if !v.Available || len(v.Trips) != 0 || len(v.Log) != 1 {
		t.Fatalf("trip not moved to log: available=%v trips=%d log=%d", v.Available, len(v.Trips), len(v.Log))
	}
	if got := v.Log[0].EndTime.Sub(t0); got != 20*time.Second {
		t.Fatalf("expected end time +20s got %v", got)
	}

	total, _ := g.PathDistance([]graph.NodeID{a, c, b})
	sum := s1.Advanced + s2.Advanced + s3.Advanced
	if math.Abs(sum-total) > 1e-6 {
		t.Fatalf("expected %v metres advanced got %v", total, sum)
	}
}

func TestTickFinishesEarly(t *testing.T) {
	g, a, c, _ := corridor(t)
	e := NewEngine(g)
	v := model.NewVehicle(1, g, a, 4, 0)
	assign(g, v, []graph.NodeID{a, c})
	s := e.Tick(v, t0, time.Minute)
	if !s.Completed {
		t.Fatalf("expected completion")
	}
	if s.Elapsed != 10*time.Second || v.Log[0].EndTime != t0.Add(10*time.Second) {
		t.Fatalf("expected 10s elapsed got %v", s.Elapsed)
	}
}

func TestTickZeroDurationIsNoop(t *testing.T) {
	g, a, c, b := corridor(t)
	e := NewEngine(g)
	v := model.NewVehicle(1, g, a, 4, 0)
	trip := assign(g, v, []graph.NodeID{a, c, b})
	e.Tick(v, t0, 3*time.Second)
	before := v.Snapshot()

	s := e.Tick(v, t0.Add(3*time.Second), 0)
	if s.Advanced != 0 || s.Completed || s.Trip != nil {
		t.Fatalf("zero tick reported movement %+v", s)
	}
	if v.Position != before.Position || v.EdgeProgress != before.EdgeProgress || v.Node != before.Node {
		t.Fatalf("zero tick changed position")
	}
	if len(trip.Pending) != len(before.Trips[0].Pending) || trip.EndTime != before.Trips[0].EndTime {
		t.Fatalf("zero tick changed leg state")
	}
}

func TestTickIdleVehicle(t *testing.T) {
	g, a, _, _ := corridor(t)
	v := model.NewVehicle(1, g, a, 4, 0)
	if s := NewEngine(g).Tick(v, t0, time.Hour); s.Trip != nil || s.Advanced != 0 {
		t.Fatalf("idle vehicle moved: %+v", s)
	}
}

func TestTickSingleNodePathCompletes(t *testing.T) {
	g, a, _, _ := corridor(t)
	v := model.NewVehicle(1, g, a, 4, 0)
	assign(g, v, []graph.NodeID{a})
	s := NewEngine(g).Tick(v, t0, time.Second)
	if !s.Completed || s.Elapsed != 0 || !v.Available {
		t.Fatalf("expected immediate completion got %+v", s)
	}
}

func TestPartialMoveClampsOnGeometricOvershoot(t *testing.T) {
	b := graph.NewBuilder()
	pa := geo.Point{Lat: 40.7, Lon: -74.0}
	pc := geo.Point{Lat: 40.7001, Lon: -74.0}
	a, c := b.AddNode(pa), b.AddNode(pc)
	// the road is ten times longer than the straight line
	b.AddEdge(a, c, 100, 10*geo.Haversine(pa, pc), 0)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v := model.NewVehicle(1, g, a, 4, 0)
	assign(g, v, []graph.NodeID{a, c})
	e, _ := g.Edge(a, c)
	s := NewEngine(g).Tick(v, t0, 50*time.Second)
	if !s.Completed || v.Node != c {
		t.Fatalf("expected clamp to C and completion got %+v", s)
	}
	if math.Abs(s.Advanced-e.Distance) > 1e-9 {
		t.Fatalf("expected full edge credited got %v", s.Advanced)
	}
}

func TestDistanceConservedOverRandomTicks(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := graph.NewBuilder()
	var path []graph.NodeID
	p := geo.Point{Lat: 40.70, Lon: -74.00}
	prev := b.AddNode(p)
	path = append(path, prev)
	for i := 0; i < 30; i++ {
		q := geo.Point{Lat: p.Lat + (rng.Float64()-0.5)*0.004, Lon: p.Lon + (rng.Float64()-0.5)*0.004}
		n := b.AddNode(q)
		d := geo.Haversine(p, q)*(1+rng.Float64()*0.2) + 1
		b.AddEdge(prev, n, d/(4+rng.Float64()*10), d, 0)
		path = append(path, n)
		prev, p = n, q
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want, ok := g.PathDistance(path)
	if !ok {
		t.Fatalf("path not connected")
	}
	for round := 0; round < 20; round++ {
		v := model.NewVehicle(1, g, path[0], 4, 0)
		trip := assign(g, v, append([]graph.NodeID(nil), path...))
		e := NewEngine(g)
		now := t0
		var sum float64
		for i := 0; i < 100000 && !v.Available; i++ {
			d := time.Duration(rng.Intn(20000)) * time.Millisecond
			s := e.Tick(v, now, d)
			sum += s.Advanced
			now = now.Add(d)
		}
		if !v.Available {
			t.Fatalf("round %d: leg never completed", round)
		}
		if math.Abs(sum-want) > 1e-6 {
			t.Fatalf("round %d: advanced %v want %v", round, sum, want)
		}
		if math.Abs(trip.Travelled-want) > 1e-6 {
			t.Fatalf("round %d: travelled %v want %v", round, trip.Travelled, want)
		}
	}
}
