// Package kinematics advances vehicles along their committed paths as
// simulated time passes.
package kinematics

import (
	"math"
	"time"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/model"
)

// timeEpsilon absorbs rounding when an edge finishes exactly at the end of a
// tick.
const timeEpsilon = 1e-9

// Step describes what a single tick did to a vehicle.
type Step struct {
	// Advanced is the distance in edge metres credited during the tick.
	Advanced float64
	// Reached lists the nodes arrived at, in order.
	Reached []graph.NodeID
	// Completed is set when the active leg finished during the tick.
	Completed bool
	// Trip is the leg that was driven.
	Trip *model.Trip
	// Elapsed is the simulated time consumed by movement.
	Elapsed time.Duration
}

// Engine moves vehicles over a shared graph. It keeps no per-vehicle state,
// so distinct vehicles can be ticked concurrently.
type Engine struct {
	g     *graph.Graph
	scale geo.Scale
}

// NewEngine returns an Engine that converts metres to degrees with the
// graph's scale factors.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{g: g, scale: g.Scale()}
}

// Tick moves v for d of simulated time starting at start. Whole edges are
// consumed first. Leftover time moves the vehicle part way along the next
// edge. A zero duration or an idle vehicle is left untouched.
func (e *Engine) Tick(v *model.Vehicle, start time.Time, d time.Duration) Step {
	trip := v.ActiveTrip()
	if trip == nil || d <= 0 {
		return Step{}
	}
	step := Step{Trip: trip}
	remaining := d.Seconds()

	for len(trip.Pending) > 0 {
		next := trip.Pending[0]
		edge, ok := e.g.Edge(v.Node, next)
		if !ok {
			// not adjacent: jump without crediting distance
			e.arrive(v, trip, next, &step, 0)
			continue
		}
		need := edge.TravelTime(v.EdgeProgress)
		if need > remaining+timeEpsilon {
			break
		}
		remaining -= need
		if remaining < 0 {
			remaining = 0
		}
		e.arrive(v, trip, next, &step, edge.Distance-v.EdgeProgress)
	}

	if len(trip.Pending) == 0 {
		step.Elapsed = d - secondsToDuration(remaining)
		e.finish(v, trip, start.Add(step.Elapsed), &step)
		return step
	}

	if remaining > timeEpsilon {
		e.partial(v, trip, remaining, &step)
	}
	step.Elapsed = d
	if len(trip.Pending) == 0 {
		e.finish(v, trip, start.Add(d), &step)
		return step
	}
	trip.EndTime = start.Add(d)
	return step
}

// partial moves v along the edge towards the next pending node for seconds.
// The offset is laid out along the bearing to that node and clamped to it.
func (e *Engine) partial(v *model.Vehicle, trip *model.Trip, seconds float64, step *Step) {
	next := trip.Pending[0]
	edge, ok := e.g.Edge(v.Node, next)
	if !ok {
		return
	}
	offset := seconds * edge.Speed
	target := e.g.Point(next)
	gap := e.scale.Planar(v.Position, target)
	left := edge.Distance - v.EdgeProgress
	if offset >= gap || offset >= left {
		e.arrive(v, trip, next, step, left)
		return
	}
	bearing := e.scale.Bearing(v.Position, target)
	v.Position = e.scale.Offset(v.Position, bearing, offset)
	v.EdgeProgress += offset
	trip.Travelled += offset
	step.Advanced += offset
}

func (e *Engine) arrive(v *model.Vehicle, trip *model.Trip, n graph.NodeID, step *Step, credit float64) {
	v.Node = n
	v.Position = e.g.Point(n)
	v.EdgeProgress = 0
	trip.Pending = trip.Pending[1:]
	trip.Travelled += credit
	step.Advanced += credit
	step.Reached = append(step.Reached, n)
}

func (e *Engine) finish(v *model.Vehicle, trip *model.Trip, end time.Time, step *Step) {
	v.Position = e.g.Point(v.Node)
	trip.EndTime = end
	v.Complete()
	step.Completed = true
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
