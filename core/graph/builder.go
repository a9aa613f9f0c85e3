package graph

import (
	"fmt"
	"math"

	"github.com/kilianp07/celer/core/geo"
)

// FeetToMetres converts survey distances expressed in feet.
const FeetToMetres = 0.3048

// Option configures a Builder.
type Option func(*Builder)

// WithDistanceUnit multiplies every edge distance by factor so that the
// built graph is expressed in metres.
func WithDistanceUnit(factor float64) Option {
	return func(b *Builder) { b.unit = factor }
}

// WithScale fixes the metres-per-degree factors instead of deriving them
// from the mean latitude of the nodes.
func WithScale(s geo.Scale) Option {
	return func(b *Builder) { b.scale = &s }
}

type rawEdge struct {
	u, v     NodeID
	weight   float64
	distance float64
	speed    float64
}

// Builder accumulates nodes and edges and validates them in Build. It is not
// safe for concurrent use.
type Builder struct {
	points []geo.Point
	index  map[pointKey]NodeID
	edges  []rawEdge
	unit   float64
	scale  *geo.Scale
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{index: make(map[pointKey]NodeID), unit: 1}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddNode registers p and returns its handle. Adding the same coordinate
// twice returns the existing node.
func (b *Builder) AddNode(p geo.Point) NodeID {
	k := keyOf(p)
	if id, ok := b.index[k]; ok {
		return id
	}
	id := NodeID(len(b.points))
	b.points = append(b.points, p)
	b.index[k] = id
	return id
}

// Point returns the coordinate registered for id.
func (b *Builder) Point(id NodeID) geo.Point { return b.points[id] }

// AddEdge records an undirected road segment. Distance and speed share the
// source unit. A zero speed is derived from distance and weight during Build.
func (b *Builder) AddEdge(u, v NodeID, weight, distance, speed float64) {
	b.edges = append(b.edges, rawEdge{u: u, v: v, weight: weight, distance: distance, speed: speed})
}

// Build validates the recorded network and returns an immutable Graph.
// Parallel segments between the same pair keep the lowest weight.
func (b *Builder) Build() (*Graph, error) {
	if b.unit <= 0 || math.IsNaN(b.unit) || math.IsInf(b.unit, 0) {
		return nil, fmt.Errorf("%w: distance unit %v", ErrInvalidGraph, b.unit)
	}
	n := len(b.points)
	type pair struct{ a, b NodeID }
	kept := make([]rawEdge, 0, len(b.edges))
	seen := make(map[pair]int, len(b.edges))
	for i, e := range b.edges {
		if e.u < 0 || int(e.u) >= n || e.v < 0 || int(e.v) >= n {
			return nil, fmt.Errorf("%w: edge %d references unknown node", ErrInvalidGraph, i)
		}
		if e.u == e.v {
			return nil, fmt.Errorf("%w: self-loop on node %d", ErrInvalidGraph, e.u)
		}
		if !positive(e.weight) {
			return nil, fmt.Errorf("%w: edge %d-%d weight %v", ErrInvalidGraph, e.u, e.v, e.weight)
		}
		e.distance *= b.unit
		if !positive(e.distance) {
			return nil, fmt.Errorf("%w: edge %d-%d distance %v", ErrInvalidGraph, e.u, e.v, e.distance)
		}
		switch {
		case e.speed == 0:
			e.speed = e.distance / e.weight
		case !positive(e.speed):
			return nil, fmt.Errorf("%w: edge %d-%d speed %v", ErrInvalidGraph, e.u, e.v, e.speed)
		default:
			e.speed *= b.unit
		}
		k := pair{e.u, e.v}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		if j, ok := seen[k]; ok {
			if e.weight < kept[j].weight {
				kept[j] = e
			}
			continue
		}
		seen[k] = len(kept)
		kept = append(kept, e)
	}

	deg := make([]int32, n+1)
	for _, e := range kept {
		deg[e.u+1]++
		deg[e.v+1]++
	}
	for i := 1; i <= n; i++ {
		deg[i] += deg[i-1]
	}
	offsets := append([]int32(nil), deg...)
	edges := make([]Edge, 2*len(kept))
	fill := append([]int32(nil), deg[:n]...)
	var maxSpeed float64
	for _, e := range kept {
		edges[fill[e.u]] = Edge{To: e.v, Weight: e.weight, Distance: e.distance, Speed: e.speed}
		fill[e.u]++
		edges[fill[e.v]] = Edge{To: e.u, Weight: e.weight, Distance: e.distance, Speed: e.speed}
		fill[e.v]++
		maxSpeed = math.Max(maxSpeed, e.distance/e.weight)
	}

	g := &Graph{
		points:   append([]geo.Point(nil), b.points...),
		offsets:  offsets,
		edges:    edges,
		index:    make(map[pointKey]NodeID, n),
		maxSpeed: maxSpeed,
	}
	for k, v := range b.index {
		g.index[k] = v
	}
	if b.scale != nil {
		g.scale = *b.scale
	} else {
		g.scale = geo.ScaleAt(meanLat(b.points))
	}
	return g, nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

func meanLat(pts []geo.Point) float64 {
	if len(pts) == 0 {
		return geo.DefaultReferenceLat
	}
	var sum float64
	for _, p := range pts {
		sum += p.Lat
	}
	return sum / float64(len(pts))
}
