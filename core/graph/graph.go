// Package graph provides the immutable road network shared by routing,
// admission control and kinematics. Graphs are assembled with a Builder and
// are safe for concurrent readers once built.
package graph

import (
	"errors"
	"math"

	"github.com/kilianp07/celer/core/geo"
)

// ErrInvalidGraph is returned by Build when the network violates an edge or
// node invariant.
var ErrInvalidGraph = errors.New("invalid graph")

// NodeID is the dense handle of an intersection inside a Graph.
type NodeID int32

// Edge is one direction of a road segment. Weight is the search cost in
// seconds, Distance is metres and Speed is metres per second.
type Edge struct {
	To       NodeID
	Weight   float64
	Distance float64
	Speed    float64
}

// TravelTime returns the seconds needed to cover the remaining part of the
// edge after progress metres.
func (e Edge) TravelTime(progress float64) float64 {
	rem := e.Distance - progress
	if rem <= 0 {
		return 0
	}
	return rem / e.Speed
}

type pointKey struct {
	lat, lon geo.Fixed
}

func keyOf(p geo.Point) pointKey {
	return pointKey{geo.ToFixed(p.Lat), geo.ToFixed(p.Lon)}
}

// Graph is an undirected weighted road network stored as compressed
// adjacency lists. Neighbours are kept in insertion order.
type Graph struct {
	points   []geo.Point
	offsets  []int32
	edges    []Edge
	index    map[pointKey]NodeID
	maxSpeed float64
	scale    geo.Scale
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.points) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return len(g.edges) / 2 }

// Valid reports whether id refers to a node of g.
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.points)
}

// Point returns the coordinate of id.
func (g *Graph) Point(id NodeID) geo.Point { return g.points[id] }

// Neighbors returns the outgoing edges of id. The slice must not be modified.
func (g *Graph) Neighbors(id NodeID) []Edge {
	return g.edges[g.offsets[id]:g.offsets[id+1]]
}

// Edge returns the edge u→v if present.
func (g *Graph) Edge(u, v NodeID) (Edge, bool) {
	if !g.Valid(u) || !g.Valid(v) {
		return Edge{}, false
	}
	for _, e := range g.Neighbors(u) {
		if e.To == v {
			return e, true
		}
	}
	return Edge{}, false
}

// NodeAt resolves an exact coordinate to its node.
func (g *Graph) NodeAt(p geo.Point) (NodeID, bool) {
	id, ok := g.index[keyOf(p)]
	return id, ok
}

// Nearest returns the node closest to p by great-circle distance. Exact
// matches are resolved without scanning.
func (g *Graph) Nearest(p geo.Point) (NodeID, bool) {
	if id, ok := g.NodeAt(p); ok {
		return id, true
	}
	best, bestDist := NodeID(-1), math.Inf(1)
	for i, q := range g.points {
		if d := geo.Haversine(p, q); d < bestDist {
			best, bestDist = NodeID(i), d
		}
	}
	return best, best >= 0
}

// MaxSpeed returns the highest Distance/Weight ratio over all edges. Dividing
// a straight-line distance by it never overestimates a remaining weight as
// long as edges are no shorter than the gap between their endpoints.
func (g *Graph) MaxSpeed() float64 { return g.maxSpeed }

// Scale returns the local metres-per-degree factors for the network.
func (g *Graph) Scale() geo.Scale { return g.scale }

// PathDistance sums the edge distances along nodes.
func (g *Graph) PathDistance(nodes []NodeID) (float64, bool) {
	var total float64
	for i := 1; i < len(nodes); i++ {
		e, ok := g.Edge(nodes[i-1], nodes[i])
		if !ok {
			return 0, false
		}
		total += e.Distance
	}
	return total, true
}
