// Package routing finds minimum-weight paths over a graph.Graph with A*.
package routing

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
)

var (
	// ErrNoPathFound is returned when source and target are disconnected.
	ErrNoPathFound = errors.New("no path found")
	// ErrUnknownNode is returned for node handles or points outside the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// ctxCheckInterval is the number of expansions between cancellation checks.
const ctxCheckInterval = 1024

// Route is a minimum-weight node sequence.
type Route struct {
	Nodes    []graph.NodeID
	Cost     float64
	Distance float64
}

// Option configures a Router.
type Option func(*Router)

// WithHeuristic selects the estimate used by the search.
func WithHeuristic(h Heuristic) Option {
	return func(r *Router) { r.h = h }
}

// WithAssumedSpeed overrides the speed in metres per second used to turn a
// geometric distance into a weight estimate.
func WithAssumedSpeed(mps float64) Option {
	return func(r *Router) {
		if mps > 0 {
			r.speed = mps
		}
	}
}

// Router runs A* searches over a shared immutable graph. It holds no
// per-query state and is safe for concurrent use.
type Router struct {
	g     *graph.Graph
	h     Heuristic
	speed float64
}

// NewRouter returns a Router using GreatCircle and the graph's maximum
// speed unless overridden.
func NewRouter(g *graph.Graph, opts ...Option) *Router {
	r := &Router{g: g, h: GreatCircle, speed: g.MaxSpeed()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Graph returns the network the router searches.
func (r *Router) Graph() *graph.Graph { return r.g }

// Heuristic returns the configured estimate.
func (r *Router) Heuristic() Heuristic { return r.h }

func (r *Router) estimate(n, target graph.NodeID) float64 {
	if r.speed <= 0 {
		return 0
	}
	return r.h.metres(r.g.Point(n), r.g.Point(target), r.g.Scale()) / r.speed
}

// Route returns the minimum-weight path from → to. Search state lives in
// maps sized by the explored region only. Equal-priority entries are
// expanded in insertion order so results are reproducible.
func (r *Router) Route(ctx context.Context, from, to graph.NodeID) (Route, error) {
	if !r.g.Valid(from) || !r.g.Valid(to) {
		return Route{}, fmt.Errorf("%w: %d -> %d", ErrUnknownNode, from, to)
	}
	if from == to {
		return Route{Nodes: []graph.NodeID{from}}, nil
	}

	gScore := map[graph.NodeID]float64{from: 0}
	cameFrom := make(map[graph.NodeID]graph.NodeID)
	travelled := map[graph.NodeID]float64{from: 0}
	closed := make(map[graph.NodeID]struct{})

	pq := &priorityQueue{}
	var seq uint64
	heap.Push(pq, &pqItem{node: from, priority: r.estimate(from, to), seq: seq})

	expansions := 0
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if _, done := closed[current]; done {
			continue
		}
		if current == to {
			return Route{
				Nodes:    reconstructPath(cameFrom, current),
				Cost:     gScore[current],
				Distance: travelled[current],
			}, nil
		}
		closed[current] = struct{}{}

		expansions++
		if expansions%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Route{}, err
			}
		}

		base := gScore[current]
		for _, e := range r.g.Neighbors(current) {
			if _, done := closed[e.To]; done {
				continue
			}
			tentative := base + e.Weight
			if old, ok := gScore[e.To]; ok && tentative >= old {
				continue
			}
			gScore[e.To] = tentative
			cameFrom[e.To] = current
			travelled[e.To] = travelled[current] + e.Distance
			seq++
			heap.Push(pq, &pqItem{node: e.To, priority: tentative + r.estimate(e.To, to), seq: seq})
		}
	}
	return Route{}, fmt.Errorf("%w: %d -> %d", ErrNoPathFound, from, to)
}

// RouteBetween resolves a and b to their exact or nearest nodes and routes
// between them.
func (r *Router) RouteBetween(ctx context.Context, a, b geo.Point) (Route, error) {
	from, ok := r.g.Nearest(a)
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownNode, a)
	}
	to, ok := r.g.Nearest(b)
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownNode, b)
	}
	return r.Route(ctx, from, to)
}

func reconstructPath(cameFrom map[graph.NodeID]graph.NodeID, current graph.NodeID) []graph.NodeID {
	path := []graph.NodeID{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pqItem struct {
	node     graph.NodeID
	priority float64
	seq      uint64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
