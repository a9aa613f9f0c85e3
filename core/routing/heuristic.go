package routing

import (
	"fmt"
	"strings"

	"github.com/kilianp07/celer/core/geo"
)

// Heuristic selects the remaining-cost estimate used by the search.
type Heuristic int

const (
	// GreatCircle divides the haversine distance by the assumed speed. It
	// never overestimates when edges are at least as long as the straight
	// line between their endpoints.
	GreatCircle Heuristic = iota
	// Manhattan divides the axis-aligned distance by the assumed speed. It
	// can overestimate, so routes are approximate.
	Manhattan
	// Zero turns the search into Dijkstra's algorithm.
	Zero
)

func (h Heuristic) String() string {
	switch h {
	case GreatCircle:
		return "great_circle"
	case Manhattan:
		return "manhattan"
	case Zero:
		return "zero"
	default:
		return fmt.Sprintf("heuristic(%d)", int(h))
	}
}

// Admissible reports whether routes found with h are guaranteed optimal.
func (h Heuristic) Admissible() bool { return h != Manhattan }

// ParseHeuristic maps a configuration value to a Heuristic.
func ParseHeuristic(s string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "great_circle", "greatcircle", "haversine":
		return GreatCircle, nil
	case "manhattan":
		return Manhattan, nil
	case "zero", "dijkstra":
		return Zero, nil
	}
	return 0, fmt.Errorf("unknown heuristic %q", s)
}

func (h Heuristic) metres(a, b geo.Point, s geo.Scale) float64 {
	switch h {
	case GreatCircle:
		return geo.Haversine(a, b)
	case Manhattan:
		return geo.Manhattan(a, b, s)
	default:
		return 0
	}
}
