package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
)

type nodeLink struct {
	Directed bool       `json:"directed"`
	Nodes    []jsonNode `json:"nodes"`
	Links    []jsonLink `json:"links"`
}

type jsonNode struct {
	ID  json.RawMessage `json:"id"`
	Lat *float64        `json:"lat"`
	Lon *float64        `json:"lon"`
}

type jsonLink struct {
	Source   json.RawMessage `json:"source"`
	Target   json.RawMessage `json:"target"`
	Weight   *float64        `json:"weight"`
	Distance *float64        `json:"distance"`
	Speed    float64         `json:"speed"`
}

// LoadGraphJSON decodes a node-link document and builds the graph. unit
// converts file distances and speeds to metres. Edges are undirected.
func LoadGraphJSON(r io.Reader, unit float64) (*graph.Graph, error) {
	var doc nodeLink
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", graph.ErrInvalidGraph, err)
	}
	b := graph.NewBuilder(graph.WithDistanceUnit(unit))
	ids := make(map[string]graph.NodeID, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.Lat == nil || n.Lon == nil {
			return nil, fmt.Errorf("%w: node %d has no coordinates", graph.ErrInvalidGraph, i)
		}
		key := string(n.ID)
		if _, dup := ids[key]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %s", graph.ErrInvalidGraph, key)
		}
		ids[key] = b.AddNode(geo.Point{Lat: *n.Lat, Lon: *n.Lon})
	}
	for i, l := range doc.Links {
		u, ok := ids[string(l.Source)]
		if !ok {
			return nil, fmt.Errorf("%w: link %d: unknown source %s", graph.ErrInvalidGraph, i, l.Source)
		}
		v, ok := ids[string(l.Target)]
		if !ok {
			return nil, fmt.Errorf("%w: link %d: unknown target %s", graph.ErrInvalidGraph, i, l.Target)
		}
		if l.Weight == nil {
			return nil, fmt.Errorf("%w: link %d has no weight", graph.ErrInvalidGraph, i)
		}
		var d float64
		if l.Distance != nil {
			d = *l.Distance
		} else {
			// straight line, expressed in file units
			d = geo.Haversine(b.Point(u), b.Point(v)) / unit
		}
		b.AddEdge(u, v, *l.Weight, d, l.Speed)
	}
	return b.Build()
}

// LoadGraphFile opens path and calls LoadGraphJSON.
func LoadGraphFile(path string, unit float64) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := LoadGraphJSON(f, unit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
