package config

import (
	"fmt"

	"github.com/kilianp07/celer/core/graph"
)

// GraphConfig locates the road network.
type GraphConfig struct {
	// Path is a node-link JSON file.
	Path string `json:"path"`
	// Unit is the distance unit used in the file: "metres" or "feet".
	Unit string `json:"unit"`
}

func (c *GraphConfig) SetDefaults() {
	if c.Unit == "" {
		c.Unit = "metres"
	}
}

func (c GraphConfig) Validate() error {
	if _, err := c.UnitFactor(); err != nil {
		return err
	}
	return nil
}

// UnitFactor returns the multiplier converting file distances to metres.
func (c GraphConfig) UnitFactor() (float64, error) {
	switch c.Unit {
	case "", "metres", "meters", "m":
		return 1, nil
	case "feet", "ft":
		return graph.FeetToMetres, nil
	default:
		return 0, fmt.Errorf("unknown distance unit %q", c.Unit)
	}
}

// TripsConfig selects the request source.
type TripsConfig struct {
	// Path is a CSV file of requests. When empty, Random requests are
	// generated between graph nodes.
	Path   string `json:"path"`
	Random int    `json:"random"`
	// Seats requested by generated trips.
	Seats int `json:"seats"`
}

func (c TripsConfig) Validate() error {
	if c.Random < 0 {
		return fmt.Errorf("random must not be negative")
	}
	if c.Seats < 0 {
		return fmt.Errorf("seats must not be negative")
	}
	return nil
}

// HTTPConfig exposes the reporting API.
type HTTPConfig struct {
	// Addr enables the API when non-empty.
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token.
	Token string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {}

func (c HTTPConfig) Validate() error {
	if c.Token != "" && c.Addr == "" {
		return fmt.Errorf("token set without addr")
	}
	return nil
}
