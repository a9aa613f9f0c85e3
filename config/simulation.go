package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultStart is the simulated instant the clock starts from.
const DefaultStart = "2015-01-01T00:00:00Z"

// SimulationConfig drives the clock and the fleet.
type SimulationConfig struct {
	// Start and End are RFC 3339 timestamps.
	Start       string  `json:"start"`
	End         string  `json:"end"`
	TickSeconds float64 `json:"tick_seconds"`
	Vehicles    int     `json:"vehicles"`
	Seats       int     `json:"seats"`
	Fuel        float64 `json:"fuel"`
	// Seed feeds the placement RNG. Zero picks a seed from the clock.
	Seed int64 `json:"seed"`
	// TickWorkers bounds the goroutines moving vehicles.
	TickWorkers int `json:"tick_workers"`
	// Drain keeps ticking after End until every vehicle is idle.
	Drain bool `json:"drain"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Start == "" {
		c.Start = DefaultStart
	}
	if c.End == "" {
		c.End = "2015-01-01T01:00:00Z"
	}
	if c.TickSeconds == 0 {
		c.TickSeconds = 30
	}
	if c.Vehicles == 0 {
		c.Vehicles = 10
	}
	if c.Seats == 0 {
		c.Seats = 4
	}
	if c.Fuel == 0 {
		c.Fuel = 100
	}
	if c.TickWorkers == 0 {
		c.TickWorkers = 8
	}
}

func (c SimulationConfig) Validate() error {
	start, err := time.Parse(time.RFC3339, c.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, c.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if !end.After(start) {
		return errors.New("end must be after start")
	}
	if c.TickSeconds <= 0 {
		return errors.New("tick_seconds must be positive")
	}
	if c.Vehicles <= 0 {
		return errors.New("vehicles must be positive")
	}
	if c.Seats <= 0 {
		return errors.New("seats must be positive")
	}
	if c.Fuel <= 0 {
		return errors.New("fuel must be positive")
	}
	if c.TickWorkers <= 0 {
		return errors.New("tick_workers must be positive")
	}
	return nil
}

// StartTime returns the parsed Start. It is only meaningful after Validate.
func (c SimulationConfig) StartTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.Start)
	return t
}

// EndTime returns the parsed End.
func (c SimulationConfig) EndTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.End)
	return t
}

// Tick returns the tick length.
func (c SimulationConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds * float64(time.Second))
}
