package dispatch

import (
	"fmt"
	"strings"

	"github.com/kilianp07/celer/core/routing"
)

// DefaultRadiusMetres is the proximity cutoff for candidate vehicles.
const DefaultRadiusMetres = 3000.0

// Config defines admission settings.
type Config struct {
	// RadiusMetres is the straight-line cutoff between a vehicle and the
	// pickup point.
	RadiusMetres float64 `json:"radius_metres"`
	// CandidateFailure is "skip" or "fail_fast".
	CandidateFailure string `json:"candidate_failure"`
	// Workers bounds the concurrent pickup route searches per request.
	Workers int `json:"workers"`
	// Heuristic is "great_circle", "manhattan" or "zero".
	Heuristic string `json:"heuristic"`
	// CheckSeats drops in-range vehicles with fewer seats than requested.
	CheckSeats bool `json:"check_seats"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RadiusMetres == 0 {
		c.RadiusMetres = DefaultRadiusMetres
	}
	if c.CandidateFailure == "" {
		c.CandidateFailure = Skip.String()
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Heuristic == "" {
		c.Heuristic = routing.GreatCircle.String()
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.RadiusMetres <= 0 {
		return fmt.Errorf("dispatch.radius_metres must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("dispatch.workers must be positive")
	}
	if _, err := ParseCandidateFailure(c.CandidateFailure); err != nil {
		return err
	}
	if _, err := routing.ParseHeuristic(c.Heuristic); err != nil {
		return fmt.Errorf("dispatch.heuristic: %w", err)
	}
	return nil
}

// CandidateFailure is the policy applied when a pickup route cannot be found.
type CandidateFailure int

const (
	// Skip ignores the failing vehicle and keeps scoring the others.
	Skip CandidateFailure = iota
	// FailFast stops scoring at the first failing vehicle and decides among
	// the ones already scored.
	FailFast
)

func (p CandidateFailure) String() string {
	if p == FailFast {
		return "fail_fast"
	}
	return "skip"
}

// ParseCandidateFailure maps a configuration value to a policy.
func ParseCandidateFailure(s string) (CandidateFailure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return Skip, nil
	case "fail_fast", "failfast":
		return FailFast, nil
	}
	return Skip, fmt.Errorf("unknown candidate failure policy %q", s)
}
