package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilianp07/celer/core/triplog"
)

// LoggingConfig locates the trip log. Completed legs are appended to it and
// the trips command and GET /api/trips read it back.
type LoggingConfig struct {
	// Backend is "jsonl" or "sqlite". When empty it follows the extension
	// of Path: .db, .sqlite and .sqlite3 select sqlite.
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Rotation limits apply to jsonl only. A zero MaxSizeMB disables
	// rotation.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "trips.jsonl"
	}
	if c.Backend == "" {
		switch strings.ToLower(filepath.Ext(c.Path)) {
		case ".db", ".sqlite", ".sqlite3":
			c.Backend = "sqlite"
		default:
			c.Backend = "jsonl"
		}
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case "jsonl":
	case "sqlite":
		if c.MaxSizeMB > 0 {
			return fmt.Errorf("rotation is not supported by the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}

// Options converts the section for triplog.Open.
func (c LoggingConfig) Options() triplog.Options {
	return triplog.Options{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
