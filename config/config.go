package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/celer/core/dispatch"
	"github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/infra/mqtt"
)

// Config is the application configuration. The MQTT section enables the
// telemetry publisher fed from the event bus when a broker is set.
type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Dispatch   dispatch.Config  `json:"dispatch"`
	Fare       FareConfig       `json:"fare"`
	Graph      GraphConfig      `json:"graph"`
	Trips      TripsConfig      `json:"trips"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	MQTT       mqtt.Config      `json:"mqtt"`
	HTTP       HTTPConfig       `json:"http"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_SIMULATION__VEHICLES=20 sets simulation.vehicles), fills defaults and
// validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides; the callback maps __ to the "." path
	// delimiter.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Fare.SetDefaults()
	c.Graph.SetDefaults()
	c.Logging.SetDefaults()
	c.HTTP.SetDefaults()
	if c.MQTT.Broker != "" {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	errs := []error{
		section("simulation", c.Simulation.Validate()),
		c.Dispatch.Validate(),
		section("fare", c.Fare.Validate()),
		section("graph", c.Graph.Validate()),
		section("trips", c.Trips.Validate()),
		section("logging", c.Logging.Validate()),
		section("http", c.HTTP.Validate()),
		section("sentry", c.Sentry.Validate()),
	}
	if c.Metrics.SampleEvery < 0 {
		errs = append(errs, errors.New("metrics: sample_every must not be negative"))
	}
	if c.MQTT.Broker != "" {
		errs = append(errs, c.MQTT.Validate())
		for _, m := range c.Metrics.Sinks {
			if m.Type == "mqtt" {
				errs = append(errs, errors.New("metrics: mqtt sink duplicates the mqtt.broker publisher"))
			}
		}
	}
	return errors.Join(errs...)
}

func section(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
