package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/celer/core/factory"
	"github.com/kilianp07/celer/core/fare"
	"github.com/kilianp07/celer/core/graph"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `simulation:
  start: "2015-01-01T08:00:00Z"
  end: "2015-01-01T09:00:00Z"
  tick_seconds: 15
  vehicles: 25
  seed: 42
dispatch:
  radius_metres: 1500
  candidate_failure: fail_fast
  heuristic: manhattan
fare:
  fuel_price: 1.2
graph:
  path: "manhattan.json"
  unit: feet
trips:
  path: "trips.csv"
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: "nop"
logging:
  backend: sqlite
  path: "trips.db"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "nyc"
http:
  addr: ":8080"
  token: "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	unit, _ := cfg.Graph.UnitFactor()
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"simulation.start", cfg.Simulation.StartTime(), time.Date(2015, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"simulation.tick", cfg.Simulation.Tick(), 15 * time.Second},
		{"simulation.vehicles", cfg.Simulation.Vehicles, 25},
		{"simulation.seed", cfg.Simulation.Seed, int64(42)},
		{"simulation.seats default", cfg.Simulation.Seats, 4},
		{"dispatch.radius", cfg.Dispatch.RadiusMetres, 1500.0},
		{"dispatch.candidate_failure", cfg.Dispatch.CandidateFailure, "fail_fast"},
		{"dispatch.workers default", cfg.Dispatch.Workers, 4},
		{"fare.fuel_price", cfg.Fare.Model().FuelPrice, 1.2},
		{"fare.base default", cfg.Fare.Model().Base, fare.Default().Base},
		{"graph.unit", unit, graph.FeetToMetres},
		{"trips.path", cfg.Trips.Path, "trips.csv"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"logging.backend", cfg.Logging.Options().Backend, "sqlite"},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "nyc"},
		{"mqtt.max_retries default", cfg.MQTT.MaxRetries, 3},
		{"http.token", cfg.HTTP.Token, "secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"simulation": {"vehicles": 3}, "fare": {"base": 0}}`)
	t.Setenv("K_SIMULATION__VEHICLES", "7")
	t.Setenv("K_DISPATCH__RADIUS_METRES", "500")
	t.Setenv("K_DISPATCH__CHECK_SEATS", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Simulation.Vehicles != 7 {
		t.Errorf("env override ignored: vehicles=%d", cfg.Simulation.Vehicles)
	}
	if cfg.Dispatch.RadiusMetres != 500 {
		t.Errorf("env override ignored: radius=%v", cfg.Dispatch.RadiusMetres)
	}
	if !cfg.Dispatch.CheckSeats {
		t.Errorf("env override ignored: check_seats")
	}
	if m := cfg.Fare.Model(); m.Base != 0 || m.PerMetre != fare.Default().PerMetre {
		t.Errorf("explicit zero base lost: %+v", m)
	}
	if cfg.Logging.Backend != "jsonl" || cfg.Logging.Path != "trips.jsonl" {
		t.Errorf("logging defaults not applied: %+v", cfg.Logging)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"negative radius":   "dispatch:\n  radius_metres: -1\n",
		"zero tick":         "simulation:\n  tick_seconds: -5\n",
		"end before start":  "simulation:\n  start: \"2015-01-02T00:00:00Z\"\n  end: \"2015-01-01T00:00:00Z\"\n",
		"bad timestamp":     "simulation:\n  start: \"yesterday\"\n",
		"bad unit":          "graph:\n  unit: furlongs\n",
		"bad backend":       "logging:\n  backend: csv\n",
		"bad policy":        "dispatch:\n  candidate_failure: retry\n",
		"negative fleet":    "simulation:\n  vehicles: -2\n",
		"bad fuel economy":  "fare:\n  fuel_efficiency: 0\n",
		"token without api": "http:\n  token: abc\n",
		"bad sample rate":   "sentry:\n  traces_sample_rate: 2\n",
		"sqlite rotation":   "logging:\n  path: trips.db\n  max_size_mb: 5\n",
		"duplicate mqtt":    "mqtt:\n  broker: tcp://localhost:1883\nmetrics:\n  sinks:\n    - type: mqtt\n      conf:\n        broker: tcp://localhost:1883\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "c.yaml", data)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestMQTTBrokerAndSinkAreExclusive(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "mqtt", Conf: map[string]any{"broker": "tcp://localhost:1883"}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mqtt sink alone should validate: %v", err)
	}
	cfg.MQTT.Broker = "tcp://localhost:1883"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicates the mqtt.broker publisher") {
		t.Fatalf("expected duplicate publisher error got %v", err)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "c.toml", "")); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Simulation.EndTime().Sub(cfg.Simulation.StartTime()) != time.Hour {
		t.Fatalf("unexpected default window")
	}
}

func TestLoggingBackendFollowsExtension(t *testing.T) {
	for path, want := range map[string]string{"trips.db": "sqlite", "t.SQLITE3": "sqlite", "trips.jsonl": "jsonl", "trips": "jsonl"} {
		c := LoggingConfig{Path: path}
		c.SetDefaults()
		if c.Backend != want {
			t.Errorf("%s: got %s want %s", path, c.Backend, want)
		}
	}
}
