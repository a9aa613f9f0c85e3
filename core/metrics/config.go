package metrics

import "github.com/kilianp07/celer/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when non-empty.
	PrometheusAddr string `json:"prometheus_addr"`
	// SampleEvery controls how many ticks pass between vehicle and fleet
	// samples. Zero samples every tick.
	SampleEvery int `json:"sample_every"`
}
