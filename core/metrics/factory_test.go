package metrics_test

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/kilianp07/celer/core/factory"
	metrics "github.com/kilianp07/celer/core/metrics"
	_ "github.com/kilianp07/celer/infra/metrics"
)

type closableSink struct {
	metrics.NopSink
	closed *bool
}

func (c closableSink) Close() { *c.closed = true }

var closedByFailure bool

func init() {
	_ = metrics.RegisterMetricsSink("test-closable", func(map[string]any) (metrics.MetricsSink, error) {
		return closableSink{closed: &closedByFailure}, nil
	})
	_ = metrics.RegisterMetricsSink("test-failing", func(map[string]any) (metrics.MetricsSink, error) {
		return nil, errors.New("broker down")
	})
}

/*
TestMetricsFactory_Builtins verifies the sinks registered by infra/metrics.

	Cases:
	- nop, prometheus and influx are known types
	- a nop entry builds a sink
	- unknown type returns an error naming the entry
*/
func TestMetricsFactory_Builtins(t *testing.T) {
	types := metrics.SinkTypes()
	for _, want := range []string{"nop", "prometheus", "influx"} {
		if !slices.Contains(types, want) {
			t.Fatalf("type %s not registered: %v", want, types)
		}
	}
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected unwrapped NopSink, got %T", s)
	}
	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	if err == nil || !strings.Contains(err.Error(), "metrics sink 1 (missing)") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}

func TestNewMetricsSink_ClosesOnFailure(t *testing.T) {
	closedByFailure = false
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "test-closable"}, {Type: "test-failing"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !closedByFailure {
		t.Fatal("expected earlier sink to be closed")
	}
}

func TestMetricsConfigDecodeJSON(t *testing.T) {
	data := `{"sinks":[{"type":"nop"},{"type":"influx","conf":{"url":"http://influx:8086"}}],
"prometheus_addr":":9090","sample_every":5}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if len(cfg.Sinks) != 2 || cfg.Sinks[1].Conf["url"] != "http://influx:8086" {
		t.Fatalf("unexpected sinks %#v", cfg.Sinks)
	}
	if cfg.PrometheusAddr != ":9090" || cfg.SampleEvery != 5 {
		t.Fatalf("unexpected config %#v", cfg)
	}
}
