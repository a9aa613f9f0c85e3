package metrics

import (
	"testing"

	"github.com/kilianp07/celer/core/factory"
	coremetrics "github.com/kilianp07/celer/core/metrics"
)

func TestInfluxFactoryRequiresURL(t *testing.T) {
	_, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "influx", Conf: map[string]any{"token": "t"}}})
	if err == nil {
		t.Fatal("expected error without url")
	}
}

func TestInfluxConfigDefaults(t *testing.T) {
	var c InfluxConfig
	if err := factory.Decode(map[string]any{"url": "http://localhost:8086"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	c.SetDefaults()
	if c.Org != "celer" || c.Bucket != "simulation" {
		t.Fatalf("unexpected defaults %#v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
