package mqtt

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/celer/core/factory"
	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/metrics"
	coremon "github.com/kilianp07/celer/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func newTestPublisher(t *testing.T, mc *mockClient) *Publisher {
	t.Helper()
	withMockClient(t, mc)
	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "sim", BackoffMS: 1, MaxRetries: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	return p
}

func TestPublisherTopicsAndPayloads(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc)
	defer p.Close()
	now := time.UnixMilli(1420099200000)

	if err := p.RecordVehicleState(metrics.VehicleStateEvent{VehicleID: 3, Position: geo.Point{Lat: 40.7, Lon: -74}, Advanced: 8, Time: now}); err != nil {
		t.Fatalf("state: %v", err)
	}
	if err := p.RecordTrip(metrics.TripEvent{TripID: "t1", VehicleID: 3, Distance: 900, Period: "rush", Start: now, End: now.Add(time.Minute)}); err != nil {
		t.Fatalf("trip: %v", err)
	}
	if err := p.RecordAdmission(metrics.AdmissionResult{RequestID: "r1", VehicleID: 3, Accepted: true, Time: now}); err != nil {
		t.Fatalf("admission: %v", err)
	}
	if err := p.RecordFleetUtilization(metrics.FleetUtilization{Total: 4, Busy: 1, Time: now}); err != nil {
		t.Fatalf("fleet: %v", err)
	}

	want := []string{"sim/vehicle/3/position", "sim/vehicle/3/trip", "sim/admission", "sim/fleet"}
	if len(mc.published) != len(want) {
		t.Fatalf("expected %d messages got %d", len(want), len(mc.published))
	}
	for i, topic := range want {
		if mc.published[i].topic != topic {
			t.Fatalf("message %d: topic %s want %s", i, mc.published[i].topic, topic)
		}
	}
	if !mc.published[3].retained {
		t.Fatalf("fleet summary should be retained")
	}

	var pos positionMessage
	if err := json.Unmarshal(mc.published[0].payload, &pos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pos.Lat != 40.7 || pos.Lon != -74 || pos.Advanced != 8 || pos.Timestamp != now.UnixMilli() {
		t.Fatalf("unexpected position %+v", pos)
	}
	var trip tripMessage
	if err := json.Unmarshal(mc.published[1].payload, &trip); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if trip.End-trip.Start != 60000 || trip.Period != "rush" {
		t.Fatalf("unexpected trip %+v", trip)
	}
}

func TestPublisherErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	p := newTestPublisher(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	if err := p.RecordVehicleState(metrics.VehicleStateEvent{VehicleID: 9}); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["vehicle_id"] != "9" || mon.tags["module"] != "mqtt" || mon.tags["topic"] != "sim/vehicle/9/position" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestPublisherRegisteredAsSink(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	sink, err := metrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://localhost:1883", "topic_prefix": "x"},
	}})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	if _, ok := sink.(*Publisher); !ok {
		t.Fatalf("expected *Publisher got %T", sink)
	}
}

func TestNewPublisherRequiresBroker(t *testing.T) {
	if _, err := NewPublisher(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
