package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/celer/core/factory"
	"github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/monitoring"
)

func init() {
	_ = metrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (metrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}

// Publisher streams vehicle telemetry to an MQTT broker. It implements the
// metrics sink interfaces so it can be listed next to other sinks.
//
// Topics:
//
//	<prefix>/admission
//	<prefix>/vehicle/<id>/position
//	<prefix>/vehicle/<id>/trip
//	<prefix>/fleet (retained)
type Publisher struct {
	client *PahoClient
	prefix string
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: cli, prefix: cfg.TopicPrefix}, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() { p.client.Disconnect() }

type positionMessage struct {
	VehicleID model.VehicleID `json:"vehicle_id"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Available bool            `json:"available"`
	Advanced  float64         `json:"advanced_m"`
	Timestamp int64           `json:"timestamp"`
}

type tripMessage struct {
	TripID    string          `json:"trip_id"`
	RequestID string          `json:"request_id"`
	VehicleID model.VehicleID `json:"vehicle_id"`
	Distance  float64         `json:"distance_m"`
	Fare      float64         `json:"fare"`
	Revenue   float64         `json:"revenue"`
	Profit    float64         `json:"profit"`
	Period    string          `json:"period"`
	Start     int64           `json:"start"`
	End       int64           `json:"end"`
}

type admissionMessage struct {
	RequestID  string          `json:"request_id"`
	VehicleID  model.VehicleID `json:"vehicle_id"`
	Accepted   bool            `json:"accepted"`
	Reason     string          `json:"reason,omitempty"`
	Candidates int             `json:"candidates"`
	Profit     float64         `json:"profit"`
	Timestamp  int64           `json:"timestamp"`
}

type fleetMessage struct {
	Total     int   `json:"total"`
	Busy      int   `json:"busy"`
	Pending   int   `json:"pending"`
	Timestamp int64 `json:"timestamp"`
}

func (p *Publisher) vehicleTopic(id model.VehicleID, leaf string) string {
	return fmt.Sprintf("%s/vehicle/%s/%s", p.prefix, strconv.Itoa(int(id)), leaf)
}

func (p *Publisher) send(kind, topic string, retained bool, v any, tags map[string]string) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.client.Publish(kind, topic, retained, payload); err != nil {
		if tags == nil {
			tags = map[string]string{}
		}
		tags["module"] = "mqtt"
		tags["topic"] = topic
		monitoring.CaptureException(err, tags)
		return err
	}
	return nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// RecordAdmission publishes the decision on <prefix>/admission.
func (p *Publisher) RecordAdmission(r metrics.AdmissionResult) error {
	return p.send("admission", p.prefix+"/admission", false, admissionMessage{
		RequestID:  r.RequestID,
		VehicleID:  r.VehicleID,
		Accepted:   r.Accepted,
		Reason:     r.Reason,
		Candidates: r.Candidates,
		Profit:     r.Profit,
		Timestamp:  millis(r.Time),
	}, map[string]string{"request_id": r.RequestID})
}

// RecordVehicleState publishes the vehicle position.
func (p *Publisher) RecordVehicleState(ev metrics.VehicleStateEvent) error {
	return p.send("position", p.vehicleTopic(ev.VehicleID, "position"), false, positionMessage{
		VehicleID: ev.VehicleID,
		Lat:       ev.Position.Lat,
		Lon:       ev.Position.Lon,
		Available: ev.Available,
		Advanced:  ev.Advanced,
		Timestamp: millis(ev.Time),
	}, map[string]string{"vehicle_id": strconv.Itoa(int(ev.VehicleID))})
}

// RecordTrip publishes a completed leg.
func (p *Publisher) RecordTrip(ev metrics.TripEvent) error {
	return p.send("trip", p.vehicleTopic(ev.VehicleID, "trip"), false, tripMessage{
		TripID:    ev.TripID,
		RequestID: ev.RequestID,
		VehicleID: ev.VehicleID,
		Distance:  ev.Distance,
		Fare:      ev.Fare,
		Revenue:   ev.Revenue,
		Profit:    ev.Profit,
		Period:    ev.Period,
		Start:     millis(ev.Start),
		End:       millis(ev.End),
	}, map[string]string{"vehicle_id": strconv.Itoa(int(ev.VehicleID))})
}

// RecordFleetUtilization publishes a retained fleet summary.
func (p *Publisher) RecordFleetUtilization(u metrics.FleetUtilization) error {
	return p.send("fleet", p.prefix+"/fleet", true, fleetMessage{
		Total:     u.Total,
		Busy:      u.Busy,
		Pending:   u.Pending,
		Timestamp: millis(u.Time),
	}, nil)
}
