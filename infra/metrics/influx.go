package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/infra/logger"
)

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAdmission writes one admission decision.
func (s *InfluxSink) RecordAdmission(r coremetrics.AdmissionResult) error {
	p := write.NewPointWithMeasurement("admission").
		AddTag("accepted", strconv.FormatBool(r.Accepted)).
		AddTag("request_id", r.RequestID)
	if r.Accepted {
		p = p.AddTag("vehicle_id", strconv.Itoa(int(r.VehicleID)))
	}
	p = p.AddField("candidates", r.Candidates).
		AddField("fare", round3(r.Fare)).
		AddField("profit", round3(r.Profit)).
		AddField("distance_m", round3(r.Distance)).
		AddField("latency_ms", round3(r.Latency.Seconds()*1000))
	if r.Reason != "" {
		p = p.AddField("reason", r.Reason)
	}
	return s.write(p.SetTime(r.Time))
}

// RecordTrip writes a completed leg.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	p := write.NewPointWithMeasurement("trip_completed").
		AddTag("vehicle_id", strconv.Itoa(int(ev.VehicleID))).
		AddTag("period", ev.Period).
		AddTag("trip_id", ev.TripID).
		AddField("distance_m", round3(ev.Distance)).
		AddField("fare", round3(ev.Fare)).
		AddField("revenue", round3(ev.Revenue)).
		AddField("profit", round3(ev.Profit)).
		AddField("duration_s", round3(ev.End.Sub(ev.Start).Seconds())).
		SetTime(ev.End)
	return s.write(p)
}

// RecordVehicleState writes a snapshot of a vehicle.
func (s *InfluxSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	p := write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle_id", strconv.Itoa(int(ev.VehicleID))).
		AddField("lat", ev.Position.Lat).
		AddField("lon", ev.Position.Lon).
		AddField("available", ev.Available).
		AddField("advanced_m", round3(ev.Advanced)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFleetUtilization writes fleet counters.
func (s *InfluxSink) RecordFleetUtilization(u coremetrics.FleetUtilization) error {
	p := write.NewPointWithMeasurement("fleet_utilization").
		AddField("total", u.Total).
		AddField("busy", u.Busy).
		AddField("pending", u.Pending).
		SetTime(u.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
