package metrics

import (
	"context"

	"github.com/kilianp07/celer/core/events"
	"github.com/kilianp07/celer/core/logger"
	coremetrics "github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards simulation
// events to sink. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := forward(sink, ev); err != nil {
					log.Warnf("collector: %v", err)
				}
			}
		}
	}()
	return done
}

func forward(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.AdmissionEvent:
		res := coremetrics.AdmissionResult{
			VehicleID:  e.Assignment.VehicleID,
			Accepted:   e.Err == nil,
			Candidates: e.Assignment.Candidates,
			Fare:       e.Assignment.Fare,
			Profit:     e.Assignment.Profit,
			Distance:   e.Assignment.PickupDistance + e.Assignment.TripDistance,
			Latency:    e.Latency,
			Time:       e.Time,
		}
		if e.Assignment.Request != nil {
			res.RequestID = e.Assignment.Request.ID
		}
		if e.Err != nil {
			res.Reason = e.Err.Error()
		}
		return sink.RecordAdmission(res)
	case events.TripCompletedEvent:
		if r, ok := sink.(coremetrics.TripRecorder); ok {
			t := e.Trip
			return r.RecordTrip(coremetrics.TripEvent{
				TripID:    t.ID.String(),
				RequestID: t.RequestID,
				VehicleID: e.VehicleID,
				Distance:  t.Travelled,
				Fare:      t.Fare,
				Revenue:   t.Revenue,
				Profit:    t.Profit,
				Period:    t.Period,
				Start:     t.StartTime,
				End:       t.EndTime,
			})
		}
	case events.VehicleMovedEvent:
		if r, ok := sink.(coremetrics.VehicleStateRecorder); ok {
			return r.RecordVehicleState(coremetrics.VehicleStateEvent{
				VehicleID: e.VehicleID,
				Position:  e.Position,
				Available: e.Available,
				Advanced:  e.Advanced,
				Time:      e.Time,
			})
		}
	}
	return nil
}
