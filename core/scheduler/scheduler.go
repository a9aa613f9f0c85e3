package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/celer/core/events"
	"github.com/kilianp07/celer/core/fare"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/kinematics"
	"github.com/kilianp07/celer/core/logger"
	"github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/monitoring"
	"github.com/kilianp07/celer/internal/eventbus"
)

var (
	// ErrVehicleBusy is returned when a leg is committed to a vehicle that
	// is already driving one.
	ErrVehicleBusy = errors.New("vehicle busy")
	// ErrUnknownVehicle is returned for identifiers not in the roster.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)

// Admitter decides which vehicle serves a request.
type Admitter interface {
	Admit(ctx context.Context, req *model.Request, fleet []*model.Vehicle) (model.Assignment, error)
}

// CompletionHandler is called synchronously for every finished leg.
type CompletionHandler func(ctx context.Context, id model.VehicleID, trip model.Trip) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBus publishes simulation events on bus.
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithMetrics records admissions, trips and vehicle states on sink.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(s *Scheduler) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithCompletionHandler registers h for finished legs.
func WithCompletionHandler(h CompletionHandler) Option {
	return func(s *Scheduler) { s.onComplete = h }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.logger = logger.OrNop(l) }
}

// WithFareModel sets the model used to price completed legs.
func WithFareModel(m fare.Model) Option {
	return func(s *Scheduler) { s.fare = m }
}

// WithTickWorkers bounds the goroutines moving vehicles during Advance.
func WithTickWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSampleEvery records vehicle and fleet samples on every nth Advance
// only. Values below 2 sample every call. Bus events are not affected.
func WithSampleEvery(n int) Option {
	return func(s *Scheduler) { s.sampleEvery = n }
}

// Scheduler holds the fleet and the request queue.
type Scheduler struct {
	mu         sync.Mutex
	g          *graph.Graph
	admitter   Admitter
	engine     *kinematics.Engine
	vehicles   []*model.Vehicle
	byID       map[model.VehicleID]*model.Vehicle
	queue      *model.Queue
	fare       fare.Model
	bus        eventbus.EventBus
	sink       metrics.MetricsSink
	onComplete CompletionHandler
	logger     logger.Logger
	workers    int

	sampleEvery int
	ticks       int

	submitted int
	fulfilled int
	dropped   int
	completed int
	utilised  map[model.VehicleID]struct{}
}

// New returns a Scheduler over g using a for every decision.
func New(g *graph.Graph, a Admitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		g:        g,
		admitter: a,
		engine:   kinematics.NewEngine(g),
		byID:     make(map[model.VehicleID]*model.Vehicle),
		queue:    model.NewQueue(),
		fare:     fare.Default(),
		sink:     metrics.NopSink{},
		logger:   logger.NopLogger{},
		workers:  8,
		utilised: make(map[model.VehicleID]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddVehicle adds v to the roster. Identifiers must be unique and v must sit
// on a node of the graph.
func (s *Scheduler) AddVehicle(v *model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if !s.g.Valid(v.Node) {
		return fmt.Errorf("vehicle %d: node %d not in graph", v.ID, v.Node)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[v.ID]; ok {
		return fmt.Errorf("vehicle %d already registered", v.ID)
	}
	s.vehicles = append(s.vehicles, v)
	s.byID[v.ID] = v
	return nil
}

// Submit queues requests. Order of arrival does not matter; requests leave
// the queue by pickup time.
func (s *Scheduler) Submit(reqs ...*model.Request) error {
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Push(reqs...)
	s.submitted += len(reqs)
	return nil
}

// Report summarises one DispatchDue call.
type Report struct {
	Considered  int
	Accepted    int
	Dropped     int
	Assignments []model.Assignment
}

// DispatchDue admits every queued request with a pickup time at or before
// now, in pickup order. Each decision sees the vehicles taken by the
// previous ones. Rejected requests are dropped.
func (s *Scheduler) DispatchDue(ctx context.Context, now time.Time) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rep Report
	due := s.queue.PopDue(now)
	for i, req := range due {
		if ctx.Err() != nil {
			// leave the rest for a later call
			s.queue.Push(due[i:]...)
			break
		}
		rep.Considered++
		began := time.Now()
		a, err := s.admitter.Admit(ctx, req, s.vehicles)
		if err == nil {
			_, err = s.commit(a, now)
		}
		s.recordAdmission(a, err, time.Since(began), now)
		if err != nil {
			if ctx.Err() != nil {
				s.queue.Push(due[i:]...)
				rep.Considered--
				break
			}
			s.dropped++
			rep.Dropped++
			s.logger.Debugf("request %s dropped: %v", req.ID, err)
			continue
		}
		s.fulfilled++
		rep.Accepted++
		rep.Assignments = append(rep.Assignments, a)
	}
	return rep
}

// Commit assigns a to its vehicle starting at now. It is used by DispatchDue
// and by callers that decide assignments themselves.
func (s *Scheduler) Commit(a model.Assignment, now time.Time) (*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.commit(a, now)
	if err == nil {
		s.fulfilled++
	}
	return t, err
}

func (s *Scheduler) commit(a model.Assignment, now time.Time) (*model.Trip, error) {
	v, ok := s.byID[a.VehicleID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVehicle, a.VehicleID)
	}
	if !v.Available || v.ActiveTrip() != nil {
		return nil, fmt.Errorf("%w: %d", ErrVehicleBusy, v.ID)
	}
	path := a.FullPath()
	if len(path) == 0 || path[0] != v.Node {
		return nil, fmt.Errorf("vehicle %d: path does not start at node %d", v.ID, v.Node)
	}
	trip := model.NewTrip(a.Request, path, now)
	trip.PickupDistance = a.PickupDistance
	trip.TripDistance = a.TripDistance
	trip.Fare = a.Fare
	trip.Profit = a.Profit
	v.Assign(trip)
	a.Request.Selected = true
	s.utilised[v.ID] = struct{}{}
	s.logger.Debugw("trip committed", map[string]any{
		"vehicle": int(v.ID),
		"request": a.Request.ID,
		"nodes":   len(path),
		"profit":  a.Profit,
	})
	return trip, nil
}

func (s *Scheduler) recordAdmission(a model.Assignment, err error, d time.Duration, now time.Time) {
	res := metrics.AdmissionResult{
		VehicleID:  a.VehicleID,
		Accepted:   err == nil,
		Candidates: a.Candidates,
		Fare:       a.Fare,
		Profit:     a.Profit,
		Distance:   a.PickupDistance + a.TripDistance,
		Latency:    d,
		Time:       now,
	}
	if a.Request != nil {
		res.RequestID = a.Request.ID
	}
	if err != nil {
		res.Reason = err.Error()
	}
	if rerr := s.sink.RecordAdmission(res); rerr != nil {
		s.logger.Errorf("metrics error: %v", rerr)
	}
	if s.bus != nil {
		s.bus.Publish(events.AdmissionEvent{Assignment: a, Err: err, Latency: d, Time: now})
	}
}

// AdvanceReport summarises one Advance call.
type AdvanceReport struct {
	Moved     int
	Completed []model.Trip
}

// Advance moves every en-route vehicle by d of simulated time starting at
// now. Each vehicle is ticked by a single goroutine. Completed legs are
// priced, handed to the completion handler and published once all vehicles
// have moved.
func (s *Scheduler) Advance(ctx context.Context, now time.Time, d time.Duration) (AdvanceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := make([]kinematics.Step, len(s.vehicles))
	var eg errgroup.Group
	eg.SetLimit(s.workers)
	for i, v := range s.vehicles {
		if v.ActiveTrip() == nil {
			continue
		}
		eg.Go(func() error {
			defer monitoring.Recover()
			steps[i] = s.engine.Tick(v, now, d)
			return nil
		})
	}
	_ = eg.Wait()

	sample := s.sampleEvery < 2 || s.ticks%s.sampleEvery == 0
	s.ticks++
	var rep AdvanceReport
	var errs []error
	at := now.Add(d)
	for i, st := range steps {
		if st.Trip == nil {
			continue
		}
		v := s.vehicles[i]
		rep.Moved++
		s.recordMove(v, st, at, sample)
		if !st.Completed {
			continue
		}
		t := s.finalise(v)
		rep.Completed = append(rep.Completed, t)
		if s.onComplete != nil {
			if err := s.onComplete(ctx, v.ID, t); err != nil {
				errs = append(errs, fmt.Errorf("vehicle %d trip %s: %w", v.ID, t.ID, err))
			}
		}
	}
	if sample {
		s.recordUtilization(at)
	}
	return rep, errors.Join(errs...)
}

func (s *Scheduler) recordUtilization(at time.Time) {
	rec, ok := s.sink.(metrics.FleetUtilizationRecorder)
	if !ok {
		return
	}
	st := s.stats()
	if err := rec.RecordFleetUtilization(metrics.FleetUtilization{
		Total:   st.Fleet,
		Busy:    st.Busy,
		Pending: st.Pending,
		Time:    at,
	}); err != nil {
		s.logger.Errorf("fleet metrics error: %v", err)
	}
}

// finalise prices the leg just moved to v's log.
func (s *Scheduler) finalise(v *model.Vehicle) model.Trip {
	lt := &v.Log[len(v.Log)-1]
	lt.Period = fare.PeriodAt(lt.StartTime).String()
	lt.Revenue = s.fare.FareAt(lt.Length(), lt.StartTime)
	s.completed++
	t := lt.Clone()
	if rec, ok := s.sink.(metrics.TripRecorder); ok {
		if err := rec.RecordTrip(metrics.TripEvent{
			TripID:    t.ID.String(),
			RequestID: t.RequestID,
			VehicleID: v.ID,
			Distance:  t.Travelled,
			Fare:      t.Fare,
			Revenue:   t.Revenue,
			Profit:    t.Profit,
			Period:    t.Period,
			Start:     t.StartTime,
			End:       t.EndTime,
		}); err != nil {
			s.logger.Errorf("trip metrics error: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.TripCompletedEvent{VehicleID: v.ID, Trip: t, Time: t.EndTime})
	}
	return t
}

func (s *Scheduler) recordMove(v *model.Vehicle, st kinematics.Step, at time.Time, sample bool) {
	if rec, ok := s.sink.(metrics.VehicleStateRecorder); ok && sample {
		if err := rec.RecordVehicleState(metrics.VehicleStateEvent{
			VehicleID: v.ID,
			Position:  v.Position,
			Available: v.Available,
			Advanced:  st.Advanced,
			Time:      at,
		}); err != nil {
			s.logger.Errorf("vehicle metrics error: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.VehicleMovedEvent{
			VehicleID: v.ID,
			Node:      v.Node,
			Position:  v.Position,
			Available: v.Available,
			Advanced:  st.Advanced,
			Time:      at,
		})
	}
}

// Logs returns every vehicle's completed legs keyed by vehicle.
func (s *Scheduler) Logs() map[model.VehicleID][]model.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.VehicleID][]model.Trip, len(s.vehicles))
	for _, v := range s.vehicles {
		trips := make([]model.Trip, len(v.Log))
		for i, t := range v.Log {
			trips[i] = t.Clone()
		}
		out[v.ID] = trips
	}
	return out
}

// Vehicles returns a snapshot of the roster ordered by identifier.
func (s *Scheduler) Vehicles() []model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Vehicle, len(s.vehicles))
	for i, v := range s.vehicles {
		out[i] = v.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Vehicle returns a snapshot of one vehicle.
func (s *Scheduler) Vehicle(id model.VehicleID) (model.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return model.Vehicle{}, false
	}
	return v.Snapshot(), true
}

// Stats are aggregate counters of the run so far.
type Stats struct {
	Submitted int `json:"submitted"`
	Fulfilled int `json:"fulfilled"`
	Dropped   int `json:"dropped"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Fleet     int `json:"fleet"`
	Busy      int `json:"busy"`
	Utilised  int `json:"utilised"`
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

func (s *Scheduler) stats() Stats {
	st := Stats{
		Submitted: s.submitted,
		Fulfilled: s.fulfilled,
		Dropped:   s.dropped,
		Completed: s.completed,
		Pending:   s.queue.Len(),
		Fleet:     len(s.vehicles),
		Utilised:  len(s.utilised),
	}
	for _, v := range s.vehicles {
		if !v.Available {
			st.Busy++
		}
	}
	return st
}

// Idle reports whether no request is queued and no vehicle is driving.
func (s *Scheduler) Idle() bool {
	st := s.Stats()
	return st.Pending == 0 && st.Busy == 0
}
