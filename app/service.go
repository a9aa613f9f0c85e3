// Package app assembles the simulator from its configuration and drives the
// simulated clock.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/kilianp07/celer/api"
	"github.com/kilianp07/celer/api/fleet"
	"github.com/kilianp07/celer/api/trips"
	"github.com/kilianp07/celer/config"
	"github.com/kilianp07/celer/core/dispatch"
	"github.com/kilianp07/celer/core/graph"
	coremetrics "github.com/kilianp07/celer/core/metrics"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/monitoring"
	"github.com/kilianp07/celer/core/routing"
	"github.com/kilianp07/celer/core/scheduler"
	"github.com/kilianp07/celer/core/triplog"
	"github.com/kilianp07/celer/infra/logger"
	"github.com/kilianp07/celer/infra/metrics"
	"github.com/kilianp07/celer/infra/mqtt"
	"github.com/kilianp07/celer/ingest"
	"github.com/kilianp07/celer/internal/eventbus"
)

// busBuffer is the per-subscriber slack of the telemetry bus.
const busBuffer = 256

// Service owns the simulation and its collaborators.
type Service struct {
	cfg       *config.Config
	Graph     *graph.Graph
	Scheduler *scheduler.Scheduler
	store     triplog.Store
	sink      coremetrics.MetricsSink
	bus       *eventbus.Bus
	telemetry *mqtt.Publisher
	log       logger.Logger
}

// Option customises a Service built by New.
type Option func(*options)

type options struct {
	graph    *graph.Graph
	store    triplog.Store
	requests []*model.Request
	log      logger.Logger
}

// WithGraph uses g instead of loading graph.path.
func WithGraph(g *graph.Graph) Option { return func(o *options) { o.graph = g } }

// WithStore uses st instead of opening the configured trip log.
func WithStore(st triplog.Store) Option { return func(o *options) { o.store = st } }

// WithRequests replaces the configured trip source.
func WithRequests(reqs []*model.Request) Option { return func(o *options) { o.requests = reqs } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logg := o.log
	if logg == nil {
		logg = logger.New("service")
	}

	g := o.graph
	if g == nil {
		if cfg.Graph.Path == "" {
			return nil, errors.New("graph.path is required")
		}
		unit, err := cfg.Graph.UnitFactor()
		if err != nil {
			return nil, err
		}
		if g, err = ingest.LoadGraphFile(cfg.Graph.Path, unit); err != nil {
			return nil, fmt.Errorf("load graph: %w", err)
		}
	}
	logg.Infof("graph loaded: %d nodes, %d edges", g.Len(), g.EdgeCount())

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store := o.store
	if store == nil {
		if store, err = triplog.Open(cfg.Logging.Options()); err != nil {
			return nil, fmt.Errorf("trip log: %w", err)
		}
	}

	svc := &Service{cfg: cfg, Graph: g, store: store, sink: sink, log: logg}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return svc.fail(fmt.Errorf("mqtt publisher: %w", err))
		}
		svc.telemetry = pub
		svc.bus = eventbus.NewWithBuffer(busBuffer)
	}

	policy, err := dispatch.ParseCandidateFailure(cfg.Dispatch.CandidateFailure)
	if err != nil {
		return svc.fail(err)
	}
	h, err := routing.ParseHeuristic(cfg.Dispatch.Heuristic)
	if err != nil {
		return svc.fail(err)
	}
	fm := cfg.Fare.Model()
	ac := dispatch.NewAdmissionController(
		routing.NewRouter(g, routing.WithHeuristic(h)),
		dispatch.WithRadius(cfg.Dispatch.RadiusMetres),
		dispatch.WithSeatCheck(cfg.Dispatch.CheckSeats),
		dispatch.WithCandidateFailure(policy),
		dispatch.WithWorkers(cfg.Dispatch.Workers),
		dispatch.WithFareModel(fm),
		dispatch.WithLogger(logger.New("dispatch")),
	)
	schedOpts := []scheduler.Option{
		scheduler.WithMetrics(sink),
		scheduler.WithFareModel(fm),
		scheduler.WithTickWorkers(cfg.Simulation.TickWorkers),
		scheduler.WithSampleEvery(cfg.Metrics.SampleEvery),
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithCompletionHandler(svc.recordTrip),
	}
	if svc.bus != nil {
		schedOpts = append(schedOpts, scheduler.WithBus(svc.bus))
	}
	svc.Scheduler = scheduler.New(g, ac, schedOpts...)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if err := svc.placeFleet(rng); err != nil {
		return svc.fail(err)
	}

	reqs := o.requests
	if reqs == nil {
		if reqs, err = svc.loadRequests(rng); err != nil {
			return svc.fail(err)
		}
	}
	if err := svc.Scheduler.Submit(reqs...); err != nil {
		return svc.fail(fmt.Errorf("submit requests: %w", err))
	}
	logg.Infof("fleet of %d vehicles, %d requests queued (seed %d)", cfg.Simulation.Vehicles, len(reqs), seed)
	return svc, nil
}

func (s *Service) fail(err error) (*Service, error) {
	if cerr := s.Close(); cerr != nil {
		s.log.Warnf("cleanup: %v", cerr)
	}
	return nil, err
}

// placeFleet parks every vehicle on a random node.
func (s *Service) placeFleet(rng *rand.Rand) error {
	sim := s.cfg.Simulation
	if s.Graph.Len() == 0 {
		return fmt.Errorf("place fleet: %w: empty graph", graph.ErrInvalidGraph)
	}
	for i := 0; i < sim.Vehicles; i++ {
		n := graph.NodeID(rng.Intn(s.Graph.Len()))
		v := model.NewVehicle(model.VehicleID(i), s.Graph, n, sim.Seats, sim.Fuel)
		if err := s.Scheduler.AddVehicle(v); err != nil {
			return fmt.Errorf("place fleet: %w", err)
		}
	}
	return nil
}

func (s *Service) loadRequests(rng *rand.Rand) ([]*model.Request, error) {
	tc := s.cfg.Trips
	if tc.Path != "" {
		reqs, err := ingest.LoadTripsFile(tc.Path)
		if err != nil {
			return nil, fmt.Errorf("load trips: %w", err)
		}
		return reqs, nil
	}
	sim := s.cfg.Simulation
	return ingest.RandomTrips(s.Graph, rng, tc.Random, sim.StartTime(), sim.EndTime(), tc.Seats), nil
}

// recordTrip persists a completed leg. Store failures are reported but do
// not stop the clock.
func (s *Service) recordTrip(ctx context.Context, id model.VehicleID, t model.Trip) error {
	if err := s.store.Append(ctx, triplog.FromTrip(id, t)); err != nil {
		monitoring.CaptureException(err, map[string]string{
			"module":     "triplog",
			"vehicle_id": fmt.Sprint(id),
			"trip_id":    t.ID.String(),
		})
		return fmt.Errorf("trip log: %w", err)
	}
	return nil
}

// Handler returns the reporting API for this service.
func (s *Service) Handler() http.Handler {
	return api.NewMux(fleet.NewHandler(s.Scheduler), trips.NewHandler(s.store), s.cfg.HTTP.Token)
}

// Run drives the clock from simulation.start to simulation.end. Each tick
// dispatches the due requests and then advances the fleet. With drain set the
// clock keeps going until every vehicle is idle. Run returns the summary of
// the completed legs; a canceled context stops the clock early.
func (s *Service) Run(ctx context.Context) (scheduler.Summary, error) {
	bg, cancel := context.WithCancel(ctx)
	defer cancel()
	var waits []<-chan struct{}
	if s.telemetry != nil {
		waits = append(waits, metrics.StartEventCollector(bg, s.bus, s.telemetry, logger.New("telemetry")))
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		waits = append(waits, s.serve(bg, "prometheus", func(ctx context.Context) error {
			return metrics.StartPromServer(ctx, addr)
		}))
	}
	if addr := s.cfg.HTTP.Addr; addr != "" {
		waits = append(waits, s.serve(bg, "api", func(ctx context.Context) error {
			return serveHTTP(ctx, addr, s.Handler())
		}))
	}

	err := s.loop(ctx)
	sum := s.Scheduler.Summary()
	s.logSummary(sum)

	if s.bus != nil {
		s.bus.Close()
	}
	cancel()
	for _, w := range waits {
		<-w
	}
	return sum, err
}

func (s *Service) loop(ctx context.Context) error {
	sim := s.cfg.Simulation
	tick := sim.Tick()
	end := sim.EndTime()
	var errs []error
	for now := sim.StartTime(); ; now = now.Add(tick) {
		if !now.Before(end) && (!sim.Drain || s.Scheduler.Idle()) {
			break
		}
		if err := ctx.Err(); err != nil {
			s.log.Warnf("simulation interrupted at %s", now.Format(time.RFC3339))
			return err
		}
		rep := s.Scheduler.DispatchDue(ctx, now)
		if rep.Considered > 0 {
			s.log.Debugw("dispatch", map[string]any{
				"time":     now.Format(time.RFC3339),
				"accepted": rep.Accepted,
				"dropped":  rep.Dropped,
			})
		}
		if _, err := s.Scheduler.Advance(ctx, now, tick); err != nil {
			s.log.Errorf("advance at %s: %v", now.Format(time.RFC3339), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) logSummary(sum scheduler.Summary) {
	s.log.Infof("requests: %d submitted, %d fulfilled, %d dropped, %d pending",
		sum.Submitted, sum.Fulfilled, sum.Dropped, sum.Pending)
	s.log.Infof("trips: %d completed by %d of %d vehicles, revenue %.2f, mean profit %.2f (std %.2f), mean duration %.0fs",
		sum.Completed, sum.Utilised, sum.Fleet, sum.Revenue, sum.MeanProfit, sum.StdProfit, sum.MeanTripSecs)
}

func (s *Service) serve(ctx context.Context, name string, run func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx); err != nil {
			s.log.Errorf("%s server: %v", name, err)
			monitoring.CaptureException(err, map[string]string{"module": name})
		}
	}()
	return done
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.telemetry != nil {
		s.telemetry.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.store.Close()
}
