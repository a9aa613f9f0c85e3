// Package dispatch decides which vehicle serves a request. The controller
// prunes the fleet by straight-line distance, routes every surviving
// candidate to the pickup and keeps the most profitable pairing.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/celer/core/fare"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/logger"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/routing"
)

// ErrNoAvailableVehicle is returned when no candidate could be scored.
var ErrNoAvailableVehicle = errors.New("no available vehicle")

// Option configures an AdmissionController.
type Option func(*AdmissionController)

// WithFilter replaces the proximity filter.
func WithFilter(f VehicleFilter) Option {
	return func(a *AdmissionController) { a.filter = f }
}

// WithRadius sets the proximity cutoff of the default filter.
func WithRadius(metres float64) Option {
	return func(a *AdmissionController) { a.radius = metres }
}

// WithSeatCheck makes the default filter drop vehicles with fewer seats than
// the request asks for.
func WithSeatCheck(on bool) Option {
	return func(a *AdmissionController) { a.checkSeats = on }
}

// WithCandidateFailure sets the pickup routing failure policy.
func WithCandidateFailure(p CandidateFailure) Option {
	return func(a *AdmissionController) { a.policy = p }
}

// WithWorkers bounds concurrent pickup route searches.
func WithWorkers(n int) Option {
	return func(a *AdmissionController) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithFareModel sets the scoring model.
func WithFareModel(m fare.Model) Option {
	return func(a *AdmissionController) { a.fare = m }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *AdmissionController) { a.logger = logger.OrNop(l) }
}

// AdmissionController scores vehicle and request pairings. It never mutates
// the request or the fleet; committing the result is left to the caller.
type AdmissionController struct {
	router     *routing.Router
	fare       fare.Model
	filter     VehicleFilter
	radius     float64
	checkSeats bool
	policy     CandidateFailure
	workers    int
	logger     logger.Logger
}

// NewAdmissionController returns a controller using r for all searches.
func NewAdmissionController(r *routing.Router, opts ...Option) *AdmissionController {
	a := &AdmissionController{
		router:  r,
		fare:    fare.Default(),
		radius:  DefaultRadiusMetres,
		policy:  Skip,
		workers: 4,
		logger:  logger.NopLogger{},
	}
	for _, o := range opts {
		o(a)
	}
	if a.filter == nil {
		a.filter = ProximityFilter{RadiusMetres: a.radius, CheckSeats: a.checkSeats}
	}
	return a
}

type pickup struct {
	route routing.Route
	err   error
}

// Admit picks the vehicle with the highest profit for req. Ties keep the
// earlier vehicle in fleet order. A winner with negative profit is still
// returned. When nothing can be scored the assignment carries
// model.NoVehicle and the error wraps ErrNoAvailableVehicle, or
// routing.ErrNoPathFound when the trip itself cannot be routed.
func (a *AdmissionController) Admit(ctx context.Context, req *model.Request, fleet []*model.Vehicle) (model.Assignment, error) {
	began := time.Now()
	res, err := a.admit(ctx, req, fleet)
	observeAdmission(res, err, time.Since(began))
	return res, err
}

func (a *AdmissionController) admit(ctx context.Context, req *model.Request, fleet []*model.Vehicle) (model.Assignment, error) {
	res := model.Assignment{VehicleID: model.NoVehicle, Request: req}
	candidates := a.filter.Filter(fleet, req)
	res.Candidates = len(candidates)
	if len(candidates) == 0 {
		return res, fmt.Errorf("request %s: %w within range", req.ID, ErrNoAvailableVehicle)
	}

	g := a.router.Graph()
	start, ok := g.Nearest(req.Start)
	if !ok {
		return res, fmt.Errorf("request %s: %w", req.ID, routing.ErrUnknownNode)
	}
	stop, _ := g.Nearest(req.Stop)
	trip, err := a.router.Route(ctx, start, stop)
	if err != nil {
		return res, fmt.Errorf("request %s trip leg: %w", req.ID, err)
	}

	pickups, err := a.routePickups(ctx, candidates, start)
	if err != nil {
		return res, err
	}

	best, bestIdx := -math.MaxFloat64, -1
	var bestFare float64
	for i, p := range pickups {
		if p.err != nil {
			a.logger.Debugw("pickup route failed", map[string]any{
				"request": req.ID,
				"vehicle": int(candidates[i].ID),
				"error":   p.err.Error(),
			})
			candidateFailures.Inc()
			if a.policy == FailFast {
				break
			}
			continue
		}
		total := p.route.Distance + trip.Distance
		f := a.fare.Fare(total, false, false)
		profit := a.fare.Profit(f, total)
		if profit > best {
			best, bestIdx, bestFare = profit, i, f
		}
	}
	if bestIdx < 0 {
		return res, fmt.Errorf("request %s: %w: no candidate reachable", req.ID, ErrNoAvailableVehicle)
	}

	res.VehicleID = candidates[bestIdx].ID
	res.Profit = best
	res.Fare = bestFare
	res.PickupDistance = pickups[bestIdx].route.Distance
	res.TripDistance = trip.Distance
	res.PickupPath = pickups[bestIdx].route.Nodes
	res.TripPath = trip.Nodes
	return res, nil
}

// routePickups routes every candidate to the pickup node with at most
// a.workers searches in flight. Results keep candidate order.
func (a *AdmissionController) routePickups(ctx context.Context, candidates []*model.Vehicle, to graph.NodeID) ([]pickup, error) {
	out := make([]pickup, len(candidates))
	var eg errgroup.Group
	eg.SetLimit(a.workers)
	for i, v := range candidates {
		from := v.Node
		eg.Go(func() error {
			r, err := a.router.Route(ctx, from, to)
			out[i] = pickup{route: r, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
