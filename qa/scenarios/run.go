package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/celer/core/dispatch"
	"github.com/kilianp07/celer/core/fare"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/routing"
	"github.com/kilianp07/celer/core/scheduler"
)

// Result is what a scenario run produced.
type Result struct {
	Stats scheduler.Stats
	// Assignments maps request names to the vehicle that was given the leg.
	Assignments map[string]int
	// TripSeconds maps request names to completed leg durations.
	TripSeconds map[string]float64
}

// Run plays the scenario on a fresh scheduler: every tick dispatches the due
// requests and then advances the fleet.
func Run(ctx context.Context, sc *Scenario) (Result, error) {
	g, ids, err := sc.Build()
	if err != nil {
		return Result{}, err
	}
	cfg := sc.Dispatch.Config()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	policy, _ := dispatch.ParseCandidateFailure(cfg.CandidateFailure)
	h, _ := routing.ParseHeuristic(cfg.Heuristic)
	fm := fare.Default()
	if sc.FuelPrice != nil {
		fm.FuelPrice = *sc.FuelPrice
	}
	ac := dispatch.NewAdmissionController(
		routing.NewRouter(g, routing.WithHeuristic(h)),
		dispatch.WithRadius(cfg.RadiusMetres),
		dispatch.WithSeatCheck(cfg.CheckSeats),
		dispatch.WithCandidateFailure(policy),
		dispatch.WithWorkers(cfg.Workers),
		dispatch.WithFareModel(fm),
	)
	s := scheduler.New(g, ac, scheduler.WithFareModel(fm))
	for _, v := range sc.Vehicles {
		n, ok := ids[v.Node]
		if !ok {
			return Result{}, fmt.Errorf("vehicle %d: unknown node %s", v.ID, v.Node)
		}
		if err := s.AddVehicle(model.NewVehicle(model.VehicleID(v.ID), g, n, v.Seats, 0)); err != nil {
			return Result{}, err
		}
	}

	start, err := sc.StartTime()
	if err != nil {
		return Result{}, err
	}
	names := make(map[string]string, len(sc.Requests))
	for _, rd := range sc.Requests {
		req, err := rd.Request(g, ids, start)
		if err != nil {
			return Result{}, err
		}
		names[req.ID] = rd.Name
		if err := s.Submit(req); err != nil {
			return Result{}, err
		}
	}

	res := Result{Assignments: map[string]int{}, TripSeconds: map[string]float64{}}
	tick := time.Duration(sc.TickSeconds * float64(time.Second))
	end := start.Add(time.Duration(sc.DurationSeconds * float64(time.Second)))
	for now := start; now.Before(end); now = now.Add(tick) {
		rep := s.DispatchDue(ctx, now)
		for _, a := range rep.Assignments {
			res.Assignments[names[a.Request.ID]] = int(a.VehicleID)
		}
		if _, err := s.Advance(ctx, now, tick); err != nil {
			return Result{}, err
		}
	}
	for _, trips := range s.Logs() {
		for _, t := range trips {
			res.TripSeconds[names[t.RequestID]] = t.Duration().Seconds()
		}
	}
	res.Stats = s.Stats()
	return res, nil
}

// Diff lists every expectation the result misses.
func (e Expected) Diff(r Result) []string {
	var out []string
	check := func(name string, got, want int) {
		if got != want {
			out = append(out, fmt.Sprintf("%s: got %d want %d", name, got, want))
		}
	}
	check("fulfilled", r.Stats.Fulfilled, e.Fulfilled)
	check("dropped", r.Stats.Dropped, e.Dropped)
	check("completed", r.Stats.Completed, e.Completed)
	check("utilised", r.Stats.Utilised, e.Utilised)
	for name, want := range e.Assignments {
		got, ok := r.Assignments[name]
		if !ok {
			out = append(out, fmt.Sprintf("request %s was not assigned", name))
			continue
		}
		check("vehicle for "+name, got, want)
	}
	for name, want := range e.TripSeconds {
		got, ok := r.TripSeconds[name]
		if !ok {
			out = append(out, fmt.Sprintf("request %s did not complete", name))
			continue
		}
		if d := got - want; d > 1e-6 || d < -1e-6 {
			out = append(out, fmt.Sprintf("trip %s: got %vs want %vs", name, got, want))
		}
	}
	return out
}
