package scheduler

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the completed legs of a run.
type Summary struct {
	Stats
	Revenue        float64 `json:"revenue"`
	Profit         float64 `json:"profit"`
	MeanProfit     float64 `json:"mean_profit"`
	StdProfit      float64 `json:"std_profit"`
	MeanTripSecs   float64 `json:"mean_trip_seconds"`
	MeanDistance   float64 `json:"mean_distance_metres"`
	TotalTravelled float64 `json:"total_travelled_metres"`
}

// Summary aggregates the trip logs of every vehicle. Means are zero when no
// leg has completed.
func (s *Scheduler) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Stats: s.stats()}
	var profits, secs, dists []float64
	for _, v := range s.vehicles {
		for _, t := range v.Log {
			profits = append(profits, t.Profit)
			secs = append(secs, t.Duration().Seconds())
			dists = append(dists, t.Travelled)
			sum.Revenue += t.Revenue
			sum.Profit += t.Profit
			sum.TotalTravelled += t.Travelled
		}
	}
	if len(profits) == 0 {
		return sum
	}
	sum.MeanProfit, sum.StdProfit = stat.MeanStdDev(profits, nil)
	if math.IsNaN(sum.StdProfit) {
		sum.StdProfit = 0
	}
	sum.MeanTripSecs = stat.Mean(secs, nil)
	sum.MeanDistance = stat.Mean(dists, nil)
	return sum
}
