// Package fare implements the revenue and operating-cost model used to score
// assignments. All functions are pure and take distances in metres.
package fare

import "time"

// Model holds the tariff and fuel constants.
type Model struct {
	Base               float64 `json:"base"`
	PerMetre           float64 `json:"per_metre"`
	RushSurcharge      float64 `json:"rush_surcharge"`
	OvernightSurcharge float64 `json:"overnight_surcharge"`
	FuelPrice          float64 `json:"fuel_price"`
	// FuelEfficiency divides km × FuelPrice in Cost. It is a tuning
	// constant, not a litres-per-100-km figure.
	FuelEfficiency float64 `json:"fuel_efficiency"`
}

// Default returns the New York City tariff with 2020 fuel prices.
func Default() Model {
	return Model{
		Base:               2.50,
		PerMetre:           0.00155344,
		RushSurcharge:      1.00,
		OvernightSurcharge: 0.50,
		FuelPrice:          0.89,
		FuelEfficiency:     9.4,
	}
}

// Fare returns the revenue for a trip of distance metres. When both flags are
// set only the rush surcharge applies.
func (m Model) Fare(distance float64, rush, overnight bool) float64 {
	f := m.Base + m.PerMetre*distance
	switch {
	case rush:
		f += m.RushSurcharge
	case overnight:
		f += m.OvernightSurcharge
	}
	return f
}

// Cost returns the fuel cost of driving distance metres as
// FuelPrice × (km × FuelPrice / FuelEfficiency).
func (m Model) Cost(distance float64) float64 {
	if m.FuelEfficiency <= 0 {
		return 0
	}
	km := distance / 1000
	return m.FuelPrice * (km * m.FuelPrice / m.FuelEfficiency)
}

// Profit returns fare minus the cost of driving distance metres.
func (m Model) Profit(fare, distance float64) float64 {
	return fare - m.Cost(distance)
}

// Period is the tariff band a timestamp falls into.
type Period int

const (
	Standard Period = iota
	Rush
	Overnight
)

func (p Period) String() string {
	switch p {
	case Rush:
		return "rush"
	case Overnight:
		return "overnight"
	default:
		return "standard"
	}
}

// PeriodAt classifies t: weekday 16:00-20:00 is rush, 20:00-06:00 is
// overnight on every day.
func PeriodAt(t time.Time) Period {
	h := t.Hour()
	wd := t.Weekday()
	if wd != time.Saturday && wd != time.Sunday && h >= 16 && h < 20 {
		return Rush
	}
	if h >= 20 || h < 6 {
		return Overnight
	}
	return Standard
}

// FareAt returns the fare for a trip started at t.
func (m Model) FareAt(distance float64, t time.Time) float64 {
	p := PeriodAt(t)
	return m.Fare(distance, p == Rush, p == Overnight)
}
