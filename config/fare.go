package config

import (
	"errors"

	"github.com/kilianp07/celer/core/fare"
)

// FareConfig holds the pricing constants. Fields left out of the file keep
// the default model's value.
type FareConfig struct {
	Base               *float64 `json:"base"`
	PerMetre           *float64 `json:"per_metre"`
	RushSurcharge      *float64 `json:"rush_surcharge"`
	OvernightSurcharge *float64 `json:"overnight_surcharge"`
	FuelPrice          *float64 `json:"fuel_price"`
	FuelEfficiency     *float64 `json:"fuel_efficiency"`
}

func (c *FareConfig) SetDefaults() {
	d := fare.Default()
	fill := func(p **float64, v float64) {
		if *p == nil {
			*p = &v
		}
	}
	fill(&c.Base, d.Base)
	fill(&c.PerMetre, d.PerMetre)
	fill(&c.RushSurcharge, d.RushSurcharge)
	fill(&c.OvernightSurcharge, d.OvernightSurcharge)
	fill(&c.FuelPrice, d.FuelPrice)
	fill(&c.FuelEfficiency, d.FuelEfficiency)
}

func (c FareConfig) Validate() error {
	m := c.Model()
	if m.Base < 0 || m.PerMetre < 0 || m.RushSurcharge < 0 || m.OvernightSurcharge < 0 || m.FuelPrice < 0 {
		return errors.New("prices must not be negative")
	}
	if m.FuelEfficiency <= 0 {
		return errors.New("fuel_efficiency must be positive")
	}
	return nil
}

// Model returns the fare model. Unset fields take the default values.
func (c FareConfig) Model() fare.Model {
	m := fare.Default()
	set := func(dst *float64, p *float64) {
		if p != nil {
			*dst = *p
		}
	}
	set(&m.Base, c.Base)
	set(&m.PerMetre, c.PerMetre)
	set(&m.RushSurcharge, c.RushSurcharge)
	set(&m.OvernightSurcharge, c.OvernightSurcharge)
	set(&m.FuelPrice, c.FuelPrice)
	set(&m.FuelEfficiency, c.FuelEfficiency)
	return m
}
