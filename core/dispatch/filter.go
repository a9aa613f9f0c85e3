package dispatch

import (
	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/model"
)

// VehicleFilter selects the vehicles worth routing for a request.
type VehicleFilter interface {
	Filter(fleet []*model.Vehicle, req *model.Request) []*model.Vehicle
}

// ProximityFilter keeps available vehicles whose great-circle distance to
// the pickup is strictly below RadiusMetres. With CheckSeats set it also
// drops vehicles that cannot carry the requested seats. Fleet order is
// preserved.
type ProximityFilter struct {
	RadiusMetres float64
	CheckSeats   bool
}

func (f ProximityFilter) Filter(fleet []*model.Vehicle, req *model.Request) []*model.Vehicle {
	var out []*model.Vehicle
	for _, v := range fleet {
		if !v.Available || (f.CheckSeats && !v.CanCarry(req.Seats)) {
			continue
		}
		if geo.Haversine(v.Position, req.Start) < f.RadiusMetres {
			out = append(out, v)
		}
	}
	return out
}
