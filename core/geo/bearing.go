package geo

import "math"

// Scale holds the length in metres of one degree of latitude and one degree
// of longitude around a reference latitude.
type Scale struct {
	LatMetres float64 `json:"lat_metres"`
	LonMetres float64 `json:"lon_metres"`
}

// DefaultReferenceLat is the latitude of lower Manhattan.
const DefaultReferenceLat = 40.7128

// DefaultScale returns the scale factors around DefaultReferenceLat.
func DefaultScale() Scale { return ScaleAt(DefaultReferenceLat) }

// ScaleAt computes the metres-per-degree factors at the given latitude.
func ScaleAt(lat float64) Scale {
	phi := toRadians(lat)
	return Scale{
		LatMetres: 111132.954 - 559.822*math.Cos(2*phi) + 1.175*math.Cos(4*phi),
		LonMetres: 111412.84*math.Cos(phi) - 93.5*math.Cos(3*phi) + 0.118*math.Cos(5*phi),
	}
}

// Project returns the east and north offsets in metres from a to b.
func (s Scale) Project(a, b Point) (dx, dy float64) {
	return Delta(a.Lon, b.Lon) * s.LonMetres, Delta(a.Lat, b.Lat) * s.LatMetres
}

// Planar returns the straight-line distance between a and b in metres on the
// local tangent plane.
func (s Scale) Planar(a, b Point) float64 {
	dx, dy := s.Project(a, b)
	return math.Hypot(dx, dy)
}

// Bearing returns the angle in radians, counter-clockwise from east, of the
// segment a→b. The first-quadrant angle is taken against the dominant axis so
// the ratio fed to the arctangent never exceeds one, then mapped back to its
// quadrant. Coincident points have a bearing of zero.
func (s Scale) Bearing(a, b Point) float64 {
	dx, dy := s.Project(a, b)
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax == 0 && ay == 0 {
		return 0
	}
	var theta float64
	if ax >= ay {
		theta = math.Atan(ay / ax)
	} else {
		theta = math.Pi/2 - math.Atan(ax/ay)
	}
	switch {
	case dx >= 0 && dy >= 0:
		return theta
	case dx < 0 && dy >= 0:
		return math.Pi - theta
	case dx < 0:
		return theta - math.Pi
	default:
		return -theta
	}
}

// Offset moves p by metres along bearing.
func (s Scale) Offset(p Point, bearing, metres float64) Point {
	return Point{
		Lat: p.Lat + metres*math.Sin(bearing)/s.LatMetres,
		Lon: p.Lon + metres*math.Cos(bearing)/s.LonMetres,
	}
}
