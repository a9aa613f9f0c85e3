package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusM is the mean radius of the Earth in metres.
const EarthRadiusM = 6_371_000.0

// Point is a WGS-84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// ParsePoint reads "lat,lon".
func ParsePoint(s string) (Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("point %q: want lat,lon", s)
	}
	var p Point
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("point %q: lat: %w", s, err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Point{}, fmt.Errorf("point %q: lon: %w", s, err)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return Point{}, fmt.Errorf("point %q: out of range", s)
	}
	return p, nil
}

// Equal compares two points on their scaled-integer representation.
func (p Point) Equal(o Point) bool {
	return ToFixed(p.Lat) == ToFixed(o.Lat) && ToFixed(p.Lon) == ToFixed(o.Lon)
}

// Haversine returns the great-circle distance between a and b in metres.
func Haversine(a, b Point) float64 {
	dLat := toRadians(Delta(a.Lat, b.Lat))
	dLon := toRadians(Delta(a.Lon, b.Lon))
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*sinLon*sinLon
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(math.Min(1, h)))
}

// Manhattan returns the axis-aligned distance between a and b in metres
// using the local scale factors of s.
func Manhattan(a, b Point, s Scale) float64 {
	dx, dy := s.Project(a, b)
	return math.Abs(dx) + math.Abs(dy)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
