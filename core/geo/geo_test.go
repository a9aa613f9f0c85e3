package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{"same point", Point{40.7128, -74.0060}, Point{40.7128, -74.0060}, 0, 1e-9},
		{"one degree latitude", Point{0, 0}, Point{1, 0}, 111195, 1},
		{"times square to wall street", Point{40.7580, -73.9855}, Point{40.7060, -74.0086}, 6110, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("expected %.1f got %.1f", tt.want, got)
			}
			if back := Haversine(tt.b, tt.a); math.Abs(back-got) > 1e-6 {
				t.Fatalf("not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestDeltaAvoidsCancellation(t *testing.T) {
	a := 40.712800000000001
	b := 40.712800000001
	d := Delta(a, b)
	if d <= 0 {
		t.Fatalf("expected positive delta got %v", d)
	}
	if math.Abs(d-1e-12) > 5e-14 {
		t.Fatalf("expected ~1e-12 got %v", d)
	}
	if Delta(b, b) != 0 {
		t.Fatalf("expected zero delta for identical coordinates")
	}
}

func TestFixedRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, -73.985428, 40.748817, 179.999999, -180} {
		if got := ToFixed(deg).Degrees(); math.Abs(got-deg) > 1e-12 {
			t.Fatalf("round trip %v got %v", deg, got)
		}
	}
}

func TestPointEqual(t *testing.T) {
	p := Point{40.7, -74}
	if !p.Equal(Point{40.7, -74}) {
		t.Fatalf("expected equal")
	}
	if p.Equal(Point{40.7000001, -74}) {
		t.Fatalf("expected different")
	}
}

func TestBearingQuadrants(t *testing.T) {
	s := Scale{LatMetres: 1, LonMetres: 1}
	o := Point{}
	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"east", Point{0, 1}, 0},
		{"north", Point{1, 0}, math.Pi / 2},
		{"west", Point{0, -1}, math.Pi},
		{"south", Point{-1, 0}, -math.Pi / 2},
		{"north east", Point{1, 1}, math.Pi / 4},
		{"north west", Point{1, -1}, 3 * math.Pi / 4},
		{"south west", Point{-1, -1}, -3 * math.Pi / 4},
		{"south east", Point{-1, 1}, -math.Pi / 4},
		{"steep north", Point{2, 1}, math.Atan2(2, 1)},
		{"steep south west", Point{-3, -1}, math.Atan2(-3, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Bearing(o, tt.to)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v got %v", tt.want, got)
			}
		})
	}
	if b := s.Bearing(o, o); b != 0 {
		t.Fatalf("coincident points should have zero bearing, got %v", b)
	}
}

func TestBearingNearlyVertical(t *testing.T) {
	s := DefaultScale()
	a := Point{40.7128, -74.0060}
	b := Point{40.7228, -74.006000000001}
	got := s.Bearing(a, b)
	if math.IsNaN(got) || math.Abs(got-math.Pi/2) > 1e-6 {
		t.Fatalf("expected ~pi/2 got %v", got)
	}
}

func TestOffsetFollowsBearing(t *testing.T) {
	s := DefaultScale()
	a := Point{40.7128, -74.0060}
	b := Point{40.7150, -74.0010}
	total := s.Planar(a, b)
	mid := s.Offset(a, s.Bearing(a, b), total/2)
	if d := s.Planar(a, mid); math.Abs(d-total/2) > 1e-6 {
		t.Fatalf("expected %v got %v", total/2, d)
	}
	end := s.Offset(a, s.Bearing(a, b), total)
	if s.Planar(end, b) > 1e-6 {
		t.Fatalf("offset by full length should land on target, off by %v", s.Planar(end, b))
	}
}

func TestScaleAt(t *testing.T) {
	s := ScaleAt(0)
	if math.Abs(s.LatMetres-110574) > 1 || math.Abs(s.LonMetres-111320) > 1 {
		t.Fatalf("unexpected equator scale %+v", s)
	}
	nyc := DefaultScale()
	if nyc.LonMetres >= s.LonMetres || nyc.LatMetres <= s.LatMetres {
		t.Fatalf("unexpected nyc scale %+v", nyc)
	}
}

func TestManhattanAtLeastPlanar(t *testing.T) {
	s := DefaultScale()
	a := Point{40.7128, -74.0060}
	b := Point{40.7306, -73.9866}
	if Manhattan(a, b, s) < s.Planar(a, b) {
		t.Fatalf("manhattan shorter than straight line")
	}
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("40.7128, -74.006")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Lat != 40.7128 || p.Lon != -74.006 {
		t.Fatalf("unexpected point %v", p)
	}
	for _, bad := range []string{"", "40.7", "x,1", "1,y", "91,0", "0,181"} {
		if _, err := ParsePoint(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
