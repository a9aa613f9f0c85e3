package geo

import "math"

// FixedScale is the number of fixed-point units per degree.
const FixedScale = 1e15

// Fixed is a coordinate expressed as an integer count of 1e-15 degrees.
// Degrees are bounded by ±180 so the scaled value stays well inside int64.
type Fixed int64

// ToFixed converts decimal degrees to the fixed-point representation.
func ToFixed(deg float64) Fixed {
	return Fixed(math.Round(deg * FixedScale))
}

// Degrees converts f back to decimal degrees.
func (f Fixed) Degrees() float64 {
	return float64(f) / FixedScale
}

// Delta returns to-from in degrees. The subtraction happens on the integer
// representation so two nearby intersections do not cancel out.
func Delta(from, to float64) float64 {
	return (ToFixed(to) - ToFixed(from)).Degrees()
}
