package common

import "math"

// Epsilon is the tolerance used when comparing derived joint quantities.
const Epsilon = 1e-6

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// NearZero reports whether |v| is within Epsilon.
func NearZero(v float64) bool {
	return math.Abs(v) <= Epsilon
}
