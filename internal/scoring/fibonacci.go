package scoring

import "math"

// halfStep is returned for small positive averages below 0.75.
const halfStep = 0.5

// ClosestFibonacci snaps x to the nearest member of 0, 1, 1, 2, 3, 5, 8, ...
// Values in (0, 0.75) map to 0.5. When x is equidistant from two members the
// larger one wins. NaN, infinities and non-positive values map to 0.
func ClosestFibonacci(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return 0
	}

	if x < 0.75 {
		return halfStep
	}

	prev, cur := 0.0, 1.0
	for cur <= x {
		prev, cur = cur, prev+cur
	}

	if math.Abs(x-prev) < math.Abs(x-cur) {
		return prev
	}
	return cur
}
