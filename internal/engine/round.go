package engine

import "math"

// roundHalfUp rounds to the nearest integer with .5 going toward +Inf,
// so -2.5 rounds to -2 and 2.5 to 3.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// roundTenths rounds to one decimal place (multiply, round, divide).
func roundTenths(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
