package util

import "math"

// Round4 rounds to 4 decimal places. Feature and intelligence outputs
// are contractually rounded to this precision.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
