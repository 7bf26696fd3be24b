package shared

import "math"

// Cents converts an amount to the smallest currency unit. All equality
// checks on money go through this so float noise below a cent never
// breaks an invariant.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Round2 normalises an amount to cent precision before persisting.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
