// Package money rounds amounts to cents.
package money

import "math"

// Round rounds x to two decimal places, halves away from zero.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}
