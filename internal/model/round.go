package model

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places, half away from zero,
// on the shortest decimal representation of v.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundAll rounds every element of vs, returning a new slice.
func RoundAll(vs []float64, places int32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Round(v, places)
	}
	return out
}
