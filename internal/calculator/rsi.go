package calculator

import (
	"github.com/markcheno/go-talib"

	"SwingScreener/internal/model"
)

// CalculateRSI computes the Wilder-smoothed RSI of closes over the given period.
// The first value appears at index period (period price changes are needed).
// A window with neither gains nor losses reads 50; one with no losses reads 100.
func CalculateRSI(closes []float64, period int) []model.OptFloat {
	if period < 2 || len(closes) < period+1 {
		return make([]model.OptFloat, len(closes))
	}
	out := present(talib.Rsi(closes, period), period)

	// talib reads 0 until the first non-zero change
	flatEnd := 1
	for flatEnd < len(closes) && closes[flatEnd] == closes[0] {
		flatEnd++
	}
	for i := period; i < flatEnd; i++ {
		out[i] = model.Some(50.0)
	}
	return out
}
