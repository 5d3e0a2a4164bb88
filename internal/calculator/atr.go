package calculator

import (
	"github.com/markcheno/go-talib"

	"SwingScreener/internal/model"
)

// CalculateATR computes the Wilder-smoothed average true range. Every true range
// needs a previous close, so the first value is the mean of the true ranges of
// bars 1..period and appears at index period.
func CalculateATR(bars []model.OHLCV, period int) []model.OptFloat {
	if period <= 0 || len(bars) < period+1 {
		return make([]model.OptFloat, len(bars))
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	return present(talib.Atr(highs, lows, closes, period), period)
}
