package calculator

import (
	"github.com/markcheno/go-talib"

	"SwingScreener/internal/model"
)

// CalculateSMA computes the rolling simple moving average of values over period.
// Bars before the first full window are absent.
func CalculateSMA(values []float64, period int) []model.OptFloat {
	if period <= 0 || len(values) < period {
		return make([]model.OptFloat, len(values))
	}
	return present(talib.Sma(values, period), period-1)
}

// CalculateEMA computes the exponential moving average of values with smoothing
// factor 2/(period+1), seeded by the simple average of the first period values.
func CalculateEMA(values []float64, period int) []model.OptFloat {
	if period <= 0 || len(values) < period {
		return make([]model.OptFloat, len(values))
	}
	return present(talib.Ema(values, period), period-1)
}

// present wraps a talib output column, marking its lookback prefix absent.
func present(vals []float64, lookback int) []model.OptFloat {
	out := make([]model.OptFloat, len(vals))
	for i := lookback; i < len(vals); i++ {
		out[i] = model.Some(vals[i])
	}
	return out
}
