package calculator

import (
	"github.com/markcheno/go-talib"

	"SwingScreener/internal/model"
)

// MACDResult holds the three MACD columns.
type MACDResult struct {
	MACD   []model.OptFloat
	Signal []model.OptFloat
	Hist   []model.OptFloat
}

// CalculateMACD computes MACD = EMA(fast) - EMA(slow), the signal line as the
// EMA(signal) of MACD, and the histogram MACD - signal.
func CalculateMACD(closes []float64, fast, slow, signal int) MACDResult {
	n := len(closes)
	res := MACDResult{
		MACD:   make([]model.OptFloat, n),
		Signal: make([]model.OptFloat, n),
		Hist:   make([]model.OptFloat, n),
	}
	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)

	raw := make([]float64, n)
	first := -1
	for i := 0; i < n; i++ {
		f, okF := emaFast[i].Get()
		s, okS := emaSlow[i].Get()
		if !okF || !okS {
			continue
		}
		if first < 0 {
			first = i
		}
		raw[i] = f - s
		res.MACD[i] = model.Some(raw[i])
	}
	if first < 0 || signal <= 0 || n-first < signal {
		return res
	}

	// Signal line over the present part of MACD only
	sigLine := talib.Ema(raw[first:], signal)
	for i := first + signal - 1; i < n; i++ {
		res.Signal[i] = model.Some(sigLine[i-first])
	}
	for i := first; i < n; i++ {
		if sig, ok := res.Signal[i].Get(); ok {
			res.Hist[i] = model.Some(raw[i] - sig)
		}
	}
	return res
}
