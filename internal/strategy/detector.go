package strategy

import (
	"SwingScreener/internal/calculator"
	"SwingScreener/internal/model"
)

const (
	rsiLookbackBars  = 5 // bars searched for an oversold reading, current included
	macdLookbackBars = 3 // most recent bars that may hold the bullish cross
)

// Detect runs the tradability filters and, when they all pass, the five signal
// checks on the latest bar of series. Missing indicator values read as a false
// signal; negative outcomes are reported through Passed and Reason, never as errors.
func Detect(series *model.EnrichedSeries, p Params) model.Detection {
	n := series.Len()
	if n < p.MinHistory || n < 2 {
		return model.Detection{Passed: false, Reason: model.ReasonInsufficientData}
	}

	supports, resistances := calculator.FindSupportResistance(series.Bars, p.SRLookback, p.SRTolerance)
	latest := series.Snapshot(n - 1)

	filters := evaluateFilters(latest, p)
	if !filters.All() {
		return model.Detection{Passed: false, Reason: model.ReasonFilterFailed, Filters: filters, Latest: latest}
	}

	prev := series.Bars[n-2]
	signals := model.SignalSet{
		EMAAligned:    emaAligned(latest),
		RSIRecovery:   rsiRecovery(series.Indicators.RSI, p.RSIOversold),
		MACDCrossover: macdCrossover(series.Indicators.MACD, series.Indicators.MACDSignal),
		SupportBounce: supportBounce(latest.Close, prev.Close, supports, p.SupportProximityPct),
		VolumeSurge:   volumeSurge(latest, p.VolumeSurgeFactor),
	}

	det := model.Detection{
		Signals:     signals,
		SignalCount: signals.Count(),
		Filters:     filters,
		Latest:      latest,
		Supports:    supports,
		Resistances: resistances,
	}
	det.Passed = det.SignalCount >= p.MinSignalsRequired
	if !det.Passed {
		det.Reason = model.ReasonInsufficientSignals
	}
	return det
}

func evaluateFilters(latest model.Snapshot, p Params) model.FilterSet {
	ema200, hasEMA := latest.EMA200.Get()
	volSMA, hasVol := latest.VolumeSMA.Get()
	return model.FilterSet{
		PriceAbove200EMA: hasEMA && latest.Close > ema200,
		PriceMin:         latest.Close >= p.MinPrice,
		VolumeMin:        hasVol && volSMA >= p.MinAvgVolume,
	}
}

// emaAligned: close > EMA short > EMA mid.
func emaAligned(latest model.Snapshot) bool {
	e20, ok20 := latest.EMA20.Get()
	e50, ok50 := latest.EMA50.Get()
	return ok20 && ok50 && latest.Close > e20 && e20 > e50
}

// rsiRecovery: RSI touched the oversold threshold within the lookback and is
// now above it and rising.
func rsiRecovery(rsi []model.OptFloat, oversold float64) bool {
	n := len(rsi)
	if n < 2 {
		return false
	}
	cur, ok := rsi[n-1].Get()
	if !ok {
		return false
	}
	prev, ok := rsi[n-2].Get()
	if !ok {
		return false
	}

	wasOversold := false
	for i := max(0, n-rsiLookbackBars); i < n; i++ {
		if v, ok := rsi[i].Get(); ok && v <= oversold {
			wasOversold = true
			break
		}
	}
	return wasOversold && cur > oversold && cur > prev
}

// macdCrossover reports whether MACD crossed above its signal line on one of the
// last three bars, i.e. MACD <= signal on bar i-1 and MACD > signal on bar i for
// some i in {n-1, n-2, n-3}. The scan starts at the most recent bar and stops at
// the first cross.
func macdCrossover(macd, signal []model.OptFloat) bool {
	n := len(macd)
	if n < 2 || !macd[n-1].Valid() || !signal[n-1].Valid() {
		return false
	}
	for i := n - 1; i >= n-macdLookbackBars && i >= 1; i-- {
		m, okM := macd[i].Get()
		s, okS := signal[i].Get()
		pm, okPM := macd[i-1].Get()
		ps, okPS := signal[i-1].Get()
		if !okM || !okS || !okPM || !okPS {
			continue
		}
		if m > s && pm <= ps {
			return true
		}
	}
	return false
}

// supportBounce: the nearest support below close is within proximity and the
// close is up on the day. Only that nearest support is considered.
func supportBounce(close, prevClose float64, supports []float64, proximity float64) bool {
	sup, ok := nearestBelow(supports, close)
	if !ok || sup <= 0 {
		return false
	}
	return (close-sup)/sup <= proximity && close > prevClose
}

// volumeSurge: volume is at least factor times its moving average.
func volumeSurge(latest model.Snapshot, factor float64) bool {
	sma, ok := latest.VolumeSMA.Get()
	return ok && sma > 0 && latest.Volume >= factor*sma
}
