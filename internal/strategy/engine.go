package strategy

import (
	"errors"
	"sort"

	"SwingScreener/internal/calculator"
	"SwingScreener/internal/model"
)

// Score converts a detection and its level plan into the weighted breakdown.
// The total is the weighted sum of the raw factor scores, clamped to [0,100]
// and rounded to 1 decimal.
func Score(det model.Detection, plan model.LevelPlan, p Params) model.ScoreBreakdown {
	w := p.ScoreWeights

	signalScore, signalReason := scoreSignalCount(det.Signals)
	rrScore, rrReason := scoreRiskReward(plan)
	volScore, volReason := scoreVolume(det.Latest, p.VolumeSurgeFactor)
	trendScore, trendReason := scoreTrend(det.Latest)
	rsiScore, rsiReason := scoreRSI(det.Latest)

	factors := []model.FactorScore{
		factor("Signal Count", signalScore, w.Signals, signalReason),
		factor("Risk / Reward", rrScore, w.RiskReward, rrReason),
		factor("Volume", volScore, w.Volume, volReason),
		factor("Trend Strength", trendScore, w.Trend, trendReason),
		factor("RSI Position", rsiScore, w.RSI, rsiReason),
	}

	total := signalScore*w.Signals + rrScore*w.RiskReward + volScore*w.Volume +
		trendScore*w.Trend + rsiScore*w.RSI
	total = min(100, max(0, total))

	return model.ScoreBreakdown{Factors: factors, Total: model.Round(total, 1)}
}

func factor(name string, raw, weight float64, reason string) model.FactorScore {
	return model.FactorScore{
		Name:     name,
		RawScore: model.Round(raw, 1),
		Weight:   weight,
		Weighted: model.Round(raw*weight, 1),
		Reason:   reason,
	}
}

// Rank stable-sorts candidates by score, highest first. Equal scores keep their
// input order. The input slice is not modified.
func Rank(candidates []model.Candidate) []model.Candidate {
	ranked := append([]model.Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Evaluate runs the full per-instrument pipeline: indicators, signal detection,
// levels and scoring. A nil candidate with a nil error is a negative result;
// the returned detection tells why. Errors are reserved for malformed or short input.
func Evaluate(inst model.Instrument, bars []model.OHLCV, p Params) (*model.Candidate, model.Detection, error) {
	if len(bars) < p.MinHistory {
		return nil, model.Detection{Reason: model.ReasonInsufficientData},
			&model.InsufficientDataError{Symbol: inst.Symbol, Have: len(bars), Need: p.MinHistory}
	}

	series, err := calculator.Compute(bars, p.Periods)
	if err != nil {
		var invalid *model.InvalidInputError
		if errors.As(err, &invalid) {
			invalid.Symbol = inst.Symbol
		}
		return nil, model.Detection{}, err
	}

	det := Detect(series, p)
	if !det.Passed {
		return nil, det, nil
	}

	plan, ok := ComputeLevels(det, p)
	if !ok {
		return nil, det, nil
	}

	score := Score(det, plan, p)
	return &model.Candidate{
		Instrument:     inst,
		Score:          score.Total,
		ScoreBreakdown: score.Factors,
		Signals:        det.Signals,
		SignalCount:    det.SignalCount,
		Filters:        det.Filters,
		Latest:         det.Latest.Rounded(2),
		Levels:         plan,
		Supports:       model.RoundAll(det.Supports, 2),
		Resistances:    model.RoundAll(det.Resistances, 2),
		Sparkline:      sparkline(series.Bars, sparklineBars),
	}, det, nil
}

const sparklineBars = 30

func sparkline(bars []model.OHLCV, n int) []float64 {
	start := max(0, len(bars)-n)
	closes := model.Closes(bars[start:])
	return model.RoundAll(closes, 2)
}
