package strategy

import (
	"fmt"
	"math"
	"strings"

	"SwingScreener/internal/model"
)

const (
	perfectRiskReward = 4.0  // risk:reward that earns the full factor score
	neutralRSI        = 50.0 // assumed when RSI is unavailable
)

// scoreSignalCount scores the fraction of active signals, linearly.
func scoreSignalCount(signals model.SignalSet) (float64, string) {
	count := signals.Count()
	score := float64(count) / float64(model.SignalTotal) * 100
	return score, fmt.Sprintf("%d/%d signals active", count, model.SignalTotal)
}

// scoreRiskReward scores the plan's risk:reward, capped at 4.0.
func scoreRiskReward(plan model.LevelPlan) (float64, string) {
	rr := plan.RiskReward
	score := math.Min(100, rr/perfectRiskReward*100)
	return math.Max(0, score), fmt.Sprintf("R:R = %.1f (%.1f = perfect)", rr, perfectRiskReward)
}

// scoreVolume scores volume relative to its average; twice the surge factor is perfect.
func scoreVolume(latest model.Snapshot, surgeFactor float64) (float64, string) {
	sma, ok := latest.VolumeSMA.Get()
	if !ok || sma <= 0 {
		return 0, "No volume data"
	}
	ratio := latest.Volume / sma
	score := math.Min(100, ratio/(2*surgeFactor)*100)
	return score, fmt.Sprintf("Volume is %.1f× avg", ratio)
}

// scoreTrend awards 33/33/34 points for close > EMA20, EMA20 > EMA50 and EMA50 > EMA200.
func scoreTrend(latest model.Snapshot) (float64, string) {
	var score float64
	var parts []string

	e20, ok20 := latest.EMA20.Get()
	e50, ok50 := latest.EMA50.Get()
	e200, ok200 := latest.EMA200.Get()

	if ok20 && latest.Close > e20 {
		score += 33
		parts = append(parts, fmt.Sprintf("Price %.2f > EMA20 %.2f", latest.Close, e20))
	}
	if ok20 && ok50 && e20 > e50 {
		score += 33
		parts = append(parts, fmt.Sprintf("EMA20 %.2f > EMA50 %.2f", e20, e50))
	}
	if ok50 && ok200 && e50 > e200 {
		score += 34
		parts = append(parts, fmt.Sprintf("EMA50 %.2f > EMA200 %.2f", e50, e200))
	}
	if len(parts) == 0 {
		return 0, "Weak trend alignment"
	}
	return score, strings.Join(parts, ", ")
}

// scoreRSI rewards the 40-60 swing zone and penalises overbought readings.
func scoreRSI(latest model.Snapshot) (float64, string) {
	rsi := latest.RSI.Or(neutralRSI)
	switch {
	case rsi >= 40 && rsi <= 60:
		return 100, fmt.Sprintf("RSI %.0f — ideal swing zone (40–60)", rsi)
	case (rsi >= 30 && rsi < 40) || (rsi > 60 && rsi <= 70):
		return 70, fmt.Sprintf("RSI %.0f — acceptable range", rsi)
	case rsi < 30:
		return 40, fmt.Sprintf("RSI %.0f — deeply oversold, may signal weakness", rsi)
	default:
		return math.Max(0, 100-(rsi-70)*5), fmt.Sprintf("RSI %.0f — overbought territory", rsi)
	}
}
