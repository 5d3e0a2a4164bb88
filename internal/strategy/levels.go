package strategy

import (
	"math"

	"SwingScreener/internal/model"
)

const (
	entrySnapPct       = 0.01  // entry snaps down to a support this close below the close
	stopSupportGap     = 0.99  // a support must sit below entry*0.99 to anchor the stop
	stopSupportBuffer  = 0.995 // stop is placed just under the anchoring support
	targetResistGap    = 1.01  // a resistance must sit above entry*1.01 to be a target
	fallbackTargetStep = 1.02  // target_2 without a resistance: target_1 * 1.02
)

// ComputeLevels derives entry, stop-loss and targets from a detection. The
// second return value is false when no valid plan exists: missing close/ATR,
// non-positive risk, or a risk:reward below the configured minimum.
// All prices are rounded to 2 decimals.
func ComputeLevels(det model.Detection, p Params) (model.LevelPlan, bool) {
	close := det.Latest.Close
	atr, ok := det.Latest.ATR.Get()
	if !ok || atr <= 0 || close <= 0 {
		return model.LevelPlan{}, false
	}

	// Entry: the close, or the nearest support if it is within 1% below
	entry := close
	if sup, ok := nearestBelow(det.Supports, close); ok && sup > 0 && (close-sup)/sup <= entrySnapPct {
		entry = sup
	}

	// Stop: the tighter of the ATR stop and just under the nearest support
	stop := entry - p.ATRSLMultiplier*atr
	if sup, ok := nearestBelow(det.Supports, entry*stopSupportGap); ok {
		stop = math.Max(stop, sup*stopSupportBuffer)
	}

	risk := entry - stop
	if risk <= 0 {
		return model.LevelPlan{}, false
	}

	target1 := entry + p.MinRiskReward*risk
	target2, ok := nearestAbove(det.Resistances, entry*targetResistGap)
	if !ok {
		target2 = target1 * fallbackTargetStep
	}
	primary := math.Max(target1, target2)

	reward := primary - entry
	riskReward := reward / risk
	if riskReward < p.MinRiskReward {
		return model.LevelPlan{}, false
	}

	plan := model.LevelPlan{
		Entry:         model.Round(entry, 2),
		StopLoss:      model.Round(stop, 2),
		Target1:       model.Round(target1, 2),
		Target2:       model.Round(target2, 2),
		PrimaryTarget: model.Round(primary, 2),
		Risk:          model.Round(risk, 2),
		Reward:        model.Round(reward, 2),
		RiskReward:    model.Round(riskReward, 2),
	}
	if plan.Risk <= 0 || plan.Reward <= 0 || plan.RiskReward < p.MinRiskReward {
		return model.LevelPlan{}, false
	}
	return plan, true
}
