package strategy

import (
	"fmt"
	"math"

	"SwingScreener/internal/calculator"
)

// ScoreWeights are the factor weights of the composite score; they must sum to 1.0.
type ScoreWeights struct {
	Signals    float64 `yaml:"signals" json:"signals"`
	RiskReward float64 `yaml:"risk_reward" json:"risk_reward"`
	Volume     float64 `yaml:"volume" json:"volume"`
	Trend      float64 `yaml:"trend" json:"trend"`
	RSI        float64 `yaml:"rsi" json:"rsi"`
}

// Sum returns the total weight.
func (w ScoreWeights) Sum() float64 {
	return w.Signals + w.RiskReward + w.Volume + w.Trend + w.RSI
}

// Params is the immutable set of screening thresholds. It is passed by value
// into every component so that parallel runs with different settings never share state.
type Params struct {
	calculator.Periods `yaml:",inline"`

	RSIOversold         float64      `yaml:"rsi_oversold" json:"rsi_oversold"`
	MinSignalsRequired  int          `yaml:"min_signals_required" json:"min_signals_required"`
	SupportProximityPct float64      `yaml:"support_proximity_pct" json:"support_proximity_pct"`
	VolumeSurgeFactor   float64      `yaml:"volume_surge_factor" json:"volume_surge_factor"`
	MinPrice            float64      `yaml:"min_price" json:"min_price"`
	MinPriceUS          float64      `yaml:"min_price_us" json:"min_price_us"`
	MinAvgVolume        float64      `yaml:"min_avg_volume" json:"min_avg_volume"`
	ATRSLMultiplier     float64      `yaml:"atr_sl_multiplier" json:"atr_sl_multiplier"`
	MinRiskReward       float64      `yaml:"min_risk_reward" json:"min_risk_reward"`
	ScoreWeights        ScoreWeights `yaml:"score_weights" json:"score_weights"`

	MinHistory  int     `yaml:"min_history" json:"min_history"`
	WarmupDays  int     `yaml:"warmup_days" json:"warmup_days"`
	SRLookback  int     `yaml:"sr_lookback" json:"sr_lookback"`
	SRTolerance float64 `yaml:"sr_tolerance" json:"sr_tolerance"`
}

// DefaultParams returns the stock screening thresholds.
func DefaultParams() Params {
	return Params{
		Periods:             calculator.DefaultPeriods(),
		RSIOversold:         40,
		MinSignalsRequired:  2,
		SupportProximityPct: 0.02,
		VolumeSurgeFactor:   1.5,
		MinPrice:            50.0,
		MinPriceUS:          5.0,
		MinAvgVolume:        100_000,
		ATRSLMultiplier:     1.5,
		MinRiskReward:       2.0,
		ScoreWeights: ScoreWeights{
			Signals:    0.30,
			RiskReward: 0.25,
			Volume:     0.15,
			Trend:      0.15,
			RSI:        0.15,
		},
		MinHistory:  50,
		WarmupDays:  220,
		SRLookback:  calculator.DefaultLookback,
		SRTolerance: calculator.DefaultTolerance,
	}
}

// ForMarket returns a copy whose minimum price matches the market's currency.
func (p Params) ForMarket(us bool) Params {
	if us {
		p.MinPrice = p.MinPriceUS
	}
	return p
}

// Validate checks the thresholds for internal consistency.
func (p Params) Validate() error {
	if err := p.Periods.Validate(); err != nil {
		return err
	}
	if p.MinSignalsRequired < 0 || p.MinSignalsRequired > 5 {
		return fmt.Errorf("min_signals_required must be within [0,5], got %d", p.MinSignalsRequired)
	}
	if p.RSIOversold <= 0 || p.RSIOversold >= 100 {
		return fmt.Errorf("rsi_oversold must be within (0,100), got %.2f", p.RSIOversold)
	}
	if p.SupportProximityPct < 0 {
		return fmt.Errorf("support_proximity_pct must not be negative")
	}
	if p.VolumeSurgeFactor <= 0 {
		return fmt.Errorf("volume_surge_factor must be positive")
	}
	if p.ATRSLMultiplier <= 0 {
		return fmt.Errorf("atr_sl_multiplier must be positive")
	}
	if p.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive")
	}
	if p.MinHistory < 2 {
		return fmt.Errorf("min_history must be at least 2, got %d", p.MinHistory)
	}
	if p.SRTolerance < 0 {
		return fmt.Errorf("sr_tolerance must not be negative")
	}
	w := p.ScoreWeights
	for _, v := range []float64{w.Signals, w.RiskReward, w.Volume, w.Trend, w.RSI} {
		if v < 0 || v > 1 {
			return fmt.Errorf("score weights must be within [0,1], got %.3f", v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("score weights must sum to 1.0, got %.4f", w.Sum())
	}
	return nil
}
