package model

// Detection reason codes.
const (
	ReasonInsufficientData    = "insufficient_data"
	ReasonFilterFailed        = "filter_failed"
	ReasonInsufficientSignals = "insufficient_signals"
)

// SignalSet holds the five bullish signals.
type SignalSet struct {
	EMAAligned    bool `json:"ema_aligned"`
	RSIRecovery   bool `json:"rsi_recovery"`
	MACDCrossover bool `json:"macd_crossover"`
	SupportBounce bool `json:"support_bounce"`
	VolumeSurge   bool `json:"volume_surge"`
}

// SignalTotal is the number of signals in a SignalSet.
const SignalTotal = 5

// Count returns the number of true signals.
func (s SignalSet) Count() int {
	n := 0
	for _, v := range []bool{s.EMAAligned, s.RSIRecovery, s.MACDCrossover, s.SupportBounce, s.VolumeSurge} {
		if v {
			n++
		}
	}
	return n
}

// FilterSet holds the tradability gates.
type FilterSet struct {
	PriceAbove200EMA bool `json:"price_above_200ema"`
	PriceMin         bool `json:"price_min"`
	VolumeMin        bool `json:"volume_min"`
}

// All reports whether every filter passed.
func (f FilterSet) All() bool {
	return f.PriceAbove200EMA && f.PriceMin && f.VolumeMin
}

// Detection is the output of the signal detector.
type Detection struct {
	Passed      bool      `json:"passed"`
	Reason      string    `json:"reason,omitempty"`
	Signals     SignalSet `json:"signals"`
	SignalCount int       `json:"signal_count"`
	Filters     FilterSet `json:"filters"`
	Latest      Snapshot  `json:"latest"`
	Supports    []float64 `json:"supports"`
	Resistances []float64 `json:"resistances"`
}

// LevelPlan holds the risk-managed price levels of a candidate.
type LevelPlan struct {
	Entry         float64 `json:"entry"`
	StopLoss      float64 `json:"stop_loss"`
	Target1       float64 `json:"target_1"`
	Target2       float64 `json:"target_2"`
	PrimaryTarget float64 `json:"primary_target"`
	Risk          float64 `json:"risk"`
	Reward        float64 `json:"reward"`
	RiskReward    float64 `json:"risk_reward"`
}

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name     string  `json:"name"`
	RawScore float64 `json:"raw_score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
}

// ScoreBreakdown is the explainable composite score.
type ScoreBreakdown struct {
	Factors []FactorScore `json:"factors"`
	Total   float64       `json:"total"`
}
