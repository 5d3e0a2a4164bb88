package calculator

import (
	"fmt"
	"math"

	"SwingScreener/internal/model"
)

// Periods configures the indicator windows.
type Periods struct {
	EMAShort   int `yaml:"ema_short" json:"ema_short"`
	EMAMid     int `yaml:"ema_mid" json:"ema_mid"`
	EMALong    int `yaml:"ema_long" json:"ema_long"`
	RSI        int `yaml:"rsi_period" json:"rsi_period"`
	MACDFast   int `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal int `yaml:"macd_signal" json:"macd_signal"`
	ATR        int `yaml:"atr_period" json:"atr_period"`
	VolumeSMA  int `yaml:"volume_sma_period" json:"volume_sma_period"`
}

// DefaultPeriods returns EMA 20/50/200, RSI 14, MACD 12/26/9, ATR 14 and volume SMA 20.
func DefaultPeriods() Periods {
	return Periods{
		EMAShort:   20,
		EMAMid:     50,
		EMALong:    200,
		RSI:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATR:        14,
		VolumeSMA:  20,
	}
}

// Validate checks that every window is positive and MACD fast < slow.
func (p Periods) Validate() error {
	windows := []struct {
		name string
		v    int
	}{
		{"ema_short", p.EMAShort}, {"ema_mid", p.EMAMid}, {"ema_long", p.EMALong},
		{"rsi_period", p.RSI}, {"macd_fast", p.MACDFast}, {"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal}, {"atr_period", p.ATR}, {"volume_sma_period", p.VolumeSMA},
	}
	for _, w := range windows {
		if w.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", w.name, w.v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be less than macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// Compute validates bars and returns an enriched copy carrying every indicator.
// The input slice is never modified.
func Compute(bars []model.OHLCV, p Periods) (*model.EnrichedSeries, error) {
	if err := p.Validate(); err != nil {
		return nil, &model.InvalidInputError{Reason: err.Error()}
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	series := &model.EnrichedSeries{Bars: append([]model.OHLCV(nil), bars...)}
	closes := model.Closes(series.Bars)
	volumes := make([]float64, len(series.Bars))
	for i, b := range series.Bars {
		volumes[i] = b.Volume
	}

	macd := CalculateMACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	series.Indicators = model.IndicatorSet{
		EMAShort:   CalculateEMA(closes, p.EMAShort),
		EMAMid:     CalculateEMA(closes, p.EMAMid),
		EMALong:    CalculateEMA(closes, p.EMALong),
		RSI:        CalculateRSI(closes, p.RSI),
		MACD:       macd.MACD,
		MACDSignal: macd.Signal,
		MACDHist:   macd.Hist,
		ATR:        CalculateATR(series.Bars, p.ATR),
		VolumeSMA:  CalculateSMA(volumes, p.VolumeSMA),
	}
	return series, nil
}

// ValidateBars rejects non-finite or negative values, inverted high/low ranges
// and timestamps that are not strictly ascending.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, f := range []struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return &model.InvalidInputError{Reason: fmt.Sprintf("bar %d: %s is not a finite number", i, f.name)}
			}
			if f.v < 0 {
				return &model.InvalidInputError{Reason: fmt.Sprintf("bar %d: %s is negative", i, f.name)}
			}
		}
		if b.High < b.Low {
			return &model.InvalidInputError{Reason: fmt.Sprintf("bar %d: high %.4f below low %.4f", i, b.High, b.Low)}
		}
		if i > 0 && !b.Time.IsZero() && !bars[i-1].Time.IsZero() && !b.Time.After(bars[i-1].Time) {
			return &model.InvalidInputError{Reason: fmt.Sprintf("bar %d: date %s not after %s",
				i, b.Time.Format("2006-01-02"), bars[i-1].Time.Format("2006-01-02"))}
		}
	}
	return nil
}
