package model

import (
	"bytes"
	"encoding/json"
)

// OptFloat is a float that may be absent, e.g. an indicator still in its warm-up period.
// The zero value is absent.
type OptFloat struct {
	value float64
	ok    bool
}

// Some returns a present value.
func Some(v float64) OptFloat { return OptFloat{value: v, ok: true} }

// None returns an absent value.
func None() OptFloat { return OptFloat{} }

// Get returns the value and whether it is present.
func (o OptFloat) Get() (float64, bool) { return o.value, o.ok }

// Valid reports whether the value is present.
func (o OptFloat) Valid() bool { return o.ok }

// Or returns the value, or def when absent.
func (o OptFloat) Or(def float64) float64 {
	if !o.ok {
		return def
	}
	return o.value
}

// MarshalJSON encodes absent values as null.
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent.
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// IndicatorSet holds per-bar indicator columns aligned 1:1 with the bars they were computed from.
type IndicatorSet struct {
	EMAShort   []OptFloat
	EMAMid     []OptFloat
	EMALong    []OptFloat
	RSI        []OptFloat
	MACD       []OptFloat
	MACDSignal []OptFloat
	MACDHist   []OptFloat
	ATR        []OptFloat
	VolumeSMA  []OptFloat
}

// EnrichedSeries is a price series together with its indicators.
type EnrichedSeries struct {
	Bars       []OHLCV
	Indicators IndicatorSet
}

// Len returns the number of bars.
func (s *EnrichedSeries) Len() int { return len(s.Bars) }

// Snapshot returns the indicator values of bar i.
func (s *EnrichedSeries) Snapshot(i int) Snapshot {
	b := s.Bars[i]
	ind := s.Indicators
	return Snapshot{
		Close:      b.Close,
		EMA20:      ind.EMAShort[i],
		EMA50:      ind.EMAMid[i],
		EMA200:     ind.EMALong[i],
		RSI:        ind.RSI[i],
		MACD:       ind.MACD[i],
		MACDSignal: ind.MACDSignal[i],
		ATR:        ind.ATR[i],
		Volume:     b.Volume,
		VolumeSMA:  ind.VolumeSMA[i],
	}
}

// Snapshot is the latest bar of an enriched series. It is the sole input of
// the level calculator and the scorer.
type Snapshot struct {
	Close      float64  `json:"close"`
	EMA20      OptFloat `json:"ema_20"`
	EMA50      OptFloat `json:"ema_50"`
	EMA200     OptFloat `json:"ema_200"`
	RSI        OptFloat `json:"rsi"`
	MACD       OptFloat `json:"macd"`
	MACDSignal OptFloat `json:"macd_signal"`
	ATR        OptFloat `json:"atr"`
	Volume     float64  `json:"volume"`
	VolumeSMA  OptFloat `json:"volume_sma"`
}

// Rounded returns a copy with every present value rounded to the given decimals.
func (s Snapshot) Rounded(places int32) Snapshot {
	r := func(o OptFloat) OptFloat {
		if v, ok := o.Get(); ok {
			return Some(Round(v, places))
		}
		return o
	}
	return Snapshot{
		Close:      Round(s.Close, places),
		EMA20:      r(s.EMA20),
		EMA50:      r(s.EMA50),
		EMA200:     r(s.EMA200),
		RSI:        r(s.RSI),
		MACD:       r(s.MACD),
		MACDSignal: r(s.MACDSignal),
		ATR:        r(s.ATR),
		Volume:     s.Volume,
		VolumeSMA:  r(s.VolumeSMA),
	}
}
