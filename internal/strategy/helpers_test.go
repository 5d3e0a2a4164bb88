package strategy

import (
	"time"

	"SwingScreener/internal/model"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, close, high, low, volume float64) model.OHLCV {
	return model.OHLCV{
		Time:   day0.AddDate(0, 0, i),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// risingBars returns n bars whose close climbs by step every day.
func risingBars(n int, start, step, volume float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = bar(i, c, c+0.5, c-0.5, volume)
	}
	return bars
}

func opts(vs ...float64) []model.OptFloat {
	out := make([]model.OptFloat, len(vs))
	for i, v := range vs {
		if v < 0 {
			out[i] = model.None()
			continue
		}
		out[i] = model.Some(v)
	}
	return out
}

func approx(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
