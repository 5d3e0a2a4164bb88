package calculator

import (
	"math"
	"sort"

	"SwingScreener/internal/model"
)

const (
	// DefaultLookback is the number of recent bars scanned for swing points.
	DefaultLookback = 60
	// DefaultTolerance is the relative distance within which swing points are merged.
	DefaultTolerance = 0.015

	swingWindow = 5 // bars on each side to qualify as swing point
)

// FindSupportResistance detects swing lows (supports) and swing highs (resistances)
// over the most recent lookback bars and clusters each list. Both results are ascending.
func FindSupportResistance(bars []model.OHLCV, lookback int, tolerance float64) (supports, resistances []float64) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	n := len(bars)
	if n < lookback {
		lookback = max(20, n-5)
	}
	if lookback > n {
		lookback = n
	}
	recent := bars[n-lookback:]

	var lows, highs []float64
	for i := swingWindow; i < len(recent)-swingWindow; i++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			lo = math.Min(lo, recent[j].Low)
			hi = math.Max(hi, recent[j].High)
		}
		if recent[i].Low == lo {
			lows = append(lows, recent[i].Low)
		}
		if recent[i].High == hi {
			highs = append(highs, recent[i].High)
		}
	}
	return ClusterLevels(lows, tolerance), ClusterLevels(highs, tolerance)
}

// ClusterLevels sorts levels and merges runs whose consecutive members differ by
// at most tolerance relative to the last member added. Each run is replaced by its mean.
func ClusterLevels(levels []float64, tolerance float64) []float64 {
	if len(levels) == 0 {
		return []float64{}
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	out := make([]float64, 0, len(sorted))
	sum, count, last := sorted[0], 1, sorted[0]
	for _, lvl := range sorted[1:] {
		if withinTolerance(lvl, last, tolerance) {
			sum += lvl
			count++
		} else {
			out = append(out, sum/float64(count))
			sum, count = lvl, 1
		}
		last = lvl
	}
	return append(out, sum/float64(count))
}

func withinTolerance(v, ref, tolerance float64) bool {
	if ref == 0 {
		return v == ref
	}
	return math.Abs(v-ref)/ref <= tolerance
}
