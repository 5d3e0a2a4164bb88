package strategy

import "sort"

// nearestBelow returns the greatest level strictly below price from ascending levels.
func nearestBelow(levels []float64, price float64) (float64, bool) {
	i := sort.SearchFloat64s(levels, price) // first index with levels[i] >= price
	if i == 0 {
		return 0, false
	}
	return levels[i-1], true
}

// nearestAbove returns the smallest level strictly above price from ascending levels.
func nearestAbove(levels []float64, price float64) (float64, bool) {
	i := sort.Search(len(levels), func(i int) bool { return levels[i] > price })
	if i == len(levels) {
		return 0, false
	}
	return levels[i], true
}
