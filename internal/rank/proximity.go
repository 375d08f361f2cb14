package rank

import "math"

// MinimalSpan returns the smallest distance between the lowest and highest
// position of a selection holding one position from every non-empty list.
// Lists must be sorted ascending. Fewer than two non-empty lists give 0.
//
// The search keeps one cursor per list and repeatedly advances the cursor
// at the lowest position; every selection that could shrink the span is
// visited, so the result equals the exhaustive cross-product minimum.
func MinimalSpan(lists [][]int) int {
	var active [][]int
	for _, l := range lists {
		if len(l) > 0 {
			active = append(active, l)
		}
	}
	if len(active) < 2 {
		return 0
	}
	cursor := make([]int, len(active))
	best := math.MaxInt
	for {
		lo, hi, lowest := math.MaxInt, math.MinInt, 0
		for i, l := range active {
			p := l[cursor[i]]
			if p < lo {
				lo, lowest = p, i
			}
			if p > hi {
				hi = p
			}
		}
		best = min(best, hi-lo)
		cursor[lowest]++
		if cursor[lowest] == len(active[lowest]) {
			return best
		}
	}
}
