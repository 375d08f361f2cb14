package fuzzy

import (
	"iter"
	"sort"
)

// Distance returns the unrestricted Damerau-Levenshtein distance between a
// and b over runes: insertions, deletions, substitutions and transpositions
// of adjacent runes each cost 1, and a transposed pair may be edited again.
// Distance("ca", "abc") is 2 (ca -> ac -> abc).
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	inf := n + m

	// d is offset by one row and column holding inf sentinels.
	d := make([][]int, n+2)
	for i := range d {
		d[i] = make([]int, m+2)
	}
	d[0][0] = inf
	for i := 0; i <= n; i++ {
		d[i+1][0] = inf
		d[i+1][1] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j+1] = inf
		d[1][j+1] = j
	}

	// last holds the last row of a where each rune was seen.
	last := make(map[rune]int)
	for i := 1; i <= n; i++ {
		lastCol := 0
		for j := 1; j <= m; j++ {
			k, l := last[rb[j-1]], lastCol
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
				lastCol = j
			}
			d[i+1][j+1] = min(
				d[i][j]+cost,
				d[i+1][j]+1,
				d[i][j+1]+1,
				d[k][l]+(i-k-1)+1+(j-l-1),
			)
		}
		last[ra[i-1]] = i
	}
	return d[n+1][m+1]
}

// Lexicon is an ordered vocabulary.
type Lexicon interface {
	Contains(term string) bool
	Terms() iter.Seq2[int, string]
}

// VariantsWithinDistance returns the vocabulary terms at most maxDist edits
// from term, closest first and in vocabulary order among equals. With
// maxDist 0 the result is term itself when it is in the vocabulary.
func VariantsWithinDistance(term string, vocab Lexicon, maxDist int) []string {
	if maxDist <= 0 {
		if vocab.Contains(term) {
			return []string{term}
		}
		return nil
	}
	type variant struct {
		term string
		dist int
	}
	length := len([]rune(term))
	var found []variant
	for _, candidate := range vocab.Terms() {
		if abs(len([]rune(candidate))-length) > maxDist {
			continue
		}
		if dist := Distance(term, candidate); dist <= maxDist {
			found = append(found, variant{candidate, dist})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })
	out := make([]string, len(found))
	for i, v := range found {
		out[i] = v.term
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
