package index

import (
	"fmt"
	"math"

	"docsearch/internal/linalg"
)

// TermFrequency returns the augmented term frequency of a raw count vector:
// 0 where the count is 0, otherwise 0.5 + 0.5*count/max. A vector whose
// maximum is not positive yields all zeros.
func TermFrequency(raw linalg.Vector) linalg.Vector {
	tf := linalg.NewVector(len(raw))
	maxCount := raw.Max()
	if maxCount <= 0 {
		return tf
	}
	for i, c := range raw {
		if c == 0 {
			continue
		}
		tf[i] = 0.5 + 0.5*(c/maxCount)
	}
	return tf
}

// InverseDocumentFrequency returns ln(N/df) for every column of a
// documents×terms count matrix, or 0 for a term no document contains.
func InverseDocumentFrequency(raw *linalg.Matrix) linalg.Vector {
	rows, cols := raw.Dims()
	df := make([]int, cols)
	for r := 0; r < rows; r++ {
		row, _ := raw.RowView(r)
		for c, x := range row {
			if x > 0 {
				df[c]++
			}
		}
	}
	idf := linalg.NewVector(cols)
	for c, n := range df {
		if n == 0 {
			continue
		}
		idf[c] = math.Log(float64(rows) / float64(n))
	}
	return idf
}

// WeightVector returns the TF-IDF weighting of a single raw count vector
// against a precomputed IDF vector.
func WeightVector(raw, idf linalg.Vector) (linalg.Vector, error) {
	if len(raw) != len(idf) {
		return nil, fmt.Errorf("weighting vector: %w: %d terms, %d idf values", linalg.ErrDimensionMismatch, len(raw), len(idf))
	}
	w := TermFrequency(raw)
	for i := range w {
		w[i] *= idf[i]
	}
	return w, nil
}

// WeightMatrix applies WeightVector to every row of raw.
func WeightMatrix(raw *linalg.Matrix, idf linalg.Vector) (*linalg.Matrix, error) {
	rows, cols := raw.Dims()
	if cols != len(idf) {
		return nil, fmt.Errorf("weighting matrix: %w: %d terms, %d idf values", linalg.ErrDimensionMismatch, cols, len(idf))
	}
	out := linalg.NewMatrix(rows, cols)
	for r := 0; r < rows; r++ {
		row, _ := raw.RowView(r)
		w, err := WeightVector(row, idf)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(r, w); err != nil {
			return nil, err
		}
	}
	return out, nil
}
