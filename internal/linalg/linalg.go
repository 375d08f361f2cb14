// Package linalg provides the dense vector and row-major matrix types used
// by the vector-space model, with bounds-checked access.
package linalg

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two operands have incompatible sizes.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrOutOfRange is returned for an index outside a vector or matrix.
	ErrOutOfRange = errors.New("index out of range")
)

// Vector is a dense vector of float64.
type Vector []float64

// NewVector returns a zero vector of length n.
func NewVector(n int) Vector { return make(Vector, n) }

// At returns v[i].
func (v Vector) At(i int) (float64, error) {
	if i < 0 || i >= len(v) {
		return 0, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(v))
	}
	return v[i], nil
}

// Set assigns v[i] = x.
func (v Vector) Set(i int, x float64) error {
	if i < 0 || i >= len(v) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(v))
	}
	v[i] = x
	return nil
}

// Max returns the largest element, or 0 for an empty vector.
func (v Vector) Max() float64 {
	if len(v) == 0 {
		return 0
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Matrix is a dense row-major matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix returns a zero rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("linalg: negative matrix size %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// At returns the element at row r, column c.
func (m *Matrix) At(r, c int) (float64, error) {
	if err := m.check(r, c); err != nil {
		return 0, err
	}
	return m.data[r*m.cols+c], nil
}

// Set assigns the element at row r, column c.
func (m *Matrix) Set(r, c int, x float64) error {
	if err := m.check(r, c); err != nil {
		return err
	}
	m.data[r*m.cols+c] = x
	return nil
}

// Row returns a copy of row r.
func (m *Matrix) Row(r int) (Vector, error) {
	view, err := m.RowView(r)
	if err != nil {
		return nil, err
	}
	out := make(Vector, len(view))
	copy(out, view)
	return out, nil
}

// RowView returns row r sharing the matrix storage. Callers must not
// modify it.
func (m *Matrix) RowView(r int) (Vector, error) {
	if r < 0 || r >= m.rows {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, r, m.rows)
	}
	return Vector(m.data[r*m.cols : (r+1)*m.cols : (r+1)*m.cols]), nil
}

// SetRow copies v into row r.
func (m *Matrix) SetRow(r int, v Vector) error {
	if r < 0 || r >= m.rows {
		return fmt.Errorf("%w: row %d of %d", ErrOutOfRange, r, m.rows)
	}
	if len(v) != m.cols {
		return fmt.Errorf("%w: row of %d into %d columns", ErrDimensionMismatch, len(v), m.cols)
	}
	copy(m.data[r*m.cols:], v)
	return nil
}

// Col returns a copy of column c.
func (m *Matrix) Col(c int) (Vector, error) {
	if c < 0 || c >= m.cols {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, c, m.cols)
	}
	out := make(Vector, m.rows)
	for r := range out {
		out[r] = m.data[r*m.cols+c]
	}
	return out, nil
}

func (m *Matrix) check(r, c int) error {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return fmt.Errorf("%w: (%d,%d) of %dx%d", ErrOutOfRange, r, c, m.rows, m.cols)
	}
	return nil
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b. It is 0 when the dot
// product or either norm is at most epsilon, so empty and near-orthogonal
// vectors never produce NaN.
func Cosine(a, b Vector, epsilon float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	if dot <= epsilon {
		return 0, nil
	}
	na, nb := Norm(a), Norm(b)
	if na <= epsilon || nb <= epsilon {
		return 0, nil
	}
	return dot / (na * nb), nil
}
