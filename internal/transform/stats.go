// Package transform derives the time axis of an expression matrix and
// applies the centering/scaling policy to its rows.
package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// present copies the non-NaN entries of row i of m into buf.
func present(buf []float64, m mat.Matrix, i int) []float64 {
	_, c := m.Dims()
	buf = buf[:0]
	for j := 0; j < c; j++ {
		if v := m.At(i, j); !math.IsNaN(v) {
			buf = append(buf, v)
		}
	}
	return buf
}

// RowMeans returns the mean of each row over its non-NaN entries.
// A row with no non-NaN entry has mean NaN.
func RowMeans(m mat.Matrix) []float64 {
	r, c := m.Dims()
	means := make([]float64, r)
	buf := make([]float64, 0, c)
	for i := 0; i < r; i++ {
		buf = present(buf, m, i)
		if len(buf) == 0 {
			means[i] = math.NaN()
			continue
		}
		means[i] = stat.Mean(buf, nil)
	}
	return means
}

// RowStds returns the population standard deviation (divisor n) of each row
// over its non-NaN entries. A row with no non-NaN entry has std NaN.
func RowStds(m mat.Matrix) []float64 {
	r, c := m.Dims()
	stds := make([]float64, r)
	buf := make([]float64, 0, c)
	for i := 0; i < r; i++ {
		buf = present(buf, m, i)
		if len(buf) == 0 {
			stds[i] = math.NaN()
			continue
		}
		_, stds[i] = stat.PopMeanStdDev(buf, nil)
	}
	return stds
}
