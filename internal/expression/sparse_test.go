package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// 2×3:
//
//	1 0 2
//	0 3 0
var wantDense = mat.NewDense(2, 3, []float64{1, 0, 2, 0, 3, 0})

func TestSparseDenseCSR(t *testing.T) {
	s := &Sparse{
		Format:  CSR,
		Rows:    2,
		Cols:    3,
		Data:    []float64{1, 2, 3},
		Indices: []int{0, 2, 1},
		Indptr:  []int{0, 2, 3},
	}
	got, err := s.Dense()
	require.NoError(t, err)
	assert.True(t, mat.Equal(wantDense, got))
}

func TestSparseDenseCSC(t *testing.T) {
	s := &Sparse{
		Format:  CSC,
		Rows:    2,
		Cols:    3,
		Data:    []float64{1, 3, 2},
		Indices: []int{0, 1, 0},
		Indptr:  []int{0, 1, 2, 3},
	}
	got, err := s.Dense()
	require.NoError(t, err)
	assert.True(t, mat.Equal(wantDense, got))
}

func TestSparseDenseRejectsBadLayout(t *testing.T) {
	cases := map[string]*Sparse{
		"short indptr":  {Format: CSR, Rows: 2, Cols: 3, Indptr: []int{0, 0}},
		"index range":   {Format: CSR, Rows: 1, Cols: 1, Data: []float64{1}, Indices: []int{4}, Indptr: []int{0, 1}},
		"data/indices":  {Format: CSR, Rows: 1, Cols: 1, Data: []float64{1, 2}, Indices: []int{0}, Indptr: []int{0, 1}},
		"unknown":       {Format: "coo", Rows: 1, Cols: 1},
		"indptr beyond": {Format: CSC, Rows: 1, Cols: 1, Data: []float64{1}, Indices: []int{0}, Indptr: []int{0, 5}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Dense()
			assert.ErrorIs(t, err, ErrSparseLayout)
		})
	}
}

func TestInferFormat(t *testing.T) {
	f, err := InferFormat(3, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, CSR, f)

	f, err = InferFormat(6, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, CSC, f)

	_, err = InferFormat(4, 2, 5)
	assert.ErrorIs(t, err, ErrSparseLayout)
}

func TestNumericConversions(t *testing.T) {
	assert.Equal(t, []float64{1.5, -2}, Float64s([]float32{1.5, -2}))
	assert.Equal(t, []float64{7}, Float64s([]int64{7}))
}
