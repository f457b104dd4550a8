package expression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SparseFormat names the compressed layout of a Sparse matrix.
type SparseFormat string

const (
	CSR SparseFormat = "csr_matrix"
	CSC SparseFormat = "csc_matrix"
)

// ErrSparseLayout is returned when compressed arrays are inconsistent.
var ErrSparseLayout = errors.New("invalid sparse layout")

// Sparse is a compressed sparse matrix as stored in annotated-data archives.
type Sparse struct {
	Format  SparseFormat
	Rows    int
	Cols    int
	Data    []float64
	Indices []int
	Indptr  []int
}

// InferFormat picks CSR or CSC from the indptr length when the archive does
// not record its encoding. Square matrices default to CSR.
func InferFormat(indptrLen, rows, cols int) (SparseFormat, error) {
	switch indptrLen - 1 {
	case rows:
		return CSR, nil
	case cols:
		return CSC, nil
	}
	return "", fmt.Errorf("%w: indptr length %d fits neither %d rows nor %d cols", ErrSparseLayout, indptrLen, rows, cols)
}

// Dense expands s into a dense matrix. Unstored entries are zero.
func (s *Sparse) Dense() (*mat.Dense, error) {
	major, minor := s.Rows, s.Cols
	if s.Format == CSC {
		major, minor = s.Cols, s.Rows
	} else if s.Format != CSR {
		return nil, fmt.Errorf("%w: unknown format %q", ErrSparseLayout, s.Format)
	}
	if len(s.Indptr) != major+1 {
		return nil, fmt.Errorf("%w: indptr has %d entries, want %d", ErrSparseLayout, len(s.Indptr), major+1)
	}
	if len(s.Data) != len(s.Indices) {
		return nil, fmt.Errorf("%w: %d values but %d indices", ErrSparseLayout, len(s.Data), len(s.Indices))
	}
	if s.Rows == 0 || s.Cols == 0 {
		return nil, nil
	}
	out := mat.NewDense(s.Rows, s.Cols, nil)
	for m := 0; m < major; m++ {
		lo, hi := s.Indptr[m], s.Indptr[m+1]
		if lo < 0 || hi < lo || hi > len(s.Data) {
			return nil, fmt.Errorf("%w: indptr[%d:%d] = %d..%d", ErrSparseLayout, m, m+2, lo, hi)
		}
		for k := lo; k < hi; k++ {
			n := s.Indices[k]
			if n < 0 || n >= minor {
				return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrSparseLayout, n, minor)
			}
			if s.Format == CSR {
				out.Set(m, n, out.At(m, n)+s.Data[k])
			} else {
				out.Set(n, m, out.At(n, m)+s.Data[k])
			}
		}
	}
	return out, nil
}

// Float64s converts a numeric slice read from an archive to float64.
func Float64s[T ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
