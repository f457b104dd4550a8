package h5ad

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/exprloom-cli/internal/expression"
	"github.com/KaramelBytes/exprloom-cli/internal/h5ad/h5adtest"
)

var (
	samples = []string{"0", "30", "60"}
	genes   = []string{"YAL001C", "YAL002W"}
)

// 3 samples × 2 genes:
//
//	1 0
//	0 2
//	3 4
var (
	csr = h5adtest.Sparse{
		Data:    []float32{1, 2, 3, 4},
		Indices: []int32{0, 1, 0, 1},
		Indptr:  []int32{0, 1, 2, 4},
	}
	csc = h5adtest.Sparse{
		Data:    []float32{1, 3, 2, 4},
		Indices: []int32{0, 2, 1, 2},
		Indptr:  []int32{0, 2, 4},
	}
)

func writeArchive(t *testing.T, f h5adtest.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.h5ad")
	h5adtest.Write(t, path, f)
	return path
}

func readTable(t *testing.T, path string) *expression.Table {
	t.Helper()
	a, err := Reader{}.ReadArchive(path)
	require.NoError(t, err)
	tab, err := expression.FromArchive(a)
	require.NoError(t, err)
	return tab
}

func TestReadArchiveDenseFixedNames(t *testing.T) {
	path := writeArchive(t, h5adtest.File{
		Obs:        h5adtest.Index{Names: samples, Layout: h5adtest.Fixed},
		Var:        h5adtest.Index{Names: genes, Layout: h5adtest.Fixed},
		DenseFloat: []float32{1, 10, 2, 20, 3, 30},
	})
	a, err := Reader{}.ReadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, samples, a.ObsNames)
	assert.Equal(t, genes, a.VarNames)

	tab, err := expression.FromArchive(a)
	require.NoError(t, err)
	assert.Equal(t, genes, tab.Genes)
	assert.Equal(t, []float64{1, 2, 3}, tab.Row(0))
	assert.Equal(t, []float64{10, 20, 30}, tab.Row(1))
}

func TestReadArchiveVarLenNamesIntegerX(t *testing.T) {
	names := []string{"YAL001C", "µ-gene"}
	path := writeArchive(t, h5adtest.File{
		Obs:      h5adtest.Index{Names: samples},
		Var:      h5adtest.Index{Names: names},
		DenseInt: []int64{1, 0, 0, 2, 3, 4},
	})
	tab := readTable(t, path)
	assert.Equal(t, names, tab.Genes)
	assert.Equal(t, samples, tab.Labels)
	assert.Equal(t, []float64{1, 0, 3}, tab.Row(0))
	assert.Equal(t, []float64{0, 2, 4}, tab.Row(1))
}

func TestReadArchiveIndexAttribute(t *testing.T) {
	path := writeArchive(t, h5adtest.File{
		Obs:        h5adtest.Index{Names: samples, Dataset: "time"},
		Var:        h5adtest.Index{Names: genes, Dataset: "gene_ids"},
		DenseFloat: []float32{1, 0, 0, 2, 3, 4},
	})
	tab := readTable(t, path)
	assert.Equal(t, genes, tab.Genes)
	assert.Equal(t, samples, tab.Labels)
}

func TestReadArchiveSparse(t *testing.T) {
	withEncoding := func(s h5adtest.Sparse, enc string) *h5adtest.Sparse {
		s.Encoding = enc
		return &s
	}
	cases := []struct {
		name string
		x    *h5adtest.Sparse
	}{
		{"csr attribute", withEncoding(csr, "csr_matrix")},
		{"csc attribute", withEncoding(csc, "csc_matrix")},
		{"csr inferred", withEncoding(csr, "")},
		{"csc inferred", withEncoding(csc, "")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeArchive(t, h5adtest.File{
				Obs:    h5adtest.Index{Names: samples},
				Var:    h5adtest.Index{Names: genes},
				Sparse: tc.x,
			})
			tab := readTable(t, path)
			assert.Equal(t, []float64{1, 0, 3}, tab.Row(0))
			assert.Equal(t, []float64{0, 2, 4}, tab.Row(1))
		})
	}
}

func TestReadArchiveSparseBadLayout(t *testing.T) {
	bad := csr
	bad.Indptr = []int32{0, 4}
	path := writeArchive(t, h5adtest.File{
		Obs:    h5adtest.Index{Names: samples},
		Var:    h5adtest.Index{Names: genes},
		Sparse: &bad,
	})
	_, err := Reader{}.ReadArchive(path)
	assert.ErrorIs(t, err, expression.ErrSparseLayout)
}

func TestReadArchiveMissingX(t *testing.T) {
	path := writeArchive(t, h5adtest.File{
		Obs: h5adtest.Index{Names: samples},
		Var: h5adtest.Index{Names: genes},
	})
	_, err := Reader{}.ReadArchive(path)
	assert.Error(t, err)
}

func TestReadArchiveMissingFile(t *testing.T) {
	_, err := Reader{}.ReadArchive(filepath.Join(t.TempDir(), "missing.h5ad"))
	assert.Error(t, err)
}

func TestSplitFixed(t *testing.T) {
	buf := []byte("ab\x00\x00cde \x00\x00\x00\x00")
	assert.Equal(t, []string{"ab", "cde", ""}, splitFixed(buf, 4))
	assert.Nil(t, splitFixed(buf, 0))
}

func TestToInts(t *testing.T) {
	assert.Equal(t, []int{0, 2, 5}, toInts([]float64{0, 2, 5}))
}
