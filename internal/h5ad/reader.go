// Package h5ad reads the expression table of AnnData (.h5ad) archives.
//
// The archive is an HDF5 file holding:
//
//	X             samples × genes, either a dense dataset or a group with
//	              data/indices/indptr (csr_matrix or csc_matrix)
//	obs/_index    sample names
//	var/_index    gene names
//
// Group attributes named "_index" override the index dataset name and the
// "encoding-type" attribute of X selects the sparse layout.
package h5ad

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"

	"github.com/KaramelBytes/exprloom-cli/internal/expression"
)

// ErrUnsupportedType is returned for datasets whose element type cannot be
// read as numbers or strings.
var ErrUnsupportedType = errors.New("unsupported hdf5 element type")

// Reader implements expression.ArchiveReader for .h5ad files.
type Reader struct{}

var _ expression.ArchiveReader = Reader{}

// ReadArchive opens path read-only and loads X with its obs and var names.
func (Reader) ReadArchive(path string) (*expression.Archive, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open h5ad: %w", err)
	}
	defer f.Close()

	obs, err := readIndex(f, "obs")
	if err != nil {
		return nil, err
	}
	vars, err := readIndex(f, "var")
	if err != nil {
		return nil, err
	}
	a := &expression.Archive{ObsNames: obs, VarNames: vars}
	if len(obs) == 0 || len(vars) == 0 {
		return a, nil
	}

	if g, err := f.OpenGroup("X"); err == nil {
		defer g.Close()
		x, err := readSparse(g, len(obs), len(vars))
		if err != nil {
			return nil, fmt.Errorf("X: %w", err)
		}
		a.X = x
		return a, nil
	}
	ds, err := f.OpenDataset("X")
	if err != nil {
		return nil, fmt.Errorf("open X: %w", err)
	}
	defer ds.Close()
	dims, _, err := ds.Space().SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("X dims: %w", err)
	}
	if len(dims) != 2 || int(dims[0]) != len(obs) || int(dims[1]) != len(vars) {
		return nil, fmt.Errorf("X has shape %v, want [%d %d]", dims, len(obs), len(vars))
	}
	data, err := readNumeric(ds)
	if err != nil {
		return nil, fmt.Errorf("X: %w", err)
	}
	a.X = mat.NewDense(len(obs), len(vars), data)
	return a, nil
}

func readIndex(f *hdf5.File, group string) ([]string, error) {
	g, err := f.OpenGroup(group)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", group, err)
	}
	defer g.Close()
	name := "_index"
	if s, err := stringAttr(g, "_index"); err == nil && s != "" {
		name = s
	}
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", group, name, err)
	}
	defer ds.Close()
	names, err := readStrings(ds)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", group, name, err)
	}
	return names, nil
}

func readSparse(g *hdf5.Group, rows, cols int) (*mat.Dense, error) {
	read := func(name string) ([]float64, error) {
		ds, err := g.OpenDataset(name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer ds.Close()
		return readNumeric(ds)
	}
	data, err := read("data")
	if err != nil {
		return nil, err
	}
	indices, err := read("indices")
	if err != nil {
		return nil, err
	}
	indptr, err := read("indptr")
	if err != nil {
		return nil, err
	}

	format := expression.SparseFormat("")
	if s, err := stringAttr(g, "encoding-type"); err == nil {
		format = expression.SparseFormat(s)
	}
	if format == "" {
		if format, err = expression.InferFormat(len(indptr), rows, cols); err != nil {
			return nil, err
		}
	}
	s := &expression.Sparse{
		Format:  format,
		Rows:    rows,
		Cols:    cols,
		Data:    data,
		Indices: toInts(indices),
		Indptr:  toInts(indptr),
	}
	return s.Dense()
}

func stringAttr(g *hdf5.Group, name string) (string, error) {
	attr, err := g.OpenAttribute(name)
	if err != nil {
		return "", err
	}
	defer attr.Close()
	var s string
	if err := attr.Read(&s, hdf5.T_GO_STRING); err != nil {
		return "", err
	}
	return s, nil
}

func readNumeric(ds *hdf5.Dataset) ([]float64, error) {
	dt, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer dt.Close()
	n := ds.Space().SimpleExtentNPoints()
	if n == 0 {
		return nil, nil
	}
	switch class, size := dt.Class(), dt.Size(); {
	case class == hdf5.T_FLOAT && size == 4:
		buf := make([]float32, n)
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return expression.Float64s(buf), nil
	case class == hdf5.T_FLOAT && size == 8:
		buf := make([]float64, n)
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return buf, nil
	case class == hdf5.T_INTEGER && size == 4:
		buf := make([]int32, n)
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return expression.Float64s(buf), nil
	case class == hdf5.T_INTEGER && size == 8:
		buf := make([]int64, n)
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
		return expression.Float64s(buf), nil
	default:
		return nil, fmt.Errorf("%w: class %v size %d", ErrUnsupportedType, class, size)
	}
}

func readStrings(ds *hdf5.Dataset) ([]string, error) {
	dt, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer dt.Close()
	if dt.Class() != hdf5.T_STRING {
		return nil, fmt.Errorf("%w: index is not a string dataset", ErrUnsupportedType)
	}
	n := ds.Space().SimpleExtentNPoints()
	if n == 0 {
		return nil, nil
	}
	if vl := (&hdf5.VarLenType{Datatype: *dt}); vl.IsVariableStr() {
		return readVarStrings(ds, n)
	}
	width := int(dt.Size())
	buf := make([]byte, n*width)
	if err := ds.Read(&buf); err != nil {
		return nil, err
	}
	return splitFixed(buf, width), nil
}

// splitFixed cuts a buffer of fixed-width, NUL- or space-padded strings.
func splitFixed(buf []byte, width int) []string {
	if width <= 0 {
		return nil
	}
	out := make([]string, 0, len(buf)/width)
	for off := 0; off+width <= len(buf); off += width {
		s := string(buf[off : off+width])
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		out = append(out, strings.TrimRight(s, " "))
	}
	return out
}

// toInts converts index arrays, which are read as float64, back to int.
func toInts(in []float64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
