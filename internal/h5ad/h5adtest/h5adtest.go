// Package h5adtest writes small .h5ad files for tests.
package h5adtest

// #cgo LDFLAGS: -lhdf5
// #cgo darwin CFLAGS: -I/usr/local/include
// #cgo darwin LDFLAGS: -L/usr/local/lib
// #cgo linux,!arm64 CFLAGS: -I/usr/local/include -I/usr/lib/x86_64-linux-gnu/hdf5/serial/include
// #cgo linux,!arm64 LDFLAGS: -L/usr/local/lib -L/usr/lib/x86_64-linux-gnu/hdf5/serial/
// #cgo linux,arm64 CFLAGS: -I/usr/local/include -I/usr/lib/aarch64-linux-gnu/hdf5/serial/include
// #cgo linux,arm64 LDFLAGS: -L/usr/local/lib -L/usr/lib/aarch64-linux-gnu/hdf5/serial/
// #include <stdlib.h>
// #include "hdf5.h"
//
// static herr_t write_var_strings(hid_t loc, const char *name, char **vals, hsize_t n) {
// 	hid_t ftype = H5Tcopy(H5T_C_S1);
// 	if (ftype < 0) return -1;
// 	H5Tset_size(ftype, H5T_VARIABLE);
// 	H5Tset_cset(ftype, H5T_CSET_UTF8);
// 	hid_t space = H5Screate_simple(1, &n, NULL);
// 	if (space < 0) { H5Tclose(ftype); return -1; }
// 	hid_t dset = H5Dcreate2(loc, name, ftype, space, H5P_DEFAULT, H5P_DEFAULT, H5P_DEFAULT);
// 	herr_t rc = -1;
// 	if (dset >= 0) {
// 		rc = H5Dwrite(dset, ftype, H5S_ALL, H5S_ALL, H5P_DEFAULT, vals);
// 		H5Dclose(dset);
// 	}
// 	H5Sclose(space);
// 	H5Tclose(ftype);
// 	return rc;
// }
import "C"

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

// Strings selects how an index dataset stores its names.
type Strings int

const (
	// VarLen is the UTF-8 variable-length layout written by anndata.
	VarLen Strings = iota
	// Fixed stores NUL-padded names of a fixed width.
	Fixed
)

// Index describes obs or var.
type Index struct {
	Names []string
	// Dataset overrides the dataset name and is recorded in the group's
	// "_index" attribute. Empty means "_index".
	Dataset string
	Layout  Strings
}

// Sparse is a compressed X group.
type Sparse struct {
	// Encoding is written as the "encoding-type" attribute unless empty.
	Encoding string
	Data     []float32
	Indices  []int32
	Indptr   []int32
}

// File describes one archive. Exactly one of DenseFloat, DenseInt and Sparse
// should be set; with none X is omitted.
type File struct {
	Obs, Var   Index
	DenseFloat []float32
	DenseInt   []int64
	Sparse     *Sparse
}

// Write creates path and fills it from f.
func Write(t testing.TB, path string, f File) {
	t.Helper()
	h, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer h.Close()

	writeIndex(t, h, "obs", f.Obs)
	writeIndex(t, h, "var", f.Var)

	dims := []uint{uint(len(f.Obs.Names)), uint(len(f.Var.Names))}
	switch {
	case f.DenseFloat != nil:
		writeDataset(t, &h.CommonFG, "X", hdf5.T_NATIVE_FLOAT, dims, &f.DenseFloat)
	case f.DenseInt != nil:
		writeDataset(t, &h.CommonFG, "X", hdf5.T_NATIVE_INT64, dims, &f.DenseInt)
	case f.Sparse != nil:
		g, err := h.CreateGroup("X")
		require.NoError(t, err)
		defer g.Close()
		s := f.Sparse
		writeDataset(t, &g.CommonFG, "data", hdf5.T_NATIVE_FLOAT, []uint{uint(len(s.Data))}, &s.Data)
		writeDataset(t, &g.CommonFG, "indices", hdf5.T_NATIVE_INT32, []uint{uint(len(s.Indices))}, &s.Indices)
		writeDataset(t, &g.CommonFG, "indptr", hdf5.T_NATIVE_INT32, []uint{uint(len(s.Indptr))}, &s.Indptr)
		if s.Encoding != "" {
			writeAttr(t, g, "encoding-type", s.Encoding)
		}
	}
}

func writeIndex(t testing.TB, h *hdf5.File, group string, idx Index) {
	t.Helper()
	g, err := h.CreateGroup(group)
	require.NoError(t, err)
	defer g.Close()
	name := "_index"
	if idx.Dataset != "" {
		name = idx.Dataset
		writeAttr(t, g, "_index", name)
	}
	if idx.Layout == Fixed {
		writeFixed(t, g, name, idx.Names)
		return
	}
	writeVarLen(t, g, name, idx.Names)
}

func writeDataset(t testing.TB, loc *hdf5.CommonFG, name string, dt *hdf5.Datatype, dims []uint, data any) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	require.NoError(t, err)
	defer space.Close()
	ds, err := loc.CreateDataset(name, dt, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(data))
}

func writeFixed(t testing.TB, g *hdf5.Group, name string, values []string) {
	t.Helper()
	width := 1
	for _, v := range values {
		if len(v) > width {
			width = len(v)
		}
	}
	dt, err := hdf5.T_C_S1.Copy()
	require.NoError(t, err)
	defer dt.Close()
	require.NoError(t, dt.SetSize(width))

	buf := make([]byte, width*len(values))
	for i, v := range values {
		copy(buf[i*width:], v)
	}
	writeDataset(t, &g.CommonFG, name, dt, []uint{uint(len(values))}, &buf)
}

func writeVarLen(t testing.TB, g *hdf5.Group, name string, values []string) {
	t.Helper()
	require.NotEmpty(t, values, "variable-length index needs at least one name")
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	vals := (**C.char)(C.malloc(C.size_t(len(values)) * C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	defer C.free(unsafe.Pointer(vals))
	arr := unsafe.Slice(vals, len(values))
	for i, v := range values {
		arr[i] = C.CString(v)
		defer C.free(unsafe.Pointer(arr[i]))
	}
	rc := C.write_var_strings(C.hid_t(g.ID()), cname, vals, C.hsize_t(len(values)))
	require.GreaterOrEqual(t, int(rc), 0, "write %s", name)
}

func writeAttr(t testing.TB, g *hdf5.Group, name, value string) {
	t.Helper()
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	require.NoError(t, err)
	defer space.Close()
	attr, err := g.CreateAttribute(name, hdf5.T_GO_STRING, space)
	require.NoError(t, err)
	defer attr.Close()
	require.NoError(t, attr.Write(&value, hdf5.T_GO_STRING))
}
