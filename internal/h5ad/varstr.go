package h5ad

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
// static herr_t read_var_strings(hid_t dset, char **buf) {
// 	hid_t ftype = H5Dget_type(dset);
// 	if (ftype < 0) return -1;
// 	H5T_cset_t cset = H5Tget_cset(ftype);
// 	H5Tclose(ftype);
// 	hid_t mem = H5Tcopy(H5T_C_S1);
// 	if (mem < 0) return -1;
// 	if (H5Tset_size(mem, H5T_VARIABLE) < 0 || (cset >= 0 && H5Tset_cset(mem, cset) < 0)) {
// 		H5Tclose(mem);
// 		return -1;
// 	}
// 	herr_t rc = H5Dread(dset, mem, H5S_ALL, H5S_ALL, H5P_DEFAULT, buf);
// 	H5Tclose(mem);
// 	return rc;
// }
import "C"

import (
	"errors"
	"unsafe"

	"gonum.org/v1/hdf5"
)

// ErrVarStrings is returned when a variable-length string dataset cannot be read.
var ErrVarStrings = errors.New("read variable-length strings")

// readVarStrings reads n variable-length strings, the layout anndata uses for
// obs/_index and var/_index. The binding reads with the file type as memory
// type, which does not fit Go strings, so the read goes through a C char* buffer.
func readVarStrings(ds *hdf5.Dataset, n int) ([]string, error) {
	buf := make([]*C.char, n)
	if rc := C.read_var_strings(C.hid_t(ds.ID()), &buf[0]); rc < 0 {
		return nil, ErrVarStrings
	}
	out := make([]string, n)
	for i, p := range buf {
		if p == nil {
			continue
		}
		out[i] = C.GoString(p)
		C.H5free_memory(unsafe.Pointer(p))
	}
	return out, nil
}
