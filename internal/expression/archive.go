package expression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Archive is the primary expression table of an annotated-data archive,
// oriented samples × genes as stored.
type Archive struct {
	ObsNames []string
	VarNames []string
	X        *mat.Dense
}

// ArchiveReader loads an Archive from disk.
type ArchiveReader interface {
	ReadArchive(path string) (*Archive, error)
}

// FromArchive transposes a samples × genes archive into a Table whose rows are
// genes and whose time labels are the sample names.
func FromArchive(a *Archive) (*Table, error) {
	if len(a.ObsNames) == 0 && len(a.VarNames) > 0 {
		return nil, fmt.Errorf("archive: %d genes but no samples: %w", len(a.VarNames), ErrEmptyTable)
	}
	if a.X == nil {
		if len(a.ObsNames) == 0 || len(a.VarNames) == 0 {
			return newTable(append([]string(nil), a.VarNames...), append([]string(nil), a.ObsNames...), nil), nil
		}
		return nil, fmt.Errorf("archive: missing X for %d×%d names", len(a.ObsNames), len(a.VarNames))
	}
	r, c := a.X.Dims()
	if r != len(a.ObsNames) || c != len(a.VarNames) {
		return nil, fmt.Errorf("archive: X is %d×%d but has %d obs and %d var names", r, c, len(a.ObsNames), len(a.VarNames))
	}
	var values mat.Dense
	values.CloneFrom(a.X.T())
	return &Table{
		Genes:  append([]string(nil), a.VarNames...),
		Labels: append([]string(nil), a.ObsNames...),
		Values: &values,
	}, nil
}

// ReadArchive loads path through reader and returns it as a Table.
func ReadArchive(reader ArchiveReader, path string) (*Table, error) {
	a, err := reader.ReadArchive(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return FromArchive(a)
}
