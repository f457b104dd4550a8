package expression

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/exprloom-cli/internal/source"
)

var (
	// ErrColumnMismatch is returned when stacked tables disagree on their time labels.
	ErrColumnMismatch = errors.New("tables have different columns")
	// ErrNoInputFiles is returned when a directory holds no .txt or .csv entries.
	ErrNoInputFiles = errors.New("no .txt or .csv files found")
)

// ReadDirectory parses every .txt/.csv entry directly inside dir, stacks the
// tables by rows and merges duplicate gene identifiers by their mean.
func ReadDirectory(dir string, opt ReadOptions) (*Table, error) {
	files, err := DelimitedFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoInputFiles)
	}
	tables := make([]*Table, 0, len(files))
	for _, p := range files {
		t, err := ReadDelimited(p, opt)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	stacked, err := Stack(tables...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return Consolidate(stacked), nil
}

// DelimitedFiles lists the regular .txt/.csv entries of dir in lexical order.
func DelimitedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !source.IsDelimitedName(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Stack concatenates tables by rows. Every table must carry the same set of
// labels; tables listing them in another order are realigned to the first.
func Stack(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return &Table{}, nil
	}
	labels := append([]string(nil), tables[0].Labels...)
	ncol := len(labels)

	var genes []string
	var data []float64
	for i, t := range tables {
		perm, err := alignment(labels, t.Labels)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i+1, err)
		}
		for r := 0; r < t.Rows(); r++ {
			genes = append(genes, t.Genes[r])
			row := t.Row(r)
			for c := 0; c < ncol; c++ {
				data = append(data, row[perm[c]])
			}
		}
	}
	return newTable(genes, labels, data), nil
}

// alignment returns perm such that got[perm[i]] == want[i].
func alignment(want, got []string) ([]int, error) {
	if len(want) != len(got) {
		return nil, fmt.Errorf("%w: %d columns vs %d", ErrColumnMismatch, len(got), len(want))
	}
	perm := make([]int, len(want))
	same := true
	for i := range want {
		perm[i] = i
		if want[i] != got[i] {
			same = false
		}
	}
	if same {
		return perm, nil
	}
	pos := make(map[string]int, len(got))
	for i, l := range got {
		if _, dup := pos[l]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrColumnMismatch, l)
		}
		pos[l] = i
	}
	for i, l := range want {
		j, ok := pos[l]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrColumnMismatch, l)
		}
		perm[i] = j
	}
	return perm, nil
}

// Consolidate merges rows sharing a gene identifier into one row holding the
// element-wise mean of the non-missing values. Identifiers keep the order in
// which they were first seen. A cell with no non-missing contributor is NaN.
func Consolidate(t *Table) *Table {
	ncol := t.Cols()
	index := make(map[string]int, t.Rows())
	var genes []string
	var sums [][]float64
	var counts [][]int
	for r := 0; r < t.Rows(); r++ {
		g := t.Genes[r]
		k, ok := index[g]
		if !ok {
			k = len(genes)
			index[g] = k
			genes = append(genes, g)
			sums = append(sums, make([]float64, ncol))
			counts = append(counts, make([]int, ncol))
		}
		for c, x := range t.Row(r) {
			if math.IsNaN(x) {
				continue
			}
			sums[k][c] += x
			counts[k][c]++
		}
	}
	data := make([]float64, 0, len(genes)*ncol)
	for k := range genes {
		for c := 0; c < ncol; c++ {
			if counts[k][c] == 0 {
				data = append(data, math.NaN())
				continue
			}
			data = append(data, sums[k][c]/float64(counts[k][c]))
		}
	}
	return newTable(genes, append([]string(nil), t.Labels...), data)
}
