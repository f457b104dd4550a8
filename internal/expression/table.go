// Package expression loads gene-expression tables (genes × time-samples)
// from delimited files, directories of delimited files and archive readers.
package expression

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Table is a raw expression matrix with its row and column labels.
// Values is nil when the table has no rows or no columns.
type Table struct {
	Genes  []string
	Labels []string
	Values *mat.Dense
}

// Rows returns the number of genes.
func (t *Table) Rows() int { return len(t.Genes) }

// Cols returns the number of time-samples.
func (t *Table) Cols() int { return len(t.Labels) }

// Row returns a copy of row i. Missing values are NaN.
func (t *Table) Row(i int) []float64 {
	out := make([]float64, t.Cols())
	if t.Values != nil {
		mat.Row(out, i, t.Values)
	}
	return out
}

// ReadOptions controls delimited parsing.
type ReadOptions struct {
	// Delimiter between fields. If 0, defaults to tab.
	Delimiter rune
}

// DefaultReadOptions returns tab-separated parsing.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Delimiter: '\t'}
}

// ParseError reports a malformed cell in a delimited file.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d, column %q: cannot parse %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	// ErrTooManyFields is wrapped by a ParseError when a row is wider than the header.
	ErrTooManyFields = errors.New("row has more fields than header")
	// ErrEmptyTable is returned for a file with no header, or for genes
	// listed without any time-sample column.
	ErrEmptyTable = errors.New("no time-sample columns to parse")
)

// naTokens are the cell spellings read as a missing value.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"N/A": {}, "n/a": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {},
	"1.#IND": {}, "1.#QNAN": {}, "-1.#IND": {}, "-1.#QNAN": {},
}

func parseCell(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if _, ok := naTokens[v]; ok {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(v, 64)
}

// ReadDelimited parses one delimited file whose first row holds the time
// labels and whose first column holds gene identifiers. Duplicate gene
// identifiers are kept as separate rows.
func ReadDelimited(path string, opt ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return readDelimited(f, path, opt)
}

func readDelimited(src io.Reader, path string, opt ReadOptions) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = '\t'
	}
	r := csv.NewReader(src)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
		}
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: read rows: %w", path, err)
	}

	// The header's first cell names the index column, unless the header is
	// exactly one field shorter than the data rows.
	labels := header[1:]
	if len(records) > 0 && len(records[0]) == len(header)+1 {
		labels = header
	}
	labels = append([]string(nil), labels...)
	ncol := len(labels)
	if ncol == 0 && len(records) > 0 {
		return nil, &ParseError{Path: path, Line: 1, Value: strings.Join(header, string(delim)), Err: ErrEmptyTable}
	}

	genes := make([]string, 0, len(records))
	data := make([]float64, 0, len(records)*ncol)
	for i, rec := range records {
		line := i + 2
		if len(rec)-1 > ncol {
			return nil, &ParseError{Path: path, Line: line, Value: strings.Join(rec, string(delim)), Err: ErrTooManyFields}
		}
		genes = append(genes, rec[0])
		for j := 0; j < ncol; j++ {
			if j+1 >= len(rec) {
				data = append(data, math.NaN())
				continue
			}
			x, err := parseCell(rec[j+1])
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Column: labels[j], Value: rec[j+1], Err: err}
			}
			data = append(data, x)
		}
	}
	return newTable(genes, labels, data), nil
}

// newTable wraps a row-major buffer. data must hold len(genes)*len(labels) values.
func newTable(genes, labels []string, data []float64) *Table {
	t := &Table{Genes: genes, Labels: labels}
	if len(genes) > 0 && len(labels) > 0 {
		t.Values = mat.NewDense(len(genes), len(labels), data)
	}
	return t
}
