package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrTimeLabel is returned when a label cannot be read as a time coordinate.
var ErrTimeLabel = errors.New("time label is not numeric")

// TimeVector derives one time coordinate per column. With trueTimes each
// label is parsed as a number; otherwise 0, 1, …, n-1 is returned and the
// labels are not inspected.
func TimeVector(labels []string, trueTimes bool) ([]float64, error) {
	t := make([]float64, len(labels))
	if !trueTimes {
		for i := range t {
			t[i] = float64(i)
		}
		return t, nil
	}
	for i, l := range labels {
		v, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %d %q", ErrTimeLabel, i, l)
		}
		t[i] = v
	}
	return t, nil
}

// Policy selects one of the four normalization branches.
type Policy struct {
	// Unscaled skips division by the row standard deviation.
	Unscaled bool
	// DoNotMeanCenter keeps each row at its original mean.
	DoNotMeanCenter bool
}

func (p Policy) String() string {
	switch {
	case p.Unscaled && p.DoNotMeanCenter:
		return "identity"
	case p.Unscaled:
		return "centered"
	case p.DoNotMeanCenter:
		return "scaled"
	default:
		return "standardized"
	}
}

// Normalize returns a new matrix with p applied to every row of raw.
//
// Row statistics ignore NaN entries and NaN cells stay NaN. The standard
// deviation is taken from raw before any centering, and rows whose standard
// deviation is zero are not divided.
func Normalize(raw *mat.Dense, p Policy) *mat.Dense {
	if raw == nil {
		return nil
	}
	var out mat.Dense
	out.CloneFrom(raw)
	if p.Unscaled && p.DoNotMeanCenter {
		return &out
	}

	r, _ := raw.Dims()
	means := RowMeans(raw)
	var stds []float64
	if !p.Unscaled {
		stds = RowStds(raw)
	}
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		floats.AddConst(-means[i], row)
		if p.Unscaled {
			continue
		}
		if sd := stds[i]; sd != 0 {
			for j := range row {
				row[j] /= sd
			}
		}
		if p.DoNotMeanCenter {
			floats.AddConst(means[i], row)
		}
	}
	return &out
}
