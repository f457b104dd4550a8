package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/exprloom-cli/internal/expression"
	"github.com/KaramelBytes/exprloom-cli/internal/logging"
	"github.com/KaramelBytes/exprloom-cli/internal/pipeline"
	"github.com/KaramelBytes/exprloom-cli/internal/source"
	"github.com/KaramelBytes/exprloom-cli/internal/transform"
)

func write(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func threeByFour(t *testing.T) string {
	return write(t, t.TempDir(), "series.txt",
		"gene\t0\t1\t2\t3",
		"g1\t1\t2\t3\t4",
		"g2\t10\t10\t10\t10",
		"g3\t0\t5\tNA\t1",
	)
}

func TestReadEndToEndTimes(t *testing.T) {
	ctx := context.Background()
	p := threeByFour(t)

	withTrue, err := pipeline.Read(ctx, p, pipeline.Options{TrueTimes: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, withTrue.Times)

	spaced, err := pipeline.Read(ctx, p, pipeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, spaced.Times)

	assert.Equal(t, source.DelimitedText, spaced.Kind)
	assert.Equal(t, []string{"g1", "g2", "g3"}, spaced.Genes)
	assert.Equal(t, []string{"0", "1", "2", "3"}, spaced.Labels)
}

func TestReadShapeAlignment(t *testing.T) {
	p := threeByFour(t)
	for _, opt := range []pipeline.Options{
		{Unscaled: true, DoNotMeanCenter: true},
		{Unscaled: true},
		{DoNotMeanCenter: true},
		{},
	} {
		r, err := pipeline.Read(context.Background(), p, opt)
		require.NoError(t, err)
		rows, cols := r.Matrix.Dims()
		assert.Equal(t, len(r.Genes), rows)
		assert.Equal(t, len(r.Labels), cols)
		assert.Equal(t, len(r.Times), cols)

		// constant gene g2 stays finite, missing cell stays missing
		for _, v := range r.Matrix.RawRowView(1) {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s: %v", opt.Policy(), v)
		}
		assert.True(t, math.IsNaN(r.Matrix.At(2, 2)))
	}
}

func TestReadIdentityPolicyMatchesRawTable(t *testing.T) {
	p := threeByFour(t)
	raw, err := expression.ReadDelimited(p, expression.DefaultReadOptions())
	require.NoError(t, err)
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Unscaled: true, DoNotMeanCenter: true})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, math.Float64bits(raw.Values.At(i, j)), math.Float64bits(r.Matrix.At(i, j)))
		}
	}
}

func TestReadTrueTimesRejectsTextLabels(t *testing.T) {
	p := write(t, t.TempDir(), "series.csv",
		"gene\t0h\t2h",
		"g1\t1\t2",
	)
	_, err := pipeline.Read(context.Background(), p, pipeline.Options{TrueTimes: true})
	assert.ErrorIs(t, err, transform.ErrTimeLabel)

	r, err := pipeline.Read(context.Background(), p, pipeline.Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, r.Times)
}

func TestReadDirectoryConsolidates(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.txt", "gene\t0\t1", "g1\t1\t2")
	write(t, dir, "b.txt", "gene\t0\t1", "g1\t3\t4")
	r, err := pipeline.Read(context.Background(), dir, pipeline.Options{Unscaled: true, DoNotMeanCenter: true})
	require.NoError(t, err)
	assert.Equal(t, source.Directory, r.Kind)
	assert.Equal(t, []string{"g1"}, r.Genes)
	assert.Equal(t, []float64{2, 3}, r.Matrix.RawRowView(0))
}

func TestReadSingleFileKeepsDuplicates(t *testing.T) {
	p := write(t, t.TempDir(), "dups.txt", "gene\t0\t1", "g1\t1\t2", "g1\t3\t4")
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Unscaled: true, DoNotMeanCenter: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g1"}, r.Genes)
}

func TestReadInvalidStrictAndPermissive(t *testing.T) {
	p := write(t, t.TempDir(), "series.xlsx", "x")

	_, err := pipeline.Read(context.Background(), p, pipeline.Options{})
	assert.ErrorIs(t, err, source.ErrUnrecognizedFormat)

	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Permissive: true})
	require.NoError(t, err)
	assert.Equal(t, source.Invalid, r.Kind)
	assert.Nil(t, r.Matrix)
	assert.Empty(t, r.Genes)
}

func TestReadParseErrorIsFatal(t *testing.T) {
	p := write(t, t.TempDir(), "bad.txt", "gene\t0", "g1\toops")
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Permissive: true})
	assert.Nil(t, r)
	var pe *expression.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestReadEmptyInputsAreFatal(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	idsOnly := write(t, dir, "ids.txt", "gene", "g1", "g2")

	for _, p := range []string{empty, idsOnly} {
		r, err := pipeline.Read(context.Background(), p, pipeline.Options{Permissive: true})
		assert.Nil(t, r, p)
		assert.ErrorIs(t, err, expression.ErrEmptyTable, p)
	}
}

func TestReadLogsResolvedKind(t *testing.T) {
	var buf bytes.Buffer
	_, err := pipeline.Read(context.Background(), threeByFour(t), pipeline.Options{Logger: logging.New(&buf)})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pipeline.kind=delimited-text")
}

type fakeArchive struct{ a *expression.Archive }

func (f fakeArchive) ReadArchive(string) (*expression.Archive, error) { return f.a, nil }

func TestReadArchive(t *testing.T) {
	p := write(t, t.TempDir(), "atlas.h5ad", "stub")

	_, err := pipeline.Read(context.Background(), p, pipeline.Options{})
	assert.ErrorIs(t, err, pipeline.ErrNoArchiveReader)

	arch := fakeArchive{&expression.Archive{
		ObsNames: []string{"0", "12", "24"},
		VarNames: []string{"g1", "g2"},
		X:        mat.NewDense(3, 2, []float64{1, 4, 2, 4, 3, 4}),
	}}
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Archive: arch, TrueTimes: true, Unscaled: true})
	require.NoError(t, err)
	assert.Equal(t, source.StructuredArchive, r.Kind)
	assert.Equal(t, []string{"g1", "g2"}, r.Genes)
	assert.Equal(t, []float64{0, 12, 24}, r.Times)
	assert.Equal(t, []float64{-1, 0, 1}, r.Matrix.RawRowView(0))
	assert.Equal(t, []float64{0, 0, 0}, r.Matrix.RawRowView(1))
}

func TestReadCommaDelimiter(t *testing.T) {
	p := write(t, t.TempDir(), "series.csv", "gene,0,5", "g1,2,4")
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Delimiter: ',', TrueTimes: true, Unscaled: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5}, r.Times)
	assert.Equal(t, []float64{-1, 1}, r.Matrix.RawRowView(0))
}

func TestSummarize(t *testing.T) {
	p := write(t, t.TempDir(), "dups.txt",
		"gene\t0\t1",
		"g1\t1\t3",
		"g1\t2\tNA",
		"g2\t5\t5",
	)
	r, err := pipeline.Read(context.Background(), p, pipeline.Options{Unscaled: true})
	require.NoError(t, err)
	s := pipeline.Summarize("dups.txt", r, 2)
	assert.Equal(t, 3, s.Genes)
	assert.Equal(t, 2, s.Samples)
	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, []string{"g1"}, s.Duplicates)
	require.Len(t, s.Preview, 2)
	assert.Equal(t, []float64{-1, 1}, s.Preview[0].Values)

	md := s.Markdown()
	for _, want := range []string{
		"[EXPRESSION SUMMARY]",
		"Source: dups.txt (delimited-text)",
		"Genes: 3",
		"Missing: 1 (16.7%)",
		"[TIME AXIS]",
		"[HEAD]",
		"1 duplicated gene identifiers",
	} {
		assert.Contains(t, md, want)
	}
}
