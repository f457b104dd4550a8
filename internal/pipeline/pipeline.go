// Package pipeline turns an input path into a normalized expression matrix
// with its gene identifiers, time vector and time labels.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/exprloom-cli/internal/expression"
	"github.com/KaramelBytes/exprloom-cli/internal/logging"
	"github.com/KaramelBytes/exprloom-cli/internal/source"
	"github.com/KaramelBytes/exprloom-cli/internal/transform"
)

// ErrNoArchiveReader is returned for .h5ad inputs when Options.Archive is nil.
var ErrNoArchiveReader = errors.New("no archive reader configured")

// Options controls one Read call.
type Options struct {
	// TrueTimes parses column labels as time coordinates instead of 0..n-1.
	TrueTimes bool
	// Unscaled skips division by the per-gene standard deviation.
	Unscaled bool
	// DoNotMeanCenter keeps every gene at its original mean.
	DoNotMeanCenter bool
	// Permissive logs unrecognized inputs and returns an empty Result
	// instead of an error.
	Permissive bool
	// Delimiter for text inputs; tab when 0.
	Delimiter rune
	// Archive loads .h5ad inputs.
	Archive expression.ArchiveReader
	// Logger receives diagnostics; discarded when nil.
	Logger logging.Logger
}

// Policy returns the normalization policy selected by o.
func (o Options) Policy() transform.Policy {
	return transform.Policy{Unscaled: o.Unscaled, DoNotMeanCenter: o.DoNotMeanCenter}
}

// Result is the output of Read. Matrix rows align with Genes and its columns
// with Times and Labels. Matrix is nil only when Genes or Labels is empty;
// genes without any time-sample column are rejected with
// expression.ErrEmptyTable.
type Result struct {
	Kind   source.Kind
	Matrix *mat.Dense
	Genes  []string
	Times  []float64
	Labels []string
}

// Dims returns the number of genes and time-samples.
func (r *Result) Dims() (genes, samples int) {
	return len(r.Genes), len(r.Labels)
}

// Read resolves path, loads its raw matrix, derives the time vector and
// applies the normalization policy.
func Read(ctx context.Context, path string, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.Named("pipeline")
	kind, err := source.Resolve(path)
	log.Info(ctx, "resolved input", logging.String("path", path), logging.String("kind", kind.String()))
	if err != nil {
		if opt.Permissive {
			log.Warn(ctx, "invalid input, no matrix produced", logging.Bool("permissive", true), logging.Error(err))
			return &Result{Kind: source.Invalid}, nil
		}
		return nil, err
	}

	raw, err := Load(kind, path, opt)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "loaded table", logging.Int("genes", raw.Rows()), logging.Int("samples", raw.Cols()))

	times, err := transform.TimeVector(raw.Labels, opt.TrueTimes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	policy := opt.Policy()
	log.Debug(ctx, "normalizing", logging.String("policy", policy.String()), logging.Any("times", times))
	return &Result{
		Kind:   kind,
		Matrix: transform.Normalize(raw.Values, policy),
		Genes:  raw.Genes,
		Times:  times,
		Labels: raw.Labels,
	}, nil
}

// Load reads the raw table for an already resolved input.
func Load(kind source.Kind, path string, opt Options) (*expression.Table, error) {
	ro := expression.DefaultReadOptions()
	if opt.Delimiter != 0 {
		ro.Delimiter = opt.Delimiter
	}
	switch kind {
	case source.Directory:
		return expression.ReadDirectory(path, ro)
	case source.DelimitedText:
		return expression.ReadDelimited(path, ro)
	case source.StructuredArchive:
		if opt.Archive == nil {
			return nil, fmt.Errorf("%s: %w", path, ErrNoArchiveReader)
		}
		return expression.ReadArchive(opt.Archive, path)
	default:
		return nil, fmt.Errorf("%w: %s", source.ErrUnrecognizedFormat, path)
	}
}
