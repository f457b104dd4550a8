package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/exprloom-cli/internal/transform"
)

// Summary is a markdown-friendly description of a Result.
type Summary struct {
	Name       string
	Kind       string
	Genes      int
	Samples    int
	Missing    int
	Duplicates []string
	Times      []float64
	Labels     []string
	Preview    []GenePreview
}

// GenePreview holds the first rows of the normalized matrix.
type GenePreview struct {
	Gene   string
	Mean   float64
	Std    float64
	Values []float64
}

// Summarize describes r. previewRows bounds the number of genes shown.
func Summarize(name string, r *Result, previewRows int) Summary {
	genes, samples := r.Dims()
	s := Summary{
		Name:    name,
		Kind:    r.Kind.String(),
		Genes:   genes,
		Samples: samples,
		Times:   r.Times,
		Labels:  r.Labels,
	}
	seen := make(map[string]int, genes)
	for _, g := range r.Genes {
		seen[g]++
		if seen[g] == 2 {
			s.Duplicates = append(s.Duplicates, g)
		}
	}
	if r.Matrix == nil {
		return s
	}
	for i := 0; i < genes; i++ {
		for _, v := range r.Matrix.RawRowView(i) {
			if math.IsNaN(v) {
				s.Missing++
			}
		}
	}
	if previewRows > genes {
		previewRows = genes
	}
	means := transform.RowMeans(r.Matrix)
	stds := transform.RowStds(r.Matrix)
	for i := 0; i < previewRows; i++ {
		s.Preview = append(s.Preview, GenePreview{
			Gene:   r.Genes[i],
			Mean:   means[i],
			Std:    stds[i],
			Values: append([]float64(nil), r.Matrix.RawRowView(i)...),
		})
	}
	return s
}

// Markdown renders the summary for terminals and docs.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[EXPRESSION SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s (%s)\n", s.Name, s.Kind))
	}
	b.WriteString(fmt.Sprintf("Genes: %d\n", s.Genes))
	b.WriteString(fmt.Sprintf("Time-samples: %d\n", s.Samples))
	total := s.Genes * s.Samples
	if total > 0 {
		b.WriteString(fmt.Sprintf("Missing: %d (%.1f%%)\n", s.Missing, float64(s.Missing)*100/float64(total)))
	}

	if len(s.Labels) > 0 {
		b.WriteString("\n[TIME AXIS]\n")
		for i, l := range s.Labels {
			b.WriteString(fmt.Sprintf("- %s → %g\n", safeVal(l), s.Times[i]))
		}
	}

	if len(s.Preview) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| gene | mean | std |")
		for _, l := range s.Labels {
			b.WriteString(" " + safeVal(l) + " |")
		}
		b.WriteString("\n|---|---|---|")
		b.WriteString(strings.Repeat("---|", len(s.Labels)))
		b.WriteString("\n")
		for _, p := range s.Preview {
			b.WriteString(fmt.Sprintf("| %s | %.4g | %.4g |", safeVal(p.Gene), p.Mean, p.Std))
			for _, v := range p.Values {
				b.WriteString(fmt.Sprintf(" %.4g |", v))
			}
			b.WriteString("\n")
		}
	}

	if len(s.Duplicates) > 0 {
		b.WriteString("\n[NOTES]\n")
		shown := s.Duplicates
		if len(shown) > 10 {
			shown = shown[:10]
		}
		b.WriteString(fmt.Sprintf("- %d duplicated gene identifiers kept as separate rows: %s\n",
			len(s.Duplicates), strings.Join(shown, ", ")))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
