// Package export writes a pipeline Result as a TSV matrix plus a YAML manifest.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/exprloom-cli/internal/pipeline"
	"github.com/KaramelBytes/exprloom-cli/internal/utils"
)

const (
	MatrixFile   = "matrix.tsv"
	ManifestFile = "manifest.yaml"
)

// Manifest describes how a bundle was produced.
type Manifest struct {
	RunID           string    `yaml:"run_id"`
	CreatedAt       time.Time `yaml:"created_at"`
	Source          string    `yaml:"source"`
	Kind            string    `yaml:"kind"`
	TrueTimes       bool      `yaml:"true_times"`
	Unscaled        bool      `yaml:"unscaled"`
	DoNotMeanCenter bool      `yaml:"do_not_mean_center"`
	Policy          string    `yaml:"policy"`
	Genes           int       `yaml:"genes"`
	Samples         int       `yaml:"samples"`
	Times           []float64 `yaml:"times"`
	Labels          []string  `yaml:"labels"`
}

// NewManifest fills a manifest for r produced from src with opt.
func NewManifest(src string, r *pipeline.Result, opt pipeline.Options) Manifest {
	genes, samples := r.Dims()
	return Manifest{
		RunID:           uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Source:          src,
		Kind:            r.Kind.String(),
		TrueTimes:       opt.TrueTimes,
		Unscaled:        opt.Unscaled,
		DoNotMeanCenter: opt.DoNotMeanCenter,
		Policy:          opt.Policy().String(),
		Genes:           genes,
		Samples:         samples,
		Times:           r.Times,
		Labels:          r.Labels,
	}
}

// WriteTSV writes a header "gene<TAB>labels..." and one line per gene.
// Missing values are written as NaN.
func WriteTSV(w io.Writer, r *pipeline.Result) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("gene")
	for _, l := range r.Labels {
		bw.WriteByte('\t')
		bw.WriteString(l)
	}
	bw.WriteByte('\n')
	for i, g := range r.Genes {
		bw.WriteString(g)
		if r.Matrix != nil {
			for _, v := range r.Matrix.RawRowView(i) {
				bw.WriteByte('\t')
				bw.WriteString(formatValue(v))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteBundle writes matrix.tsv and manifest.yaml into dir and returns dir.
func WriteBundle(dir string, r *pipeline.Result, m Manifest) (string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteTSV(&buf, r); err != nil {
		return "", fmt.Errorf("encode matrix: %w", err)
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, MatrixFile), buf.Bytes()); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, ManifestFile), b); err != nil {
		return "", err
	}
	return dir, nil
}
