package cmd

import (
	"fmt"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/exprloom-cli/internal/config"
	"github.com/KaramelBytes/exprloom-cli/internal/export"
	"github.com/KaramelBytes/exprloom-cli/internal/h5ad"
	"github.com/KaramelBytes/exprloom-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	loadTrueTimes       bool
	loadUnscaled        bool
	loadDoNotMeanCenter bool
	loadPermissive      bool
	loadDelimiter       string
	loadOutputDir       string
	loadPreviewRows     int
	loadMatrix          bool
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a time course, normalize it and print or write the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		res, err := pipeline.Read(cmd.Context(), path, opt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		outDir := loadOutputDir
		// --matrix prints to stdout even when the config names an output dir
		if !cmd.Flags().Changed("output") && !loadMatrix && cfg != nil {
			outDir = cfg.OutputDir
		}
		if outDir != "" {
			m := export.NewManifest(path, res, opt)
			dir, err := export.WriteBundle(outDir, res, m)
			if err != nil {
				return err
			}
			genes, samples := res.Dims()
			fmt.Fprintf(out, "✓ Wrote %d×%d matrix to %s (run %s)\n", genes, samples, dir, m.RunID)
			return nil
		}
		if loadMatrix {
			return export.WriteTSV(out, res)
		}
		fmt.Fprintln(out, pipeline.Summarize(filepath.Base(path), res, loadPreviewRows).Markdown())
		return nil
	},
}

// loadOptions merges config defaults with the flags that were set explicitly.
func loadOptions(cmd *cobra.Command) (pipeline.Options, error) {
	c := cfg
	if c == nil {
		c = &cfgpkg.Global{Delimiter: "tab"}
	}
	opt := pipeline.Options{
		TrueTimes:       c.TrueTimes,
		Unscaled:        c.Unscaled,
		DoNotMeanCenter: c.DoNotMeanCenter,
		Permissive:      c.Permissive,
		Archive:         h5ad.Reader{},
		Logger:          log,
	}
	f := cmd.Flags()
	if f.Changed("true-times") {
		opt.TrueTimes = loadTrueTimes
	}
	if f.Changed("unscaled") {
		opt.Unscaled = loadUnscaled
	}
	if f.Changed("do-not-mean-center") {
		opt.DoNotMeanCenter = loadDoNotMeanCenter
	}
	if f.Changed("permissive") {
		opt.Permissive = loadPermissive
	}
	delim := c.Delimiter
	if f.Changed("delimiter") {
		delim = loadDelimiter
	}
	d, err := cfgpkg.ParseDelimiter(delim)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	return opt, nil
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadTrueTimes, "true-times", false, "parse column headers as numeric time points (default: equally spaced 0..n-1)")
	loadCmd.Flags().BoolVar(&loadUnscaled, "unscaled", false, "do not divide genes by their standard deviation")
	loadCmd.Flags().BoolVar(&loadDoNotMeanCenter, "do-not-mean-center", false, "keep genes at their original mean")
	loadCmd.Flags().BoolVar(&loadPermissive, "permissive", false, "report unrecognized inputs without failing")
	loadCmd.Flags().StringVar(&loadDelimiter, "delimiter", "tab", "field delimiter for .txt/.csv inputs: tab | , | ;")
	loadCmd.Flags().StringVarP(&loadOutputDir, "output", "o", "", "directory to write matrix.tsv and manifest.yaml")
	loadCmd.Flags().IntVar(&loadPreviewRows, "preview-rows", 5, "number of genes shown in the summary")
	loadCmd.Flags().BoolVar(&loadMatrix, "matrix", false, "print the normalized matrix as TSV instead of a summary")
	loadCmd.MarkFlagsMutuallyExclusive("matrix", "output")
}
