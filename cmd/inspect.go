package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	cfgpkg "github.com/KaramelBytes/exprloom-cli/internal/config"
	"github.com/KaramelBytes/exprloom-cli/internal/expression"
	"github.com/KaramelBytes/exprloom-cli/internal/h5ad"
	"github.com/KaramelBytes/exprloom-cli/internal/pipeline"
	"github.com/KaramelBytes/exprloom-cli/internal/source"
	"github.com/spf13/cobra"
)

var (
	inspectDelimiter string
	inspectStrict    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <paths...>",
	Short: "Classify inputs and report their raw shape without normalizing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// keep literal paths so missing inputs are reported as invalid
				matches = []string{arg}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				paths = append(paths, m)
			}
		}
		sort.Strings(paths)

		d, err := cfgpkg.ParseDelimiter(inspectDelimiter)
		if err != nil {
			return err
		}
		opt := pipeline.Options{Delimiter: d, Archive: h5ad.Reader{}, Logger: log}

		out := cmd.OutOrStdout()
		var failed int
		for i, p := range paths {
			prefix := fmt.Sprintf("[%d/%d] %s", i+1, len(paths), p)
			kind, err := source.Resolve(p)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s: %s (%v)\n", prefix, kind, err)
				continue
			}
			t, err := pipeline.Load(kind, p, opt)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s: %s, ✗ %v\n", prefix, kind, err)
				continue
			}
			line := fmt.Sprintf("%s: %s, %d genes × %d time-samples", prefix, kind, t.Rows(), t.Cols())
			if kind == source.Directory {
				if files, err := expression.DelimitedFiles(p); err == nil {
					line += fmt.Sprintf(" from %d files", len(files))
				}
			}
			fmt.Fprintln(out, line)
		}
		if inspectStrict && failed > 0 {
			return fmt.Errorf("%d of %d inputs could not be loaded", failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", "tab", "field delimiter for .txt/.csv inputs: tab | , | ;")
	inspectCmd.Flags().BoolVar(&inspectStrict, "strict", false, "exit with an error if any input fails to load")
}
