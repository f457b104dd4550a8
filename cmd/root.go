package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/exprloom-cli/internal/config"
	"github.com/KaramelBytes/exprloom-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	logLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
	log logging.Logger = logging.Default()
)

var rootCmd = &cobra.Command{
	Use:   "exprloom",
	Short: "exprloom: load and normalize gene-expression time courses",
	Long: `exprloom reads a gene-expression time course from a directory of tab-separated
files, a single .txt/.csv file or an .h5ad archive and produces one normalized
genes × time-samples matrix with its gene identifiers and time axis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.exprloom/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{Delimiter: "tab", LogLevel: "info"}
	}
	cfg = c

	level := cfg.LogLevel
	if rootCmd.PersistentFlags().Changed("log-level") {
		level = logLevel
	}
	if err := logging.SetLevelString(level); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}
