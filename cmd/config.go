package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/exprloom-cli/internal/config"
	"github.com/KaramelBytes/exprloom-cli/internal/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set exprloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "true_times: %t\n", cfg.TrueTimes)
		fmt.Fprintf(out, "unscaled: %t\n", cfg.Unscaled)
		fmt.Fprintf(out, "do_not_mean_center: %t\n", cfg.DoNotMeanCenter)
		fmt.Fprintf(out, "permissive: %t\n", cfg.Permissive)
		fmt.Fprintf(out, "delimiter: %s\n", cfg.Delimiter)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		if cfg.OutputDir != "" {
			fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		parseBool := func() (bool, error) {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return false, fmt.Errorf("invalid bool for %s: %v", key, val)
			}
			return b, nil
		}
		var err error
		switch key {
		case "true_times":
			cfg.TrueTimes, err = parseBool()
		case "unscaled":
			cfg.Unscaled, err = parseBool()
		case "do_not_mean_center":
			cfg.DoNotMeanCenter, err = parseBool()
		case "permissive":
			cfg.Permissive, err = parseBool()
		case "delimiter":
			if _, err = cfgpkg.ParseDelimiter(val); err == nil {
				cfg.Delimiter = val
			}
		case "log_level":
			if err = logging.SetLevelString(val); err == nil {
				cfg.LogLevel = val
			}
		case "output_dir":
			cfg.OutputDir = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
