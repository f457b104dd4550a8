package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Normalization defaults, overridden by load flags.
	TrueTimes       bool `mapstructure:"true_times" yaml:"true_times"`
	Unscaled        bool `mapstructure:"unscaled" yaml:"unscaled"`
	DoNotMeanCenter bool `mapstructure:"do_not_mean_center" yaml:"do_not_mean_center"`
	// Permissive turns unrecognized inputs into an empty result instead of an error.
	Permissive bool `mapstructure:"permissive" yaml:"permissive"`

	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// ParseDelimiter maps a config or flag spelling to a field separator.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "tab", "\t", `\t`:
		return '\t', nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use tab|,|;)", s)
	}
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".exprloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.exprloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EXPRLOOM")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("true_times", false)
	v.SetDefault("unscaled", false)
	v.SetDefault("do_not_mean_center", false)
	v.SetDefault("permissive", false)
	v.SetDefault("delimiter", "tab")
	v.SetDefault("log_level", "info")
	v.SetDefault("output_dir", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return nil, err
	}
	return &c, nil
}
