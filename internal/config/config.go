package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RCPARAMS"

// Config holds configuration for the generate command.
type Config struct {
	In          string
	Out         string
	Workers     int
	Indent      bool
	Watch       bool
	GlobalRegen float64
	RegenWindow time.Duration
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("in", "-")
	v.SetDefault("out", "-")
	v.SetDefault("workers", 0)
	v.SetDefault("indent", false)
	v.SetDefault("watch", false)
	v.SetDefault("global-regen", 400e9)
	v.SetDefault("regen-window", "15d")
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	window, err := ParseWindow(v.GetString("regen-window"))
	if err != nil {
		return Config{}, fmt.Errorf("parse regen-window: %w", err)
	}

	cfg := Config{
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Workers:     v.GetInt("workers"),
		Indent:      v.GetBool("indent"),
		Watch:       v.GetBool("watch"),
		GlobalRegen: v.GetFloat64("global-regen"),
		RegenWindow: window,
		LogLevel:    v.GetString("log-level"),
	}

	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("workers must not be negative: %d", cfg.Workers)
	}
	if cfg.Watch && (cfg.In == "" || cfg.In == "-") {
		return Config{}, fmt.Errorf("watch requires an input file")
	}

	return cfg, nil
}

// readInto binds env and flags, then reads the config file. Without an explicit
// file, ./rcparams.{yaml,json,toml} is optional.
func readInto(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("rcparams")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// ParseWindow parses a positive window given as whole seconds, whole days
// ("15d") or a Go duration string ("36h").
func ParseWindow(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty window")
	}

	var d time.Duration
	switch {
	case isNumeric(input):
		secs, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return 0, err
		}
		d = time.Duration(secs) * time.Second
	case strings.HasSuffix(input, "d") && isNumeric(strings.TrimSuffix(input, "d")):
		days, err := strconv.ParseInt(strings.TrimSuffix(input, "d"), 10, 64)
		if err != nil {
			return 0, err
		}
		d = time.Duration(days) * 24 * time.Hour
	default:
		parsed, err := time.ParseDuration(input)
		if err != nil {
			return 0, err
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("window must be positive: %q", input)
	}
	return d, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
