package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// VerifyConfig holds configuration for the verify and inspect commands.
type VerifyConfig struct {
	In       string
	LogLevel string
}

// LoadVerify merges config file, environment variables, and flags into VerifyConfig.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v := viper.New()
	v.SetDefault("in", "-")
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return VerifyConfig{}, err
	}

	return VerifyConfig{
		In:       v.GetString("in"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
