package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var Version = "dev"

// Config holds application-wide configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	PG        PGConfig        `mapstructure:"pg"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// APIConfig identifies the gateway project to operate on.
type APIConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"apiKey"`
	DisplayName string `mapstructure:"displayName"`
}

// PGConfig optionally carries a direct database connection string, which
// enables the exact catalog strategies.
type PGConfig struct {
	ConnString string `mapstructure:"connString"`
}

type DiscoveryConfig struct {
	// ProbeBudget caps probe requests for the guessing strategies.
	// 0 uses the default; negative means unbounded.
	ProbeBudget int `mapstructure:"probeBudget"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listenAddr"`
	Enabled    bool   `mapstructure:"enabled"`
}

// Load reads config from file or environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("supactl")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SUPACTL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
