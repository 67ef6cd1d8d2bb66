// Package config resolves the perkloop CLI configuration: the backend base
// URL and session file location, from flags, environment, and
// ~/.perkloop/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultConfigDir is the directory under the user's home for CLI state.
const DefaultConfigDir = ".perkloop"

// DefaultBaseURL is used when nothing else resolves, pointing at a locally
// running development backend.
const DefaultBaseURL = "http://localhost:8630"

// EnvBaseURL is the environment override for the backend base URL.
const EnvBaseURL = "PERKLOOP_API_URL"

// Config is the resolved CLI configuration.
type Config struct {
	BaseURL     string `mapstructure:"api_url"`
	SessionPath string `mapstructure:"session_path"`
}

// Dir returns the perkloop config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// newViper builds a viper instance bound to the config file and env.
func newViper() (*viper.Viper, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetDefault("api_url", DefaultBaseURL)
	v.SetDefault("session_path", filepath.Join(dir, "session.json"))
	v.BindEnv("api_url", EnvBaseURL)
	return v, nil
}

// Load resolves the configuration. Precedence: environment, then
// ~/.perkloop/config.yaml, then defaults. A missing config file is fine.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Watch re-resolves the configuration whenever the config file changes and
// hands the result to onChange. Used by long-running watch commands so a
// base URL edit takes effect without a restart.
func Watch(onChange func(*Config)) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("reading config: %w", err)
		}
		// nothing to watch without a file
		return nil
	}
	v.OnConfigChange(func(fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err == nil {
			onChange(&cfg)
		}
	})
	v.WatchConfig()
	return nil
}
