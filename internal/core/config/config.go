package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/pika-go/internal/core/errs"
	"github.com/nightconcept/pika-go/internal/core/runner"
)

const FileName = "config.toml"

// DefaultUpdateSource is the GitHub repository `pika self update` checks.
const DefaultUpdateSource = "pikapkg/cli"

// Config holds user preferences read from config.toml and PIKA_* variables.
type Config struct {
	Runner       string `toml:"runner"`
	LogLevel     string `toml:"log_level"`
	UpdateSource string `toml:"update_source"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Runner:       runner.DefaultCommand,
		LogLevel:     "warn",
		UpdateSource: DefaultUpdateSource,
	}
}

// Dir returns the directory holding config.toml (<user config dir>/pika).
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".pika")
	}
	return filepath.Join(base, "pika")
}

// Load reads config.toml from dirPath on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(dirPath string) (*Config, error) {
	cfg := Default()
	fullPath := filepath.Join(dirPath, FileName)

	data, err := os.ReadFile(fullPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errs.ErrorConfig(fullPath, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errs.ErrorConfig(fullPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"PIKA_RUNNER", &cfg.Runner},
		{"PIKA_LOG_LEVEL", &cfg.LogLevel},
		{"PIKA_UPDATE_SOURCE", &cfg.UpdateSource},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.target = v
		}
	}
}
