// Package config loads the optional migrate.toml run-configuration file:
// parallelism, offline mode, default target framework, and the central
// package management reconciliation strategy.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/sdkmigrate/migrator/internal/orchestrate"
)

// Config is the root shape of migrate.toml.
type Config struct {
	Parallelism      int    `toml:"parallelism"`
	Offline          bool   `toml:"offline"`
	DefaultFramework string `toml:"default_target_framework"`
	LogLevel         string `toml:"log_level"`
	CentralPackages  struct {
		Enabled  bool   `toml:"enabled"`
		Strategy string `toml:"strategy"`
	} `toml:"central_packages"`
	SharedProperties struct {
		Enabled bool `toml:"enabled"`
	} `toml:"shared_properties"`
}

// Default returns the configuration used when no migrate.toml is present.
func Default() Config {
	return Config{
		Parallelism:      4,
		DefaultFramework: "net8.0",
		LogLevel:         "info",
	}
}

// Load reads and parses path. A missing file is not an error; it returns
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "config: read %s", path)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// CentralPackageStrategy resolves the configured strategy name to the
// orchestrator's enum, defaulting to HighestWins for an empty or
// unrecognized value.
func (c Config) CentralPackageStrategy() orchestrate.CentralPackageStrategy {
	switch c.CentralPackages.Strategy {
	case "manifest-wins":
		return orchestrate.ManifestWins
	case "user-prompt":
		return orchestrate.UserPrompt
	default:
		return orchestrate.HighestWins
	}
}
