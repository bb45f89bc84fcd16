package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdkmigrate/migrator/internal/orchestrate"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "migrate.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.toml")
	contents := `
parallelism = 8
offline = true
default_target_framework = "net6.0"
log_level = "debug"

[central_packages]
enabled = true
strategy = "manifest-wins"

[shared_properties]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.True(t, cfg.Offline)
	assert.Equal(t, "net6.0", cfg.DefaultFramework)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.CentralPackages.Enabled)
	assert.Equal(t, "manifest-wins", cfg.CentralPackages.Strategy)
	assert.True(t, cfg.SharedProperties.Enabled)
	assert.Equal(t, orchestrate.ManifestWins, cfg.CentralPackageStrategy())
}

func TestCentralPackageStrategyDefaultsToHighestWins(t *testing.T) {
	cfg := Default()
	assert.Equal(t, orchestrate.HighestWins, cfg.CentralPackageStrategy())
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.toml")
	require.NoError(t, os.WriteFile(path, []byte("parallelism = ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
