package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/internal/constants"
	"github.com/celestiaorg/reloader/internal/db"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(constants.EnvConfigFile, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"go", "build", "./..."}, cfg.BuildCommand)
	assert.Equal(t, "reloader", cfg.KeyPrefix)
	assert.Equal(t, "terminal", cfg.ConfirmMode)
	assert.Equal(t, 2*time.Second, cfg.GraceWindow)
	assert.Equal(t, 300*time.Second, cfg.DefaultTimeout)
	assert.Equal(t, db.DriverSQLite, cfg.DB.Driver)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(constants.EnvConfigFile, "")
	t.Setenv(constants.EnvAddr, ":9090")
	t.Setenv(constants.EnvBuildCommand, "go vet ./...")
	t.Setenv(constants.EnvConfirmMode, "always")
	t.Setenv(constants.EnvGraceWindow, "500ms")
	t.Setenv(constants.EnvDBDriver, "postgres")
	t.Setenv(constants.EnvDBPort, "6543")
	t.Setenv(constants.EnvDBSSLMode, "require")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"go", "vet", "./..."}, cfg.BuildCommand)
	assert.Equal(t, 500*time.Millisecond, cfg.GraceWindow)

	opts := cfg.DBOptions()
	assert.Equal(t, db.DriverPostgres, opts.Driver)
	assert.Equal(t, 6543, opts.Port)
	require.NotNil(t, opts.SSLEnabled)
	assert.True(t, *opts.SSLEnabled)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reloader.yaml")
	content := `addr: ":7070"
project_dir: ./game
build_command: ["go", "build", "./cmd/game"]
confirm_mode: never
grace_window: 3s
db:
  driver: sqlite
  path: /tmp/reloader-test.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(constants.EnvConfigFile, path)
	t.Setenv(constants.EnvAddr, ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr, "file overrides environment")
	assert.Equal(t, "./game", cfg.EditorOptions().ProjectDir)
	assert.Equal(t, []string{"go", "build", "./cmd/game"}, cfg.BuildCommand)
	assert.Equal(t, "never", cfg.ConfirmMode)
	assert.Equal(t, 3*time.Second, cfg.GraceWindow)
	assert.Equal(t, "/tmp/reloader-test.db", cfg.DB.Path)
	assert.Equal(t, 300*time.Second, cfg.DefaultTimeout, "unset fields keep their value")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv(constants.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("grace_window: [1, 2"), 0o600))
		t.Setenv(constants.EnvConfigFile, path)
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Setenv(constants.EnvConfigFile, "")
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }},
		{name: "no build command", mutate: func(c *Config) { c.BuildCommand = nil }},
		{name: "unknown confirm mode", mutate: func(c *Config) { c.ConfirmMode = "maybe" }},
		{name: "zero grace", mutate: func(c *Config) { c.GraceWindow = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.DefaultTimeout = 0 }},
		{name: "zero tick", mutate: func(c *Config) { c.TickInterval = 0 }},
		{name: "negative reset delay", mutate: func(c *Config) { c.ResetDelay = -time.Second }},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "mysql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
