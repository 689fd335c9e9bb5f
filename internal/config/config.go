// Package config assembles the server configuration from the environment
// and an optional YAML file
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	rootconfig "github.com/celestiaorg/reloader/config"
	"github.com/celestiaorg/reloader/internal/constants"
	"github.com/celestiaorg/reloader/internal/db"
	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/host/editor"
	"github.com/celestiaorg/reloader/internal/host/prompt"
	"github.com/celestiaorg/reloader/internal/reload"
)

// Config is the server configuration
type Config struct {
	Addr           string        `yaml:"addr"`
	ProjectDir     string        `yaml:"project_dir"`
	BuildCommand   []string      `yaml:"build_command"`
	KeyPrefix      string        `yaml:"key_prefix"`
	ConfirmMode    string        `yaml:"confirm_mode"`
	GraceWindow    time.Duration `yaml:"grace_window"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	ResetDelay     time.Duration `yaml:"reset_delay"`
	LogLevel       string        `yaml:"log_level"`
	DB             DBConfig      `yaml:"db"`
}

// DBConfig selects and addresses the durable store database
type DBConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLEnabled bool   `yaml:"ssl_enabled"`
}

// Load reads the environment and overlays the YAML file named by
// RELOADER_CONFIG when it is set
func Load() (*Config, error) {
	cfg := fromEnv()
	if path := strings.TrimSpace(os.Getenv(constants.EnvConfigFile)); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Addr:           rootconfig.GetEnv(constants.EnvAddr, ":8080"),
		ProjectDir:     rootconfig.GetEnv(constants.EnvProjectDir, "."),
		BuildCommand:   strings.Fields(rootconfig.GetEnv(constants.EnvBuildCommand, strings.Join(editor.DefaultBuildCommand, " "))),
		KeyPrefix:      rootconfig.GetEnv(constants.EnvKeyPrefix, durable.DefaultPrefix),
		ConfirmMode:    rootconfig.GetEnv(constants.EnvConfirmMode, string(prompt.ModeTerminal)),
		GraceWindow:    rootconfig.GetEnvDuration(constants.EnvGraceWindow, reload.DefaultGraceWindow),
		DefaultTimeout: rootconfig.GetEnvDuration(constants.EnvDefaultTimeout, reload.DefaultTimeout),
		TickInterval:   rootconfig.GetEnvDuration(constants.EnvTickInterval, editor.DefaultTickInterval),
		ResetDelay:     rootconfig.GetEnvDuration(constants.EnvResetDelay, editor.DefaultResetDelay),
		LogLevel:       rootconfig.GetEnv(constants.EnvLogLevel, "info"),
		DB: DBConfig{
			Driver:     rootconfig.GetEnv(constants.EnvDBDriver, db.DriverSQLite),
			Path:       rootconfig.GetEnv(constants.EnvDBPath, db.DefaultSQLitePath),
			Host:       rootconfig.GetEnv(constants.EnvDBHost, db.DefaultHost),
			Port:       rootconfig.GetEnvInt(constants.EnvDBPort, db.DefaultPort),
			User:       rootconfig.GetEnv(constants.EnvDBUser, db.DefaultUser),
			Password:   rootconfig.GetEnv(constants.EnvDBPassword, db.DefaultPassword),
			Name:       rootconfig.GetEnv(constants.EnvDBName, db.DefaultDBName),
			SSLEnabled: rootconfig.GetEnv(constants.EnvDBSSLMode, "disable") == "require",
		},
	}
}

// overlay replaces every field set in the YAML file
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if len(c.BuildCommand) == 0 {
		return fmt.Errorf("build command is required")
	}
	if _, err := prompt.ParseMode(c.ConfirmMode); err != nil {
		return err
	}
	if c.GraceWindow <= 0 {
		return fmt.Errorf("grace window must be positive, got %s", c.GraceWindow)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive, got %s", c.DefaultTimeout)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.ResetDelay < 0 {
		return fmt.Errorf("reset delay must not be negative, got %s", c.ResetDelay)
	}
	switch c.DB.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DB.Driver)
	}
	return nil
}

// DBOptions converts the database section to connection options
func (c *Config) DBOptions() db.Options {
	ssl := c.DB.SSLEnabled
	return db.Options{
		Driver:     c.DB.Driver,
		SQLitePath: c.DB.Path,
		Host:       c.DB.Host,
		User:       c.DB.User,
		Password:   c.DB.Password,
		DBName:     c.DB.Name,
		Port:       c.DB.Port,
		SSLEnabled: &ssl,
	}
}

// EditorOptions converts the editor settings
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		ProjectDir:   c.ProjectDir,
		BuildCommand: c.BuildCommand,
		TickInterval: c.TickInterval,
		ResetDelay:   c.ResetDelay,
	}
}
