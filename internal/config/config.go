// Package config handles configuration loading and validation for imekbd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"imekbd/internal/ime"
	"imekbd/internal/logging"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Listen is the HTTP address serving the /ime and /events endpoints.
	Listen string `toml:"listen" json:"listen" yaml:"listen"`

	// IPCSocket is the control socket path; empty uses the runtime dir.
	IPCSocket string `toml:"ipc_socket" json:"ipc_socket" yaml:"ipc_socket"`

	// EnableDBus exports the session-bus frontend.
	EnableDBus bool `toml:"enable_dbus" json:"enable_dbus" yaml:"enable_dbus"`

	// JournalPath enables the SQLite commit journal when non-empty.
	JournalPath string `toml:"journal_path" json:"journal_path" yaml:"journal_path"`

	// Reset configures the idle debounce timers.
	Reset ResetConfig `toml:"reset" json:"reset" yaml:"reset"`

	// Logging configures log output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// ResetConfig holds the idle timer delays in milliseconds.
type ResetConfig struct {
	// KeysMS clears a session's allocated key slots after this idle window.
	KeysMS int `toml:"keys_ms" json:"keys_ms" yaml:"keys_ms"`

	// FocusMS restores the default keyboard this long after a commit.
	FocusMS int `toml:"focus_ms" json:"focus_ms" yaml:"focus_ms"`
}

// LoggingConfig mirrors logging.Config in serializable form.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
	Output string `toml:"output" json:"output" yaml:"output"`
}

// Default returns the daemon defaults.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:9523",
		Reset: ResetConfig{
			KeysMS:  int(ime.DefaultResetDelay / time.Millisecond),
			FocusMS: int(ime.DefaultResetDelay / time.Millisecond),
		},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
	}
}

// KeyResetDelay returns the key reset debounce as a duration.
func (c *Config) KeyResetDelay() time.Duration {
	return time.Duration(c.Reset.KeysMS) * time.Millisecond
}

// FocusResetDelay returns the focus reset debounce as a duration.
func (c *Config) FocusResetDelay() time.Duration {
	return time.Duration(c.Reset.FocusMS) * time.Millisecond
}

// LoggingConfig converts the logging section for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is required")
	}
	if c.Reset.KeysMS <= 0 {
		return errors.New("config: reset.keys_ms must be positive")
	}
	if c.Reset.FocusMS <= 0 {
		return errors.New("config: reset.focus_ms must be positive")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// ApplyEnvOverrides lets the environment override file settings, which keeps
// container deployments away from config files entirely.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("IMEKBD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("IMEKBD_IPC_SOCKET"); v != "" {
		c.IPCSocket = v
	}
	if v := os.Getenv("IMEKBD_JOURNAL"); v != "" {
		c.JournalPath = v
	}
	if v := os.Getenv("IMEKBD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Load reads path (TOML by default, YAML by extension), applies environment
// overrides and validates. An empty path returns the defaults, validated the
// same way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
