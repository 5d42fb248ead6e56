package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/switchyard/xtime"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server Server

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// StrictChains makes malformed route chains panic instead of degrading
	// gracefully. Useful during development.
	StrictChains sql.Null[bool] `json:"strict_chains"`
	// AdminNetworks are the IP addresses allowed to access the admin
	// dashboard, in plain, CIDR or range notation. If empty, any address is
	// allowed.
	AdminNetworks []string `json:"admin_networks"`
	// ShutdownTimeout is the maximum amount of time to wait for active
	// requests to finish when the server is stopped.
	// It serializes from/to xtime.Duration string values.
	ShutdownTimeout sql.Null[time.Duration] `json:"shutdown_timeout"`
}

type cfgWrapper struct {
	Server srvCfgWrapper `json:"server"`
}
type srvCfgWrapper struct {
	Address         string   `json:"address,omitempty"`
	StrictChains    *bool    `json:"strict_chains,omitempty"`
	AdminNetworks   []string `json:"admin_networks,omitempty"`
	ShutdownTimeout string   `json:"shutdown_timeout,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Server.Address.Valid {
		w.Server.Address = c.Server.Address.V
	}
	if c.Server.StrictChains.Valid {
		strict := c.Server.StrictChains.V
		w.Server.StrictChains = &strict
	}
	w.Server.AdminNetworks = c.Server.AdminNetworks
	if c.Server.ShutdownTimeout.Valid {
		w.Server.ShutdownTimeout = xtime.FormatDuration(c.Server.ShutdownTimeout.V, time.Second)
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Server.Address != "" {
		c.Server.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}
	if w.Server.StrictChains != nil {
		c.Server.StrictChains = sql.Null[bool]{V: *w.Server.StrictChains, Valid: true}
	}
	c.Server.AdminNetworks = w.Server.AdminNetworks
	if w.Server.ShutdownTimeout != "" {
		dur, err := xtime.ParseDuration(w.Server.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("failed parsing server shutdown timeout: %w", err)
		}
		if dur < 0 {
			return fmt.Errorf("server shutdown timeout must not be negative: %s", w.Server.ShutdownTimeout)
		}
		c.Server.ShutdownTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: ":3000", Valid: true}
	}
	if !c.Server.StrictChains.Valid {
		c.Server.StrictChains = sql.Null[bool]{V: false, Valid: true}
	}
	if !c.Server.ShutdownTimeout.Valid {
		c.Server.ShutdownTimeout = sql.Null[time.Duration]{V: 10 * time.Second, Valid: true}
	}
}
