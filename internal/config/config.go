// Package config provides configuration management for brewbar.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/fileutil"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Registry RegistryConfig `yaml:"registry"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig defines how the wallet provider is reached.
type ProviderConfig struct {
	URL            string  `yaml:"url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"` // 0 waits as long as the wallet does
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	RetryReads     bool    `yaml:"retry_reads"`
}

// StoreConfig defines the storefront's on-chain addresses.
type StoreConfig struct {
	CafeAddress    string `yaml:"cafe_address"`
	FactoryAddress string `yaml:"factory_address"`
	ChainID        int64  `yaml:"chain_id"` // 0 asks the provider
}

// RegistryConfig defines registry probing behavior.
type RegistryConfig struct {
	MaxProbe         int  `yaml:"max_probe"`
	StrictProbe      bool `yaml:"strict_probe"`
	PollIntervalMs   int  `yaml:"poll_interval_ms"`
	ReadConcurrency  int  `yaml:"read_concurrency"`
	ConfirmTimeoutMs int  `yaml:"confirm_timeout_ms"` // 0 waits until the receipt arrives
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
	QR            bool   `yaml:"qr"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, brewerr.WithDetails(brewerr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, brewerr.WithCause(
			brewerr.WithDetails(brewerr.ErrConfigInvalid, map[string]string{"path": path}), err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file atomically with mode 0600.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Validate checks addresses and numeric settings.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
	}{
		{"store.cafe_address", c.Store.CafeAddress},
		{"store.factory_address", c.Store.FactoryAddress},
	}
	for _, chk := range checks {
		if err := chain.ValidateAddress(chk.value); err != nil {
			return brewerr.WithDetails(brewerr.ErrConfigInvalid, map[string]string{
				"field": chk.field,
				"value": chk.value,
			})
		}
	}

	switch {
	case c.Registry.MaxProbe < 1, c.Registry.MaxProbe > DefaultMaxProbe:
		return brewerr.WithDetails(brewerr.ErrConfigInvalid, map[string]string{"field": "registry.max_probe"})
	case c.Provider.TimeoutSeconds < 0:
		return brewerr.WithDetails(brewerr.ErrConfigInvalid, map[string]string{"field": "provider.timeout_seconds"})
	case c.Registry.PollIntervalMs < 0:
		return brewerr.WithDetails(brewerr.ErrConfigInvalid, map[string]string{"field": "registry.poll_interval_ms"})
	}
	return nil
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the brewbar home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetProviderURL returns the wallet provider endpoint.
func (c *Config) GetProviderURL() string {
	return c.Provider.URL
}

// GetCafeAddress returns the address purchases are paid to.
func (c *Config) GetCafeAddress() string {
	return c.Store.CafeAddress
}

// GetFactoryAddress returns the StorageFactory registry address.
func (c *Config) GetFactoryAddress() string {
	return c.Store.FactoryAddress
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default brewbar home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brewbar"
	}
	return filepath.Join(home, ".brewbar")
}

// ExpandHome expands a leading "~/" to the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
