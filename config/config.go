// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads revsplit settings from a TOML file with
// REVSPLIT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REVSPLIT_"

// Config holds every revsplit setting.
type Config struct {
	DataDir    string `toml:"data_dir" env:"DATA_DIR"`
	ListenAddr string `toml:"listen_addr" env:"LISTEN_ADDR"`
	Network    string `toml:"network" env:"NETWORK"`
	LogLevel   string `toml:"log_level" env:"LOG_LEVEL"`
	LogFile    string `toml:"log_file" env:"LOG_FILE"`
	LogJSON    bool   `toml:"log_json" env:"LOG_JSON"`

	// Owner is the operator address allowed to change the split.
	Owner string `toml:"owner" env:"OWNER"`

	// DNSUpstream is the validating resolver used for paymail SRV lookups.
	DNSUpstream string `toml:"dns_upstream" env:"DNS_UPSTREAM"`

	RPC    RPCConfig    `toml:"rpc" envPrefix:"RPC_"`
	Native NativeConfig `toml:"native" envPrefix:"NATIVE_"`
}

// RPCConfig holds node connection settings. Empty fields fall back to the
// network preset.
type RPCConfig struct {
	URL            string `toml:"url" env:"URL"`
	User           string `toml:"user" env:"USER"`
	Password       string `toml:"password" env:"PASSWORD"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// NativeConfig enables BSV payouts from a pool address.
type NativeConfig struct {
	Enabled   bool   `toml:"enabled" env:"ENABLED"`
	PoolWIF   string `toml:"pool_wif" env:"POOL_WIF"`
	FeeWIF    string `toml:"fee_wif" env:"FEE_WIF"`
	FeeRate   uint64 `toml:"fee_rate" env:"FEE_RATE"`
	DustLimit uint64 `toml:"dust_limit" env:"DUST_LIMIT"`
}

// DefaultDataDir returns ~/.revsplit, or .revsplit if the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".revsplit"
	}
	return filepath.Join(home, ".revsplit")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		ListenAddr: "127.0.0.1:8080",
		Network:    "mainnet",
		LogLevel:   "info",
		Native: NativeConfig{
			FeeRate:   1,
			DustLimit: 1,
		},
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// StatePath returns the state database location inside dataDir.
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "state.db")
}

// LoadConfig reads path over the defaults. Keys absent from the file keep
// their default values; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any REVSPLIT_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnv, err)
	}
	return nil
}

// Load reads the config file at path (defaults if it does not exist),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories. The
// file may hold keys, so it is written 0600.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("config: encode: %w", err)
	}
	return f.Close()
}
