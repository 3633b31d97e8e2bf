// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bitfsorg/revsplit/revshare"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig returns the first invalid setting in cfg, or nil.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.Owner != "" {
		if _, err := revshare.ParseAddress(cfg.Owner); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOwner, err)
		}
	}

	if cfg.Native.Enabled {
		if cfg.Native.PoolWIF == "" || cfg.Native.FeeWIF == "" {
			return fmt.Errorf("%w: pool_wif and fee_wif are required", ErrInvalidNative)
		}
		if cfg.Native.PoolWIF == cfg.Native.FeeWIF {
			return fmt.Errorf("%w: pool and fee keys must differ", ErrInvalidNative)
		}
		if cfg.Native.DustLimit == 0 {
			return fmt.Errorf("%w: dust_limit must be positive", ErrInvalidNative)
		}
	}

	return nil
}
