package network

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a single RPC round trip.
const DefaultTimeout = 30 * time.Second

// RPCConfig holds the connection parameters for a node's JSON-RPC interface.
type RPCConfig struct {
	URL      string
	User     string
	Password string
	Timeout  time.Duration
}

// NetworkPresets holds local-node defaults for non-production networks.
// Mainnet has no preset and must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "revsplit", Password: "revsplit"},
	"testnet": {URL: "http://localhost:18333", User: "revsplit", Password: "revsplit"},
}

// ResolveConfig fills fields left empty in cfg from the preset for network.
// It fails when no URL is available, which is always the case for an
// unconfigured mainnet.
func ResolveConfig(cfg RPCConfig, network string) (RPCConfig, error) {
	if preset, ok := NetworkPresets[network]; ok {
		if cfg.URL == "" {
			cfg.URL = preset.URL
		}
		if cfg.User == "" {
			cfg.User = preset.User
		}
		if cfg.Password == "" {
			cfg.Password = preset.Password
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.URL == "" {
		return cfg, fmt.Errorf("%w: %s requires an explicit RPC URL", ErrRPCConfig, network)
	}
	return cfg, nil
}
