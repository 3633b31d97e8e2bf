package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revsplit/asset"
	"github.com/bitfsorg/revsplit/auth"
	"github.com/bitfsorg/revsplit/config"
	"github.com/bitfsorg/revsplit/distribution"
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/network"
	"github.com/bitfsorg/revsplit/paymail"
	"github.com/bitfsorg/revsplit/revshare"
	"github.com/bitfsorg/revsplit/store"
)

const resolveTimeout = 15 * time.Second

// env bundles everything a command needs once config is loaded.
type env struct {
	cfg      config.Config
	store    store.Store
	engine   *distribution.Engine
	resolver *paymail.Resolver
	logFile  *os.File
}

func dataDir(c *cli.Context) string {
	if dir := c.String(dataDirFlag.Name); dir != "" {
		return dir
	}
	return config.DefaultDataDir()
}

func configPath(c *cli.Context) string {
	if p := c.String(configFileFlag.Name); p != "" {
		return p
	}
	return config.ConfigPath(dataDir(c))
}

// loadConfig reads the config, applies command-line overrides and sets up
// logging.
func loadConfig(c *cli.Context) (config.Config, *os.File, error) {
	cfg, err := config.Load(configPath(c))
	if err != nil {
		return cfg, nil, err
	}
	if c.IsSet(dataDirFlag.Name) {
		cfg.DataDir = c.String(dataDirFlag.Name)
	}
	if lvl := c.String(logLevelFlag.Name); lvl != "" {
		cfg.LogLevel = lvl
	}
	if c.Bool(jsonFormatFlag.Name) {
		cfg.LogJSON = true
	}

	var logFile *os.File
	out := os.Stderr
	if cfg.LogFile != "" {
		if logFile, err = log.OpenFile(cfg.LogFile); err != nil {
			return cfg, nil, err
		}
		out = logFile
	}
	if err := log.SetLogger(cfg.LogLevel, cfg.LogJSON, out); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return cfg, nil, err
	}
	return cfg, logFile, nil
}

func newResolver(cfg config.Config) *paymail.Resolver {
	var dns paymail.DNSResolver
	if cfg.DNSUpstream != "" {
		dns = paymail.NewDNSSECResolver(cfg.DNSUpstream)
	}
	return paymail.NewResolver(dns, resolveTimeout)
}

// openEnv loads config, opens the state store and builds the engine with
// every configured gateway.
func openEnv(c *cli.Context) (*env, error) {
	cfg, logFile, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, resolver: newResolver(cfg), logFile: logFile}

	owner, err := e.ownerAddress()
	if err != nil {
		e.Close()
		return nil, err
	}

	st, err := store.OpenBoltStore(config.StatePath(cfg.DataDir))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = st

	opts := []distribution.Option{distribution.WithNotifier(distribution.LogNotifier{})}
	if cfg.Native.Enabled {
		gw, err := nativeGateway(cfg)
		if err != nil {
			e.Close()
			return nil, err
		}
		log.Info("native gateway enabled", "pool", gw.PoolAddress(), "fee", gw.FeeAddress())
		opts = append(opts, distribution.WithGateway(ledger.NativeAsset, gw))
	}

	var guard auth.Guard
	if owner.IsZero() {
		// Open replaces this with the stored owner, if any.
		guard = &auth.OwnerGuard{}
	} else if guard, err = auth.NewOwnerGuard(owner); err != nil {
		e.Close()
		return nil, err
	}

	e.engine, err = distribution.Open(st, guard, opts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Close releases the store and log file.
func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Warn("close store failed", "err", err)
		}
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

func (e *env) ownerAddress() (revshare.Address, error) {
	if e.cfg.Owner == "" {
		return revshare.Address{}, nil
	}
	a, err := revshare.ParseAddress(e.cfg.Owner)
	if err != nil {
		return a, fmt.Errorf("%w: %w", config.ErrInvalidOwner, err)
	}
	return a, nil
}

// caller resolves --as, falling back to the configured owner. After a
// transfer-owner the new owner must pass --as until the config is updated.
func (e *env) caller(c *cli.Context) (revshare.Address, error) {
	if who := c.String(callerFlag.Name); who != "" {
		return e.resolver.Resolve(who)
	}
	owner, err := e.ownerAddress()
	if err != nil {
		return owner, err
	}
	if owner.IsZero() {
		return owner, errors.New("no owner configured; run init or pass --as")
	}
	return owner, nil
}

func nativeGateway(cfg config.Config) (*asset.NativeGateway, error) {
	poolKey, err := ec.PrivateKeyFromWif(cfg.Native.PoolWIF)
	if err != nil {
		return nil, fmt.Errorf("%w: pool key: %w", config.ErrInvalidNative, err)
	}
	feeKey, err := ec.PrivateKeyFromWif(cfg.Native.FeeWIF)
	if err != nil {
		return nil, fmt.Errorf("%w: fee key: %w", config.ErrInvalidNative, err)
	}

	rpcCfg, err := network.ResolveConfig(network.RPCConfig{
		URL:      cfg.RPC.URL,
		User:     cfg.RPC.User,
		Password: cfg.RPC.Password,
		Timeout:  time.Duration(cfg.RPC.TimeoutSeconds) * time.Second,
	}, cfg.Network)
	if err != nil {
		return nil, err
	}

	return asset.NewNativeGateway(network.NewRPCClient(rpcCfg), asset.NativeConfig{
		PoolKey:   poolKey,
		FeeKey:    feeKey,
		Mainnet:   cfg.Network == "mainnet",
		FeeRate:   cfg.Native.FeeRate,
		DustLimit: cfg.Native.DustLimit,
	})
}
