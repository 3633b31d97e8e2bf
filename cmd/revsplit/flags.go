package main

import (
	"github.com/urfave/cli/v2"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:    "datadir",
		Aliases: []string{"d"},
		Usage:   "data directory holding config.toml and state.db (default ~/.revsplit)",
		EnvVars: []string{"REVSPLIT_DATA_DIR"},
	}
	configFileFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "config file (default <datadir>/config.toml)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error); overrides the config file",
	}
	jsonFormatFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output log in json format",
	}

	callerFlag = &cli.StringFlag{
		Name:  "as",
		Usage: "caller address or paymail (default: configured owner)",
	}
	assetFlag = &cli.StringFlag{
		Name:  "asset",
		Usage: "asset to distribute",
		Value: "native",
	}
	ownerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "owner address or paymail",
	}
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "query API listen address; overrides the config file",
	}
	originsFlag = &cli.StringSliceFlag{
		Name:  "cors-origin",
		Usage: "allowed CORS origin (repeatable)",
	}
)
