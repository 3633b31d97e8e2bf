// Command revsplit operates a proportional revenue splitter.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v2"
)

var (
	clientIdentifier = "revsplit"
	// Set via linker flags.
	gitCommit = ""
	gitDate   = ""
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Usage = "split incoming funds among registered recipients by share"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		dataDirFlag,
		configFileFlag,
		logLevelFlag,
		jsonFormatFlag,
	}
	app.Commands = []*cli.Command{
		initCommand,
		addCommand,
		removeCommand,
		distributeCommand,
		transferOwnerCommand,
		showCommand,
		serveCommand,
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
