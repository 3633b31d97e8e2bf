package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/revsplit/api"
	"github.com/bitfsorg/revsplit/config"
	"github.com/bitfsorg/revsplit/distribution"
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/revshare"
)

var (
	initCommand = &cli.Command{
		Name:      "init",
		Usage:     "Create the data directory, config file and state with an owner",
		ArgsUsage: " ",
		Flags:     []cli.Flag{ownerFlag},
		Action:    initAction,
	}
	addCommand = &cli.Command{
		Name:      "add",
		Usage:     "Add a recipient, or raise an existing recipient's share",
		ArgsUsage: "<address|paymail|pubkey> <share>",
		Flags:     []cli.Flag{callerFlag},
		Action:    addAction,
	}
	removeCommand = &cli.Command{
		Name:      "remove",
		Usage:     "Remove a recipient",
		ArgsUsage: "<address|paymail|pubkey>",
		Flags:     []cli.Flag{callerFlag},
		Action:    removeAction,
	}
	distributeCommand = &cli.Command{
		Name:      "distribute",
		Usage:     "Pay out an asset's balance to all recipients",
		ArgsUsage: " ",
		Flags:     []cli.Flag{callerFlag, assetFlag},
		Action:    distributeAction,
	}
	transferOwnerCommand = &cli.Command{
		Name:      "transfer-owner",
		Usage:     "Hand control of the split to another address",
		ArgsUsage: "<address|paymail|pubkey>",
		Flags:     []cli.Flag{callerFlag},
		Action:    transferOwnerAction,
	}
	showCommand = &cli.Command{
		Name:      "show",
		Usage:     "Print recipients, shares and payout totals",
		ArgsUsage: " ",
		Action:    showAction,
	}
	serveCommand = &cli.Command{
		Name:      "serve",
		Usage:     "Serve the read-only query API",
		ArgsUsage: " ",
		Flags:     []cli.Flag{listenFlag, originsFlag},
		Action:    serveAction,
	}
	versionCommand = &cli.Command{
		Name:      "version",
		Usage:     "Print version numbers",
		ArgsUsage: " ",
		Action:    versionAction,
	}
)

func initAction(c *cli.Context) error {
	path := configPath(c)
	cfg, err := config.LoadConfig(path)
	created := errors.Is(err, config.ErrConfigNotFound)
	if err != nil && !created {
		return err
	}
	if c.IsSet(dataDirFlag.Name) {
		cfg.DataDir = c.String(dataDirFlag.Name)
	}
	if o := c.String(ownerFlag.Name); o != "" {
		owner, err := newResolver(cfg).Resolve(o)
		if err != nil {
			return err
		}
		cfg.Owner = owner.String()
	}
	if cfg.Owner == "" {
		return fmt.Errorf("%w: pass --owner", config.ErrInvalidOwner)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}

	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.engine.Persist(); err != nil {
		return err
	}
	if created {
		log.Info("created config", "path", path)
	}
	fmt.Printf("Initialized %s (owner %s)\n", e.cfg.DataDir, e.engine.Owner())
	return nil
}

func addAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: add %s", c.Command.ArgsUsage)
	}
	share, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", revshare.ErrInvalidShare, c.Args().Get(1))
	}
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	caller, err := e.caller(c)
	if err != nil {
		return err
	}
	id, err := e.resolver.Resolve(c.Args().Get(0))
	if err != nil {
		return err
	}
	added, err := e.engine.AddRecipient(c.Context, caller, id, share)
	if err != nil {
		return err
	}
	verb := "Raised"
	if added {
		verb = "Added"
	}
	fmt.Printf("%s %s to %d shares (%d/%d allocated)\n",
		verb, id, e.engine.ShareOf(id), e.engine.TotalShares(), revshare.MaxShares)
	return nil
}

func removeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: remove %s", c.Command.ArgsUsage)
	}
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	caller, err := e.caller(c)
	if err != nil {
		return err
	}
	id, err := e.resolver.Resolve(c.Args().Get(0))
	if err != nil {
		return err
	}
	if err := e.engine.RemoveRecipient(c.Context, caller, id); err != nil {
		return err
	}
	fmt.Printf("Removed %s (%d/%d allocated)\n", id, e.engine.TotalShares(), revshare.MaxShares)
	return nil
}

func distributeAction(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	caller, err := e.caller(c)
	if err != nil {
		return err
	}
	round, err := e.engine.Distribute(c.Context, caller, ledger.AssetID(c.String(assetFlag.Name)))
	if round != nil {
		printRound(round)
	}
	return err
}

func printRound(r *distribution.Round) {
	if len(r.Payments) == 0 {
		fmt.Printf("Nothing due for %s (balance %d)\n", r.Asset, r.Balance)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RECIPIENT\tAMOUNT")
	for _, p := range r.Payments {
		fmt.Fprintf(w, "%s\t%d\n", p.To, p.Amount)
	}
	w.Flush()
	fmt.Printf("Paid %d of %d %s", r.Total, r.Balance, r.Asset)
	if r.Ref != "" {
		fmt.Printf(" in %s", r.Ref)
	}
	fmt.Println()
}

func transferOwnerAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: transfer-owner %s", c.Command.ArgsUsage)
	}
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	caller, err := e.caller(c)
	if err != nil {
		return err
	}
	next, err := e.resolver.Resolve(c.Args().Get(0))
	if err != nil {
		return err
	}
	if err := e.engine.TransferOwnership(c.Context, caller, next); err != nil {
		return err
	}
	fmt.Printf("Ownership transferred to %s\n", next)
	return nil
}

func showAction(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Printf("Owner:  %s\n", e.engine.Owner())
	fmt.Printf("Shares: %d/%d\n\n", e.engine.TotalShares(), revshare.MaxShares)

	assets := e.engine.Assets()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "RECIPIENT\tSHARE")
	for _, a := range assets {
		fmt.Fprintf(w, "\tRELEASED(%s)", a)
	}
	fmt.Fprintln(w)
	for _, r := range e.engine.Recipients() {
		fmt.Fprintf(w, "%s\t%d", r.Address, r.Share)
		for _, a := range assets {
			fmt.Fprintf(w, "\t%d", e.engine.Released(a, r.Address))
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	for _, a := range assets {
		bal, err := e.engine.AssetBalance(c.Context, a)
		if err != nil {
			log.Warn("balance unavailable", "asset", a, "err", err)
			continue
		}
		fmt.Printf("\n%s: balance %d, released %d", a, bal, e.engine.TotalReleasedFor(a))
	}
	if len(assets) > 0 {
		fmt.Println()
	}
	return nil
}

func serveAction(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	addr := e.cfg.ListenAddr
	if l := c.String(listenFlag.Name); l != "" {
		addr = l
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.Serve(ctx, api.NewServer(addr, e.engine, c.StringSlice(originsFlag.Name)))
}

func versionAction(*cli.Context) error {
	fmt.Println(clientIdentifier)
	if gitCommit != "" {
		fmt.Println("Git Commit:", gitCommit)
	}
	if gitDate != "" {
		fmt.Println("Git Commit Date:", gitDate)
	}
	fmt.Println("Architecture:", runtime.GOARCH)
	fmt.Println("Go Version:", runtime.Version())
	fmt.Println("Operating System:", runtime.GOOS)
	return nil
}
