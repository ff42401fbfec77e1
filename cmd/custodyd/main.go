package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iov-one/custody"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/urfave/cli"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func newApp(w, e io.Writer) *cli.App {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".custodyd")

	app := cli.NewApp()
	app.Name = "custodyd"
	app.Usage = "escrow swaps and stake locks on a local ledger"
	app.Version = custody.Version()
	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "home",
			Value: defaultHome,
			Usage: "directory to store files under `DIR`",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log `LEVEL` [debug|info|error|none]",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "derive",
			Usage: "print derived program addresses and their bump",
			Subcommands: []cli.Command{
				{
					Name:   "escrow",
					Usage:  "escrow record of a maker and seed",
					Flags:  []cli.Flag{addressFlag("maker"), cli.Uint64Flag{Name: "seed", Usage: "escrow `SEED`"}},
					Action: runDeriveEscrow,
				},
				{
					Name:   "stake",
					Usage:  "stake record of an asset",
					Flags:  []cli.Flag{addressFlag("mint")},
					Action: runDeriveStake,
				},
				{
					Name:   "user",
					Usage:  "user account of an owner",
					Flags:  []cli.Flag{addressFlag("owner")},
					Action: runDeriveUser,
				},
				{
					Name:   "config",
					Usage:  "staking configuration",
					Action: runDeriveConfig,
				},
				{
					Name:   "ata",
					Usage:  "associated token account of an owner for a mint",
					Flags:  []cli.Flag{addressFlag("owner"), addressFlag("mint")},
					Action: runDeriveATA,
				},
				{
					Name:   "metadata",
					Usage:  "metadata of a mint",
					Flags:  []cli.Flag{addressFlag("mint")},
					Action: runDeriveMetadata,
				},
				{
					Name:   "edition",
					Usage:  "master edition of a mint",
					Flags:  []cli.Flag{addressFlag("mint")},
					Action: runDeriveEdition,
				},
			},
		},
		{
			Name:   "keygen",
			Usage:  "generate a key, print its seed and address",
			Action: runKeygen,
		},
		{
			Name:  "init",
			Usage: "load a genesis file into a new store",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "genesis, g",
					Usage: "genesis `FILE`",
				},
			},
			Action: runInit,
		},
		{
			Name:      "sign",
			Usage:     "sign a JSON transaction with the next sequence of the key",
			ArgsUsage: "TX_FILE",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "key, k",
					Usage: "hex encoded key `SEED`",
				},
			},
			Action: runSign,
		},
		{
			Name:      "apply",
			Usage:     "deliver JSON transactions as one block and commit it",
			ArgsUsage: "TX_FILE...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "time, t",
					Usage: "block `TIME` in RFC3339, defaults to now",
				},
			},
			Action: runApply,
		},
	}
	return app
}

func addressFlag(name string) cli.Flag {
	return cli.StringFlag{
		Name:  name,
		Usage: name + " `ADDRESS` in base58 or hex: prefixed",
	}
}

func newLogger(c *cli.Context) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(c.App.ErrWriter)).With("module", "custodyd")
	opt, err := log.AllowLevel(c.GlobalString("log-level"))
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt), nil
}

func dbPath(c *cli.Context) string {
	return filepath.Join(c.GlobalString("home"), "data", "custody")
}
