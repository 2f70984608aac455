// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "npos")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	commonFlags := []cli.Flag{genesisFlag, dataDirFlag, cacheFlag, verbosityFlag, jsonLogsFlag}
	with := func(flags ...cli.Flag) []cli.Flag {
		return append(append([]cli.Flag{}, commonFlags...), flags...)
	}

	app := cli.App{
		Version:   fullVersion(),
		Name:      "npos",
		Usage:     "Nominated proof of stake engine",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "build the genesis state in the data dir",
				Flags:  commonFlags,
				Action: initAction,
			},
			{
				Name:  "simulate",
				Usage: "drive the engine through simulated sessions, authored blocks and offences",
				Flags: with(
					sessionsFlag,
					blocksPerSessionFlag,
					sessionDurationFlag,
					offenceRateFlag,
					seedFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					noProgressFlag,
				),
				Action: simulateAction,
			},
			{
				Name:  "show",
				Usage: "print the staking state",
				Subcommands: []cli.Command{
					{
						Name:      "era",
						Usage:     "print an era, the active one by default",
						ArgsUsage: "[era]",
						Flags:     with(rawFlag),
						Action:    showEraAction,
					},
					{
						Name:      "stash",
						Usage:     "print the ledger and the role of a stash",
						ArgsUsage: "<stash>",
						Flags:     with(rawFlag),
						Action:    showStashAction,
					},
					{
						Name:   "totals",
						Usage:  "print the staking totals",
						Flags:  with(rawFlag),
						Action: showTotalsAction,
					},
				},
			},
			{
				Name:   "events",
				Usage:  "query the staking events",
				Flags:  with(kindFlag, stashFlag, otherFlag, fromEraFlag, toEraFlag, offsetFlag, limitFlag, descFlag, fileFlag),
				Action: eventsAction,
			},
			{
				Name:   "export",
				Usage:  "export the staking events to a snappy compressed file",
				Flags:  with(kindFlag, stashFlag, otherFlag, fromEraFlag, toEraFlag, descFlag, outFlag),
				Action: exportAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initAction(ctx *cli.Context) error {
	initLogger(ctx)
	in, err := openInstance(ctx, nil)
	if err != nil {
		return err
	}
	defer in.Close()

	id, _, err := genesis.ID(in.state)
	if err != nil {
		return err
	}
	fmt.Printf("instance:   %v\n", in.dir)
	fmt.Printf("genesis:    %v\n", id)
	fmt.Printf("validators: %v\n", len(in.network.Validators))
	for _, v := range in.network.Validators {
		fmt.Printf("  %v\n", v)
	}
	return nil
}
