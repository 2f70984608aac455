// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos/log"
)

var (
	genesisFlag = cli.StringFlag{
		Name:   "genesis",
		Value:  "devnet",
		Usage:  "the built-in devnet or the path to a yaml genesis file",
		EnvVar: "NPOS_GENESIS",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		Usage:  "directory for the staking state and event databases",
		EnvVar: "NPOS_DATA_DIR",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "megabytes of ram allocated to the state database cache",
		Value: 64,
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	sessionsFlag = cli.Uint64Flag{
		Name:  "sessions",
		Value: 30,
		Usage: "number of sessions to simulate",
	}
	blocksPerSessionFlag = cli.Uint64Flag{
		Name:  "blocks-per-session",
		Value: 60,
		Usage: "blocks authored in one session",
	}
	sessionDurationFlag = cli.DurationFlag{
		Name:  "session-duration",
		Value: 0,
		Usage: "simulated session length, defaults to a year divided by 1460",
	}
	offenceRateFlag = cli.Float64Flag{
		Name:  "offence-rate",
		Value: 0.05,
		Usage: "probability that a session carries an offence report",
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed of the simulation",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	noProgressFlag = cli.BoolFlag{
		Name:  "no-progress",
		Usage: "hide the progress bar",
	}

	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "dump the raw records",
	}
	kindFlag = cli.StringFlag{
		Name:  "kind",
		Usage: "only events of this kind",
	}
	stashFlag = cli.StringFlag{
		Name:  "stash",
		Usage: "only events about this stash",
	}
	otherFlag = cli.StringFlag{
		Name:  "other",
		Usage: "only events with this counterpart",
	}
	fromEraFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "first era",
	}
	toEraFlag = cli.Int64Flag{
		Name:  "to",
		Value: -1,
		Usage: "last era, open ended when negative",
	}
	offsetFlag = cli.Uint64Flag{
		Name:  "offset",
		Usage: "events to skip",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 100,
		Usage: "max number of events",
	}
	descFlag = cli.BoolFlag{
		Name:  "desc",
		Usage: "newest events first",
	}
	fileFlag = cli.StringFlag{
		Name:  "file",
		Usage: "read the events from an export file instead of the data dir",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Value: "events.snappy",
		Usage: "output file",
	}
)
