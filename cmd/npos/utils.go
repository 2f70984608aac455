// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/staking"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/state"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".npos")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name))))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	name := ctx.String(genesisFlag.Name)
	if name == "" || name == "devnet" {
		return genesis.NewDevnet(), nil
	}
	return genesis.Load(name)
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	id, err := gene.Builder().ComputeID()
	if err != nil {
		return "", err
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", id.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, instanceDir string) (*lvldb.LevelDB, error) {
	path := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              ctx.Int(cacheFlag.Name),
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

func openLogDB(instanceDir string) (*logdb.LogDB, error) {
	path := filepath.Join(instanceDir, "events.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", path)
	}
	return db, nil
}

// instance is the engine over the databases of a data dir.
type instance struct {
	dir     string
	genesis *genesis.Genesis
	mainDB  *lvldb.LevelDB
	logDB   *logdb.LogDB
	state   *state.State
	network *genesis.Network
}

func (in *instance) Close() {
	logger.Info("closing log database...")
	if err := in.logDB.Close(); err != nil {
		logger.Warn("failed to close log database", "err", err)
	}
	logger.Info("closing main database...")
	if err := in.mainDB.Close(); err != nil {
		logger.Warn("failed to close main database", "err", err)
	}
}

// openInstance opens the data dir of the selected genesis, building the genesis on first use.
func openInstance(ctx *cli.Context, clock func() uint64) (*instance, error) {
	gene, err := selectGenesis(ctx)
	if err != nil {
		return nil, err
	}
	dir, err := makeInstanceDir(ctx, gene)
	if err != nil {
		return nil, err
	}
	mainDB, err := openMainDB(ctx, dir)
	if err != nil {
		return nil, err
	}
	logDB, err := openLogDB(dir)
	if err != nil {
		mainDB.Close()
		return nil, err
	}
	in := &instance{dir: dir, genesis: gene, mainDB: mainDB, logDB: logDB, state: state.New(mainDB)}

	if err := in.init(gene.Builder(), clock); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

func (in *instance) init(builder *genesis.Builder, clock func() uint64) error {
	_, ok, err := genesis.ID(in.state)
	if err != nil {
		return err
	}
	if !ok {
		built, err := builder.Build(in.state)
		if err != nil {
			return errors.Wrap(err, "build genesis")
		}
		if err := writeEvents(in.logDB, built.Staking.Events()); err != nil {
			return errors.Wrap(err, "write genesis events")
		}
	}

	var opts []staking.Option
	if clock != nil {
		opts = append(opts, staking.WithClock(clock))
	}
	in.network, err = builder.Open(in.state, opts...)
	return err
}

func writeEvents(db *logdb.LogDB, evs []*events.Event) error {
	w := db.NewWriter()
	if err := w.Write(evs); err != nil {
		_ = w.Rollback()
		return err
	}
	return w.Commit()
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
