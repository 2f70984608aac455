// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos"
	"github.com/vechain/npos/admin"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/health"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/staking/rewards"
	"github.com/vechain/npos/state"
)

func newTestSimulator(t *testing.T, seed int64, offenceRate float64) *simulator {
	mainDB, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)

	in := &instance{
		dir:     "memory",
		genesis: genesis.NewDevnet(),
		mainDB:  mainDB,
		logDB:   logDB,
		state:   state.New(mainDB),
	}
	t.Cleanup(in.Close)

	sim := &simulator{
		seed:             seed,
		blocksPerSession: 10,
		offenceRate:      offenceRate,
		sessionMillis:    rewards.MillisecondsPerYear / 1460,
		board:            &admin.StatusBoard{},
		health:           health.New(time.Minute),
	}
	require.NoError(t, in.init(in.genesis.Builder(), func() uint64 { return sim.now }))
	require.NoError(t, sim.attach(in))
	return sim
}

func allEvents(t *testing.T, db *logdb.LogDB) []*events.Event {
	evs, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	return evs
}

func countKind(evs []*events.Event, kind events.Kind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestSimulateRotatesEras(t *testing.T) {
	sim := newTestSimulator(t, 1, 0)
	require.NoError(t, sim.run(context.Background(), 12, false))

	active, ok, err := sim.in.network.Staking.ActiveEra()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, npos.EraIndex(4), active.Index)

	session, err := sim.session.Get()
	require.NoError(t, err)
	assert.Equal(t, npos.SessionIndex(12), session)

	status := sim.board.Latest()
	require.NotNil(t, status)
	assert.Equal(t, npos.SessionIndex(12), status.Session)
	assert.Equal(t, npos.EraIndex(4), status.ActiveEra)
	assert.Len(t, status.Validators, 3)
	assert.Positive(t, status.Rewarded.Sign())

	hs := sim.health.Status()
	assert.False(t, hs.Running)
	assert.Equal(t, npos.SessionIndex(12), *hs.SessionIngestion.Session)

	evs := allEvents(t, sim.in.logDB)
	assert.Equal(t, 5, countKind(evs, events.EraActivated))
	assert.Equal(t, 4, countKind(evs, events.EraPaid))
	assert.Positive(t, countKind(evs, events.Rewarded))
	assert.Zero(t, countKind(evs, events.SlashReported))

	era, ok, err := sim.in.logDB.NewestEra()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, npos.EraIndex(4), era)
}

func TestSimulateWithOffences(t *testing.T) {
	sim := newTestSimulator(t, 7, 1)
	require.NoError(t, sim.run(context.Background(), 9, false))

	evs := allEvents(t, sim.in.logDB)
	assert.Positive(t, countKind(evs, events.SlashReported))

	totals, err := sim.in.network.Staking.Totals()
	require.NoError(t, err)
	assert.Positive(t, totals.Slashed.Sign())
}

func TestSimulateIsDeterministic(t *testing.T) {
	a := newTestSimulator(t, 42, 0.5)
	b := newTestSimulator(t, 42, 0.5)

	require.NoError(t, a.run(context.Background(), 8, false))
	// b is interrupted and resumed
	require.NoError(t, b.run(context.Background(), 5, false))
	require.NoError(t, b.run(context.Background(), 3, false))

	assert.Equal(t, allEvents(t, a.in.logDB), allEvents(t, b.in.logDB))

	ta, err := a.in.network.Staking.Totals()
	require.NoError(t, err)
	tb, err := b.in.network.Staking.Totals()
	require.NoError(t, err)
	assert.Equal(t, ta, tb)
}

func TestSimulateCancelled(t *testing.T) {
	sim := newTestSimulator(t, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sim.run(ctx, 5, false), context.Canceled)
	session, err := sim.session.Get()
	require.NoError(t, err)
	assert.Zero(t, session)
}

func newFlagContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestEventFilter(t *testing.T) {
	flags := []cli.Flag{kindFlag, stashFlag, otherFlag, fromEraFlag, toEraFlag, descFlag}

	filter, err := eventFilter(newFlagContext(t, flags))
	require.NoError(t, err)
	assert.Empty(t, filter.CriteriaSet)
	assert.Equal(t, npos.EraIndex(0), filter.Range.From)
	assert.Equal(t, npos.EraIndex(1<<32-1), filter.Range.To)
	assert.Equal(t, logdb.ASC, filter.Order)

	filter, err = eventFilter(newFlagContext(t, flags,
		"--kind", "slashed", "--stash", "validator-1", "--from", "2", "--to", "5", "--desc"))
	require.NoError(t, err)
	require.Len(t, filter.CriteriaSet, 1)
	assert.Equal(t, events.Slashed, *filter.CriteriaSet[0].Kind)
	assert.Equal(t, npos.BytesToAddress([]byte("validator-1")), *filter.CriteriaSet[0].Stash)
	assert.Nil(t, filter.CriteriaSet[0].Other)
	assert.Equal(t, logdb.Range{From: 2, To: 5}, *filter.Range)
	assert.Equal(t, logdb.DESC, filter.Order)

	_, err = eventFilter(newFlagContext(t, flags, "--from", "5", "--to", "2"))
	assert.Error(t, err)
}

func TestSnappyExport(t *testing.T) {
	sim := newTestSimulator(t, 3, 0.5)
	require.NoError(t, sim.run(context.Background(), 6, false))
	evs := allEvents(t, sim.in.logDB)
	require.NotEmpty(t, evs)

	path := filepath.Join(t.TempDir(), "events.snappy")
	require.NoError(t, writeSnappyEvents(path, evs))

	read, err := readSnappyEvents(path)
	require.NoError(t, err)
	require.Len(t, read, len(evs))
	for i := range evs {
		assert.Equal(t, evs[i].String(), read[i].String())
		assert.Equal(t, 0, evs[i].Amount.Cmp(read[i].Amount))
	}
}
