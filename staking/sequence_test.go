// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/balances"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/staking/ledger"
	"github.com/vechain/npos/staking/rewards"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/state"
)

// half a year per era with three sessions
const sessionMillis = rewards.MillisecondsPerYear / 6

var (
	v1       = npos.BytesToAddress([]byte("v1"))
	v2       = npos.BytesToAddress([]byte("v2"))
	alice    = npos.BytesToAddress([]byte("alice"))
	reporter = npos.BytesToAddress([]byte("reporter"))
	treasury = npos.BytesToAddress([]byte("treasury"))
)

func controllerOf(stash npos.Address) npos.Address {
	return npos.BytesToAddress(append([]byte("controller/"), stash[len(stash)-8:]...))
}

func testConfig() npos.Config {
	cfg := npos.DefaultConfig()
	cfg.SessionsPerEra = 3
	cfg.BondingDuration = 3
	cfg.SlashDeferDuration = 2
	cfg.HistoryDepth = 10
	cfg.MinBond = big.NewInt(10)
	cfg.ValidatorCount = 2
	cfg.MaxUnlockingChunks = 4
	return cfg
}

// flakyCurrency fails deposits on demand.
type flakyCurrency struct {
	*balances.Balances
	failDeposit bool
}

func (f *flakyCurrency) Deposit(who npos.Address, amount *big.Int) error {
	if f.failDeposit {
		return errors.New("deposit unavailable")
	}
	return f.Balances.Deposit(who, amount)
}

// StakingTest drives the engine through sessions the way the session module does.
type StakingTest struct {
	*Staking
	t        *testing.T
	currency *flakyCurrency
	session  npos.SessionIndex
	now      uint64
}

func newTest(t *testing.T, cfg npos.Config) *StakingTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	ts := &StakingTest{
		t:        t,
		currency: &flakyCurrency{Balances: balances.New(st, big.NewInt(1))},
		now:      1_000,
	}
	ts.Staking = New(st, cfg, ts.currency, WithClock(func() uint64 { return ts.now }), WithTreasury(treasury))
	return ts
}

// newScenario funds and bonds two validators and a nominator backing both.
func newScenario(t *testing.T, cfg npos.Config) *StakingTest {
	return newTest(t, cfg).
		Fund(v1, 1000).Fund(v2, 1000).Fund(alice, 2000).
		BondValidator(v1, 500, 10).
		BondValidator(v2, 200, 0).
		BondNominator(alice, 1000, v1, v2)
}

func (ts *StakingTest) Fund(who npos.Address, amount int64) *StakingTest {
	require.NoError(ts.t, ts.currency.Balances.Deposit(who, big.NewInt(amount)))
	return ts
}

func (ts *StakingTest) BondValidator(stash npos.Address, value int64, commission uint32) *StakingTest {
	require.NoError(ts.t, ts.Bond(stash, controllerOf(stash), big.NewInt(value), ledger.PayeeStash))
	require.NoError(ts.t, ts.Validate(stash, roles.ValidatorPrefs{Commission: npos.PerbillFromPercent(commission)}))
	return ts
}

func (ts *StakingTest) BondNominator(stash npos.Address, value int64, targets ...npos.Address) *StakingTest {
	require.NoError(ts.t, ts.Bond(stash, controllerOf(stash), big.NewInt(value), ledger.PayeeStaked))
	require.NoError(ts.t, ts.Nominate(stash, targets))
	return ts
}

// Begin starts era 0.
func (ts *StakingTest) Begin() *StakingTest {
	_, err := ts.Start()
	require.NoError(ts.t, err)
	return ts
}

// NextSession ends the current session and starts the next one.
func (ts *StakingTest) NextSession() *StakingTest {
	_, _, err := ts.OnSessionEnd(ts.session)
	require.NoError(ts.t, err)
	ts.session++
	ts.now += sessionMillis
	require.NoError(ts.t, ts.OnNewSession(ts.session))
	return ts
}

// NextEra runs sessions until a new era is active.
func (ts *StakingTest) NextEra() *StakingTest {
	from := ts.Active()
	for range 100 {
		ts.NextSession()
		if ts.Active() > from {
			return ts
		}
	}
	ts.t.Fatalf("era %d never ended", from)
	return ts
}

func (ts *StakingTest) Active() npos.EraIndex {
	active, ok, err := ts.ActiveEra()
	require.NoError(ts.t, err)
	require.True(ts.t, ok)
	return active.Index
}

func (ts *StakingTest) Current() npos.EraIndex {
	era, err := ts.CurrentEra()
	require.NoError(ts.t, err)
	return era
}

func (ts *StakingTest) AssertActiveStake(stash npos.Address, expected int64) *StakingTest {
	l, err := ts.Ledger(stash)
	require.NoError(ts.t, err)
	require.NotNil(ts.t, l, "stash %v not bonded", stash)
	assert.Equal(ts.t, big.NewInt(expected).String(), l.Active.String(), "active stake of %v", stash)
	require.NoError(ts.t, l.Check())
	return ts
}

func (ts *StakingTest) AssertFree(who npos.Address, expected int64) *StakingTest {
	free, err := ts.currency.FreeBalance(who)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, big.NewInt(expected).String(), free.String(), "free balance of %v", who)
	return ts
}

func (ts *StakingTest) AssertRole(stash npos.Address, kind roles.Kind) *StakingTest {
	r, err := ts.Role(stash)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, kind, r.Kind(), "role of %v", stash)
	return ts
}

func (ts *StakingTest) AssertExposure(era npos.EraIndex, validator npos.Address, own int64, others map[npos.Address]int64) *StakingTest {
	exp, err := ts.Exposure(era, validator)
	require.NoError(ts.t, err)
	require.NotNil(ts.t, exp, "%v not exposed in era %d", validator, era)
	assert.Equal(ts.t, big.NewInt(own).String(), exp.Own.String())

	total := own
	got := make(map[npos.Address]int64, len(exp.Others))
	for _, o := range exp.Others {
		got[o.Who] = o.Value.Int64()
		total += o.Value.Int64()
	}
	assert.Equal(ts.t, others, got)
	assert.Equal(ts.t, big.NewInt(total).String(), exp.Total.String())
	return ts
}

// CountEvents drains the pending events and counts those of kind.
func (ts *StakingTest) CountEvents(kind events.Kind) int {
	n := 0
	for _, ev := range ts.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
