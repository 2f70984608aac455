// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/reverts"
)

var stash = npos.BytesToAddress([]byte("stash"))

func TestLedgerUnbondMergesChunksOfSameEra(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))

	v, err := l.Unbond(big.NewInt(100), 30, 32, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(100), v.Int64())

	_, err = l.Unbond(big.NewInt(50), 30, 32, big.NewInt(1))
	require.NoError(t, err)
	_, err = l.Unbond(big.NewInt(25), 31, 32, big.NewInt(1))
	require.NoError(t, err)

	require.Len(t, l.Unlocking, 2)
	assert.Equal(t, int64(150), l.Unlocking[0].Value.Int64())
	assert.Equal(t, int64(825), l.Active.Int64())
	assert.Equal(t, int64(1000), l.Total.Int64())
	assert.NoError(t, l.Check())
}

func TestLedgerUnbondClampsAndSweepsDust(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))

	// remaining 5 would be below the minimum bond of 10
	v, err := l.Unbond(big.NewInt(995), 3, 32, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())
	assert.Equal(t, 0, l.Active.Sign())

	v, err = l.Unbond(big.NewInt(1), 4, 32, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())
	assert.Len(t, l.Unlocking, 1)
}

func TestLedgerTooManyChunks(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))
	for era := npos.EraIndex(1); era <= 4; era++ {
		_, err := l.Unbond(big.NewInt(1), era, 4, big.NewInt(1))
		require.NoError(t, err)
	}
	before := l.Clone()
	_, err := l.Unbond(big.NewInt(1), 5, 4, big.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrTooManyUnlockChunks)
	assert.Equal(t, before, l, "a rejected unbond leaves the ledger untouched")
}

func TestLedgerConsolidateUnlocked(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))
	_, _ = l.Unbond(big.NewInt(100), 28, 32, big.NewInt(1))
	_, _ = l.Unbond(big.NewInt(200), 29, 32, big.NewInt(1))

	assert.Equal(t, 0, l.ConsolidateUnlocked(27).Sign(), "nothing is withdrawable before the unlock era")
	assert.Equal(t, int64(100), l.ConsolidateUnlocked(28).Int64())
	assert.Equal(t, int64(900), l.Total.Int64())
	assert.Equal(t, int64(200), l.ConsolidateUnlocked(40).Int64())
	assert.Empty(t, l.Unlocking)
	assert.NoError(t, l.Check())
}

func TestLedgerRebond(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))
	_, _ = l.Unbond(big.NewInt(100), 28, 32, big.NewInt(1))
	_, _ = l.Unbond(big.NewInt(200), 29, 32, big.NewInt(1))

	assert.Equal(t, int64(250), l.Rebond(big.NewInt(250)).Int64())
	require.Len(t, l.Unlocking, 1)
	assert.Equal(t, int64(50), l.Unlocking[0].Value.Int64())
	assert.Equal(t, int64(950), l.Active.Int64())

	assert.Equal(t, int64(50), l.Rebond(big.NewInt(1000)).Int64())
	assert.Equal(t, int64(1000), l.Active.Int64())
	assert.NoError(t, l.Check())
}

func TestLedgerSlash(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))
	// unbonded before the offence at era 10, chunk unlocks at 5+28
	_, _ = l.Unbond(big.NewInt(100), 33, 32, big.NewInt(1))
	// unbonded after the offence
	_, _ = l.Unbond(big.NewInt(300), 40, 32, big.NewInt(1))

	slashed := l.Slash(big.NewInt(700), big.NewInt(0), 10, 28)
	assert.Equal(t, int64(700), slashed.Int64())
	assert.Equal(t, 0, l.Active.Sign())
	require.Len(t, l.Unlocking, 2)
	assert.Equal(t, int64(100), l.Unlocking[0].Value.Int64(), "chunks that left before the offence are not slashable")
	assert.Equal(t, int64(200), l.Unlocking[1].Value.Int64())
	assert.NoError(t, l.Check())

	// cannot go below zero
	slashed = l.Slash(big.NewInt(10_000), big.NewInt(0), 10, 28)
	assert.Equal(t, int64(200), slashed.Int64())
	require.Len(t, l.Unlocking, 1)
	assert.Equal(t, int64(100), l.Total.Int64())
}

func TestLedgerSlashSweepsDust(t *testing.T) {
	l := NewLedger(stash, big.NewInt(1000))
	slashed := l.Slash(big.NewInt(995), big.NewInt(10), 0, 28)
	assert.Equal(t, int64(1000), slashed.Int64())
	assert.Equal(t, 0, l.Total.Sign())
}

// TestLedgerInvariant runs random operation sequences and checks total == active + unlocking after each.
func TestLedgerInvariant(t *testing.T) {
	f := fuzz.NewWithSeed(42).NilChance(0)

	for round := 0; round < 200; round++ {
		var initial uint32
		f.Fuzz(&initial)
		l := NewLedger(stash, new(big.Int).SetUint64(uint64(initial)+1))

		for step := 0; step < 50; step++ {
			var (
				op    uint8
				value uint32
				era   uint8
			)
			f.Fuzz(&op)
			f.Fuzz(&value)
			f.Fuzz(&era)
			amount := new(big.Int).SetUint64(uint64(value))

			switch op % 5 {
			case 0:
				l.Bond(amount)
			case 1:
				_, err := l.Unbond(amount, npos.EraIndex(era), 32, big.NewInt(1))
				if err != nil {
					require.ErrorIs(t, err, reverts.ErrTooManyUnlockChunks)
				}
			case 2:
				l.ConsolidateUnlocked(npos.EraIndex(era))
			case 3:
				l.Rebond(amount)
			case 4:
				l.Slash(amount, big.NewInt(0), npos.EraIndex(era), 28)
			}
			require.NoError(t, l.Check(), "round %d step %d op %d", round, step, op%5)
			require.LessOrEqual(t, len(l.Unlocking), 32)
		}
	}
}
