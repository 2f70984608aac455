// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/state"
)

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(state.New(db))

	require.NoError(t, svc.AddBonded(big.NewInt(1000)))
	require.NoError(t, svc.ApplyUnbond(big.NewInt(300)))
	require.NoError(t, svc.ApplyRebond(big.NewInt(100)))
	require.NoError(t, svc.ApplyWithdraw(big.NewInt(50)))
	require.NoError(t, svc.ApplySlash(big.NewInt(80), big.NewInt(20)))
	require.NoError(t, svc.AddRewarded(big.NewInt(7)))

	bonded, err := svc.Bonded()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(720), bonded)

	unlocking, err := svc.Unlocking()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(130), unlocking)

	slashed, err := svc.Slashed()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), slashed)

	rewarded, err := svc.Rewarded()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), rewarded)
}

func TestSubSaturates(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(state.New(db))

	require.NoError(t, svc.AddBonded(big.NewInt(10)))
	require.NoError(t, svc.ApplyUnbond(big.NewInt(20)))
	bonded, err := svc.Bonded()
	require.NoError(t, err)
	assert.Equal(t, int64(0), bonded.Int64())
}
