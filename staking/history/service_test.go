// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/staking/election"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/state"
)

func TestCommitAndPrune(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(state.New(db))

	v1 := npos.BytesToAddress([]byte("v1"))
	v2 := npos.BytesToAddress([]byte("v2"))
	nom := npos.BytesToAddress([]byte("n"))

	snap := &Snapshot{
		Era:          3,
		StartSession: 18,
		Validators:   []npos.Address{v1, v2},
		Exposures: map[npos.Address]*election.Exposure{
			v1: {Own: big.NewInt(500), Total: big.NewInt(980), Others: []election.IndividualExposure{{Who: nom, Value: big.NewInt(480)}}},
			v2: {Own: big.NewInt(200), Total: big.NewInt(200)},
		},
		Prefs: map[npos.Address]roles.ValidatorPrefs{v1: {Commission: npos.PerbillFromPercent(10)}},
	}
	require.NoError(t, svc.Commit(snap))

	planned, err := svc.IsPlanned(3)
	require.NoError(t, err)
	assert.True(t, planned)

	exp, err := svc.Exposure(3, v1)
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, int64(980), exp.Total.Int64())
	require.Len(t, exp.Others, 1)
	assert.Equal(t, nom, exp.Others[0].Who)

	exp, err = svc.Exposure(4, v1)
	require.NoError(t, err)
	assert.Nil(t, exp)

	prefs, err := svc.Prefs(3, v1)
	require.NoError(t, err)
	assert.Equal(t, npos.PerbillFromPercent(10), prefs.Commission)

	total, err := svc.TotalStake(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1180), total.Int64())

	vals, err := svc.Validators(3)
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{v1, v2}, vals)

	start, ok, err := svc.StartSession(3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, npos.SessionIndex(18), start)

	require.NoError(t, svc.Prune(3))
	exp, err = svc.Exposure(3, v1)
	require.NoError(t, err)
	assert.Nil(t, exp)
	_, ok, err = svc.StartSession(3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommitRequiresExposures(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(state.New(db))

	err = svc.Commit(&Snapshot{Era: 1, Validators: []npos.Address{npos.BytesToAddress([]byte("v"))}})
	assert.Error(t, err)
}
