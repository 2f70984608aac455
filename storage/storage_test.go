// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/state"
)

type record struct {
	Value *big.Int
	Era   uint32
}

func newState(t *testing.T) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db)
}

func TestMapping(t *testing.T) {
	st := newState(t)
	m := NewMapping[npos.Address, *record](st, "records/")
	alice := npos.BytesToAddress([]byte("alice"))

	got, err := m.Get(alice)
	require.NoError(t, err)
	require.NotNil(t, got, "missing pointer records decode as a fresh zero value")
	assert.Nil(t, got.Value)

	exists, err := m.Exists(alice)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Set(alice, &record{Value: big.NewInt(42), Era: 7}))
	got, err = m.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Value.Int64())
	assert.Equal(t, uint32(7), got.Era)

	m.Delete(alice)
	exists, err = m.Exists(alice)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMappingKeysDoNotCollide(t *testing.T) {
	st := newState(t)
	a := NewMapping[EraKey, uint64](st, "a/")
	b := NewMapping[EraKey, uint64](st, "b/")

	require.NoError(t, a.Set(1, 10))
	require.NoError(t, b.Set(1, 20))

	va, err := a.Get(1)
	require.NoError(t, err)
	vb, err := b.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), va)
	assert.Equal(t, uint64(20), vb)
}

func TestValueAndUint256(t *testing.T) {
	st := newState(t)

	v := NewValue[uint32](st, "era")
	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)
	require.NoError(t, v.Set(5))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got)

	u := NewUint256(st, "total")
	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(30)))
	total, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(70), total.Int64())

	require.NoError(t, u.Sub(big.NewInt(1000)))
	total, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, total.Sign())
}

func TestCheckpointRevertsTypedWrites(t *testing.T) {
	st := newState(t)
	m := NewMapping[EraAddressKey, uint64](st, "points/")
	key := EraAddressKey{Era: 1, Address: npos.BytesToAddress([]byte("v1"))}

	require.NoError(t, m.Set(key, 20))
	cp := st.NewCheckpoint()
	require.NoError(t, m.Set(key, 40))
	st.RevertTo(cp)

	got, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), got)
}
