// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos/lvldb"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestStateGetPut(t *testing.T) {
	st, _ := newTestState(t)

	v, err := st.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)

	st.Put([]byte("k"), []byte("v"))
	v, err = st.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := st.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	st.Delete([]byte("k"))
	has, err = st.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStateCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)

	st.Put([]byte("a"), []byte("1"))
	cp := st.NewCheckpoint()
	st.Put([]byte("a"), []byte("2"))
	st.Put([]byte("b"), []byte("3"))

	inner := st.NewCheckpoint()
	st.Delete([]byte("a"))
	st.RevertTo(inner)

	v, _ := st.Get([]byte("a"))
	assert.Equal(t, []byte("2"), v)

	st.RevertTo(cp)
	v, _ = st.Get([]byte("a"))
	assert.Equal(t, []byte("1"), v)
	v, _ = st.Get([]byte("b"))
	assert.Nil(t, v)

	// reverting below the base keeps the base revision
	st.RevertTo(0)
	v, _ = st.Get([]byte("a"))
	assert.Equal(t, []byte("1"), v)
}

func TestStateCommit(t *testing.T) {
	st, db := newTestState(t)

	require.NoError(t, db.Put([]byte("gone"), []byte("x")))
	st.Put([]byte("a"), []byte("1"))
	st.Put([]byte("a"), []byte("2"))
	st.Delete([]byte("gone"))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())

	has, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has, "nothing is written before commit")

	require.NoError(t, st.Commit())

	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	has, err = db.Has([]byte("gone"))
	require.NoError(t, err)
	assert.False(t, has)

	// a fresh state over the same db sees the committed values
	v, err = New(db).Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	assert.Equal(t, 0, st.Stage().Len())
}
