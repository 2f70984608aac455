// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/npos"
	"github.com/vechain/npos/lvldb"
	"github.com/vechain/npos/state"
)

func newList(t *testing.T) *LinkedList {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(state.New(db), "validators")
}

func addr(name string) npos.Address {
	return npos.BytesToAddress([]byte(name))
}

func TestLinkedListOrder(t *testing.T) {
	l := newList(t)
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.Add(addr(n)))
	}
	require.NoError(t, l.Add(addr("b")), "re-adding is a no-op")

	all, err := l.All()
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("a"), addr("b"), addr("c"), addr("d")}, all)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestLinkedListRemove(t *testing.T) {
	l := newList(t)
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, l.Add(addr(n)))
	}

	require.NoError(t, l.Remove(addr("b")))
	require.NoError(t, l.Remove(addr("zz")))
	all, err := l.All()
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("a"), addr("c")}, all)

	require.NoError(t, l.Remove(addr("a")))
	head, err := l.Head()
	require.NoError(t, err)
	assert.Equal(t, addr("c"), head)

	require.NoError(t, l.Remove(addr("c")))
	all, err = l.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	ok, err := l.Contains(addr("c"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Add(addr("d")))
	all, err = l.All()
	require.NoError(t, err)
	assert.Equal(t, []npos.Address{addr("d")}, all)
}

func TestLinkedListRemoveWhileIterating(t *testing.T) {
	l := newList(t)
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, l.Add(addr(n)))
	}
	var seen []npos.Address
	require.NoError(t, l.Iter(func(a npos.Address) error {
		seen = append(seen, a)
		return l.Remove(a)
	}))
	assert.Len(t, seen, 3)
	n, err := l.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLinkedListRejectsZero(t *testing.T) {
	l := newList(t)
	assert.Error(t, l.Add(npos.Address{}))
}
