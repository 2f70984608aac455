// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/npos/kv"
)

var errNotFound = errors.New("not found")

type mapGetter map[string][]byte

func (m mapGetter) Get(key []byte) ([]byte, error) {
	if v, ok := m[string(key)]; ok {
		return v, nil
	}
	if string(key) == "broken" {
		return nil, errors.New("io")
	}
	return nil, errNotFound
}

func (m mapGetter) Has(key []byte) (bool, error) {
	_, ok := m[string(key)]
	return ok, nil
}

func (m mapGetter) IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

func TestGetOrNil(t *testing.T) {
	g := mapGetter{"ledger/v1": []byte{1}}

	v, err := kv.GetOrNil(g, []byte("ledger/v1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte{1}, v)

	v, err = kv.GetOrNil(g, []byte("ledger/v2"))
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = kv.GetOrNil(g, []byte("broken"))
	assert.Error(t, err)
}
