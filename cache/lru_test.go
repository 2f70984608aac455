// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(string) + "-v", nil
	}

	v, err := c.GetOrLoad("a", loader)
	require.NoError(t, err)
	assert.Equal(t, "a-v", v)

	v, err = c.GetOrLoad("a", loader)
	require.NoError(t, err)
	assert.Equal(t, "a-v", v)
	assert.Equal(t, 1, loads)

	hit, miss := c.Stats().Counts()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	_, err = c.GetOrLoad("b", func(any) (any, error) { return nil, errors.New("fail") })
	assert.Error(t, err)
	assert.False(t, c.Contains("b"))
}

func TestNewLRUInvalidSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}
