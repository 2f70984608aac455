// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/npos"
)

func TestHealth_NewSession(t *testing.T) {
	h := New(time.Minute)

	status := h.Status()
	assert.False(t, status.Healthy)
	assert.Nil(t, status.SessionIngestion.Session)

	h.NewSession(7)
	assert.False(t, h.Status().Healthy, "not running")

	h.Running(true)
	status = h.Status()
	assert.True(t, status.Healthy)
	assert.True(t, status.Running)
	assert.Equal(t, npos.SessionIndex(7), *status.SessionIngestion.Session)
	assert.WithinDuration(t, time.Now(), *status.SessionIngestion.Timestamp, time.Second)
}

func TestHealth_Stalled(t *testing.T) {
	h := New(time.Second)
	h.Running(true)
	h.NewSession(1)

	h.lock.Lock()
	h.newSession = time.Now().Add(-2 * time.Second)
	h.lock.Unlock()

	assert.False(t, h.Status().Healthy)

	h.NewSession(2)
	assert.True(t, h.Status().Healthy)

	h.Running(false)
	assert.False(t, h.Status().Healthy)
}
