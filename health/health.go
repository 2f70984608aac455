// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/vechain/npos"
)

type SessionIngestion struct {
	Session   *npos.SessionIndex `json:"session"`
	Timestamp *time.Time         `json:"timestamp"`
}

type Status struct {
	Healthy          bool              `json:"healthy"`
	SessionIngestion *SessionIngestion `json:"sessionIngestion"`
	Running          bool              `json:"running"`
}

// Health tracks the liveness of the session feed. The engine is healthy while it runs
// and a session started within the tolerance.
type Health struct {
	lock       sync.RWMutex
	tolerance  time.Duration
	newSession time.Time
	session    *npos.SessionIndex
	running    bool
}

func New(tolerance time.Duration) *Health {
	return &Health{tolerance: tolerance}
}

func (h *Health) NewSession(session npos.SessionIndex) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newSession = time.Now()
	h.session = &session
}

func (h *Health) Running(running bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.running = running
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ingestion := &SessionIngestion{}
	if h.session != nil {
		session, ts := *h.session, h.newSession
		ingestion.Session, ingestion.Timestamp = &session, &ts
	}

	return &Status{
		Healthy:          h.running && h.session != nil && time.Since(h.newSession) <= h.tolerance,
		SessionIngestion: ingestion,
		Running:          h.running,
	}
}
