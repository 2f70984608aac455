// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/npos/kv"
)

// Stage abstracts the net changes of a state, in first-write order.
type Stage struct {
	keys    []string
	changes map[string][]byte
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.keys)
}

// Commit writes the changes into db within a single bulk.
func (s *Stage) Commit(db kv.Store) error {
	bulk := db.Bulk()
	for _, k := range s.keys {
		v := s.changes[k]
		if len(v) == 0 {
			if err := bulk.Delete([]byte(k)); err != nil {
				return errors.Wrap(err, "delete")
			}
			continue
		}
		if err := bulk.Put([]byte(k), v); err != nil {
			return errors.Wrap(err, "put")
		}
	}
	return bulk.Write()
}
