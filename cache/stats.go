// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats counts the hits and misses of a cache.
type Stats struct {
	hit, miss atomic.Int64
	reported  atomic.Int64
}

// Hit records a hit.
func (cs *Stats) Hit() int64 { return cs.hit.Add(1) }

// Miss records a miss.
func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// Counts returns the number of hits and misses.
func (cs *Stats) Counts() (hit, miss int64) {
	return cs.hit.Load(), cs.miss.Load()
}

// HitRate returns the hit rate in per mille, and whether it moved since the previous call.
// A cache without lookups has a rate of 0.
func (cs *Stats) HitRate() (int64, bool) {
	hit, miss := cs.Counts()
	var rate int64
	if lookups := hit + miss; lookups > 0 {
		rate = hit * 1000 / lookups
	}
	return rate, cs.reported.Swap(rate+1) != rate+1
}
