// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"
	"sort"

	"github.com/vechain/npos"
)

// equalise rebalances each nominator budget over the winners it backs, moving stake from the
// best backed winners to the least backed ones. It stops after iterations passes or once no
// voter spread exceeds tolerance.
func equalise(res *Result, iterations int, tolerance *big.Int) {
	support := make(map[npos.Address]*big.Int, len(res.Winners))
	for _, w := range res.Winners {
		support[w] = new(big.Int)
	}
	for _, a := range res.Assignments {
		for _, s := range a.Distribution {
			support[s.Target].Add(support[s.Target], s.Value)
		}
	}

	for iter := 0; iter < iterations; iter++ {
		maxDiff := new(big.Int)
		for i := range res.Assignments {
			a := &res.Assignments[i]
			if a.SelfVote || len(a.Distribution) < 2 {
				continue
			}
			if diff := equaliseVoter(a, support, tolerance); diff.Cmp(maxDiff) > 0 {
				maxDiff = diff
			}
		}
		if maxDiff.Cmp(tolerance) <= 0 {
			break
		}
	}
}

func equaliseVoter(a *Assignment, support map[npos.Address]*big.Int, tolerance *big.Int) *big.Int {
	budget := new(big.Int)
	for _, s := range a.Distribution {
		budget.Add(budget, s.Value)
	}

	var maxBacked, minBacked *big.Int
	for _, s := range a.Distribution {
		total := support[s.Target]
		if minBacked == nil || total.Cmp(minBacked) < 0 {
			minBacked = total
		}
		if s.Value.Sign() > 0 && (maxBacked == nil || total.Cmp(maxBacked) > 0) {
			maxBacked = total
		}
	}
	difference := new(big.Int).Set(budget)
	if maxBacked != nil {
		difference.Sub(maxBacked, minBacked)
		if difference.Cmp(tolerance) < 0 {
			return difference
		}
	}

	// take the budget back
	for i := range a.Distribution {
		s := &a.Distribution[i]
		support[s.Target].Sub(support[s.Target], s.Value)
		s.Value = new(big.Int)
	}

	order := make([]int, len(a.Distribution))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return support[a.Distribution[order[i]].Target].Cmp(support[a.Distribution[order[j]].Target]) < 0
	})

	// fill the least backed winners up to a common level
	cumulative := new(big.Int)
	lastIndex := len(order) - 1
	tmp := new(big.Int)
	for idx, i := range order {
		stake := support[a.Distribution[i].Target]
		tmp.Mul(stake, big.NewInt(int64(idx)))
		tmp.Sub(tmp, cumulative)
		if tmp.Cmp(budget) > 0 {
			lastIndex = idx - 1
			break
		}
		cumulative.Add(cumulative, stake)
	}

	lastStake := new(big.Int).Set(support[a.Distribution[order[lastIndex]].Target])
	split := big.NewInt(int64(lastIndex + 1))
	excess := new(big.Int).Mul(lastStake, split)
	excess.Sub(new(big.Int).Add(budget, cumulative), excess)
	each, rem := new(big.Int).QuoRem(excess, split, new(big.Int))

	for k := 0; k <= lastIndex; k++ {
		s := &a.Distribution[order[k]]
		w := new(big.Int).Add(each, lastStake)
		w.Sub(w, support[s.Target])
		if k == lastIndex {
			w.Add(w, rem)
		}
		s.Value = w
		support[s.Target].Add(support[s.Target], w)
	}
	return difference
}
