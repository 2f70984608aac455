// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/log"
)

var logger = log.WithContext("pkg", "election")

// scale is the fixed point unit of loads and scores. It has to stay far above any approval,
// otherwise scale/approval truncates to zero and every candidate ties.
var scale = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// maxBudgetBits bounds voter budgets. A voter load never exceeds seats*scale, so budget*load
// stays within 256 bits.
const maxBudgetBits = 120

type candidate struct {
	who      npos.Address
	approval *uint256.Int
	score    *uint256.Int
	elected  bool
}

type edge struct {
	target int // candidate index
	load   *uint256.Int
}

type voter struct {
	who    npos.Address
	self   bool
	budget *uint256.Int
	edges  []edge
	load   *uint256.Int
}

// Elect runs sequential Phragmén and picks up to n winners.
//
// Scores and loads are fixed point numbers with a 2^128 unit, divisions round down.
// Among equal scores the candidate listed first wins. Edges to unknown candidates, duplicate
// edges and voters without budget are ignored. Candidates without approval are never elected.
func Elect(candidates []Candidate, voters []Voter, n int, opts Options) (*Result, error) {
	cs, vs, err := prepare(candidates, voters)
	if err != nil {
		return nil, err
	}

	var winners []int
	numerator := new(uint256.Int)
	tmp := new(uint256.Int)
	for round := 0; round < n; round++ {
		for _, c := range cs {
			if !c.elected {
				c.score.Set(scale)
			}
		}
		for _, v := range vs {
			if v.load.IsZero() {
				continue
			}
			for _, e := range v.edges {
				c := cs[e.target]
				if c.elected {
					continue
				}
				if _, overflow := tmp.MulOverflow(v.budget, v.load); overflow {
					return nil, errors.New("election: load overflow")
				}
				if _, overflow := c.score.AddOverflow(c.score, tmp); overflow {
					return nil, errors.New("election: score overflow")
				}
			}
		}

		best := -1
		for i, c := range cs {
			if c.elected || c.approval.IsZero() {
				continue
			}
			numerator.Set(c.score)
			c.score.Div(numerator, c.approval)
			if best < 0 || c.score.Lt(cs[best].score) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		winner := cs[best]
		winner.elected = true
		winners = append(winners, best)
		for _, v := range vs {
			for i := range v.edges {
				if v.edges[i].target != best {
					continue
				}
				if winner.score.Gt(v.load) {
					v.edges[i].load.Sub(winner.score, v.load)
				} else {
					v.edges[i].load.Clear()
				}
				v.load.Set(winner.score)
			}
		}
	}

	res := &Result{Winners: make([]npos.Address, 0, len(winners))}
	for _, w := range winners {
		res.Winners = append(res.Winners, cs[w].who)
	}
	res.Assignments = assign(cs, vs)

	if opts.EqualiseIterations > 0 {
		tolerance := opts.Tolerance
		if tolerance == nil {
			tolerance = new(big.Int)
		}
		equalise(res, opts.EqualiseIterations, tolerance)
	}
	res.pruneZeroShares()

	logger.Debug("election done", "candidates", len(candidates), "voters", len(voters), "winners", len(res.Winners))
	return res, nil
}

func prepare(candidates []Candidate, voters []Voter) ([]*candidate, []*voter, error) {
	index := make(map[npos.Address]int, len(candidates))
	cs := make([]*candidate, 0, len(candidates))
	vs := make([]*voter, 0, len(candidates)+len(voters))

	for _, c := range candidates {
		if _, dup := index[c.Who]; dup {
			return nil, nil, errors.Errorf("election: duplicate candidate %v", c.Who)
		}
		index[c.Who] = len(cs)
		cs = append(cs, &candidate{who: c.Who, approval: new(uint256.Int), score: new(uint256.Int)})
	}

	addVoter := func(who npos.Address, self bool, budget *big.Int, targets []npos.Address) error {
		if budget == nil || budget.Sign() <= 0 {
			return nil
		}
		if budget.BitLen() > maxBudgetBits {
			return errors.Errorf("election: budget of %v overflows", who)
		}
		b, _ := uint256.FromBig(budget)
		v := &voter{who: who, self: self, budget: b, load: new(uint256.Int)}
		seen := make(map[int]struct{}, len(targets))
		for _, t := range targets {
			i, ok := index[t]
			if !ok {
				continue
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			if _, overflow := cs[i].approval.AddOverflow(cs[i].approval, b); overflow {
				return errors.Errorf("election: approval of %v overflows", t)
			}
			v.edges = append(v.edges, edge{target: i, load: new(uint256.Int)})
		}
		if len(v.edges) > 0 {
			vs = append(vs, v)
		}
		return nil
	}

	for _, c := range candidates {
		if err := addVoter(c.Who, true, c.SelfStake, []npos.Address{c.Who}); err != nil {
			return nil, nil, err
		}
	}
	for _, v := range voters {
		if _, isCandidate := index[v.Who]; isCandidate {
			continue
		}
		if err := addVoter(v.Who, false, v.Budget, v.Targets); err != nil {
			return nil, nil, err
		}
	}
	return cs, vs, nil
}

// assign splits every voter budget over its elected edges in proportion to the edge loads.
// Shares are rounded half up and the last elected edge takes the remainder, so shares add up to the budget.
func assign(cs []*candidate, vs []*voter) []Assignment {
	var assignments []Assignment
	for _, v := range vs {
		if v.load.IsZero() {
			continue
		}
		last := -1
		for i, e := range v.edges {
			if cs[e.target].elected {
				last = i
			}
		}
		if last < 0 {
			continue
		}

		a := Assignment{Who: v.who, SelfVote: v.self}
		remaining := v.budget.Clone()
		for i, e := range v.edges {
			if !cs[e.target].elected {
				continue
			}
			var share *uint256.Int
			if i == last {
				share = remaining.Clone()
			} else {
				// 512 bit intermediate product
				share, _ = new(uint256.Int).MulDivOverflow(v.budget, e.load, v.load)
				if roundsUp(v.budget, e.load, v.load) {
					share.AddUint64(share, 1)
				}
				if share.Gt(remaining) {
					share.Set(remaining)
				}
			}
			remaining.Sub(remaining, share)
			a.Distribution = append(a.Distribution, Share{Target: cs[e.target].who, Value: share.ToBig()})
		}
		assignments = append(assignments, a)
	}
	return assignments
}

func (r *Result) pruneZeroShares() {
	kept := r.Assignments[:0]
	for _, a := range r.Assignments {
		dist := a.Distribution[:0]
		for _, s := range a.Distribution {
			if s.Value.Sign() > 0 {
				dist = append(dist, s)
			}
		}
		a.Distribution = dist
		if len(dist) > 0 {
			kept = append(kept, a)
		}
	}
	r.Assignments = kept
}

// roundsUp reports whether a*b/c has a fractional part of at least one half.
func roundsUp(a, b, c *uint256.Int) bool {
	rem := new(uint256.Int).MulMod(a, b, c)
	doubled, overflow := new(uint256.Int).AddOverflow(rem, rem)
	return overflow || !doubled.Lt(c)
}

// BuildExposures turns the assignments into one exposure per winner.
// Self votes are the own stake, nominator shares are listed in voter order.
func BuildExposures(res *Result) map[npos.Address]*Exposure {
	exposures := make(map[npos.Address]*Exposure, len(res.Winners))
	for _, w := range res.Winners {
		exposures[w] = &Exposure{Own: new(big.Int), Total: new(big.Int)}
	}
	for _, a := range res.Assignments {
		for _, s := range a.Distribution {
			exp, ok := exposures[s.Target]
			if !ok || s.Value.Sign() == 0 {
				continue
			}
			if a.SelfVote {
				exp.Own.Add(exp.Own, s.Value)
			} else {
				exp.Others = append(exp.Others, IndividualExposure{Who: a.Who, Value: new(big.Int).Set(s.Value)})
			}
			exp.Total.Add(exp.Total, s.Value)
		}
	}
	return exposures
}
