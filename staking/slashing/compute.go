// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/staking/election"
	"github.com/vechain/npos/storage"
)

var logger = log.WithContext("pkg", "slashing")

// Params describes the slash of one offender.
type Params struct {
	Stash          npos.Address
	Slash          npos.Perbill
	Exposure       *election.Exposure
	SlashEra       npos.EraIndex // era of the offence
	WindowStart    npos.EraIndex // eras before it can no longer be slashed
	Now            npos.EraIndex // active era
	RewardFraction npos.Perbill
	Reporters      []npos.Address
}

// Outcome is the result of Compute.
type Outcome struct {
	// Slash is nil when the offence adds nothing to what was already slashed.
	Slash *UnappliedSlash
	// Chill is set when the offence happened in the ongoing span of the validator.
	Chill bool
	// Suppressed lists the nominators whose ongoing span was ended.
	Suppressed []npos.Address
}

// Compute records an offence and returns the slash it adds. Within an era only the largest fraction
// counts, and within a span only the largest amount, so repeated offences never add up.
func (s *Service) Compute(p *Params) (*Outcome, error) {
	out := &Outcome{}
	if p.Slash.Mul(p.Exposure.Total).Sign() == 0 {
		chill, err := s.kickOutIfRecent(p)
		out.Chill = chill
		return out, err
	}

	key := storage.EraAddressKey{Era: p.SlashEra, Address: p.Stash}
	prior, err := s.ValidatorSlashInEra(p.SlashEra, p.Stash)
	if err != nil {
		return nil, err
	}
	if p.Slash <= prior.Fraction {
		logger.Debug("offence below era max", "stash", p.Stash, "era", p.SlashEra, "fraction", p.Slash, "max", prior.Fraction)
		return out, nil
	}
	ownSlash := p.Slash.Mul(p.Exposure.Own)
	if err := s.validatorSlash.Set(key, &ValidatorSlash{Fraction: p.Slash, Amount: ownSlash}); err != nil {
		return nil, errors.Wrap(err, "failed to set validator slash")
	}
	if err := s.noteOffender(p.SlashEra, p.Stash); err != nil {
		return nil, err
	}

	payout := new(big.Int)
	in, err := s.inspect(p.Stash, p.WindowStart, p.RewardFraction, payout)
	if err != nil {
		return nil, err
	}
	if idx, ok, err := in.compareAndUpdate(p.SlashEra, ownSlash); err != nil {
		return nil, err
	} else if ok && idx == in.spans.SpanIndex {
		in.endSpan(p.Now)
		out.Chill = true
	}
	if err := in.save(); err != nil {
		return nil, err
	}

	unapplied := &UnappliedSlash{
		Validator: p.Stash,
		Era:       p.SlashEra,
		Own:       in.slashOf,
		Others:    []OtherSlash{},
		Reporters: p.Reporters,
		Payout:    payout,
	}
	for _, n := range p.Exposure.Others {
		slashed, ended, err := s.slashNominator(p, n, prior.Fraction, payout)
		if err != nil {
			return nil, err
		}
		if ended {
			out.Suppressed = append(out.Suppressed, n.Who)
		}
		if slashed.Sign() > 0 {
			unapplied.Others = append(unapplied.Others, OtherSlash{Who: n.Who, Amount: slashed})
		}
	}
	if unapplied.Reporters == nil {
		unapplied.Reporters = []npos.Address{}
	}
	out.Slash = unapplied
	return out, nil
}

// kickOutIfRecent ends the ongoing span of a validator whose offence slashes nothing.
func (s *Service) kickOutIfRecent(p *Params) (bool, error) {
	in, err := s.inspect(p.Stash, p.WindowStart, p.RewardFraction, new(big.Int))
	if err != nil {
		return false, err
	}
	span, ok := in.spans.SpanOf(p.SlashEra)
	if !ok || span.Index != in.spans.SpanIndex {
		return false, in.save()
	}
	in.endSpan(p.Now)
	return true, in.save()
}

func (s *Service) slashNominator(p *Params, n election.IndividualExposure, priorFraction npos.Perbill, payout *big.Int) (*big.Int, bool, error) {
	key := storage.EraAddressKey{Era: p.SlashEra, Address: n.Who}
	// the era slash of a nominator only grows by what the new fraction adds over the prior one
	diff := new(big.Int).Sub(p.Slash.Mul(n.Value), priorFraction.Mul(n.Value))
	if diff.Sign() < 0 {
		diff.SetUint64(0)
	}
	eraSlash, err := s.nominatorSlash.Get(key)
	if err != nil {
		return nil, false, err
	}
	eraSlash.Add(eraSlash, diff)
	if err := s.nominatorSlash.Set(key, eraSlash); err != nil {
		return nil, false, errors.Wrap(err, "failed to set nominator slash")
	}
	if err := s.noteOffender(p.SlashEra, n.Who); err != nil {
		return nil, false, err
	}

	in, err := s.inspect(n.Who, p.WindowStart, p.RewardFraction, payout)
	if err != nil {
		return nil, false, err
	}
	ended := false
	if idx, ok, err := in.compareAndUpdate(p.SlashEra, eraSlash); err != nil {
		return nil, false, err
	} else if ok && idx == in.spans.SpanIndex {
		ended = in.endSpan(p.Now)
	}
	if err := in.save(); err != nil {
		return nil, false, err
	}
	return in.slashOf, ended, nil
}

// inspector updates the spans of one stash during a slash computation.
type inspector struct {
	svc            *Service
	stash          npos.Address
	spans          *SlashingSpans
	windowStart    npos.EraIndex
	rewardFraction npos.Perbill
	paidOut        *big.Int // shared by every stash of one slash
	slashOf        *big.Int
	dirty          bool
}

func (s *Service) inspect(stash npos.Address, windowStart npos.EraIndex, rewardFraction npos.Perbill, paidOut *big.Int) (*inspector, error) {
	spans, err := s.Spans(stash)
	if err != nil {
		return nil, err
	}
	dirty := false
	if spans == nil {
		spans = NewSlashingSpans(windowStart)
		dirty = true
	}
	return &inspector{
		svc:            s,
		stash:          stash,
		spans:          spans,
		windowStart:    windowStart,
		rewardFraction: rewardFraction,
		paidOut:        paidOut,
		slashOf:        new(big.Int),
		dirty:          dirty,
	}, nil
}

func (in *inspector) endSpan(now npos.EraIndex) bool {
	if in.spans.EndSpan(now) {
		in.dirty = true
		return true
	}
	return false
}

// compareAndUpdate raises the slashed amount of the span holding era to slash, if larger.
// It returns the index of that span, false if era predates every span.
func (in *inspector) compareAndUpdate(era npos.EraIndex, slash *big.Int) (uint32, bool, error) {
	span, ok := in.spans.SpanOf(era)
	if !ok {
		return 0, false, nil
	}
	rec, err := in.svc.SpanRecord(in.stash, span.Index)
	if err != nil {
		return 0, false, err
	}

	reward := new(big.Int)
	changed := false
	switch rec.Slashed.Cmp(slash) {
	case -1:
		diff := new(big.Int).Sub(slash, rec.Slashed)
		rec.Slashed = new(big.Int).Set(slash)
		reward = in.rewardOf(slash, rec.PaidOut)
		in.slashOf.Add(in.slashOf, diff)
		if era > in.spans.LastNonzeroSlash {
			in.spans.LastNonzeroSlash = era
		}
		changed = true
	case 0:
		reward = in.rewardOf(slash, rec.PaidOut)
	}
	if reward.Sign() > 0 {
		rec.PaidOut.Add(rec.PaidOut, reward)
		in.paidOut.Add(in.paidOut, reward)
		changed = true
	}
	if changed {
		in.dirty = true
		if err := in.svc.spanSlash.Set(storage.AddressIndexKey{Address: in.stash, Index: span.Index}, rec); err != nil {
			return 0, false, errors.Wrap(err, "failed to set span record")
		}
	}
	return span.Index, true, nil
}

func (in *inspector) rewardOf(slash, paidOut *big.Int) *big.Int {
	reward := new(big.Int).Sub(in.rewardFraction.Mul(slash), paidOut)
	if reward.Sign() < 0 {
		reward.SetUint64(0)
	}
	return reward
}

func (in *inspector) save() error {
	if !in.dirty {
		return nil
	}
	if from, to, pruned := in.spans.prune(in.windowStart); pruned {
		for i := from; i < to; i++ {
			in.svc.spanSlash.Delete(storage.AddressIndexKey{Address: in.stash, Index: i})
		}
	}
	return in.svc.spans.Set(in.stash, in.spans)
}
