// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/events"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/staking/slashing"
)

// Offender is a validator that misbehaved in Era.
type Offender struct {
	Validator npos.Address
	Era       npos.EraIndex
}

// OffenceReport reports offenders to be slashed by Fraction of their exposure.
type OffenceReport struct {
	Offenders []Offender
	Fraction  npos.Perbill
	Reporters []npos.Address
}

// ReportOffence slashes the offenders of report. Offenders that cannot be slashed (unknown era,
// not exposed) are dropped without failing the report. Slashes are queued for the active era plus
// the slash defer duration, or applied at once when there is no defer duration.
func (s *Staking) ReportOffence(report *OffenceReport) error {
	logger.Debug("offence reported", "offenders", len(report.Offenders), "fraction", report.Fraction)

	if !report.Fraction.Valid() {
		return errors.Wrapf(reverts.ErrMalformedOffenceReport, "fraction %v", report.Fraction)
	}
	active, err := s.mustActiveEra()
	if err != nil {
		return err
	}
	invulnerables, err := s.invulnerables.Get()
	if err != nil {
		return err
	}
	skip := make(map[npos.Address]bool, len(invulnerables))
	for _, a := range invulnerables {
		skip[a] = true
	}

	return s.atomic("report-offence", func() error {
		for _, o := range report.Offenders {
			if skip[o.Validator] {
				logger.Debug("invulnerable offender skipped", "validator", o.Validator)
				continue
			}
			err := s.reportOffender(o, report, active)
			if errors.Is(err, reverts.ErrMalformedOffenceReport) {
				logger.Info("offender dropped", "validator", o.Validator, "era", o.Era, "error", err)
				s.emit(events.OffenceDropped, o.Validator, npos.Address{}, nil)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Staking) reportOffender(o Offender, report *OffenceReport, active *ActiveEra) error {
	var windowStart npos.EraIndex
	if active.Index > s.config.BondingDuration {
		windowStart = active.Index - s.config.BondingDuration
	}
	if o.Era < windowStart || o.Era > active.Index {
		return errors.Wrapf(reverts.ErrMalformedOffenceReport, "era %d out of [%d, %d]", o.Era, windowStart, active.Index)
	}
	exposure, err := s.historyService.Exposure(o.Era, o.Validator)
	if err != nil {
		return err
	}
	if exposure == nil {
		return errors.Wrapf(reverts.ErrMalformedOffenceReport, "%v not exposed in era %d", o.Validator, o.Era)
	}

	out, err := s.slashingService.Compute(&slashing.Params{
		Stash:          o.Validator,
		Slash:          report.Fraction,
		Exposure:       exposure,
		SlashEra:       o.Era,
		WindowStart:    windowStart,
		Now:            active.Index,
		RewardFraction: s.config.SlashRewardFraction,
		Reporters:      report.Reporters,
	})
	if err != nil {
		return err
	}
	if out.Chill {
		if err := s.roleService.Chill(o.Validator); err != nil {
			return err
		}
		s.emit(events.Chilled, o.Validator, npos.Address{}, nil)
	}
	for _, n := range out.Suppressed {
		if err := s.roleService.Suppress(n); err != nil {
			return err
		}
	}
	if out.Slash == nil {
		return nil
	}

	metricSlashCount().AddWithLabel(1, map[string]string{"stage": "reported"})
	s.emit(events.SlashReported, o.Validator, npos.Address{}, out.Slash.Total())
	if s.config.SlashDeferDuration == 0 {
		return s.applySlash(out.Slash)
	}
	applyAt := active.Index + s.config.SlashDeferDuration
	logger.Info("slash deferred", "validator", o.Validator, "era", o.Era, "applyAt", applyAt, "amount", out.Slash.Total())
	return s.slashingService.Queue(applyAt, out.Slash)
}

// CancelDeferredSlash drops the slashes queued for era at the given indices.
func (s *Staking) CancelDeferredSlash(era npos.EraIndex, indices []uint32) error {
	return s.atomic("cancel-slash", func() error {
		list, err := s.slashingService.Unapplied(era)
		if err != nil {
			return err
		}
		if err := s.slashingService.Cancel(era, indices); err != nil {
			return err
		}
		for _, i := range indices {
			s.emit(events.SlashCancelled, list[i].Validator, npos.Address{}, list[i].Total())
		}
		metricSlashCount().AddWithLabel(int64(len(indices)), map[string]string{"stage": "cancelled"})
		return nil
	})
}

func (s *Staking) applyDeferredSlashes(era npos.EraIndex) error {
	list, err := s.slashingService.Take(era)
	if err != nil {
		return err
	}
	for _, u := range list {
		if err := s.applySlash(u); err != nil {
			return err
		}
	}
	return nil
}

// applySlash slashes the ledgers of a validator and its nominators, then rewards the reporters.
func (s *Staking) applySlash(u *slashing.UnappliedSlash) error {
	slashed := new(big.Int)
	actual, err := s.slashStash(u.Validator, u.Own, u)
	if err != nil {
		return err
	}
	slashed.Add(slashed, actual)
	for _, o := range u.Others {
		actual, err := s.slashStash(o.Who, o.Amount, u)
		if err != nil {
			return err
		}
		slashed.Add(slashed, actual)
	}
	metricSlashCount().AddWithLabel(1, map[string]string{"stage": "applied"})
	return s.payReporters(u, slashed)
}

func (s *Staking) slashStash(stash npos.Address, value *big.Int, u *slashing.UnappliedSlash) (*big.Int, error) {
	if value.Sign() == 0 {
		return new(big.Int), nil
	}
	l, err := s.ledgerService.Get(stash)
	if err != nil {
		return nil, err
	}
	if l == nil {
		logger.Debug("slashed stash no longer bonded", "stash", stash)
		return new(big.Int), nil
	}

	activeBefore := new(big.Int).Set(l.Active)
	taken := l.Slash(value, s.currency.MinimumBalance(), u.Era, s.config.BondingDuration)
	if taken.Sign() == 0 {
		return taken, nil
	}
	fromActive := new(big.Int).Sub(activeBefore, l.Active)
	fromUnlocking := new(big.Int).Sub(taken, fromActive)

	if err := s.ledgerService.Update(l); err != nil {
		return nil, err
	}
	actual, err := s.currency.Slash(stash, taken)
	if err != nil {
		return nil, err
	}
	if err := s.currency.Lock(stash, l.Total); err != nil {
		return nil, err
	}
	if err := s.statsService.ApplySlash(fromActive, fromUnlocking); err != nil {
		return nil, err
	}
	s.emit(events.Slashed, stash, u.Validator, actual)
	logger.Info("stash slashed", "stash", stash, "validator", u.Validator, "amount", actual)
	return actual, nil
}

// payReporters shares the reporter payout equally, never more than was slashed.
// What is left of the slashed funds goes to the treasury.
func (s *Staking) payReporters(u *slashing.UnappliedSlash, slashed *big.Int) error {
	paid := new(big.Int)
	if n := len(u.Reporters); n > 0 {
		reward := new(big.Int).Set(u.Payout)
		if reward.Cmp(slashed) > 0 {
			reward.Set(slashed)
		}
		each := reward.Quo(reward, big.NewInt(int64(n)))
		if each.Sign() > 0 {
			for _, r := range u.Reporters {
				if err := s.currency.Deposit(r, each); err != nil {
					return err
				}
				paid.Add(paid, each)
				s.emit(events.ReporterRewarded, r, u.Validator, each)
			}
		}
	}
	rest := new(big.Int).Sub(slashed, paid)
	if s.treasury != nil && rest.Sign() > 0 {
		return s.currency.Deposit(*s.treasury, rest)
	}
	return nil
}
