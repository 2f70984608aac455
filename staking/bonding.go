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
	"github.com/vechain/npos/staking/ledger"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/staking/roles"
)

//
// Setters - state change
//

// Bond locks value of stash and links the stash to controller.
func (s *Staking) Bond(stash, controller npos.Address, value *big.Int, payee ledger.RewardDestination) error {
	logger.Debug("bonding", "stash", stash, "controller", controller, "value", value, "payee", payee)

	err := s.atomic("bond", func() error {
		if value.Cmp(s.config.MinBondAmount()) < 0 || value.Cmp(s.currency.MinimumBalance()) < 0 {
			return errors.Wrapf(reverts.ErrInsufficientBond, "bond %v below minimum", value)
		}
		if _, err := s.ledgerService.Bond(stash, controller, value, payee); err != nil {
			return err
		}
		free, err := s.currency.FreeBalance(stash)
		if err != nil {
			return err
		}
		if value.Cmp(free) > 0 {
			return errors.Wrapf(reverts.ErrInsufficientBond, "bond %v exceeds balance %v", value, free)
		}
		if err := s.currency.Lock(stash, value); err != nil {
			return err
		}
		if err := s.statsService.AddBonded(value); err != nil {
			return err
		}
		s.emit(events.Bonded, stash, controller, value)
		return nil
	})
	if err != nil {
		logger.Info("bond failed", "stash", stash, "error", err)
		return err
	}

	logger.Info("bonded", "stash", stash, "value", value)
	return nil
}

// BondExtra adds up to limit of the unbonded balance of stash to its active stake.
func (s *Staking) BondExtra(stash npos.Address, limit *big.Int) error {
	logger.Debug("bonding extra", "stash", stash, "limit", limit)

	return s.atomic("bond-extra", func() error {
		l, err := s.ledgerService.MustGet(stash)
		if err != nil {
			return err
		}
		free, err := s.currency.FreeBalance(stash)
		if err != nil {
			return err
		}
		extra := new(big.Int).Sub(free, l.Total)
		if extra.Cmp(limit) > 0 {
			extra.Set(limit)
		}
		if extra.Sign() <= 0 {
			return nil
		}
		l.Bond(extra)
		if err := s.ledgerService.Update(l); err != nil {
			return err
		}
		if err := s.currency.ExtendLock(stash, extra); err != nil {
			return err
		}
		if err := s.statsService.AddBonded(extra); err != nil {
			return err
		}
		s.emit(events.Bonded, stash, npos.Address{}, extra)
		return nil
	})
}

// Unbond schedules up to value of the active stake of stash for withdrawal after the bonding duration.
// When the active stake left would be under the minimum bond, all of it is unbonded.
func (s *Staking) Unbond(stash npos.Address, value *big.Int) error {
	logger.Debug("unbonding", "stash", stash, "value", value)

	return s.atomic("unbond", func() error {
		l, err := s.ledgerService.MustGet(stash)
		if err != nil {
			return err
		}
		current, err := s.currentEra.Get()
		if err != nil {
			return err
		}
		amount, err := l.Unbond(value, current+s.config.BondingDuration, int(s.config.MaxUnlockingChunks), s.config.MinBondAmount())
		if err != nil {
			return errors.Wrapf(err, "stash %v", stash)
		}
		if amount.Sign() == 0 {
			return nil
		}
		if err := s.ledgerService.Update(l); err != nil {
			return err
		}
		if err := s.statsService.ApplyUnbond(amount); err != nil {
			return err
		}
		s.emit(events.Unbonded, stash, npos.Address{}, amount)
		return nil
	})
}

// WithdrawUnbonded releases the unlock chunks of stash that reached their era. A stash left
// without unlocking funds and with less active stake than the minimum balance is removed entirely.
// It returns the amount released.
func (s *Staking) WithdrawUnbonded(stash npos.Address) (*big.Int, error) {
	logger.Debug("withdrawing unbonded", "stash", stash)

	var withdrawn *big.Int
	err := s.atomic("withdraw-unbonded", func() error {
		l, err := s.ledgerService.MustGet(stash)
		if err != nil {
			return err
		}
		current, err := s.currentEra.Get()
		if err != nil {
			return err
		}
		withdrawn = l.ConsolidateUnlocked(current)
		if err := s.statsService.ApplyWithdraw(withdrawn); err != nil {
			return err
		}

		minimum := s.currency.MinimumBalance()
		if len(l.Unlocking) == 0 && (l.Active.Sign() == 0 || l.Active.Cmp(minimum) < 0) {
			if l.Active.Sign() > 0 {
				if err := s.statsService.ApplyUnbond(l.Active); err != nil {
					return err
				}
				if err := s.statsService.ApplyWithdraw(l.Active); err != nil {
					return err
				}
				withdrawn.Add(withdrawn, l.Active)
			}
			return s.kill(stash, withdrawn)
		}

		if withdrawn.Sign() == 0 {
			return nil
		}
		if err := s.ledgerService.Update(l); err != nil {
			return err
		}
		if err := s.currency.Release(stash, withdrawn); err != nil {
			return err
		}
		s.emit(events.Withdrawn, stash, npos.Address{}, withdrawn)
		return nil
	})
	if err != nil {
		logger.Info("withdraw failed", "stash", stash, "error", err)
		return nil, err
	}
	return withdrawn, nil
}

// kill removes every record of stash and releases its remaining lock.
func (s *Staking) kill(stash npos.Address, withdrawn *big.Int) error {
	if err := s.roleService.Chill(stash); err != nil {
		return err
	}
	if err := s.ledgerService.Kill(stash); err != nil {
		return err
	}
	if err := s.slashingService.Clear(stash); err != nil {
		return err
	}
	if err := s.currency.Release(stash, withdrawn); err != nil {
		return err
	}
	s.emit(events.Withdrawn, stash, npos.Address{}, withdrawn)
	s.emit(events.Killed, stash, npos.Address{}, nil)
	logger.Info("stash removed", "stash", stash)
	return nil
}

// Rebond moves up to value from the latest unlock chunks of stash back to its active stake.
func (s *Staking) Rebond(stash npos.Address, value *big.Int) error {
	logger.Debug("rebonding", "stash", stash, "value", value)

	return s.atomic("rebond", func() error {
		l, err := s.ledgerService.MustGet(stash)
		if err != nil {
			return err
		}
		amount := l.Rebond(value)
		if amount.Sign() == 0 {
			return nil
		}
		if err := s.ledgerService.Update(l); err != nil {
			return err
		}
		if err := s.statsService.ApplyRebond(amount); err != nil {
			return err
		}
		s.emit(events.Rebonded, stash, npos.Address{}, amount)
		return nil
	})
}

// SetController moves the controller of stash.
func (s *Staking) SetController(stash, controller npos.Address) error {
	return s.atomic("set-controller", func() error {
		if err := s.ledgerService.SetController(stash, controller); err != nil {
			return err
		}
		s.emit(events.ControllerSet, stash, controller, nil)
		return nil
	})
}

// SetPayee changes where the rewards of stash go.
func (s *Staking) SetPayee(stash npos.Address, payee ledger.RewardDestination) error {
	return s.atomic("set-payee", func() error {
		if err := s.ledgerService.SetPayee(stash, payee); err != nil {
			return err
		}
		s.emit(events.PayeeSet, stash, npos.Address{}, big.NewInt(int64(payee)))
		return nil
	})
}

// mustBeActive returns ErrNotBonded unless stash has active stake.
func (s *Staking) mustBeActive(stash npos.Address) error {
	l, err := s.ledgerService.MustGet(stash)
	if err != nil {
		return err
	}
	if l.Active.Sign() == 0 {
		return errors.Wrapf(reverts.ErrNotBonded, "stash %v has no active stake", stash)
	}
	return nil
}

// Validate declares stash a validator candidate for the next elections.
func (s *Staking) Validate(stash npos.Address, prefs roles.ValidatorPrefs) error {
	logger.Debug("validate", "stash", stash, "commission", prefs.Commission)

	err := s.atomic("validate", func() error {
		if err := s.mustBeActive(stash); err != nil {
			return err
		}
		if err := s.roleService.Validate(stash, prefs); err != nil {
			return err
		}
		s.emit(events.ValidatorPrefSet, stash, npos.Address{}, big.NewInt(int64(prefs.Commission.Parts())))
		return nil
	})
	if err != nil {
		logger.Info("validate failed", "stash", stash, "error", err)
	}
	return err
}

// Nominate declares stash a nominator of targets for the next elections.
func (s *Staking) Nominate(stash npos.Address, targets []npos.Address) error {
	logger.Debug("nominate", "stash", stash, "targets", len(targets))

	err := s.atomic("nominate", func() error {
		if err := s.mustBeActive(stash); err != nil {
			return err
		}
		current, err := s.currentEra.Get()
		if err != nil {
			return err
		}
		if err := s.roleService.Nominate(stash, targets, current, int(s.config.MaxNominations)); err != nil {
			return err
		}
		for _, t := range targets {
			s.emit(events.Nominated, stash, t, nil)
		}
		return nil
	})
	if err != nil {
		logger.Info("nominate failed", "stash", stash, "error", err)
	}
	return err
}

// Chill drops the role of stash from the next elections.
func (s *Staking) Chill(stash npos.Address) error {
	logger.Debug("chill", "stash", stash)

	return s.atomic("chill", func() error {
		if err := s.mustBeActive(stash); err != nil {
			return err
		}
		if err := s.roleService.Chill(stash); err != nil {
			return err
		}
		s.emit(events.Chilled, stash, npos.Address{}, nil)
		return nil
	})
}
