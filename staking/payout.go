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
	"github.com/vechain/npos/staking/rewards"
)

// NoteAuthor awards the points of an authored block to validator in the active era.
func (s *Staking) NoteAuthor(validator npos.Address) error {
	return s.RewardByIDs([]rewards.IndividualPoints{{Who: validator, Points: uint64(s.config.PointsPerBlock)}})
}

// RewardByIDs awards points to validators in the active era.
func (s *Staking) RewardByIDs(awards []rewards.IndividualPoints) error {
	active, err := s.mustActiveEra()
	if err != nil {
		return err
	}
	return s.atomic("reward-points", func() error {
		return s.rewardService.Reward(active.Index, awards...)
	})
}

// PayoutStakers pays the reward of validator and its nominators for era. The era must be settled
// and not older than the history depth, and each validator can be paid once per era.
func (s *Staking) PayoutStakers(era npos.EraIndex, validator npos.Address) error {
	logger.Debug("payout stakers", "era", era, "validator", validator)

	active, err := s.mustActiveEra()
	if err != nil {
		return err
	}
	if era >= active.Index {
		return errors.Wrapf(reverts.ErrInvalidEra, "era %d not settled, active era is %d", era, active.Index)
	}
	if active.Index > s.config.HistoryDepth && era < active.Index-s.config.HistoryDepth {
		return errors.Wrapf(reverts.ErrInvalidEra, "era %d out of history", era)
	}

	err = s.atomic("payout", func() error {
		claimed, err := s.rewardService.IsClaimed(era, validator)
		if err != nil {
			return err
		}
		if claimed {
			return errors.Wrapf(reverts.ErrDoublePayout, "validator %v in era %d", validator, era)
		}
		exposure, err := s.historyService.Exposure(era, validator)
		if err != nil {
			return err
		}
		if exposure == nil {
			return errors.Wrapf(reverts.ErrNotElected, "validator %v in era %d", validator, era)
		}
		settled, err := s.rewardService.IsSettled(era)
		if err != nil {
			return err
		}
		if !settled {
			return errors.Wrapf(reverts.ErrInvalidEra, "era %d has no reward", era)
		}
		if err := s.rewardService.SetClaimed(era, validator); err != nil {
			return err
		}

		pool, err := s.rewardService.EraReward(era)
		if err != nil {
			return err
		}
		points, err := s.rewardService.Points(era)
		if err != nil {
			return err
		}
		share := rewards.ValidatorShare(pool, points.Of(validator), points.Total)
		if share.Sign() == 0 {
			return nil
		}
		prefs, err := s.historyService.Prefs(era, validator)
		if err != nil {
			return err
		}
		for _, p := range rewards.Split(validator, share, prefs.Commission, exposure) {
			if err := s.makePayout(p.Who, p.Amount, validator); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Info("payout failed", "era", era, "validator", validator, "error", err)
		return err
	}
	return nil
}

// makePayout pays amount to stash according to its reward destination.
// Stashes that are no longer bonded are skipped.
func (s *Staking) makePayout(stash npos.Address, amount *big.Int, validator npos.Address) error {
	if amount.Sign() == 0 {
		return nil
	}
	l, err := s.ledgerService.Get(stash)
	if err != nil {
		return err
	}
	if l == nil {
		logger.Debug("payout to unbonded stash skipped", "stash", stash, "amount", amount)
		return nil
	}
	payee, err := s.ledgerService.Payee(stash)
	if err != nil {
		return err
	}

	dest := stash
	switch payee {
	case ledger.PayeeStaked:
		if err := s.currency.Deposit(stash, amount); err != nil {
			return err
		}
		l.Bond(amount)
		if err := s.ledgerService.Update(l); err != nil {
			return err
		}
		if err := s.currency.ExtendLock(stash, amount); err != nil {
			return err
		}
		if err := s.statsService.AddBonded(amount); err != nil {
			return err
		}
	case ledger.PayeeStash:
		if err := s.currency.Deposit(stash, amount); err != nil {
			return err
		}
	case ledger.PayeeController:
		if dest, err = s.ledgerService.Controller(stash); err != nil {
			return err
		}
		if err := s.currency.Deposit(dest, amount); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown reward destination %d", payee)
	}
	if err := s.statsService.AddRewarded(amount); err != nil {
		return err
	}
	metricPayoutCount().AddWithLabel(1, map[string]string{"destination": payee.String()})
	s.emit(events.Rewarded, stash, dest, amount)
	return nil
}
