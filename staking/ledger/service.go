// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/state"
)

// Service owns the bonded funds bookkeeping of every stash.
// It never touches balances, the caller moves funds through the currency.
type Service struct {
	repo *Repository
}

func New(st *state.State) *Service {
	return &Service{repo: NewRepository(st)}
}

// Get returns the ledger of stash, nil when it is not bonded.
func (s *Service) Get(stash npos.Address) (*Ledger, error) {
	return s.repo.getLedger(stash)
}

// MustGet returns the ledger of stash, ErrNotBonded when it is not bonded.
func (s *Service) MustGet(stash npos.Address) (*Ledger, error) {
	l, err := s.repo.getLedger(stash)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.Wrapf(reverts.ErrNotBonded, "stash %v", stash)
	}
	return l, nil
}

// Update stores a modified ledger.
func (s *Service) Update(l *Ledger) error {
	return s.repo.setLedger(l)
}

// Controller returns the controller of a bonded stash.
func (s *Service) Controller(stash npos.Address) (npos.Address, error) {
	c, ok, err := s.repo.getController(stash)
	if err != nil {
		return npos.Address{}, err
	}
	if !ok {
		return npos.Address{}, errors.Wrapf(reverts.ErrNotBonded, "stash %v", stash)
	}
	return c, nil
}

// StashOf resolves a controller to its stash.
func (s *Service) StashOf(controller npos.Address) (npos.Address, error) {
	stash, ok, err := s.repo.getStash(controller)
	if err != nil {
		return npos.Address{}, err
	}
	if !ok {
		return npos.Address{}, errors.Wrapf(reverts.ErrNotController, "account %v", controller)
	}
	return stash, nil
}

// Payee returns the reward destination of stash.
func (s *Service) Payee(stash npos.Address) (RewardDestination, error) {
	return s.repo.payees.Get(stash)
}

// SetPayee changes the reward destination of a bonded stash.
func (s *Service) SetPayee(stash npos.Address, payee RewardDestination) error {
	if _, err := s.Controller(stash); err != nil {
		return err
	}
	return s.repo.payees.Set(stash, payee)
}

// Bond links stash to controller and creates its ledger.
func (s *Service) Bond(stash, controller npos.Address, value *big.Int, payee RewardDestination) (*Ledger, error) {
	if _, ok, err := s.repo.getController(stash); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.Wrapf(reverts.ErrAlreadyBonded, "stash %v", stash)
	}
	if err := s.checkControllerFree(stash, controller); err != nil {
		return nil, err
	}

	l := NewLedger(stash, value)
	if err := s.repo.link(stash, controller); err != nil {
		return nil, err
	}
	if err := s.repo.payees.Set(stash, payee); err != nil {
		return nil, err
	}
	if err := s.repo.setLedger(l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetController moves the controller link of stash.
func (s *Service) SetController(stash, controller npos.Address) error {
	old, err := s.Controller(stash)
	if err != nil {
		return err
	}
	if old == controller {
		return nil
	}
	if err := s.checkControllerFree(stash, controller); err != nil {
		return err
	}
	s.repo.controllers.Delete(old)
	return s.repo.link(stash, controller)
}

func (s *Service) checkControllerFree(stash, controller npos.Address) error {
	if _, ok, err := s.repo.getStash(controller); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(reverts.ErrAlreadyBonded, "controller %v", controller)
	}
	// another bonded stash cannot be used as controller
	if controller != stash {
		if _, ok, err := s.repo.getController(controller); err != nil {
			return err
		} else if ok {
			return errors.Wrapf(reverts.ErrAlreadyBonded, "controller %v is a stash", controller)
		}
	}
	return nil
}

// Kill removes the ledger, the controller link and the payee of stash.
func (s *Service) Kill(stash npos.Address) error {
	return s.repo.remove(stash)
}
