// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// Repository provides typed storage of ledgers and controller links.
type Repository struct {
	ledgers     *storage.Mapping[npos.Address, *Ledger]
	bonded      *storage.Mapping[npos.Address, npos.Address] // stash => controller
	controllers *storage.Mapping[npos.Address, npos.Address] // controller => stash
	payees      *storage.Mapping[npos.Address, RewardDestination]
}

func NewRepository(st *state.State) *Repository {
	return &Repository{
		ledgers:     storage.NewMapping[npos.Address, *Ledger](st, "ledger/"),
		bonded:      storage.NewMapping[npos.Address, npos.Address](st, "bonded/"),
		controllers: storage.NewMapping[npos.Address, npos.Address](st, "controller/"),
		payees:      storage.NewMapping[npos.Address, RewardDestination](st, "payee/"),
	}
}

func (r *Repository) getLedger(stash npos.Address) (*Ledger, error) {
	exists, err := r.ledgers.Exists(stash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger")
	}
	if !exists {
		return nil, nil
	}
	l, err := r.ledgers.Get(stash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger")
	}
	return l, nil
}

func (r *Repository) setLedger(l *Ledger) error {
	if err := l.Check(); err != nil {
		return err
	}
	if err := r.ledgers.Set(l.Stash, l); err != nil {
		return errors.Wrap(err, "failed to set ledger")
	}
	return nil
}

func (r *Repository) getController(stash npos.Address) (npos.Address, bool, error) {
	exists, err := r.bonded.Exists(stash)
	if err != nil || !exists {
		return npos.Address{}, false, err
	}
	c, err := r.bonded.Get(stash)
	return c, err == nil, err
}

func (r *Repository) getStash(controller npos.Address) (npos.Address, bool, error) {
	exists, err := r.controllers.Exists(controller)
	if err != nil || !exists {
		return npos.Address{}, false, err
	}
	s, err := r.controllers.Get(controller)
	return s, err == nil, err
}

func (r *Repository) link(stash, controller npos.Address) error {
	if err := r.bonded.Set(stash, controller); err != nil {
		return errors.Wrap(err, "failed to set controller")
	}
	if err := r.controllers.Set(controller, stash); err != nil {
		return errors.Wrap(err, "failed to set stash")
	}
	return nil
}

func (r *Repository) remove(stash npos.Address) error {
	controller, ok, err := r.getController(stash)
	if err != nil {
		return err
	}
	if ok {
		r.controllers.Delete(controller)
	}
	r.bonded.Delete(stash)
	r.ledgers.Delete(stash)
	r.payees.Delete(stash)
	return nil
}
