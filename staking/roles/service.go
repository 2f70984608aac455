// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/linkedlist"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// Service stores the declared role of each stash.
// Validators and nominators are additionally kept in lists, in the order they declared,
// which is the candidate order used by the election.
type Service struct {
	roles      *storage.Mapping[npos.Address, *record]
	validators *linkedlist.LinkedList
	nominators *linkedlist.LinkedList
}

func New(st *state.State) *Service {
	return &Service{
		roles:      storage.NewMapping[npos.Address, *record](st, "role/"),
		validators: linkedlist.New(st, "validators-list"),
		nominators: linkedlist.New(st, "nominators-list"),
	}
}

// Get returns the role of stash, Idle when none was declared.
func (s *Service) Get(stash npos.Address) (Role, error) {
	r, err := s.roles.Get(stash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role")
	}
	return r.role(), nil
}

// Validate declares stash a validator, replacing any nomination.
func (s *Service) Validate(stash npos.Address, prefs ValidatorPrefs) error {
	if !prefs.Commission.Valid() {
		return errors.Wrapf(reverts.ErrBadCommission, "commission %v", prefs.Commission)
	}
	current, err := s.Get(stash)
	if err != nil {
		return err
	}
	if v, ok := current.(Validator); ok && v.Prefs == prefs {
		return errors.Wrapf(reverts.ErrDuplicateRole, "stash %v", stash)
	}
	return s.set(stash, Validator{Prefs: prefs})
}

// Nominate declares stash a nominator of targets, replacing any validator intent.
func (s *Service) Nominate(stash npos.Address, targets []npos.Address, era npos.EraIndex, maxNominations int) error {
	if len(targets) == 0 || len(targets) > maxNominations {
		return errors.Wrapf(reverts.ErrInvalidNominationTargets, "%d targets", len(targets))
	}
	seen := make(map[npos.Address]struct{}, len(targets))
	for _, t := range targets {
		if t.IsZero() {
			return errors.Wrap(reverts.ErrInvalidNominationTargets, "zero target")
		}
		if _, dup := seen[t]; dup {
			return errors.Wrapf(reverts.ErrInvalidNominationTargets, "duplicate target %v", t)
		}
		seen[t] = struct{}{}
	}
	nominations := Nominations{
		Targets:     append([]npos.Address(nil), targets...),
		SubmittedIn: era,
	}
	return s.set(stash, Nominator{Nominations: nominations})
}

// Chill drops any declared role.
func (s *Service) Chill(stash npos.Address) error {
	return s.set(stash, Idle{})
}

// Suppress marks the nominations of stash as suppressed.
func (s *Service) Suppress(stash npos.Address) error {
	r, err := s.Get(stash)
	if err != nil {
		return err
	}
	n, ok := r.(Nominator)
	if !ok || n.Nominations.Suppressed {
		return nil
	}
	n.Nominations.Suppressed = true
	return s.roles.Set(stash, toRecord(n))
}

func (s *Service) set(stash npos.Address, role Role) error {
	switch role.Kind() {
	case KindValidator:
		if err := s.nominators.Remove(stash); err != nil {
			return err
		}
		if err := s.validators.Add(stash); err != nil {
			return err
		}
	case KindNominator:
		if err := s.validators.Remove(stash); err != nil {
			return err
		}
		if err := s.nominators.Add(stash); err != nil {
			return err
		}
	default:
		if err := s.validators.Remove(stash); err != nil {
			return err
		}
		if err := s.nominators.Remove(stash); err != nil {
			return err
		}
		s.roles.Delete(stash)
		return nil
	}
	if err := s.roles.Set(stash, toRecord(role)); err != nil {
		return errors.Wrap(err, "failed to set role")
	}
	return nil
}

// Validators returns the validator intents in declaration order.
func (s *Service) Validators() ([]npos.Address, error) {
	return s.validators.All()
}

// Nominators returns the nominators in declaration order.
func (s *Service) Nominators() ([]npos.Address, error) {
	return s.nominators.All()
}

// Counts returns the number of validators and nominators.
func (s *Service) Counts() (validators uint64, nominators uint64, err error) {
	if validators, err = s.validators.Len(); err != nil {
		return
	}
	nominators, err = s.nominators.Len()
	return
}
