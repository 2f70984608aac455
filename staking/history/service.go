// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/election"
	"github.com/vechain/npos/staking/roles"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// Service keeps the per era snapshots taken when an era is planned.
// Records of an era never change once written, except exposures reduced by slashing.
type Service struct {
	stakers      *storage.Mapping[storage.EraAddressKey, *election.Exposure]
	prefs        *storage.Mapping[storage.EraAddressKey, roles.ValidatorPrefs]
	totalStake   *storage.Mapping[storage.EraKey, *big.Int]
	validators   *storage.Mapping[storage.EraKey, []npos.Address]
	startSession *storage.Mapping[storage.EraKey, npos.SessionIndex]
	planned      *storage.Mapping[storage.EraKey, bool]
}

func New(st *state.State) *Service {
	return &Service{
		stakers:      storage.NewMapping[storage.EraAddressKey, *election.Exposure](st, "era-stakers/"),
		prefs:        storage.NewMapping[storage.EraAddressKey, roles.ValidatorPrefs](st, "era-prefs/"),
		totalStake:   storage.NewMapping[storage.EraKey, *big.Int](st, "era-total/"),
		validators:   storage.NewMapping[storage.EraKey, []npos.Address](st, "era-validators/"),
		startSession: storage.NewMapping[storage.EraKey, npos.SessionIndex](st, "era-start-session/"),
		planned:      storage.NewMapping[storage.EraKey, bool](st, "era-planned/"),
	}
}

// Snapshot is everything recorded for a planned era.
type Snapshot struct {
	Era          npos.EraIndex
	StartSession npos.SessionIndex
	Validators   []npos.Address
	Exposures    map[npos.Address]*election.Exposure
	Prefs        map[npos.Address]roles.ValidatorPrefs
}

// Commit stores the snapshot of a planned era.
func (s *Service) Commit(snap *Snapshot) error {
	key := storage.EraKey(snap.Era)
	total := new(big.Int)
	for _, v := range snap.Validators {
		exp, ok := snap.Exposures[v]
		if !ok {
			return errors.Errorf("missing exposure of %v", v)
		}
		ek := storage.EraAddressKey{Era: snap.Era, Address: v}
		if err := s.stakers.Set(ek, exp); err != nil {
			return errors.Wrap(err, "failed to set exposure")
		}
		if err := s.prefs.Set(ek, snap.Prefs[v]); err != nil {
			return errors.Wrap(err, "failed to set prefs")
		}
		total.Add(total, exp.Total)
	}
	if err := s.totalStake.Set(key, total); err != nil {
		return err
	}
	if err := s.validators.Set(key, snap.Validators); err != nil {
		return err
	}
	if err := s.startSession.Set(key, snap.StartSession); err != nil {
		return err
	}
	return s.planned.Set(key, true)
}

// IsPlanned reports whether a snapshot exists for era.
func (s *Service) IsPlanned(era npos.EraIndex) (bool, error) {
	return s.planned.Exists(storage.EraKey(era))
}

// Exposure returns the exposure of validator in era, nil when it was not elected.
func (s *Service) Exposure(era npos.EraIndex, validator npos.Address) (*election.Exposure, error) {
	key := storage.EraAddressKey{Era: era, Address: validator}
	exists, err := s.stakers.Exists(key)
	if err != nil || !exists {
		return nil, err
	}
	return s.stakers.Get(key)
}

// SetExposure overwrites an exposure, used when slashing reduces it.
func (s *Service) SetExposure(era npos.EraIndex, validator npos.Address, exp *election.Exposure) error {
	return s.stakers.Set(storage.EraAddressKey{Era: era, Address: validator}, exp)
}

// Prefs returns the validator prefs recorded for era.
func (s *Service) Prefs(era npos.EraIndex, validator npos.Address) (roles.ValidatorPrefs, error) {
	return s.prefs.Get(storage.EraAddressKey{Era: era, Address: validator})
}

// TotalStake returns the sum of exposures of era.
func (s *Service) TotalStake(era npos.EraIndex) (*big.Int, error) {
	v, err := s.totalStake.Get(storage.EraKey(era))
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

// Validators returns the elected validators of era, in election order.
func (s *Service) Validators(era npos.EraIndex) ([]npos.Address, error) {
	return s.validators.Get(storage.EraKey(era))
}

// StartSession returns the first session of era.
func (s *Service) StartSession(era npos.EraIndex) (npos.SessionIndex, bool, error) {
	key := storage.EraKey(era)
	ok, err := s.planned.Exists(key)
	if err != nil || !ok {
		return 0, false, err
	}
	idx, err := s.startSession.Get(key)
	return idx, err == nil, err
}

// Prune removes every record of era.
func (s *Service) Prune(era npos.EraIndex) error {
	key := storage.EraKey(era)
	validators, err := s.Validators(era)
	if err != nil {
		return err
	}
	for _, v := range validators {
		ek := storage.EraAddressKey{Era: era, Address: v}
		s.stakers.Delete(ek)
		s.prefs.Delete(ek)
	}
	s.totalStake.Delete(key)
	s.validators.Delete(key)
	s.startSession.Delete(key)
	s.planned.Delete(key)
	return nil
}
