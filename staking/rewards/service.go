// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// Service keeps era points, era reward pools and claim markers.
type Service struct {
	points  *storage.Mapping[storage.EraKey, *EraRewardPoints]
	reward  *storage.Mapping[storage.EraKey, *big.Int]
	claimed *storage.Mapping[storage.EraAddressKey, bool]
}

func New(st *state.State) *Service {
	return &Service{
		points:  storage.NewMapping[storage.EraKey, *EraRewardPoints](st, "era-points/"),
		reward:  storage.NewMapping[storage.EraKey, *big.Int](st, "era-reward/"),
		claimed: storage.NewMapping[storage.EraAddressKey, bool](st, "era-claimed/"),
	}
}

// Points returns the points of an era, empty if none were awarded.
func (s *Service) Points(era npos.EraIndex) (*EraRewardPoints, error) {
	return s.points.Get(storage.EraKey(era))
}

// Reward adds points to validators of an era.
func (s *Service) Reward(era npos.EraIndex, awards ...IndividualPoints) error {
	if len(awards) == 0 {
		return nil
	}
	pts, err := s.points.Get(storage.EraKey(era))
	if err != nil {
		return err
	}
	for _, a := range awards {
		if err := pts.Add(a.Who, a.Points); err != nil {
			return errors.Wrapf(err, "era %d", era)
		}
	}
	return s.points.Set(storage.EraKey(era), pts)
}

// EraReward returns the validator reward pool of an era, zero if not settled.
func (s *Service) EraReward(era npos.EraIndex) (*big.Int, error) {
	return s.reward.Get(storage.EraKey(era))
}

// IsSettled tells whether the reward pool of an era was recorded.
func (s *Service) IsSettled(era npos.EraIndex) (bool, error) {
	return s.reward.Exists(storage.EraKey(era))
}

func (s *Service) SetEraReward(era npos.EraIndex, amount *big.Int) error {
	return s.reward.Set(storage.EraKey(era), amount)
}

// IsClaimed tells whether the reward of a validator in an era was paid.
func (s *Service) IsClaimed(era npos.EraIndex, validator npos.Address) (bool, error) {
	return s.claimed.Get(storage.EraAddressKey{Era: era, Address: validator})
}

func (s *Service) SetClaimed(era npos.EraIndex, validator npos.Address) error {
	return s.claimed.Set(storage.EraAddressKey{Era: era, Address: validator}, true)
}

// Prune removes the points and reward pool of an era, along with the claim markers of the given validators.
func (s *Service) Prune(era npos.EraIndex, validators []npos.Address) {
	s.points.Delete(storage.EraKey(era))
	s.reward.Delete(storage.EraKey(era))
	for _, v := range validators {
		s.claimed.Delete(storage.EraAddressKey{Era: era, Address: v})
	}
}
