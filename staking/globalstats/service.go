// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// Service manages engine wide staking totals.
// Bonded is active stake, unlocking is stake waiting in unlock chunks.
type Service struct {
	bonded    *storage.Uint256
	unlocking *storage.Uint256
	slashed   *storage.Uint256
	rewarded  *storage.Uint256
}

func New(st *state.State) *Service {
	return &Service{
		bonded:    storage.NewUint256(st, "total-bonded"),
		unlocking: storage.NewUint256(st, "total-unlocking"),
		slashed:   storage.NewUint256(st, "total-slashed"),
		rewarded:  storage.NewUint256(st, "total-rewarded"),
	}
}

// Bonded returns the total active stake.
func (s *Service) Bonded() (*big.Int, error) {
	return s.bonded.Get()
}

// Unlocking returns the total stake in unlock chunks.
func (s *Service) Unlocking() (*big.Int, error) {
	return s.unlocking.Get()
}

// Slashed returns the total ever slashed.
func (s *Service) Slashed() (*big.Int, error) {
	return s.slashed.Get()
}

// Rewarded returns the total ever paid out to stakers.
func (s *Service) Rewarded() (*big.Int, error) {
	return s.rewarded.Get()
}

// AddBonded records new active stake.
func (s *Service) AddBonded(amount *big.Int) error {
	return s.bonded.Add(amount)
}

// ApplyUnbond moves stake from active to unlocking.
func (s *Service) ApplyUnbond(amount *big.Int) error {
	if err := s.bonded.Sub(amount); err != nil {
		return err
	}
	return s.unlocking.Add(amount)
}

// ApplyRebond moves stake from unlocking back to active.
func (s *Service) ApplyRebond(amount *big.Int) error {
	if err := s.unlocking.Sub(amount); err != nil {
		return err
	}
	return s.bonded.Add(amount)
}

// ApplyWithdraw removes withdrawn stake from unlocking.
func (s *Service) ApplyWithdraw(amount *big.Int) error {
	return s.unlocking.Sub(amount)
}

// ApplySlash removes slashed stake, active first then unlocking.
func (s *Service) ApplySlash(fromActive, fromUnlocking *big.Int) error {
	if err := s.bonded.Sub(fromActive); err != nil {
		return err
	}
	if err := s.unlocking.Sub(fromUnlocking); err != nil {
		return err
	}
	if err := s.slashed.Add(fromActive); err != nil {
		return err
	}
	return s.slashed.Add(fromUnlocking)
}

// AddRewarded records a payout.
func (s *Service) AddRewarded(amount *big.Int) error {
	return s.rewarded.Add(amount)
}
