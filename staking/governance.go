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
)

// SetValidatorCount sets the number of validators elected from the next election on.
func (s *Staking) SetValidatorCount(n uint32) error {
	if n < s.config.MinimumValidatorCount {
		return errors.Errorf("validator count %d below minimum %d", n, s.config.MinimumValidatorCount)
	}
	return s.atomic("set-validator-count", func() error {
		return s.validatorCount.Set(n)
	})
}

// ForceNewEra plans a new era at the next session end.
func (s *Staking) ForceNewEra() error {
	return s.setForcing(ForceNew)
}

// ForceNoEras stops planning eras until forcing changes.
func (s *Staking) ForceNoEras() error {
	return s.setForcing(ForceNone)
}

// ForceNewEraAlways plans a new era at every session end.
func (s *Staking) ForceNewEraAlways() error {
	return s.setForcing(ForceAlways)
}

// ClearForcing goes back to planning eras every SessionsPerEra sessions.
func (s *Staking) ClearForcing() error {
	return s.setForcing(NotForcing)
}

func (s *Staking) setForcing(f Forcing) error {
	logger.Info("set forcing", "forcing", f)
	return s.atomic("set-forcing", func() error {
		if err := s.forcing.Set(f); err != nil {
			return err
		}
		s.emit(events.ForcingSet, npos.Address{}, npos.Address{}, big.NewInt(int64(f)))
		return nil
	})
}

// SetInvulnerables sets the validators that offences never slash.
func (s *Staking) SetInvulnerables(validators []npos.Address) error {
	return s.atomic("set-invulnerables", func() error {
		return s.invulnerables.Set(append([]npos.Address{}, validators...))
	})
}
