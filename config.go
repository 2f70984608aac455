// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package npos

import (
	"math/big"

	"github.com/pkg/errors"
)

// Config is the configurable parameters of the staking engine. Production networks use the defaults,
// custom networks and tests can override any non-zero field via Merge.
type Config struct {
	SessionsPerEra        uint32   `json:"sessionsPerEra" yaml:"sessionsPerEra"`               // sessions in one era
	BondingDuration       uint32   `json:"bondingDuration" yaml:"bondingDuration"`             // eras an unlock chunk waits before being withdrawable
	SlashDeferDuration    uint32   `json:"slashDeferDuration" yaml:"slashDeferDuration"`       // eras an unapplied slash waits before being applied, 0 applies immediately
	HistoryDepth          uint32   `json:"historyDepth" yaml:"historyDepth"`                   // eras of history (exposures, rewards) kept for payouts
	MaxNominations        uint32   `json:"maxNominations" yaml:"maxNominations"`               // max targets of a nomination
	MaxUnlockingChunks    uint32   `json:"maxUnlockingChunks" yaml:"maxUnlockingChunks"`       // max pending unlock chunks per ledger
	MinBond               *big.Int `json:"minBond" yaml:"minBond"`                             // minimum active bond
	ValidatorCount        uint32   `json:"validatorCount" yaml:"validatorCount"`               // initial desired validator count
	MinimumValidatorCount uint32   `json:"minimumValidatorCount" yaml:"minimumValidatorCount"` // elections yielding fewer winners keep the old set
	PointsPerBlock        uint32   `json:"pointsPerBlock" yaml:"pointsPerBlock"`               // era points for an authored block
	SlashRewardFraction   Perbill  `json:"slashRewardFraction" yaml:"slashRewardFraction"`     // share of slashed funds paid to reporters
	EqualiseIterations    uint32   `json:"equaliseIterations" yaml:"equaliseIterations"`       // election post-processing rounds, 0 disables
	EqualiseTolerance     uint64   `json:"equaliseTolerance" yaml:"equaliseTolerance"`
}

var defaultConfig = Config{
	SessionsPerEra:        6,
	BondingDuration:       28,
	SlashDeferDuration:    27,
	HistoryDepth:          84,
	MaxNominations:        16,
	MaxUnlockingChunks:    32,
	MinBond:               big.NewInt(1),
	ValidatorCount:        100,
	MinimumValidatorCount: 1,
	PointsPerBlock:        20,
	SlashRewardFraction:   PerbillFromPercent(10),
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	c := defaultConfig
	c.MinBond = new(big.Int).Set(defaultConfig.MinBond)
	return c
}

// Merge returns a copy of c where every non-zero field of o takes precedence.
func (c Config) Merge(o Config) Config {
	if o.SessionsPerEra != 0 {
		c.SessionsPerEra = o.SessionsPerEra
	}
	if o.BondingDuration != 0 {
		c.BondingDuration = o.BondingDuration
	}
	if o.SlashDeferDuration != 0 {
		c.SlashDeferDuration = o.SlashDeferDuration
	}
	if o.HistoryDepth != 0 {
		c.HistoryDepth = o.HistoryDepth
	}
	if o.MaxNominations != 0 {
		c.MaxNominations = o.MaxNominations
	}
	if o.MaxUnlockingChunks != 0 {
		c.MaxUnlockingChunks = o.MaxUnlockingChunks
	}
	if o.MinBond != nil && o.MinBond.Sign() != 0 {
		c.MinBond = new(big.Int).Set(o.MinBond)
	}
	if o.ValidatorCount != 0 {
		c.ValidatorCount = o.ValidatorCount
	}
	if o.MinimumValidatorCount != 0 {
		c.MinimumValidatorCount = o.MinimumValidatorCount
	}
	if o.PointsPerBlock != 0 {
		c.PointsPerBlock = o.PointsPerBlock
	}
	if o.SlashRewardFraction != 0 {
		c.SlashRewardFraction = o.SlashRewardFraction
	}
	if o.EqualiseIterations != 0 {
		c.EqualiseIterations = o.EqualiseIterations
	}
	if o.EqualiseTolerance != 0 {
		c.EqualiseTolerance = o.EqualiseTolerance
	}
	return c
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.SessionsPerEra == 0 {
		return errors.New("sessionsPerEra must be positive")
	}
	if c.MaxNominations == 0 {
		return errors.New("maxNominations must be positive")
	}
	if c.MaxUnlockingChunks == 0 {
		return errors.New("maxUnlockingChunks must be positive")
	}
	if c.HistoryDepth == 0 {
		return errors.New("historyDepth must be positive")
	}
	// a slash must be applied while the offending stake is still bonded
	if c.SlashDeferDuration >= c.BondingDuration && c.SlashDeferDuration != 0 {
		return errors.Errorf("slashDeferDuration (%d) must be lower than bondingDuration (%d)", c.SlashDeferDuration, c.BondingDuration)
	}
	if c.MinBond != nil && c.MinBond.Sign() < 0 {
		return errors.New("minBond must not be negative")
	}
	if !c.SlashRewardFraction.Valid() {
		return errors.New("slashRewardFraction exceeds one")
	}
	return nil
}

// MinBondAmount returns a copy of MinBond, zero when unset.
func (c Config) MinBondAmount() *big.Int {
	if c.MinBond == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.MinBond)
}
