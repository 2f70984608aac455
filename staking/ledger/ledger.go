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
)

// UnlockChunk is an amount that becomes withdrawable once Era is reached.
type UnlockChunk struct {
	Value *big.Int
	Era   npos.EraIndex
}

// Ledger is the bonded funds of a stash.
// Total always equals Active plus the sum of the unlocking chunks.
type Ledger struct {
	Stash     npos.Address
	Total     *big.Int
	Active    *big.Int
	Unlocking []UnlockChunk // ascending by era
}

// NewLedger returns a ledger with value fully active.
func NewLedger(stash npos.Address, value *big.Int) *Ledger {
	return &Ledger{
		Stash:  stash,
		Total:  new(big.Int).Set(value),
		Active: new(big.Int).Set(value),
	}
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	cpy := &Ledger{
		Stash:     l.Stash,
		Total:     new(big.Int).Set(l.Total),
		Active:    new(big.Int).Set(l.Active),
		Unlocking: make([]UnlockChunk, len(l.Unlocking)),
	}
	for i, c := range l.Unlocking {
		cpy.Unlocking[i] = UnlockChunk{Value: new(big.Int).Set(c.Value), Era: c.Era}
	}
	return cpy
}

// Unlocked returns the sum of the unlocking chunks.
func (l *Ledger) Unlocked() *big.Int {
	sum := new(big.Int)
	for _, c := range l.Unlocking {
		sum.Add(sum, c.Value)
	}
	return sum
}

// Check verifies the ledger invariant.
func (l *Ledger) Check() error {
	if l.Active.Sign() < 0 {
		return errors.Errorf("negative active stake %v", l.Active)
	}
	sum := l.Unlocked().Add(l.Unlocked(), l.Active)
	if sum.Cmp(l.Total) != 0 {
		return errors.Errorf("ledger total %v != active %v + unlocking %v", l.Total, l.Active, l.Unlocked())
	}
	return nil
}

// Bond adds value to the active stake.
func (l *Ledger) Bond(value *big.Int) {
	l.Active.Add(l.Active, value)
	l.Total.Add(l.Total, value)
}

// Unbond moves up to value from the active stake into a chunk unlocking at era.
// When the remaining active stake would fall below minBond the whole active stake is unbonded.
// It returns the amount actually scheduled.
func (l *Ledger) Unbond(value *big.Int, era npos.EraIndex, maxChunks int, minBond *big.Int) (*big.Int, error) {
	amount := new(big.Int).Set(value)
	if amount.Cmp(l.Active) > 0 {
		amount.Set(l.Active)
	}
	if remaining := new(big.Int).Sub(l.Active, amount); remaining.Sign() > 0 && remaining.Cmp(minBond) < 0 {
		amount.Set(l.Active)
	}
	if amount.Sign() == 0 {
		return amount, nil
	}

	if n := len(l.Unlocking); n > 0 && l.Unlocking[n-1].Era == era {
		l.Unlocking[n-1].Value.Add(l.Unlocking[n-1].Value, amount)
	} else {
		if n >= maxChunks {
			return nil, reverts.ErrTooManyUnlockChunks
		}
		l.Unlocking = append(l.Unlocking, UnlockChunk{Value: new(big.Int).Set(amount), Era: era})
	}
	l.Active.Sub(l.Active, amount)
	return amount, nil
}

// ConsolidateUnlocked drops the chunks unlocked at currentEra and returns their sum.
func (l *Ledger) ConsolidateUnlocked(currentEra npos.EraIndex) *big.Int {
	released := new(big.Int)
	kept := l.Unlocking[:0]
	for _, c := range l.Unlocking {
		if c.Era <= currentEra {
			released.Add(released, c.Value)
		} else {
			kept = append(kept, c)
		}
	}
	l.Unlocking = kept
	l.Total.Sub(l.Total, released)
	return released
}

// Rebond moves up to value from the latest unlocking chunks back to active.
// It returns the amount rebonded.
func (l *Ledger) Rebond(value *big.Int) *big.Int {
	remaining := new(big.Int).Set(value)
	for len(l.Unlocking) > 0 && remaining.Sign() > 0 {
		last := &l.Unlocking[len(l.Unlocking)-1]
		if last.Value.Cmp(remaining) <= 0 {
			remaining.Sub(remaining, last.Value)
			l.Active.Add(l.Active, last.Value)
			l.Unlocking = l.Unlocking[:len(l.Unlocking)-1]
		} else {
			last.Value.Sub(last.Value, remaining)
			l.Active.Add(l.Active, remaining)
			remaining.SetUint64(0)
		}
	}
	return new(big.Int).Sub(value, remaining)
}

// Slash removes up to value from the ledger, active stake first, then the chunks that
// were still bonded at slashEra (those unlocking at slashEra+bondingDuration or later).
// A balance left at or below minimumBalance is slashed too.
// It returns the amount actually slashed.
func (l *Ledger) Slash(value, minimumBalance *big.Int, slashEra, bondingDuration npos.EraIndex) *big.Int {
	preTotal := new(big.Int).Set(l.Total)
	remaining := new(big.Int).Set(value)

	slashOutOf := func(target *big.Int) {
		fromTarget := new(big.Int).Set(remaining)
		if fromTarget.Cmp(target) > 0 {
			fromTarget.Set(target)
		}
		if fromTarget.Sign() == 0 {
			return
		}
		target.Sub(target, fromTarget)
		remaining.Sub(remaining, fromTarget)
		// no dust is left in the staking system
		if target.Cmp(minimumBalance) <= 0 {
			fromTarget.Add(fromTarget, target)
			target.SetUint64(0)
		}
		l.Total.Sub(l.Total, fromTarget)
	}

	slashOutOf(l.Active)

	minEra := slashEra + bondingDuration
	kept := l.Unlocking[:0]
	for _, c := range l.Unlocking {
		if c.Era >= minEra && remaining.Sign() > 0 {
			slashOutOf(c.Value)
		}
		if c.Value.Sign() > 0 {
			kept = append(kept, c)
		}
	}
	l.Unlocking = kept

	return preTotal.Sub(preTotal, l.Total)
}
