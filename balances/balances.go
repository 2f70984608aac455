// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package balances is a minimal account balance module with a single staking lock per account.
package balances

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

var (
	logger = log.WithContext("pkg", "balances")

	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Balances keeps free balances and staking locks. Locked funds are part of the free balance,
// they only cannot be transferred.
type Balances struct {
	free     *storage.Mapping[npos.Address, *big.Int]
	locked   *storage.Mapping[npos.Address, *big.Int]
	issuance *storage.Uint256
	minimum  *big.Int
}

func New(st *state.State, minimumBalance *big.Int) *Balances {
	if minimumBalance == nil {
		minimumBalance = new(big.Int)
	}
	return &Balances{
		free:     storage.NewMapping[npos.Address, *big.Int](st, "balance/"),
		locked:   storage.NewMapping[npos.Address, *big.Int](st, "lock/"),
		issuance: storage.NewUint256(st, "total-issuance"),
		minimum:  new(big.Int).Set(minimumBalance),
	}
}

// FreeBalance returns the balance of who, locked funds included.
func (b *Balances) FreeBalance(who npos.Address) (*big.Int, error) {
	return b.free.Get(who)
}

// Locked returns the staking lock of who.
func (b *Balances) Locked(who npos.Address) (*big.Int, error) {
	return b.locked.Get(who)
}

// Transferable returns the balance of who that is not locked.
func (b *Balances) Transferable(who npos.Address) (*big.Int, error) {
	free, err := b.free.Get(who)
	if err != nil {
		return nil, err
	}
	locked, err := b.locked.Get(who)
	if err != nil {
		return nil, err
	}
	free.Sub(free, locked)
	if free.Sign() < 0 {
		free.SetUint64(0)
	}
	return free, nil
}

func (b *Balances) TotalIssuance() (*big.Int, error) {
	return b.issuance.Get()
}

func (b *Balances) MinimumBalance() *big.Int {
	return new(big.Int).Set(b.minimum)
}

// Lock sets the staking lock of who to amount.
func (b *Balances) Lock(who npos.Address, amount *big.Int) error {
	free, err := b.free.Get(who)
	if err != nil {
		return err
	}
	if amount.Cmp(free) > 0 {
		return errors.Wrapf(ErrInsufficientBalance, "lock %v on %v of %v", amount, free, who)
	}
	return b.setLocked(who, amount)
}

// ExtendLock raises the staking lock of who by amount.
func (b *Balances) ExtendLock(who npos.Address, amount *big.Int) error {
	locked, err := b.locked.Get(who)
	if err != nil {
		return err
	}
	return b.Lock(who, locked.Add(locked, amount))
}

// Release lowers the staking lock of who by amount, down to zero.
func (b *Balances) Release(who npos.Address, amount *big.Int) error {
	locked, err := b.locked.Get(who)
	if err != nil {
		return err
	}
	locked.Sub(locked, amount)
	if locked.Sign() < 0 {
		locked.SetUint64(0)
	}
	return b.setLocked(who, locked)
}

// Slash burns up to amount from who, and returns what was actually burnt.
func (b *Balances) Slash(who npos.Address, amount *big.Int) (*big.Int, error) {
	free, err := b.free.Get(who)
	if err != nil {
		return nil, err
	}
	actual := new(big.Int).Set(amount)
	if actual.Cmp(free) > 0 {
		actual.Set(free)
	}
	if actual.Sign() <= 0 {
		return new(big.Int), nil
	}
	free.Sub(free, actual)
	if err := b.setFree(who, free); err != nil {
		return nil, err
	}
	locked, err := b.locked.Get(who)
	if err != nil {
		return nil, err
	}
	if locked.Cmp(free) > 0 {
		if err := b.setLocked(who, free); err != nil {
			return nil, err
		}
	}
	if err := b.issuance.Sub(actual); err != nil {
		return nil, err
	}
	logger.Debug("slashed", "who", who, "amount", actual)
	return actual, nil
}

// Deposit mints amount to who.
func (b *Balances) Deposit(who npos.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	free, err := b.free.Get(who)
	if err != nil {
		return err
	}
	if err := b.setFree(who, free.Add(free, amount)); err != nil {
		return err
	}
	return b.issuance.Add(amount)
}

// Transfer moves amount of unlocked funds.
func (b *Balances) Transfer(from, to npos.Address, amount *big.Int) error {
	transferable, err := b.Transferable(from)
	if err != nil {
		return err
	}
	if amount.Cmp(transferable) > 0 {
		return errors.Wrapf(ErrInsufficientBalance, "transfer %v from %v", amount, from)
	}
	free, err := b.free.Get(from)
	if err != nil {
		return err
	}
	if err := b.setFree(from, free.Sub(free, amount)); err != nil {
		return err
	}
	dest, err := b.free.Get(to)
	if err != nil {
		return err
	}
	return b.setFree(to, dest.Add(dest, amount))
}

func (b *Balances) setFree(who npos.Address, v *big.Int) error {
	if v.Sign() == 0 {
		b.free.Delete(who)
		return nil
	}
	return b.free.Set(who, v)
}

func (b *Balances) setLocked(who npos.Address, v *big.Int) error {
	if v.Sign() == 0 {
		b.locked.Delete(who)
		return nil
	}
	return b.locked.Set(who, v)
}
