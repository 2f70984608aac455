// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/npos"
)

// Currency is the balance module holding the staked funds.
// Staked funds stay in the stash account under a lock that always equals the ledger total.
type Currency interface {
	FreeBalance(who npos.Address) (*big.Int, error)
	TotalIssuance() (*big.Int, error)
	MinimumBalance() *big.Int
	Lock(who npos.Address, amount *big.Int) error
	ExtendLock(who npos.Address, amount *big.Int) error
	Release(who npos.Address, amount *big.Int) error
	// Slash burns up to amount and returns what was actually burnt.
	Slash(who npos.Address, amount *big.Int) (*big.Int, error)
	Deposit(who npos.Address, amount *big.Int) error
}
