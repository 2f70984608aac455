// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/ledger"
)

// DevAccount names a pre-allocated account of the dev network.
type DevAccount struct {
	Name    string
	Address npos.Address
}

// DevAccounts returns the accounts of the dev network: 4 validators, 6 nominators and the treasury.
func DevAccounts() []DevAccount {
	var accs []DevAccount
	for i := range 4 {
		name := fmt.Sprintf("validator-%d", i)
		accs = append(accs, DevAccount{name, npos.BytesToAddress([]byte(name))})
	}
	for i := range 6 {
		name := fmt.Sprintf("nominator-%d", i)
		accs = append(accs, DevAccount{name, npos.BytesToAddress([]byte(name))})
	}
	return append(accs, DevAccount{"treasury", npos.BytesToAddress([]byte("treasury"))})
}

// NewDevnet returns the genesis of the dev network. Eras are short and every validator
// is backed by two nominators.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	units := func(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), unit) }

	treasury := accs[len(accs)-1].Address
	gen := &Genesis{
		LaunchTime:     1526400000000,
		MinimumBalance: units(1),
		Treasury:       &treasury,
		Config: npos.Config{
			SessionsPerEra:     3,
			BondingDuration:    4,
			SlashDeferDuration: 2,
			HistoryDepth:       16,
			ValidatorCount:     3,
			MinBond:            units(10),
		},
	}
	for _, acc := range accs[:len(accs)-1] {
		gen.Accounts = append(gen.Accounts, Account{Address: acc.Address, Balance: units(10000)})
	}

	validators := accs[:4]
	for i, v := range validators {
		gen.Stakers = append(gen.Stakers, Staker{
			Stash:      v.Address,
			Value:      units(int64(1000 * (i + 1))),
			Payee:      ledger.PayeeStash,
			Role:       RoleValidator,
			Commission: npos.PerbillFromPercent(uint32(5 * i)),
		})
	}
	for i, n := range accs[4:10] {
		gen.Stakers = append(gen.Stakers, Staker{
			Stash: n.Address,
			Value: units(int64(500 * (i + 1))),
			Payee: ledger.PayeeStaked,
			Role:  RoleNominator,
			Targets: []npos.Address{
				validators[i%len(validators)].Address,
				validators[(i+1)%len(validators)].Address,
			},
		})
	}
	return gen
}
