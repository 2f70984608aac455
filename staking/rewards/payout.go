// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/election"
)

// Payment is an amount owed to a staker.
type Payment struct {
	Who    npos.Address
	Amount *big.Int
}

// ValidatorShare returns the part of the era reward pool earned by points, rounded down.
func ValidatorShare(eraReward *big.Int, points, totalPoints uint64) *big.Int {
	if totalPoints == 0 || points == 0 {
		return new(big.Int)
	}
	share := new(big.Int).Mul(eraReward, new(big.Int).SetUint64(points))
	return share.Quo(share, new(big.Int).SetUint64(totalPoints))
}

// Split divides the share of a validator among its exposure. The validator takes its commission first,
// the rest is split pro-rata across own and nominated stake. Every part rounds down, so the sum never
// exceeds share. The validator payment comes first, followed by nominators in exposure order.
func Split(validator npos.Address, share *big.Int, commission npos.Perbill, exp *election.Exposure) []Payment {
	commissionPay := commission.Mul(share)
	leftover := new(big.Int).Sub(share, commissionPay)

	portion := func(stake *big.Int) *big.Int {
		if exp.Total.Sign() == 0 {
			return new(big.Int)
		}
		v := new(big.Int).Mul(leftover, stake)
		return v.Quo(v, exp.Total)
	}

	own := portion(exp.Own)
	if exp.Total.Sign() == 0 {
		// nobody backs the validator, it keeps all
		own = leftover
	}
	payments := []Payment{{Who: validator, Amount: new(big.Int).Add(commissionPay, own)}}
	for _, o := range exp.Others {
		payments = append(payments, Payment{Who: o.Who, Amount: portion(o.Value)})
	}
	return payments
}
