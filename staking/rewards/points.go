// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/npos"
)

// IndividualPoints is the points earned by one validator in an era.
type IndividualPoints struct {
	Who    npos.Address
	Points uint64
}

// EraRewardPoints is the points of an era, kept in first award order.
type EraRewardPoints struct {
	Total      uint64
	Individual []IndividualPoints
}

// Of returns the points of a validator.
func (p *EraRewardPoints) Of(who npos.Address) uint64 {
	for _, ip := range p.Individual {
		if ip.Who == who {
			return ip.Points
		}
	}
	return 0
}

// Add awards points to a validator.
func (p *EraRewardPoints) Add(who npos.Address, points uint64) error {
	total, overflow := math.SafeAdd(p.Total, points)
	if overflow {
		return errors.New("era points overflow")
	}
	for i := range p.Individual {
		if p.Individual[i].Who == who {
			sum, overflow := math.SafeAdd(p.Individual[i].Points, points)
			if overflow {
				return errors.New("validator points overflow")
			}
			p.Individual[i].Points = sum
			p.Total = total
			return nil
		}
	}
	p.Individual = append(p.Individual, IndividualPoints{Who: who, Points: points})
	p.Total = total
	return nil
}
