// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math/big"

	"github.com/vechain/npos"
)

// Candidate is a validator intent with its own bonded stake, which is its self vote.
type Candidate struct {
	Who       npos.Address
	SelfStake *big.Int
}

// Voter is a nominator backing Targets with Budget.
type Voter struct {
	Who     npos.Address
	Budget  *big.Int
	Targets []npos.Address
}

// Options tune the election.
type Options struct {
	// EqualiseIterations is the number of balancing passes run after the election, 0 disables it.
	EqualiseIterations int
	// Tolerance stops balancing once no voter improves the spread by more than it.
	Tolerance *big.Int
}

// Share is the part of a voter budget assigned to one winner.
type Share struct {
	Target npos.Address
	Value  *big.Int
}

// Assignment is the distribution of one voter budget over the winners it backs.
type Assignment struct {
	Who          npos.Address
	SelfVote     bool
	Distribution []Share
}

// IndividualExposure is the stake of one nominator behind a validator.
type IndividualExposure struct {
	Who   npos.Address
	Value *big.Int
}

// Exposure is the backing of an elected validator.
// Own plus the sum of Others always equals Total.
type Exposure struct {
	Own    *big.Int
	Total  *big.Int
	Others []IndividualExposure
}

// Result is the outcome of an election.
type Result struct {
	// Winners in election order.
	Winners     []npos.Address
	Assignments []Assignment
}
