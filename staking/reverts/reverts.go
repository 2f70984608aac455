// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a rejection of a staking operation. It never indicates a broken store.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInsufficientBond          = New("insufficient bond")
	ErrAlreadyBonded             = New("already bonded")
	ErrNotBonded                 = New("not bonded")
	ErrNotController             = New("not a controller")
	ErrTooManyUnlockChunks       = New("too many unlock chunks")
	ErrInvalidNominationTargets  = New("invalid nomination targets")
	ErrDuplicateRole             = New("duplicate role")
	ErrBadCommission             = New("commission out of range")
	ErrElectionProducedNoWinners = New("election produced no winners")
	ErrMalformedOffenceReport    = New("malformed offence report")
	ErrDoublePayout              = New("reward already claimed")
	ErrInvalidEra                = New("invalid era")
	ErrNotElected                = New("not elected")
	ErrInvalidSlashIndex         = New("invalid slash index")
)
