// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines what the staking engine reports to the outside world.
package events

import (
	"fmt"
	"math/big"

	"github.com/vechain/npos"
)

// Kind names an event.
type Kind string

const (
	Bonded           Kind = "bonded"
	Unbonded         Kind = "unbonded"
	Rebonded         Kind = "rebonded"
	Withdrawn        Kind = "withdrawn"
	ControllerSet    Kind = "controller-set"
	PayeeSet         Kind = "payee-set"
	ValidatorPrefSet Kind = "validator-prefs-set"
	Nominated        Kind = "nominated"
	Chilled          Kind = "chilled"
	Killed           Kind = "killed"
	EraPlanned       Kind = "era-planned"
	EraActivated     Kind = "era-activated"
	EraPaid          Kind = "era-paid"
	ElectionFailed   Kind = "election-failed"
	OffenceDropped   Kind = "offence-dropped"
	SlashReported    Kind = "slash-reported"
	SlashCancelled   Kind = "slash-cancelled"
	Slashed          Kind = "slashed"
	ReporterRewarded Kind = "reporter-rewarded"
	Rewarded         Kind = "rewarded"
	ForcingSet       Kind = "forcing-set"
)

// Event is one staking event. Stash is the account it is about, Other the counterpart
// (controller, validator, target or reporter) when there is one.
type Event struct {
	Era    npos.EraIndex
	Index  uint32 // position in the era
	Kind   Kind
	Stash  npos.Address
	Other  npos.Address
	Amount *big.Int
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(era: %v, index: %v, kind: %v, stash: %v, other: %v, amount: %v)",
		e.Era, e.Index, e.Kind, e.Stash.AbbrevString(), e.Other.AbbrevString(), e.Amount)
}

// Recorder buffers the events of the ongoing operations, so that a reverted
// operation can drop its own.
type Recorder struct {
	era     npos.EraIndex
	next    uint32
	pending []*Event
}

// SetEra sets the era stamped on the following events and restarts indices when it changes.
func (r *Recorder) SetEra(era npos.EraIndex) {
	if era != r.era {
		r.era = era
		r.next = 0
	}
}

// Emit records an event. Amount may be nil.
func (r *Recorder) Emit(kind Kind, stash, other npos.Address, amount *big.Int) {
	if amount == nil {
		amount = new(big.Int)
	}
	r.pending = append(r.pending, &Event{
		Era:    r.era,
		Index:  r.next,
		Kind:   kind,
		Stash:  stash,
		Other:  other,
		Amount: new(big.Int).Set(amount),
	})
	r.next++
}

// Mark returns a position to Rewind to.
func (r *Recorder) Mark() int {
	return len(r.pending)
}

// Rewind drops the events recorded after mark.
func (r *Recorder) Rewind(mark int) {
	if mark < 0 || mark > len(r.pending) {
		return
	}
	if mark == len(r.pending) {
		return
	}
	r.next -= uint32(len(r.pending) - mark)
	r.pending = r.pending[:mark]
}

// Drain returns and clears the recorded events.
func (r *Recorder) Drain() []*Event {
	evs := r.pending
	r.pending = nil
	return evs
}
