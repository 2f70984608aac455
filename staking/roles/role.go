// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"github.com/vechain/npos"
)

// Kind tags the role of a stash.
type Kind uint8

const (
	KindIdle Kind = iota
	KindValidator
	KindNominator
)

func (k Kind) String() string {
	switch k {
	case KindValidator:
		return "validator"
	case KindNominator:
		return "nominator"
	default:
		return "idle"
	}
}

// ValidatorPrefs are the terms a validator offers.
type ValidatorPrefs struct {
	Commission npos.Perbill
}

// Nominations are the targets a nominator backs.
type Nominations struct {
	Targets     []npos.Address
	SubmittedIn npos.EraIndex
	// Suppressed is set when the nominator was slashed after submitting.
	Suppressed bool
}

// Role is one of Idle, Validator or Nominator.
type Role interface {
	Kind() Kind
}

type Idle struct{}

type Validator struct {
	Prefs ValidatorPrefs
}

type Nominator struct {
	Nominations Nominations
}

func (Idle) Kind() Kind      { return KindIdle }
func (Validator) Kind() Kind { return KindValidator }
func (Nominator) Kind() Kind { return KindNominator }

// record is the storage form of a Role.
type record struct {
	Kind        Kind
	Commission  npos.Perbill
	Targets     []npos.Address
	SubmittedIn npos.EraIndex
	Suppressed  bool
}

func toRecord(r Role) *record {
	switch v := r.(type) {
	case Validator:
		return &record{Kind: KindValidator, Commission: v.Prefs.Commission}
	case Nominator:
		return &record{
			Kind:        KindNominator,
			Targets:     v.Nominations.Targets,
			SubmittedIn: v.Nominations.SubmittedIn,
			Suppressed:  v.Nominations.Suppressed,
		}
	default:
		return &record{Kind: KindIdle}
	}
}

func (r *record) role() Role {
	switch r.Kind {
	case KindValidator:
		return Validator{Prefs: ValidatorPrefs{Commission: r.Commission}}
	case KindNominator:
		return Nominator{Nominations: Nominations{
			Targets:     r.Targets,
			SubmittedIn: r.SubmittedIn,
			Suppressed:  r.Suppressed,
		}}
	default:
		return Idle{}
	}
}
