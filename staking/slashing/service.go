// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/reverts"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// ValidatorSlash is the largest slash of a validator in an era.
type ValidatorSlash struct {
	Fraction npos.Perbill
	Amount   *big.Int
}

// OtherSlash is the slash of a nominator backing a slashed validator.
type OtherSlash struct {
	Who    npos.Address
	Amount *big.Int
}

// UnappliedSlash is a computed slash waiting for its apply era.
type UnappliedSlash struct {
	Validator npos.Address
	Era       npos.EraIndex // era of the offence
	Own       *big.Int
	Others    []OtherSlash
	Reporters []npos.Address
	Payout    *big.Int // owed to reporters
}

// Total returns the sum of own and nominator slashes.
func (u *UnappliedSlash) Total() *big.Int {
	total := new(big.Int).Set(u.Own)
	for _, o := range u.Others {
		total.Add(total, o.Amount)
	}
	return total
}

// Service keeps the slashing records of stashes and the queue of unapplied slashes.
type Service struct {
	spans          *storage.Mapping[npos.Address, *SlashingSpans]
	spanSlash      *storage.Mapping[storage.AddressIndexKey, *SpanRecord]
	validatorSlash *storage.Mapping[storage.EraAddressKey, *ValidatorSlash]
	nominatorSlash *storage.Mapping[storage.EraAddressKey, *big.Int]
	offenders      *storage.Mapping[storage.EraKey, []npos.Address]
	unapplied      *storage.Mapping[storage.EraKey, []*UnappliedSlash]
}

func New(st *state.State) *Service {
	return &Service{
		spans:          storage.NewMapping[npos.Address, *SlashingSpans](st, "slash-spans/"),
		spanSlash:      storage.NewMapping[storage.AddressIndexKey, *SpanRecord](st, "span-slash/"),
		validatorSlash: storage.NewMapping[storage.EraAddressKey, *ValidatorSlash](st, "validator-slash/"),
		nominatorSlash: storage.NewMapping[storage.EraAddressKey, *big.Int](st, "nominator-slash/"),
		offenders:      storage.NewMapping[storage.EraKey, []npos.Address](st, "era-offenders/"),
		unapplied:      storage.NewMapping[storage.EraKey, []*UnappliedSlash](st, "unapplied/"),
	}
}

// Spans returns the spans of stash, nil if it was never slashed.
func (s *Service) Spans(stash npos.Address) (*SlashingSpans, error) {
	exists, err := s.spans.Exists(stash)
	if err != nil || !exists {
		return nil, err
	}
	return s.spans.Get(stash)
}

// SpanRecord returns what was slashed in a span of stash.
func (s *Service) SpanRecord(stash npos.Address, index uint32) (*SpanRecord, error) {
	rec, err := s.spanSlash.Get(storage.AddressIndexKey{Address: stash, Index: index})
	if err != nil {
		return nil, err
	}
	if rec.Slashed == nil {
		rec.Slashed = new(big.Int)
	}
	if rec.PaidOut == nil {
		rec.PaidOut = new(big.Int)
	}
	return rec, nil
}

// ValidatorSlashInEra returns the largest slash of a validator for an offence in era.
func (s *Service) ValidatorSlashInEra(era npos.EraIndex, stash npos.Address) (*ValidatorSlash, error) {
	v, err := s.validatorSlash.Get(storage.EraAddressKey{Era: era, Address: stash})
	if err != nil {
		return nil, err
	}
	if v.Amount == nil {
		v.Amount = new(big.Int)
	}
	return v, nil
}

// NominatorSlashInEra returns the slash of a nominator for offences in era.
func (s *Service) NominatorSlashInEra(era npos.EraIndex, stash npos.Address) (*big.Int, error) {
	return s.nominatorSlash.Get(storage.EraAddressKey{Era: era, Address: stash})
}

func (s *Service) noteOffender(era npos.EraIndex, stash npos.Address) error {
	list, err := s.offenders.Get(storage.EraKey(era))
	if err != nil {
		return err
	}
	for _, a := range list {
		if a == stash {
			return nil
		}
	}
	return s.offenders.Set(storage.EraKey(era), append(list, stash))
}

// Queue adds a slash to be applied at applyEra.
func (s *Service) Queue(applyEra npos.EraIndex, slash *UnappliedSlash) error {
	list, err := s.unapplied.Get(storage.EraKey(applyEra))
	if err != nil {
		return err
	}
	return s.unapplied.Set(storage.EraKey(applyEra), append(list, slash))
}

// Unapplied returns the slashes queued for applyEra.
func (s *Service) Unapplied(applyEra npos.EraIndex) ([]*UnappliedSlash, error) {
	return s.unapplied.Get(storage.EraKey(applyEra))
}

// Take removes and returns the slashes queued for applyEra.
func (s *Service) Take(applyEra npos.EraIndex) ([]*UnappliedSlash, error) {
	list, err := s.unapplied.Get(storage.EraKey(applyEra))
	if err != nil {
		return nil, err
	}
	s.unapplied.Delete(storage.EraKey(applyEra))
	return list, nil
}

// Cancel removes queued slashes of applyEra by index. Indices must be strictly ascending and in range.
func (s *Service) Cancel(applyEra npos.EraIndex, indices []uint32) error {
	if len(indices) == 0 {
		return reverts.ErrInvalidSlashIndex
	}
	list, err := s.unapplied.Get(storage.EraKey(applyEra))
	if err != nil {
		return err
	}
	for i, idx := range indices {
		if int(idx) >= len(list) || (i > 0 && idx <= indices[i-1]) {
			return errors.Wrapf(reverts.ErrInvalidSlashIndex, "index %d", idx)
		}
	}
	kept := make([]*UnappliedSlash, 0, len(list)-len(indices))
	next := 0
	for i, slash := range list {
		if next < len(indices) && int(indices[next]) == i {
			next++
			continue
		}
		kept = append(kept, slash)
	}
	if len(kept) == 0 {
		s.unapplied.Delete(storage.EraKey(applyEra))
		return nil
	}
	return s.unapplied.Set(storage.EraKey(applyEra), kept)
}

// Prune removes the per era slash records of era.
func (s *Service) Prune(era npos.EraIndex) error {
	list, err := s.offenders.Get(storage.EraKey(era))
	if err != nil {
		return err
	}
	for _, stash := range list {
		key := storage.EraAddressKey{Era: era, Address: stash}
		s.validatorSlash.Delete(key)
		s.nominatorSlash.Delete(key)
	}
	s.offenders.Delete(storage.EraKey(era))
	return nil
}

// Clear removes the spans of a stash that is no longer bonded.
func (s *Service) Clear(stash npos.Address) error {
	spans, err := s.Spans(stash)
	if err != nil || spans == nil {
		return err
	}
	for i := spans.SpanIndex - uint32(len(spans.Prior)); i <= spans.SpanIndex; i++ {
		s.spanSlash.Delete(storage.AddressIndexKey{Address: stash, Index: i})
	}
	s.spans.Delete(stash)
	return nil
}
