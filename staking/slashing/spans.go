// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"math/big"

	"github.com/vechain/npos"
)

// SlashingSpans divides the history of a stash into spans. A span ends each time the stash is slashed
// for an offence in it, so that offences within one span are only punished by the largest of them.
type SlashingSpans struct {
	SpanIndex        uint32
	LastStart        npos.EraIndex
	LastNonzeroSlash npos.EraIndex
	// Prior holds the lengths of the ended spans, most recent first.
	Prior []npos.EraIndex
}

// Span is one span of a stash. Length is zero for the ongoing one.
type Span struct {
	Index  uint32
	Start  npos.EraIndex
	Length npos.EraIndex
}

func (s Span) contains(era npos.EraIndex) bool {
	return s.Start <= era && (s.Length == 0 || era < s.Start+s.Length)
}

// SpanRecord is what was slashed from, and paid out of, one span.
type SpanRecord struct {
	Slashed *big.Int
	PaidOut *big.Int
}

// NewSlashingSpans starts tracking a stash at windowStart.
func NewSlashingSpans(windowStart npos.EraIndex) *SlashingSpans {
	return &SlashingSpans{LastStart: windowStart, Prior: []npos.EraIndex{}}
}

// Spans returns every span, the ongoing one first.
func (s *SlashingSpans) Spans() []Span {
	spans := []Span{{Index: s.SpanIndex, Start: s.LastStart}}
	start := s.LastStart
	index := s.SpanIndex
	for _, length := range s.Prior {
		start -= length
		index--
		spans = append(spans, Span{Index: index, Start: start, Length: length})
	}
	return spans
}

// SpanOf returns the span holding era, false when era predates every span.
func (s *SlashingSpans) SpanOf(era npos.EraIndex) (Span, bool) {
	for _, span := range s.Spans() {
		if span.contains(era) {
			return span, true
		}
	}
	return Span{}, false
}

// EndSpan ends the ongoing span so that a new one starts after now. It returns false if the
// ongoing span already starts after now.
func (s *SlashingSpans) EndSpan(now npos.EraIndex) bool {
	next := now + 1
	if next <= s.LastStart {
		return false
	}
	s.Prior = append([]npos.EraIndex{next - s.LastStart}, s.Prior...)
	s.LastStart = next
	s.SpanIndex++
	return true
}

// prune drops the spans that ended before windowStart. It returns the span indices
// [from, to) whose records can be removed.
func (s *SlashingSpans) prune(windowStart npos.EraIndex) (from, to uint32, pruned bool) {
	earliest := s.SpanIndex - uint32(len(s.Prior))
	for i, span := range s.Spans()[1:] {
		if span.Start+span.Length <= windowStart {
			s.Prior = s.Prior[:i]
			pruned = true
			break
		}
	}
	if s.LastStart < windowStart {
		s.LastStart = windowStart
	}
	if !pruned {
		return 0, 0, false
	}
	return earliest, s.SpanIndex - uint32(len(s.Prior)), true
}
