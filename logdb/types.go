// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/npos"
	"github.com/vechain/npos/staking/events"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range selects eras From to To, both included. A To lower than From leaves the range open.
type Range struct {
	From npos.EraIndex
	To   npos.EraIndex
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-nil field.
type EventCriteria struct {
	Kind  *events.Kind
	Stash *npos.Address
	Other *npos.Address
}

// EventFilter selects events matching any of CriteriaSet, or all events when it is empty.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
