// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/npos"
	"github.com/vechain/npos/state"
	"github.com/vechain/npos/storage"
)

// LinkedList is a storage backed list of addresses in insertion order.
// The zero address terminates the list and cannot be stored.
type LinkedList struct {
	head  *storage.Value[npos.Address]
	tail  *storage.Value[npos.Address]
	count *storage.Uint256
	next  *storage.Mapping[npos.Address, npos.Address]
	prev  *storage.Mapping[npos.Address, npos.Address]
}

// New creates a list whose records live under the given name.
func New(st *state.State, name string) *LinkedList {
	return &LinkedList{
		head:  storage.NewValue[npos.Address](st, name+"/head"),
		tail:  storage.NewValue[npos.Address](st, name+"/tail"),
		count: storage.NewUint256(st, name+"/count"),
		next:  storage.NewMapping[npos.Address, npos.Address](st, name+"/next/"),
		prev:  storage.NewMapping[npos.Address, npos.Address](st, name+"/prev/"),
	}
}

// Add appends an address to the end of the list. Adding a member again is a no-op.
func (l *LinkedList) Add(address npos.Address) error {
	if address.IsZero() {
		return errors.New("zero address")
	}
	if ok, err := l.Contains(address); err != nil || ok {
		return err
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		if err := l.head.Set(address); err != nil {
			return err
		}
		if err := l.tail.Set(address); err != nil {
			return err
		}
		return l.count.Add(big.NewInt(1))
	}

	if err := l.next.Set(oldTail, address); err != nil {
		return err
	}
	if err := l.prev.Set(address, oldTail); err != nil {
		return err
	}
	if err := l.tail.Set(address); err != nil {
		return err
	}
	return l.count.Add(big.NewInt(1))
}

// Remove unlinks an address from anywhere in the list. Removing a non member is a no-op.
func (l *LinkedList) Remove(address npos.Address) error {
	if ok, err := l.Contains(address); err != nil || !ok {
		return err
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return err
	}

	if !prev.IsZero() {
		if err := l.next.Set(prev, next); err != nil {
			return err
		}
	} else if err := l.head.Set(next); err != nil {
		return err
	}

	if !next.IsZero() {
		if err := l.prev.Set(next, prev); err != nil {
			return err
		}
	} else if err := l.tail.Set(prev); err != nil {
		return err
	}

	l.next.Delete(address)
	l.prev.Delete(address)
	return l.count.Sub(big.NewInt(1))
}

// Contains reports whether address is a member.
func (l *LinkedList) Contains(address npos.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == address, nil
}

// Head returns the oldest address, zero when the list is empty.
func (l *LinkedList) Head() (npos.Address, error) {
	return l.head.Get()
}

// Next returns the successor address in the list, or zero address if at the end.
func (l *LinkedList) Next(address npos.Address) (npos.Address, error) {
	return l.next.Get(address)
}

// Len returns the number of members.
func (l *LinkedList) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter traverses the list in insertion order, calling callback for each address until completion or error.
// The callback may remove the visited address.
func (l *LinkedList) Iter(callback func(npos.Address) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}

	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// All returns all members in insertion order.
func (l *LinkedList) All() ([]npos.Address, error) {
	var all []npos.Address
	err := l.Iter(func(a npos.Address) error {
		all = append(all, a)
		return nil
	})
	return all, err
}
