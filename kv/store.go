// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the byte level store the state is persisted into.
package kv

// Getter reads kv.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter writes kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Bulk buffers writes until Write applies them atomically.
type Bulk interface {
	Putter
	Write() error
}

// Store is a kv store with atomic bulk writes.
type Store interface {
	Getter
	Putter
	Bulk() Bulk
}

// GetOrNil returns the value of key, or nil when the key is absent.
func GetOrNil(g Getter, key []byte) ([]byte, error) {
	val, err := g.Get(key)
	if err != nil {
		if g.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}
