// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, RLP encoded records over a state.State.
package storage

import (
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/npos"
	"github.com/vechain/npos/state"
)

type Key interface {
	Bytes() []byte
}

// RawKey is a Key over plain bytes.
type RawKey []byte

func (k RawKey) Bytes() []byte { return k }

// EraKey keys a record by era.
type EraKey npos.EraIndex

func (k EraKey) Bytes() []byte { return npos.EraKey(npos.EraIndex(k)) }

// EraAddressKey keys a record by (era, address).
type EraAddressKey struct {
	Era     npos.EraIndex
	Address npos.Address
}

func (k EraAddressKey) Bytes() []byte {
	return append(npos.EraKey(k.Era), k.Address[:]...)
}

// AddressIndexKey keys a record by (address, index).
type AddressIndexKey struct {
	Address npos.Address
	Index   uint32
}

func (k AddressIndexKey) Bytes() []byte {
	return append(k.Address.Bytes(), npos.EraKey(k.Index)...)
}

// position derives the state key of a record: the bucket name followed by the blake2b hash of the key.
func position(bucket string, key []byte) []byte {
	h := npos.Blake2b([]byte(bucket), key)
	return append([]byte(bucket), h[:]...)
}

// Mapping is a typed key/value bucket.
// A missing record decodes as the zero value of V (a new allocation when V is a pointer).
type Mapping[K Key, V any] struct {
	state  *state.State
	bucket string
}

func NewMapping[K Key, V any](st *state.State, bucket string) *Mapping[K, V] {
	return &Mapping[K, V]{state: st, bucket: bucket}
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.state.DecodeValue(position(m.bucket, key.Bytes()), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether a record is stored for key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	return m.state.Has(position(m.bucket, key.Bytes()))
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.state.EncodeValue(position(m.bucket, key.Bytes()), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (m *Mapping[K, V]) Delete(key K) {
	m.state.Delete(position(m.bucket, key.Bytes()))
}

// Value is a single typed record.
type Value[V any] struct {
	state *state.State
	key   []byte
}

func NewValue[V any](st *state.State, name string) *Value[V] {
	return &Value[V]{state: st, key: position(name, nil)}
}

func (v *Value[V]) Get() (value V, err error) {
	err = v.state.DecodeValue(v.key, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether the record was ever set.
func (v *Value[V]) Exists() (bool, error) {
	return v.state.Has(v.key)
}

func (v *Value[V]) Set(value V) error {
	return v.state.EncodeValue(v.key, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (v *Value[V]) Delete() {
	v.state.Delete(v.key)
}

// Uint256 is a big integer counter. Missing means zero.
type Uint256 struct {
	state *state.State
	key   []byte
}

func NewUint256(st *state.State, name string) *Uint256 {
	return &Uint256{state: st, key: position(name, nil)}
}

func (u *Uint256) Get() (*big.Int, error) {
	raw, err := u.state.Get(u.key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (u *Uint256) Set(value *big.Int) {
	u.state.Put(u.key, value.Bytes())
}

func (u *Uint256) Add(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(v.Add(v, value))
	return nil
}

// Sub subtracts value, saturating at zero.
func (u *Uint256) Sub(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	v.Sub(v, value)
	if v.Sign() < 0 {
		v.SetUint64(0)
	}
	u.Set(v)
	return nil
}
