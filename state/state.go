// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/vechain/npos/cache"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/stackedmap"
)

const defaultCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State buffers writes over a kv store.
// A nil or empty value marks the key as deleted.
type State struct {
	db    kv.Store
	cache *cache.LRU // committed values, including absent ones as nil
	sm    *stackedmap.StackedMap[string, []byte]
}

// New create state object over db.
func New(db kv.Store) *State {
	c, _ := cache.NewLRU(defaultCacheSize)
	s := &State{
		db:    db,
		cache: c,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.committedGetter)
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key string) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(k any) (any, error) {
		metricStateAccess().AddWithLabel(1, map[string]string{"op": "load"})
		return kv.GetOrNil(s.db, []byte(k.(string)))
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), true, nil
}

// Get returns the value of key, nil if absent.
func (s *State) Get(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// Has returns whether key holds a non-empty value.
func (s *State) Has(key []byte) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return len(v) > 0, nil
}

// Put sets value of key. An empty value deletes the key.
func (s *State) Put(key, value []byte) {
	if len(value) == 0 {
		value = nil
	}
	s.sm.Put(string(key), value)
}

// Delete deletes key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), nil)
}

// EncodeValue set value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeValue(key []byte, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.Put(key, raw)
	return nil
}

// DecodeValue get and decode value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeValue(key []byte, dec func([]byte) error) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	// the base revision always stays
	if revision < 1 {
		revision = 1
	}
	s.sm.PopTo(revision)
}

// Stage collects the net changes made since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[string][]byte)
	var keys []string
	s.sm.Journal(func(k string, v []byte) bool {
		if _, ok := changes[k]; !ok {
			keys = append(keys, k)
		}
		changes[k] = v
		return true
	})
	return &Stage{keys: keys, changes: changes}
}

// Commit writes all buffered changes atomically into the underlying store,
// and drops every checkpoint.
func (s *State) Commit() error {
	stage := s.Stage()
	if err := stage.Commit(s.db); err != nil {
		return &Error{err}
	}
	for k, v := range stage.changes {
		s.cache.Add(k, v)
	}
	metricStateAccess().AddWithLabel(int64(stage.Len()), map[string]string{"op": "commit"})
	if rate, changed := s.cache.Stats().HitRate(); changed {
		metricStateCacheHitRate().Set(rate)
	}
	s.reset()
	return nil
}
