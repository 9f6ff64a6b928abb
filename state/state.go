// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/vechain/collator-staking/cache"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/stackedmap"
	"github.com/vechain/collator-staking/thor"
)

const (
	// StorageBucket is the kv bucket that holds contract storage.
	StorageBucket = kv.Bucket("s/")

	storageCacheSize = 8192
)

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

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}

// State manages the contract storage of the native contracts.
// Every change is journaled, so it can be reverted to a checkpoint
// and staged into the underlying store at the end of a step.
type State struct {
	db    kv.Store
	store kv.Store
	cache *cache.LRU[storageKey, []byte] // committed values only
	sm    *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object.
func New(db kv.Store) *State {
	c, _ := cache.NewLRU[storageKey, []byte](storageCacheSize)
	return newState(db, c)
}

func newState(db kv.Store, c *cache.LRU[storageKey, []byte]) *State {
	s := &State{
		db:    db,
		store: StorageBucket.NewStore(db),
		cache: c,
	}
	s.sm = stackedmap.New(s.cacheGetter)
	s.sm.Push() // base level, never reverted
	return s
}

// Checkout returns a fresh state over the same store, dropping uncommitted changes.
func (s *State) Checkout() *State {
	return newState(s.db, s.cache)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key storageKey) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(key storageKey) ([]byte, error) {
		v, err := s.store.Get(key.bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, len(v) > 0, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) ([]byte, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
// An empty value deletes the slot.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
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
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every changed slot.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte)
	var order []storageKey
	s.sm.Journal(func(k storageKey, v []byte) bool {
		if _, ok := changes[k]; !ok {
			order = append(order, k)
		}
		changes[k] = v
		return true
	})
	return &Stage{
		db:      s.db,
		cache:   s.cache,
		changes: changes,
		order:   order,
	}
}

// SlotCounts walks the committed storage and counts the slots held by each contract.
func SlotCounts(db kv.Store) (map[thor.Address]int, error) {
	iter := StorageBucket.NewStore(db).Iterate(kv.Range{})
	defer iter.Release()

	counts := make(map[thor.Address]int)
	for iter.Next() {
		if key := iter.Key(); len(key) >= thor.AddressLength {
			counts[thor.BytesToAddress(key[:thor.AddressLength])]++
		}
	}
	if err := iter.Error(); err != nil {
		return nil, &Error{err}
	}
	return counts, nil
}
