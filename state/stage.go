// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/cache"
	"github.com/vechain/collator-staking/kv"
)

// Stage abstracts the pending changes of a state.
type Stage struct {
	db      kv.Store
	cache   *cache.LRU[storageKey, []byte]
	changes map[storageKey][]byte
	order   []storageKey
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit atomically writes all changes into the store, together with
// whatever the extra funcs put into the same batch.
func (s *Stage) Commit(extra ...func(kv.Putter) error) error {
	if len(s.changes) == 0 && len(extra) == 0 {
		return nil
	}
	bulk := s.db.Bulk()
	put := StorageBucket.NewPutter(bulk)
	for _, k := range s.order {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = put.Delete(k.bytes())
		} else {
			err = put.Put(k.bytes(), v)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	for _, fn := range extra {
		if err := fn(bulk); err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	metricSlotsWritten().Add(int64(len(s.changes)))

	for k, v := range s.changes {
		s.cache.Add(k, v)
	}
	return nil
}
