// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store the staking state is persisted to.
package kv

type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// IsNotFound reports whether err was returned by Get for a missing key.
	IsNotFound(err error) bool
}

type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Bulk buffers writes until Write applies them atomically.
type Bulk interface {
	Putter
	Len() int
	Write() error
}

// Iterator walks key/value pairs in ascending key order.
// Key and Value are only valid until the next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Range selects keys in [Start, Limit). An empty Limit means no upper bound.
type Range struct {
	Start []byte
	Limit []byte
}

type Store interface {
	Getter
	Putter
	Bulk() Bulk
	Iterate(r Range) Iterator
}
