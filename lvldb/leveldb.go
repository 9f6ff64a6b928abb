// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb backs kv.Store with goleveldb, on disk or in memory.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/collator-staking/kv"
)

var _ kv.Store = (*LevelDB)(nil)

const minCacheSize = 16 // MiB, and file handles

// Options sizes the database. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int // MiB, split between block cache and write buffer
	OpenFilesCacheCapacity int
}

func (o Options) leveldb() *opt.Options {
	cache := max(o.CacheSize, minCacheSize)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minCacheSize),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // two buffers live at once
		Filter:                 filter.NewBloomFilter(10),
	}
}

type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	return open(stg, opts)
}

// NewMem opens a throwaway database, used by tests and dry runs.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db}, nil
}

func (l *LevelDB) IsNotFound(err error) bool { return errors.Is(err, leveldb.ErrNotFound) }

func (l *LevelDB) Get(key []byte) ([]byte, error) { return l.db.Get(key, nil) }

func (l *LevelDB) Has(key []byte) (bool, error) { return l.db.Has(key, nil) }

func (l *LevelDB) Put(key, val []byte) error { return l.db.Put(key, val, nil) }

func (l *LevelDB) Delete(key []byte) error { return l.db.Delete(key, nil) }

// Close releases the database. Later calls fail.
func (l *LevelDB) Close() error { return l.db.Close() }

func (l *LevelDB) Bulk() kv.Bulk {
	return &batch{l.db, new(leveldb.Batch)}
}

func (l *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return l.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, nil)
}

type batch struct {
	db *leveldb.DB
	*leveldb.Batch
}

func (b *batch) Put(key, val []byte) error {
	b.Batch.Put(key, val)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.Batch.Delete(key)
	return nil
}

func (b *batch) Write() error { return b.db.Write(b.Batch, nil) }
