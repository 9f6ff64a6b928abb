// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket is a key prefix carving a private keyspace out of a shared store.
// The staking state, the genesis record and the chain head each live in
// their own bucket of the same database.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

func (b Bucket) NewPutter(dst Putter) Putter {
	return &bucketPutter{b, dst}
}

// NewStore scopes every operation of src, iteration included, to the bucket.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucketGetter{b, src}, bucketPutter{b, src}, src}
}

type bucketGetter struct {
	bucket Bucket
	src    Getter
}

func (g *bucketGetter) Get(k []byte) ([]byte, error) { return g.src.Get(g.bucket.key(k)) }
func (g *bucketGetter) Has(k []byte) (bool, error)   { return g.src.Has(g.bucket.key(k)) }
func (g *bucketGetter) IsNotFound(err error) bool    { return g.src.IsNotFound(err) }

type bucketPutter struct {
	bucket Bucket
	dst    Putter
}

func (p *bucketPutter) Put(k, v []byte) error  { return p.dst.Put(p.bucket.key(k), v) }
func (p *bucketPutter) Delete(k []byte) error { return p.dst.Delete(p.bucket.key(k)) }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src Store
}

func (s *bucketStore) Bulk() Bulk {
	bulk := s.src.Bulk()
	return &bucketBulk{bucketPutter{s.bucketPutter.bucket, bulk}, bulk}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	b := s.bucketGetter.bucket
	limit := util.BytesPrefix([]byte(b)).Limit
	if len(r.Limit) > 0 {
		limit = b.key(r.Limit)
	}
	return &bucketIterator{s.src.Iterate(Range{Start: b.key(r.Start), Limit: limit}), len(b)}
}

type bucketBulk struct {
	bucketPutter
	bulk Bulk
}

func (b *bucketBulk) Len() int     { return b.bulk.Len() }
func (b *bucketBulk) Write() error { return b.bulk.Write() }

// bucketIterator strips the prefix from returned keys.
type bucketIterator struct {
	Iterator
	prefix int
}

func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.prefix:] }
