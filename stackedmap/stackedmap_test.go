// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/collator-staking/stackedmap"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	get := func(key string) string {
		v, _, err := sm.Get(key)
		assert.NoError(t, err)
		return v
	}

	assert.Equal(t, 0, sm.Depth())
	assert.Equal(t, "bar", get("foo"))

	assert.Equal(t, 0, sm.Push())
	sm.Put("foo", "baz")
	sm.Put("foo", "baz1")
	assert.Equal(t, "baz1", get("foo"))

	assert.Equal(t, 1, sm.Push())
	sm.Put("foo", "qux")
	assert.Equal(t, "qux", get("foo"))

	sm.Pop()
	assert.Equal(t, "baz1", get("foo"))
	sm.Pop()
	assert.Equal(t, "bar", get("foo"))

	sm.Push()
	sm.Push()
	sm.PopTo(0)
	assert.Equal(t, 0, sm.Depth())

	_, found, err := sm.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
	}
	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}

	var journal []string
	sm.Journal(func(k, v string) bool {
		journal = append(journal, k+"="+v)
		return true
	})
	assert.Equal(t, []string{"a=b", "a=b", "a1=b1", "a2=b2"}, journal)

	sm.PopTo(2)
	journal = journal[:0]
	sm.Journal(func(k, v string) bool {
		journal = append(journal, k+"="+v)
		return len(journal) < 1
	})
	assert.Equal(t, []string{"a=b"}, journal, "callback returning false stops traversal")

	v, found, _ := sm.Get("a1")
	assert.False(t, found)
	assert.Empty(t, v)
}
