// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func newTestContext(t *testing.T) *solidity.Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return solidity.NewContext(thor.Address{1}, state.New(db), nil)
}

func newTestList(t *testing.T) *LinkedList {
	return NewLinkedList(newTestContext(t), thor.BytesToBytes32([]byte("list")))
}

func addr(b byte) thor.Address {
	return thor.BytesToAddress([]byte{b})
}

func TestAddAndIter(t *testing.T) {
	l := newTestList(t)

	for i := byte(1); i <= 3; i++ {
		require.NoError(t, l.Add(addr(i)))
	}
	require.NoError(t, l.Add(addr(2)), "duplicates are ignored")

	all, err := l.All()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{addr(1), addr(2), addr(3)}, all)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	head, _ := l.Head()
	tail, _ := l.Tail()
	assert.Equal(t, addr(1), head)
	assert.Equal(t, addr(3), tail)

	assert.ErrorIs(t, l.Add(thor.Address{}), reverts.ErrZeroAddress)
}

func TestRemove(t *testing.T) {
	l := newTestList(t)
	for i := byte(1); i <= 4; i++ {
		require.NoError(t, l.Add(addr(i)))
	}

	// middle
	ok, err := l.Remove(addr(2))
	require.NoError(t, err)
	assert.True(t, ok)
	// head
	ok, _ = l.Remove(addr(1))
	assert.True(t, ok)
	// tail
	ok, _ = l.Remove(addr(4))
	assert.True(t, ok)
	// absent
	ok, _ = l.Remove(addr(9))
	assert.False(t, ok)

	all, _ := l.All()
	assert.Equal(t, []thor.Address{addr(3)}, all)

	contains, _ := l.Contains(addr(2))
	assert.False(t, contains)

	// re-adding appends at the tail
	require.NoError(t, l.Add(addr(1)))
	all, _ = l.All()
	assert.Equal(t, []thor.Address{addr(3), addr(1)}, all)
}

func TestPopAndIterRemoval(t *testing.T) {
	l := newTestList(t)
	for i := byte(1); i <= 3; i++ {
		require.NoError(t, l.Add(addr(i)))
	}

	popped, err := l.Pop()
	require.NoError(t, err)
	assert.Equal(t, addr(1), popped)

	// removing the visited address during iteration is allowed
	var seen []thor.Address
	require.NoError(t, l.Iter(func(a thor.Address) error {
		seen = append(seen, a)
		_, err := l.Remove(a)
		return err
	}))
	assert.Equal(t, []thor.Address{addr(2), addr(3)}, seen)

	n, _ := l.Len()
	assert.Zero(t, n)
	_, err = l.Pop()
	assert.Error(t, err)
}

func TestListsAreIsolated(t *testing.T) {
	sctx := newTestContext(t)
	a := NewLinkedList(sctx, thor.BytesToBytes32([]byte("a")))
	b := NewLinkedList(sctx, thor.BytesToBytes32([]byte("b")))
	require.NoError(t, a.Add(addr(1)))

	contains, err := b.Contains(addr(1))
	require.NoError(t, err)
	assert.False(t, contains)
}
