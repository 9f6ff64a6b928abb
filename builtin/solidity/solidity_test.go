// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/gascharger"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

type TestStruct struct {
	Field1 uint64
	Field2 uint64
	Addr1  thor.Address
}

// BigStruct spans multiple slots: 3 Bytes32 fields.
type BigStruct struct {
	A thor.Bytes32
	B thor.Bytes32
	C thor.Bytes32
}

// newTestContext returns a fresh Context with in-memory DB and an unbounded charger.
func newTestContext(t *testing.T) (*Context, *gascharger.Charger) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	charger := gascharger.New(0)
	return NewContext(thor.Address{1}, state.New(db), charger.Charge), charger
}

func TestMappingStruct(t *testing.T) {
	ctx, _ := newTestContext(t)
	m := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})
	key := thor.BytesToAddress([]byte("k"))

	v, err := m.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v, "missing entries decode to nil")

	exists, err := m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	want := &TestStruct{Field1: 100, Field2: 200, Addr1: key}
	require.NoError(t, m.Insert(key, want))

	v, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, v)

	want.Field1 = 1
	require.NoError(t, m.Update(key, want))
	v, _ = m.Get(key)
	assert.Equal(t, uint64(1), v.Field1)

	m.Delete(key)
	exists, _ = m.Exists(key)
	assert.False(t, exists)
}

func TestMappingIsolation(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{1})
	b := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{2})

	require.NoError(t, a.Insert(thor.Bytes32{9}, 7))
	v, err := b.Get(thor.Bytes32{9})
	require.NoError(t, err)
	assert.Zero(t, v, "different base positions never collide")
}

func TestMappingGas(t *testing.T) {
	ctx, charger := newTestContext(t)
	m := NewMapping[thor.Bytes32, *BigStruct](ctx, thor.Bytes32{1})

	require.NoError(t, m.Insert(thor.Bytes32{1}, &BigStruct{A: thor.Bytes32{1}}))
	// 3*33 bytes + list header needs 4 words
	assert.Equal(t, 4*thor.SstoreSetGas, charger.TotalGas())

	before := charger.TotalGas()
	_, err := m.Get(thor.Bytes32{1})
	require.NoError(t, err)
	assert.Equal(t, 4*thor.SloadGas, charger.TotalGas()-before)

	before = charger.TotalGas()
	require.NoError(t, m.Upsert(thor.Bytes32{1}, &BigStruct{}))
	assert.Equal(t, thor.SloadGas+4*thor.SstoreResetGas, charger.TotalGas()-before)
}

func TestRawAndUint64(t *testing.T) {
	ctx, _ := newTestContext(t)

	r := NewRaw[thor.Address](ctx, thor.Bytes32{5})
	v, err := r.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, r.Upsert(thor.Address{7}))
	v, _ = r.Get()
	assert.Equal(t, thor.Address{7}, v)
	r.Delete()
	v, _ = r.Get()
	assert.True(t, v.IsZero())

	u := NewUint64(ctx, thor.Bytes32{6})
	n, err := u.Add(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	_, err = u.Sub(6)
	assert.Error(t, err)

	require.NoError(t, u.Set(^uint64(0)))
	_, err = u.Add(1)
	assert.Error(t, err)

	n, err = u.Sub(^uint64(0))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckpointedWrites(t *testing.T) {
	ctx, _ := newTestContext(t)
	m := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{1})

	cp := ctx.State().NewCheckpoint()
	require.NoError(t, m.Insert(thor.Address{1}, 10))
	ctx.State().RevertTo(cp)

	v, err := m.Get(thor.Address{1})
	require.NoError(t, err)
	assert.Zero(t, v)
}
