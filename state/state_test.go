// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/thor"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestRawStorage(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))

	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)

	st.SetRawStorage(addr, key, []byte{0x01})
	raw, err = st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, raw)

	other := thor.BytesToAddress([]byte("other"))
	raw, err = st.GetRawStorage(other, key)
	require.NoError(t, err)
	assert.Empty(t, raw, "slots are scoped by address")
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))

	base := st.NewCheckpoint()
	st.SetRawStorage(addr, key, []byte("a"))

	cp := st.NewCheckpoint()
	st.SetRawStorage(addr, key, []byte("b"))
	st.RevertTo(cp)

	raw, _ := st.GetRawStorage(addr, key)
	assert.Equal(t, []byte("a"), raw)

	st.RevertTo(base)
	raw, _ = st.GetRawStorage(addr, key)
	assert.Empty(t, raw)
}

func TestEncodeDecodeErrors(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))
	boom := errors.New("boom")

	st.NewCheckpoint()
	err := st.EncodeStorage(addr, key, func() ([]byte, error) { return nil, boom })
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, boom)

	st.SetRawStorage(addr, key, []byte{1})
	err = st.DecodeStorage(addr, key, func([]byte) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStageCommit(t *testing.T) {
	st, db := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	k1 := thor.BytesToBytes32([]byte("k1"))
	k2 := thor.BytesToBytes32([]byte("k2"))

	st.NewCheckpoint()
	st.SetRawStorage(addr, k1, []byte("v1"))
	st.SetRawStorage(addr, k2, []byte("v2"))
	st.SetRawStorage(addr, k2, []byte("v2'"))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit())

	// reopen over the same db, bypassing the shared cache
	fresh := New(db)
	raw, err := fresh.GetRawStorage(addr, k2)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2'"), raw)

	next := st.Checkout()
	next.NewCheckpoint()
	next.SetRawStorage(addr, k1, nil)
	require.NoError(t, next.Stage().Commit())

	raw, err = New(db).GetRawStorage(addr, k1)
	require.NoError(t, err)
	assert.Empty(t, raw, "empty value deletes the slot")
}

func TestStage_CommitExtra(t *testing.T) {
	st, db := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))
	st.SetRawStorage(addr, key, []byte("v"))

	failing := func(w kv.Putter) error {
		if err := w.Put([]byte("x/head"), []byte{1}); err != nil {
			return err
		}
		return errors.New("no head")
	}
	require.Error(t, st.Stage().Commit(failing))

	// nothing of the batch was written
	raw, err := New(db).GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
	has, err := db.Has([]byte("x/head"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, st.Stage().Commit(func(w kv.Putter) error {
		return w.Put([]byte("x/head"), []byte{1})
	}))
	raw, err = New(db).GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)
	has, err = db.Has([]byte("x/head"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSlotCounts(t *testing.T) {
	st, db := newTestState(t)
	a := thor.BytesToAddress([]byte("a"))
	b := thor.BytesToAddress([]byte("b"))

	st.SetRawStorage(a, thor.BytesToBytes32([]byte("1")), []byte{1})
	st.SetRawStorage(a, thor.BytesToBytes32([]byte("2")), []byte{2})
	st.SetRawStorage(b, thor.BytesToBytes32([]byte("1")), []byte{3})
	require.NoError(t, db.Put([]byte("x/unrelated"), []byte{4}))

	counts, err := SlotCounts(db)
	require.NoError(t, err)
	assert.Empty(t, counts, "nothing committed yet")

	require.NoError(t, st.Stage().Commit())
	counts, err = SlotCounts(db)
	require.NoError(t, err)
	assert.Equal(t, map[thor.Address]int{a: 2, b: 1}, counts)
}
