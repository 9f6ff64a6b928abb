// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func newCurrency(t *testing.T) *Currency {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(thor.BytesToAddress([]byte("Currency")), state.New(db))
}

func TestCurrency_HoldRelease(t *testing.T) {
	c := newCurrency(t)
	acc := thor.Address{1}

	require.NoError(t, c.Mint(acc, 100))
	require.NoError(t, c.Hold(acc, 60))

	free, _ := c.Balance(acc)
	held, _ := c.Held(acc)
	assert.Equal(t, uint64(40), free)
	assert.Equal(t, uint64(60), held)

	assert.ErrorIs(t, c.Hold(acc, 41), ErrInsufficientFunds)
	assert.ErrorIs(t, c.Release(acc, 61), ErrInsufficientFunds)

	require.NoError(t, c.Release(acc, 60))
	free, _ = c.Balance(acc)
	held, _ = c.Held(acc)
	assert.Equal(t, uint64(100), free)
	assert.Zero(t, held)
}

func TestCurrency_TransferFromPot(t *testing.T) {
	c := newCurrency(t)
	pot, acc := thor.Address{0xfe}, thor.Address{1}

	require.NoError(t, c.Mint(pot, 10))
	require.NoError(t, c.TransferFromPot(pot, acc, 7))
	assert.ErrorIs(t, c.TransferFromPot(pot, acc, 4), ErrInsufficientFunds)

	bal, _ := c.Balance(acc)
	assert.Equal(t, uint64(7), bal)
	bal, _ = c.Balance(pot)
	assert.Equal(t, uint64(3), bal)
}

func TestCurrency_Overflow(t *testing.T) {
	c := newCurrency(t)
	require.NoError(t, c.Mint(thor.Address{1}, math.MaxUint64))
	assert.ErrorIs(t, c.Mint(thor.Address{1}, 1), ErrBalanceOverflow)
}
