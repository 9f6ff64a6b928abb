// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(thor.Address{1}, state.New(db), nil))
}

var (
	candidate = thor.BytesToAddress([]byte("candidate"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
	carol     = thor.BytesToAddress([]byte("carol"))
)

func TestDelegation_Compound(t *testing.T) {
	tests := []struct {
		pct   uint8
		share uint64
		want  uint64
	}{
		{0, 10, 0},
		{50, 10, 5},
		{50, 11, 5},
		{100, 11, 11},
		{33, 100, 33},
		{1, 99, 0},
		{99, math.MaxUint64, math.MaxUint64/100*99 + 14},
	}
	for _, tt := range tests {
		d := &Delegation{AutoCompound: tt.pct}
		assert.Equal(t, tt.want, d.Compound(tt.share), "pct %d share %d", tt.pct, tt.share)
	}
}

func TestService_AddSub(t *testing.T) {
	svc := newSvc(t)

	del, err := svc.GetDelegation(alice, candidate)
	require.NoError(t, err)
	assert.Nil(t, del)

	_, err = svc.Add(alice, candidate, 50)
	require.NoError(t, err)
	del, err = svc.Add(alice, candidate, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), del.Amount)

	n, _ := svc.StakerCount(candidate)
	assert.Equal(t, uint64(1), n)
	n, _ = svc.CandidateCount(alice)
	assert.Equal(t, uint64(1), n)

	remaining, err := svc.Sub(alice, candidate, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), remaining)

	_, err = svc.Sub(alice, candidate, 51)
	assert.ErrorIs(t, err, reverts.ErrInsufficientStake)

	remaining, err = svc.Sub(alice, candidate, 50)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	del, _ = svc.GetDelegation(alice, candidate)
	assert.Nil(t, del)
	n, _ = svc.StakerCount(candidate)
	assert.Zero(t, n)
	cands, _ := svc.Candidates(alice)
	assert.Empty(t, cands)

	_, err = svc.Sub(alice, candidate, 1)
	assert.ErrorIs(t, err, reverts.ErrInsufficientStake)
}

func TestService_AddOverflow(t *testing.T) {
	svc := newSvc(t)
	_, err := svc.Add(alice, candidate, math.MaxUint64)
	require.NoError(t, err)
	_, err = svc.Add(alice, candidate, 1)
	assert.ErrorIs(t, err, reverts.ErrArithmeticOverflow)
}

func TestService_SetAutoCompound(t *testing.T) {
	svc := newSvc(t)

	assert.ErrorIs(t, svc.SetAutoCompound(alice, candidate, 50), reverts.ErrInsufficientStake)

	_, err := svc.Add(alice, candidate, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetAutoCompound(alice, candidate, 101), reverts.ErrInvalidPercentage)
	require.NoError(t, svc.SetAutoCompound(alice, candidate, 100))

	del, _ := svc.GetDelegation(alice, candidate)
	assert.Equal(t, uint8(100), del.AutoCompound)

	// the preference survives increases
	del, err = svc.Add(alice, candidate, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(100), del.AutoCompound)
}

func TestService_DelegationsAndSmallest(t *testing.T) {
	svc := newSvc(t)

	_, err := svc.Add(alice, candidate, 30)
	require.NoError(t, err)
	_, err = svc.Add(bob, candidate, 10)
	require.NoError(t, err)
	_, err = svc.Add(carol, candidate, 10)
	require.NoError(t, err)

	all, err := svc.Delegations(candidate)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []thor.Address{alice, bob, carol}, []thor.Address{all[0].Staker, all[1].Staker, all[2].Staker})

	smallest, err := svc.Smallest(candidate)
	require.NoError(t, err)
	assert.Equal(t, carol, smallest.Staker, "latest joined loses ties")

	require.NoError(t, svc.Remove(carol, candidate))
	smallest, _ = svc.Smallest(candidate)
	assert.Equal(t, bob, smallest.Staker)

	smallest, err = svc.Smallest(thor.Address{9})
	require.NoError(t, err)
	assert.Nil(t, smallest)
}
