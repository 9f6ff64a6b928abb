// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/thor"
)

// closedRotation leaves one pending payout of 40 for the two blocks of
// collator1, backed by a bond of 100 and a delegation of 50 from staker1.
func closedRotation(t *testing.T) *StakerTest {
	ts := newTest(t).
		Candidate(collator1, 100).
		Delegate(staker1, collator1, 50)
	require.NoError(t, ts.SetAutoCompound(staker1, collator1, 50))
	ts.Fund(ts.cfg.FeePot, 40)

	NewSequence(ts.Staker).
		SelectProducers().
		Author(collator1, 1).
		Author(collator1, 2).
		CloseRotation(3).
		Run(t)
	return ts
}

func TestOnStep_Payout(t *testing.T) {
	ts := closedRotation(t)

	blocks, err := ts.Authored(0, collator1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), blocks)

	res, err := ts.OnStep(4, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Paid)
	assert.Equal(t, uint64(40), res.Paid.Amount)
	assert.False(t, res.Deferred)

	// commission 8, staker share 10, collator keeps the rest
	assert.Equal(t, uint64(30), ts.Free(collator1))
	assert.Equal(t, uint64(5), ts.Free(staker1))
	assert.Equal(t, uint64(55), ts.Held(staker1))
	assert.Equal(t, uint64(0), ts.Free(ts.cfg.FeePot))

	del, err := ts.GetDelegation(staker1, collator1)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), del.Amount)
	agg, err := ts.GetAggregation(collator1)
	require.NoError(t, err)
	assert.Equal(t, uint64(155), agg.Total())

	committed, err := ts.Committed()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), committed)

	// the rotation record is gone with its last payout
	blocks, err = ts.Authored(0, collator1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), blocks)
	ts.AssertLedger()
}

func TestOnStep_DefersOverBudget(t *testing.T) {
	ts := closedRotation(t)
	estimate := thor.PayoutBaseGas + thor.PayoutPerStakerGas

	res, err := ts.OnStep(4, estimate-1)
	require.NoError(t, err)
	assert.True(t, res.Deferred)
	assert.Nil(t, res.Paid)
	assert.Equal(t, uint64(0), ts.Free(collator1))

	payouts, err := ts.PendingPayouts()
	require.NoError(t, err)
	assert.Len(t, payouts, 1)

	res, err = ts.OnStep(5, estimate)
	require.NoError(t, err)
	assert.False(t, res.Deferred)
	require.NotNil(t, res.Paid)
	assert.Equal(t, estimate, res.Reserved)
	assert.Greater(t, res.Used, uint64(0))

	payouts, err = ts.PendingPayouts()
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func TestOnStep_ProducerGone(t *testing.T) {
	ts := closedRotation(t)
	require.NoError(t, ts.Deregister(collator1, 4))

	_, err := ts.OnStep(5, 0)
	require.NoError(t, err)

	// no backing left to share with
	assert.Equal(t, uint64(40), ts.Free(collator1))
	assert.Equal(t, uint64(0), ts.Free(staker1))
	assert.Equal(t, uint64(50), ts.Held(staker1))
}

func TestOnStep_SkippedTransferUnclaimed(t *testing.T) {
	ts := closedRotation(t)
	// the staker's balance cannot take its share
	ts.Fund(staker1, math.MaxUint64)

	res, err := ts.OnStep(4, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Paid)

	assert.Equal(t, uint64(30), ts.Free(collator1))
	assert.Equal(t, uint64(math.MaxUint64), ts.Free(staker1))
	assert.Equal(t, uint64(50), ts.Held(staker1))
	assert.Equal(t, uint64(10), ts.Free(ts.cfg.FeePot))

	unclaimed, err := ts.Unclaimed()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), unclaimed)

	// the skipped share is not paid again by the next rotation
	ts.Fund(ts.cfg.FeePot, 4)
	NewSequence(ts.Staker).SelectProducers().Author(collator1, 5).Run(t)
	closure, err := ts.RotationClosed(1, nil, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), closure.Pot)
}

func TestOnStep_OnePayoutPerStep(t *testing.T) {
	ts := newTest(t).Candidate(collator1, 100).Candidate(collator2, 100)
	ts.Fund(ts.cfg.FeePot, 40)

	NewSequence(ts.Staker).
		SelectProducers().
		Author(collator1, 1).
		Author(collator2, 2).
		CloseRotation(3).
		Step(4).
		Run(t)

	payouts, err := ts.PendingPayouts()
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, collator2, payouts[0].Producer)
	assert.Equal(t, uint64(20), ts.Free(collator1))

	NewSequence(ts.Staker).Step(5).Run(t)
	assert.Equal(t, uint64(20), ts.Free(collator2))
}

func TestOnStep_ReleasesMatured(t *testing.T) {
	ts := newTest(t).
		Candidate(collator1, 100).
		Delegate(staker1, collator1, 30).
		Delegate(staker2, collator1, 30)
	require.NoError(t, ts.RequestWithdrawal(staker1, collator1, 30, 0))
	require.NoError(t, ts.RequestWithdrawal(staker2, collator1, 30, 0))

	delay := ts.cfg.UserUnstakingDelay
	res, err := ts.OnStep(delay, thor.UnstakeReleaseGas)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Released)
	assert.Equal(t, uint64(30), ts.Free(staker1))
	assert.Equal(t, uint64(0), ts.Free(staker2))

	res, err = ts.OnStep(delay+1, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Released)
	assert.Equal(t, uint64(30), ts.Free(staker2))

	queue, err := ts.UnstakeQueue()
	require.NoError(t, err)
	assert.Empty(t, queue)
}
