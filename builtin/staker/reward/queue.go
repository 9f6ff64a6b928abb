// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotPayouts     = thor.BytesToBytes32([]byte("payouts"))
	slotLastPayout  = thor.BytesToBytes32([]byte("payouts-last"))
	slotPaidPayouts = thor.BytesToBytes32([]byte("payouts-paid"))
	slotCommitted   = thor.BytesToBytes32([]byte("payouts-committed"))
	slotOutstanding = thor.BytesToBytes32([]byte("payouts-outstanding"))
	slotUnclaimed   = thor.BytesToBytes32([]byte("payouts-unclaimed"))
)

// Payout is the reward owed to one producer of a closed rotation.
type Payout struct {
	Rotation uint64       `json:"rotation"`
	Producer thor.Address `json:"producer"`
	Blocks   uint64       `json:"blocks"`
	Amount   uint64       `json:"amount"`
}

// Queue is the pending payout cursor: a FIFO of payouts paid one per step.
// Entries are numbered from 1, the cursor is the count of entries paid.
type Queue struct {
	payouts     *solidity.Mapping[thor.Bytes32, *Payout]
	last        *solidity.Uint64
	paid        *solidity.Uint64
	committed   *solidity.Uint64
	outstanding *solidity.Mapping[thor.Bytes32, uint64]
	unclaimed   *solidity.Uint64
}

func NewQueue(sctx *solidity.Context) *Queue {
	return &Queue{
		payouts:     solidity.NewMapping[thor.Bytes32, *Payout](sctx, slotPayouts),
		last:        solidity.NewUint64(sctx, slotLastPayout),
		paid:        solidity.NewUint64(sctx, slotPaidPayouts),
		committed:   solidity.NewUint64(sctx, slotCommitted),
		outstanding: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotOutstanding),
		unclaimed:   solidity.NewUint64(sctx, slotUnclaimed),
	}
}

// Push schedules a payout and commits its amount.
func (q *Queue) Push(p *Payout) error {
	committed, err := q.committed.Get()
	if err != nil {
		return err
	}
	total, overflow := math.SafeAdd(committed, p.Amount)
	if overflow {
		return reverts.ErrArithmeticOverflow
	}
	seq, err := q.last.Add(1)
	if err != nil {
		return err
	}
	if err := q.payouts.Insert(thor.Uint64ToBytes32(seq), p); err != nil {
		return errors.Wrap(err, "failed to set payout")
	}
	if err := q.committed.Set(total); err != nil {
		return err
	}
	rkey := thor.Uint64ToBytes32(p.Rotation)
	n, err := q.outstanding.Get(rkey)
	if err != nil {
		return err
	}
	return q.outstanding.Upsert(rkey, n+1)
}

// Peek returns the next payout, or nil when the queue is empty.
func (q *Queue) Peek() (*Payout, error) {
	last, err := q.last.Get()
	if err != nil {
		return nil, err
	}
	paid, err := q.paid.Get()
	if err != nil {
		return nil, err
	}
	if paid >= last {
		return nil, nil
	}
	return q.get(paid + 1)
}

func (q *Queue) get(seq uint64) (*Payout, error) {
	p, err := q.payouts.Get(thor.Uint64ToBytes32(seq))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get payout")
	}
	if p == nil {
		return nil, errors.Errorf("payout %d not found", seq)
	}
	return p, nil
}

// Pop removes the head payout and releases its commitment.
// It reports whether the payout was the last one of its rotation.
func (q *Queue) Pop() (*Payout, bool, error) {
	p, err := q.Peek()
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, errors.New("payout queue is empty")
	}
	seq, err := q.paid.Add(1)
	if err != nil {
		return nil, false, err
	}
	q.payouts.Delete(thor.Uint64ToBytes32(seq))
	if _, err := q.committed.Sub(p.Amount); err != nil {
		return nil, false, errors.Wrap(err, "payout commitment")
	}

	rkey := thor.Uint64ToBytes32(p.Rotation)
	n, err := q.outstanding.Get(rkey)
	if err != nil {
		return nil, false, err
	}
	if n <= 1 {
		q.outstanding.Delete(rkey)
		return p, true, nil
	}
	return p, false, q.outstanding.Update(rkey, n-1)
}

// Committed returns the amount scheduled but not paid yet.
func (q *Queue) Committed() (uint64, error) {
	return q.committed.Get()
}

// Unclaim sets aside fee pot value that no payout will claim, so it is kept
// out of the pots of later rotations.
func (q *Queue) Unclaim(amount uint64) error {
	if amount == 0 {
		return nil
	}
	unclaimed, err := q.unclaimed.Get()
	if err != nil {
		return err
	}
	total, overflow := math.SafeAdd(unclaimed, amount)
	if overflow {
		return reverts.ErrArithmeticOverflow
	}
	return q.unclaimed.Set(total)
}

// Unclaimed returns the pot value set aside by Unclaim.
func (q *Queue) Unclaimed() (uint64, error) {
	return q.unclaimed.Get()
}

// Outstanding returns the number of unpaid payouts of a rotation.
func (q *Queue) Outstanding(rotation uint64) (uint64, error) {
	return q.outstanding.Get(thor.Uint64ToBytes32(rotation))
}

// Len returns the number of unpaid payouts.
func (q *Queue) Len() (uint64, error) {
	last, err := q.last.Get()
	if err != nil {
		return 0, err
	}
	paid, err := q.paid.Get()
	if err != nil {
		return 0, err
	}
	return last - paid, nil
}

// Pending lists the unpaid payouts in payment order.
func (q *Queue) Pending() ([]*Payout, error) {
	last, err := q.last.Get()
	if err != nil {
		return nil, err
	}
	paid, err := q.paid.Get()
	if err != nil {
		return nil, err
	}
	out := make([]*Payout, 0, last-paid)
	for seq := paid + 1; seq <= last; seq++ {
		p, err := q.get(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
