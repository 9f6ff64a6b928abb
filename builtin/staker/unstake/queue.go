// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package unstake

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/thor"
)

var (
	logger = log.WithContext("pkg", "unstake")

	slotRequests = thor.BytesToBytes32([]byte("unstake-requests"))
	slotPending  = thor.BytesToBytes32([]byte("unstake-pending"))
	slotLastID   = thor.BytesToBytes32([]byte("unstake-last-id"))
)

// Lane is the delay class of a request. Requests of one lane are enqueued
// with the same delay, so each lane stays ordered by maturity when appended.
type Lane uint8

const (
	UserLane     Lane = iota // withdrawals and displaced delegations
	CollatorLane             // candidate exits and evictions

	laneCount
)

// Request is a held amount waiting for its maturity block.
// Requests are chained by id within their lane, zero meaning none.
type Request struct {
	Account  thor.Address
	Amount   uint64
	Maturity uint64
	Lane     Lane
	Prev     uint64
	Next     uint64
}

// Entry is a request with its queue id.
type Entry struct {
	ID uint64
	*Request
}

// Budget admits units of work within a step.
type Budget interface {
	Reserve(gas uint64) bool
}

// ReleaseFunc returns held funds to the account's spendable balance.
type ReleaseFunc func(account thor.Address, amount uint64) error

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Released uint64 // number of requests released
	Amount   uint64 // total amount released
	Failed   uint64 // matured requests left queued because the release failed
}

type lane struct {
	head *solidity.Uint64
	tail *solidity.Uint64
}

// Queue keeps unstake requests in one list per lane, each ordered by
// (maturity, id). Releases merge the lanes in that same order.
type Queue struct {
	requests *solidity.Mapping[thor.Bytes32, *Request]
	pending  *solidity.Mapping[thor.Address, uint64]
	lanes    [laneCount]lane
	lastID   *solidity.Uint64
}

func New(sctx *solidity.Context) *Queue {
	q := &Queue{
		requests: solidity.NewMapping[thor.Bytes32, *Request](sctx, slotRequests),
		pending:  solidity.NewMapping[thor.Address, uint64](sctx, slotPending),
		lastID:   solidity.NewUint64(sctx, slotLastID),
	}
	for i, name := range [laneCount]string{"user", "collator"} {
		q.lanes[i] = lane{
			head: solidity.NewUint64(sctx, thor.BytesToBytes32([]byte("unstake-head-"+name))),
			tail: solidity.NewUint64(sctx, thor.BytesToBytes32([]byte("unstake-tail-"+name))),
		}
	}
	return q
}

func (q *Queue) get(id uint64) (*Request, error) {
	req, err := q.requests.Get(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unstake request")
	}
	if req == nil {
		return nil, errors.Errorf("unstake request %d not found", id)
	}
	return req, nil
}

func (q *Queue) put(id uint64, req *Request) error {
	return q.requests.Upsert(thor.Uint64ToBytes32(id), req)
}

// Enqueue adds a request maturing at the given block to a lane and returns its id.
func (q *Queue) Enqueue(ln Lane, account thor.Address, amount, maturity uint64) (uint64, error) {
	if ln >= laneCount {
		return 0, errors.Errorf("unknown unstake lane %d", ln)
	}
	if account.IsZero() {
		return 0, reverts.ErrZeroAddress
	}
	if amount == 0 {
		return 0, errors.New("empty unstake request")
	}

	pending, err := q.pending.Get(account)
	if err != nil {
		return 0, err
	}
	total, overflow := math.SafeAdd(pending, amount)
	if overflow {
		return 0, reverts.ErrArithmeticOverflow
	}

	id, err := q.lastID.Add(1)
	if err != nil {
		return 0, err
	}

	// walk back from the lane's tail to the last request maturing no later,
	// which is the tail itself unless blocks were reported out of order
	l := q.lanes[ln]
	prevID, err := l.tail.Get()
	if err != nil {
		return 0, err
	}
	for prevID != 0 {
		prev, err := q.get(prevID)
		if err != nil {
			return 0, err
		}
		if prev.Maturity <= maturity {
			break
		}
		prevID = prev.Prev
	}

	req := &Request{Account: account, Amount: amount, Maturity: maturity, Lane: ln, Prev: prevID}
	if prevID == 0 {
		req.Next, err = l.head.Get()
		if err != nil {
			return 0, err
		}
		if err := l.head.Set(id); err != nil {
			return 0, err
		}
	} else {
		prev, err := q.get(prevID)
		if err != nil {
			return 0, err
		}
		req.Next = prev.Next
		prev.Next = id
		if err := q.put(prevID, prev); err != nil {
			return 0, err
		}
	}

	if req.Next == 0 {
		if err := l.tail.Set(id); err != nil {
			return 0, err
		}
	} else {
		next, err := q.get(req.Next)
		if err != nil {
			return 0, err
		}
		next.Prev = id
		if err := q.put(req.Next, next); err != nil {
			return 0, err
		}
	}

	if err := q.requests.Insert(thor.Uint64ToBytes32(id), req); err != nil {
		return 0, errors.Wrap(err, "failed to set unstake request")
	}
	if err := q.pending.Upsert(account, total); err != nil {
		return 0, err
	}
	return id, nil
}

func (q *Queue) unlink(id uint64, req *Request) error {
	l := q.lanes[req.Lane]
	if req.Prev == 0 {
		if err := l.head.Set(req.Next); err != nil {
			return err
		}
	} else {
		prev, err := q.get(req.Prev)
		if err != nil {
			return err
		}
		prev.Next = req.Next
		if err := q.put(req.Prev, prev); err != nil {
			return err
		}
	}
	if req.Next == 0 {
		if err := l.tail.Set(req.Prev); err != nil {
			return err
		}
	} else {
		next, err := q.get(req.Next)
		if err != nil {
			return err
		}
		next.Prev = req.Prev
		if err := q.put(req.Next, next); err != nil {
			return err
		}
	}
	q.requests.Delete(thor.Uint64ToBytes32(id))

	pending, err := q.pending.Get(req.Account)
	if err != nil {
		return err
	}
	left, underflow := math.SafeSub(pending, req.Amount)
	if underflow {
		return errors.Errorf("pending unstake of %s below request amount", req.Account)
	}
	if left == 0 {
		q.pending.Delete(req.Account)
		return nil
	}
	return q.pending.Update(req.Account, left)
}

// merger walks the lanes together in (maturity, id) order.
type merger struct {
	q    *Queue
	cur  [laneCount]*Entry
	lane int
}

func (q *Queue) merge() (*merger, error) {
	m := &merger{q: q}
	for i, l := range q.lanes {
		id, err := l.head.Get()
		if err != nil {
			return nil, err
		}
		if err := m.load(i, id); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *merger) load(i int, id uint64) error {
	if id == 0 {
		m.cur[i] = nil
		return nil
	}
	req, err := m.q.get(id)
	if err != nil {
		return err
	}
	m.cur[i] = &Entry{ID: id, Request: req}
	return nil
}

// peek returns the earliest entry across the lanes, or nil when all are done.
func (m *merger) peek() *Entry {
	m.lane = -1
	for i, e := range m.cur {
		if e == nil {
			continue
		}
		if m.lane < 0 {
			m.lane = i
			continue
		}
		best := m.cur[m.lane]
		if e.Maturity < best.Maturity || (e.Maturity == best.Maturity && e.ID < best.ID) {
			m.lane = i
		}
	}
	if m.lane < 0 {
		return nil
	}
	return m.cur[m.lane]
}

// advance moves past the entry returned by the last peek.
func (m *merger) advance() error {
	return m.load(m.lane, m.cur[m.lane].Next)
}

// Drain releases matured requests oldest first, one budget unit each,
// stopping at the first unmatured request or when the budget is spent.
// A request whose release fails stays queued for a later pass.
func (q *Queue) Drain(currentBlock uint64, budget Budget, release ReleaseFunc) (*DrainResult, error) {
	res := &DrainResult{}
	m, err := q.merge()
	if err != nil {
		return nil, err
	}
	for e := m.peek(); e != nil; e = m.peek() {
		if e.Maturity > currentBlock {
			break
		}
		if !budget.Reserve(thor.UnstakeReleaseGas) {
			break
		}
		if err := release(e.Account, e.Amount); err != nil {
			logger.Warn("unstake release deferred", "id", e.ID, "account", e.Account, "amount", e.Amount, "error", err)
			res.Failed++
		} else {
			if err := q.unlink(e.ID, e.Request); err != nil {
				return nil, err
			}
			res.Released++
			res.Amount += e.Amount
		}
		// loaded after unlink so the next entry's links are current
		if err := m.advance(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Pending returns the summed amount of the account's queued requests.
func (q *Queue) Pending(account thor.Address) (uint64, error) {
	return q.pending.Get(account)
}

// Requests lists the account's queued requests in release order.
func (q *Queue) Requests(account thor.Address) ([]*Entry, error) {
	var out []*Entry
	err := q.iter(func(e *Entry) error {
		if e.Account == account {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// All lists every queued request in release order.
func (q *Queue) All() ([]*Entry, error) {
	var out []*Entry
	err := q.iter(func(e *Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

func (q *Queue) iter(cb func(*Entry) error) error {
	m, err := q.merge()
	if err != nil {
		return err
	}
	for e := m.peek(); e != nil; e = m.peek() {
		if err := m.advance(); err != nil {
			return err
		}
		if err := cb(e); err != nil {
			return err
		}
	}
	return nil
}
