// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var (
	logger = log.WithContext("pkg", "collator")

	chainBucket = kv.Bucket("c/")
	headKey     = []byte("head")
)

// Runner replays scenario blocks over a store, one committed state per block.
type Runner struct {
	db     kv.Store
	cfg    staker.Config
	budget uint64
}

func NewRunner(db kv.Store, cfg staker.Config, budget uint64) *Runner {
	return &Runner{db: db, cfg: cfg, budget: budget}
}

// Summary totals what happened during a run.
type Summary struct {
	From, To  uint64
	Reverted  int
	Authored  uint64
	Rotations uint64
	Evicted   int
	Paid      int
	Deferred  int
	Released  uint64
}

// Head returns the last committed height, zero after genesis.
func (r *Runner) Head() (uint64, error) {
	val, err := chainBucket.NewGetter(r.db).Get(headKey)
	if err != nil {
		if r.db.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get head")
	}
	return thor.BytesToBytes32(val).Uint64(), nil
}

// putHead returns a write of the head height, staged with the block's state.
func putHead(height uint64) func(kv.Putter) error {
	return func(w kv.Putter) error {
		return chainBucket.NewPutter(w).Put(headKey, thor.Uint64ToBytes32(height).Bytes())
	}
}

// Run executes every block of the scenario after the current head. progress,
// when set, is called once per committed block.
func (r *Runner) Run(ctx context.Context, sc *Scenario, progress func()) (*Summary, error) {
	head, err := r.Head()
	if err != nil {
		return nil, err
	}
	sum := &Summary{From: head + 1, To: head}

	idle := make(map[thor.Address]bool, len(sc.Idle))
	for _, a := range sc.Idle {
		idle[a] = true
	}

	next := 0
	for i := uint64(1); i <= sc.Blocks; i++ {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}
		start := next
		for next < len(sc.Events) && sc.Events[next].At == i {
			next++
		}
		if err := r.runBlock(head+i, i, sc, sc.Events[start:next], idle, sum); err != nil {
			return sum, errors.Wrapf(err, "block %d", head+i)
		}
		sum.To = head + i
		if progress != nil {
			progress()
		}
	}
	return sum, nil
}

func (r *Runner) runBlock(height, index uint64, sc *Scenario, events []Event, idle map[thor.Address]bool, sum *Summary) error {
	st := state.New(r.db)
	stk, err := builtin.Staker.WithState(st, r.cfg)
	if err != nil {
		return err
	}
	cur := builtin.Currency.WithState(st)
	reg := builtin.Registry.WithState(st)

	for _, ev := range events {
		if err := ev.Apply(stk, cur, reg, height); err != nil {
			if !reverts.IsRevertErr(err) {
				return errors.Wrapf(err, "apply %s", ev.Op)
			}
			sum.Reverted++
			logger.Warn("event reverted", "block", height, "op", ev.Op, "account", ev.Account, "error", err)
		}
	}

	rotation, rec, err := stk.CurrentRotation()
	if err != nil {
		return err
	}
	producers := []thor.Address(nil)
	if rec != nil {
		producers = rec.Producers
	}
	if len(producers) == 0 {
		sel, err := stk.NewProducerSet()
		if err != nil {
			return err
		}
		rotation, producers = sel.Rotation, sel.Producers
	}

	if author, ok := pickAuthor(producers, idle, height); ok {
		if _, err := stk.BlockAuthored(author, height); err != nil {
			return err
		}
		sum.Authored++
	} else {
		logger.Debug("no active producer", "block", height, "rotation", rotation)
	}

	if sc.FeePerBlock > 0 {
		if err := cur.Mint(r.cfg.FeePot, sc.FeePerBlock); err != nil {
			return errors.Wrap(err, "collect fees")
		}
	}

	if index%sc.RotationLength == 0 {
		closure, err := stk.RotationClosed(rotation, nil, height)
		if err != nil {
			return err
		}
		sum.Rotations++
		sum.Evicted += len(closure.Evicted)
		logger.Info("rotation closed", "block", height, "rotation", closure.Rotation,
			"blocks", closure.Blocks, "pot", closure.Pot, "subsidy", closure.Subsidy,
			"payouts", len(closure.Payouts), "evicted", len(closure.Evicted))
		if _, err := stk.NewProducerSet(); err != nil {
			return err
		}
	}

	res, err := stk.OnStep(height, r.budget)
	if err != nil {
		return err
	}
	if res.Paid != nil {
		sum.Paid++
	}
	if res.Deferred {
		sum.Deferred++
	}
	sum.Released += res.Released

	return st.Stage().Commit(putHead(height))
}

// pickAuthor takes the producers in turn, skipping idle ones.
func pickAuthor(producers []thor.Address, idle map[thor.Address]bool, height uint64) (thor.Address, bool) {
	active := make([]thor.Address, 0, len(producers))
	for _, p := range producers {
		if !idle[p] {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return thor.Address{}, false
	}
	return active[height%uint64(len(active))], true
}
