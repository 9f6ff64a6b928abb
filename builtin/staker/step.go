// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/collator-staking/builtin/gascharger"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/reward"
	"github.com/vechain/collator-staking/thor"
)

// StepResult reports the deferred work done by one step.
type StepResult struct {
	Paid     *reward.Payout `json:"paid,omitempty"`
	Deferred bool           `json:"deferred"` // a payout was due but did not fit the budget
	Released uint64         `json:"released"` // unstake requests released
	Reserved uint64         `json:"reserved"` // estimated gas admitted
	Used     uint64         `json:"used"`     // storage gas charged
}

// OnStep runs the deferred work of one block within budget (zero means
// unbounded): at most one producer payout, then matured unstake requests.
// A payout is made whole or not started.
func (s *Staker) OnStep(currentBlock uint64, budget uint64) (*StepResult, error) {
	s.charger = gascharger.New(budget)
	defer func() { s.charger = nil }()

	res := &StepResult{}
	if err := s.stepPayout(res); err != nil {
		logger.Info("payout step failed", "block", currentBlock, "error", err)
		return nil, err
	}

	var released uint64
	err := s.atomic(func() error {
		drained, err := s.unstakeQueue.Drain(currentBlock, s.charger, s.currency.Release)
		if err != nil {
			return err
		}
		released = drained.Released
		if drained.Failed > 0 {
			metricCurrencyFailures().AddWithLabel(int64(drained.Failed), map[string]string{"op": "release"})
		}
		return nil
	})
	if err != nil {
		logger.Info("unstake step failed", "block", currentBlock, "error", err)
		return nil, err
	}
	if released > 0 {
		metricUnstakeReleased().Add(int64(released))
		logger.Debug("released unstake requests", "block", currentBlock, "count", released)
	}

	res.Released = released
	res.Reserved = s.charger.Reserved()
	res.Used = s.charger.TotalGas()
	metricStepGas().Observe(int64(res.Reserved))
	return res, nil
}

func (s *Staker) stepPayout(res *StepResult) error {
	p, err := s.payoutQueue.Peek()
	if err != nil || p == nil {
		return err
	}
	stakers, err := s.delegationService.StakerCount(p.Producer)
	if err != nil {
		return err
	}
	// stakers is bounded by MaxStakers
	estimate := thor.PayoutBaseGas + thor.PayoutPerStakerGas*stakers
	if !s.charger.Reserve(estimate) {
		res.Deferred = true
		metricDeferredPayouts().Add(1)
		logger.Debug("payout deferred", "rotation", p.Rotation, "producer", p.Producer, "estimate", estimate)
		return nil
	}

	if err := s.atomic(s.payout); err != nil {
		return err
	}
	res.Paid = p
	metricPayouts().Add(1)
	metricPaidAmount().Add(int64(p.Amount))
	logger.Info("paid producer", "rotation", p.Rotation, "producer", p.Producer, "amount", p.Amount, "stakers", stakers)
	return nil
}

// payout pays one producer: the collator part to the producer, a share to
// every delegation with the compounding part held again. A failed transfer
// skips that account and its value is set aside as unclaimed.
func (s *Staker) payout() error {
	p, done, err := s.payoutQueue.Pop()
	if err != nil {
		return err
	}

	var (
		dels  []*delegation.Delegation
		total uint64
	)
	isCandidate, err := s.candidateService.IsCandidate(p.Producer)
	if err != nil {
		return err
	}
	if isCandidate {
		if dels, err = s.delegationService.Delegations(p.Producer); err != nil {
			return err
		}
		agg, err := s.aggregationService.GetAggregation(p.Producer)
		if err != nil {
			return err
		}
		total = agg.Total()
	}
	pct, err := s.params.Get(thor.KeyCollatorRewardPercentage)
	if err != nil {
		return err
	}
	if pct > 100 {
		pct = 100
	}
	stakes := make([]uint64, len(dels))
	for i, d := range dels {
		stakes[i] = d.Amount
	}
	split, err := reward.Compute(p.Amount, uint8(pct), total, stakes)
	if err != nil {
		return err
	}

	var skipped uint64
	if !s.transfer(p.Producer, split.Collator) {
		skipped += split.Collator
	}
	for i, d := range dels {
		share := split.Shares[i]
		if share == 0 {
			continue
		}
		if !s.transfer(d.Staker, share) {
			skipped += share
			continue
		}
		if err := s.compound(d, share); err != nil {
			return err
		}
	}
	if err := s.payoutQueue.Unclaim(skipped); err != nil {
		return err
	}

	if done {
		return s.livenessTracker.Prune(p.Rotation)
	}
	return nil
}

// transfer pays amount out of the fee pot, leaving both balances untouched
// when it fails.
func (s *Staker) transfer(account thor.Address, amount uint64) bool {
	if amount == 0 {
		return true
	}
	cp := s.state.NewCheckpoint()
	if err := s.currency.TransferFromPot(s.cfg.FeePot, account, amount); err != nil {
		s.state.RevertTo(cp)
		metricCurrencyFailures().AddWithLabel(1, map[string]string{"op": "transfer"})
		logger.Warn("reward transfer failed", "account", account, "amount", amount, "error", err)
		return false
	}
	return true
}

// compound stakes part of a paid share back into the delegation.
// Only storage failures are returned, a refused hold or an overflow leaves
// the share spendable.
func (s *Staker) compound(d *delegation.Delegation, share uint64) error {
	amount := d.Compound(share)
	if amount == 0 {
		return nil
	}
	if err := s.currency.Hold(d.Staker, amount); err != nil {
		metricCurrencyFailures().AddWithLabel(1, map[string]string{"op": "hold"})
		logger.Warn("compound hold failed", "staker", d.Staker, "amount", amount, "error", err)
		return nil
	}
	cp := s.state.NewCheckpoint()
	err := func() error {
		if _, err := s.delegationService.Add(d.Staker, d.Candidate, amount); err != nil {
			return err
		}
		_, err := s.aggregationService.AddDelegated(d.Candidate, amount)
		return err
	}()
	if err == nil {
		return nil
	}
	s.state.RevertTo(cp)
	if !reverts.IsRevertErr(err) {
		return err
	}
	s.alertOverflow(err)
	if rerr := s.currency.Release(d.Staker, amount); rerr != nil {
		metricCurrencyFailures().AddWithLabel(1, map[string]string{"op": "release"})
		logger.Warn("compound release failed", "staker", d.Staker, "amount", amount, "error", rerr)
	}
	return nil
}
