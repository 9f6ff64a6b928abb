// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/collator-staking/builtin/staker/reward"
	"github.com/vechain/collator-staking/thor"
)

// Selection is the producer set chosen for the open rotation.
type Selection struct {
	Rotation  uint64         `json:"rotation"`
	Producers []thor.Address `json:"producers"`
	Shortfall uint64         `json:"shortfall"` // missing producers to reach MinEligibleCollators
}

// NewProducerSet selects the invulnerables followed by the top ranked
// candidates, and records the set for the open rotation. A short set is
// still returned, the shortfall is reported instead of refused.
func (s *Staker) NewProducerSet() (*Selection, error) {
	var sel *Selection
	err := s.atomic(func() error {
		desired, err := s.params.Get(thor.KeyDesiredCandidates)
		if err != nil {
			return err
		}
		invulnerables, err := s.candidateService.Invulnerables()
		if err != nil {
			return err
		}
		ranked, err := s.Rank()
		if err != nil {
			return err
		}

		seen := make(map[thor.Address]bool, len(invulnerables)+len(ranked))
		producers := make([]thor.Address, 0, len(invulnerables)+len(ranked))
		for _, inv := range invulnerables {
			if !seen[inv] {
				seen[inv] = true
				producers = append(producers, inv)
			}
		}
		var picked uint64
		for _, r := range ranked {
			if picked >= desired {
				break
			}
			if seen[r.Account] {
				continue
			}
			seen[r.Account] = true
			producers = append(producers, r.Account)
			picked++
		}

		rotation, err := s.livenessTracker.SetProducers(producers)
		if err != nil {
			return err
		}
		sel = &Selection{Rotation: rotation, Producers: producers}
		if n := uint64(len(producers)); n < s.cfg.MinEligibleCollators {
			sel.Shortfall = s.cfg.MinEligibleCollators - n
		}
		return nil
	})
	if err != nil {
		logger.Info("producer selection failed", "error", err)
		return nil, err
	}

	if sel.Shortfall > 0 {
		logger.Warn("producer set below minimum", "rotation", sel.Rotation, "producers", len(sel.Producers), "shortfall", sel.Shortfall)
	}
	logger.Info("selected producers", "rotation", sel.Rotation, "producers", len(sel.Producers))
	return sel, nil
}

// BlockAuthored counts a block for its author in the open rotation.
// Reports are idempotent by height, repeated or stale ones return false.
func (s *Staker) BlockAuthored(account thor.Address, height uint64) (bool, error) {
	var counted bool
	err := s.atomic(func() error {
		var err error
		counted, err = s.livenessTracker.Record(account, height)
		return err
	})
	if err != nil {
		logger.Info("authorship report failed", "account", account, "height", height, "error", err)
		return false, err
	}
	if !counted {
		logger.Debug("authorship report ignored", "account", account, "height", height)
	}
	return counted, nil
}

// Closure is the outcome of closing a rotation.
type Closure struct {
	Rotation uint64           `json:"rotation"`
	Blocks   uint64           `json:"blocks"`
	Subsidy  uint64           `json:"subsidy"`
	Pot      uint64           `json:"pot"`
	Payouts  []*reward.Payout `json:"payouts"`
	Evicted  []thor.Address   `json:"evicted"`
}

// RotationClosed ends the open rotation: idle candidates are evicted and a
// payout is scheduled for every rewarded producer, to be paid over later steps.
func (s *Staker) RotationClosed(rotation uint64, producers []thor.Address, currentBlock uint64) (*Closure, error) {
	logger.Debug("closing rotation", "rotation", rotation, "producers", len(producers))

	var closure *Closure
	err := s.atomic(func() error {
		var err error
		closure, err = s.closeRotation(rotation, producers, currentBlock)
		return err
	})
	if err != nil {
		logger.Info("close rotation failed", "rotation", rotation, "error", err)
		return nil, err
	}

	if len(closure.Evicted) > 0 {
		metricEvictions().Add(int64(len(closure.Evicted)))
		s.reportCandidates()
	}
	logger.Info("closed rotation", "rotation", rotation, "blocks", closure.Blocks, "pot", closure.Pot,
		"payouts", len(closure.Payouts), "evicted", len(closure.Evicted))
	return closure, nil
}

type producerTally struct {
	account      thor.Address
	blocks       uint64
	invulnerable bool
}

func (s *Staker) closeRotation(rotation uint64, producers []thor.Address, currentBlock uint64) (*Closure, error) {
	rec, err := s.livenessTracker.Close(rotation)
	if err != nil {
		return nil, err
	}
	if len(producers) == 0 {
		producers = rec.Producers
	}

	closure := &Closure{Rotation: rotation}
	tallies := make([]producerTally, 0, len(producers))
	seen := make(map[thor.Address]bool, len(producers))
	for _, p := range producers {
		if seen[p] {
			continue
		}
		seen[p] = true
		blocks, err := s.livenessTracker.Authored(rotation, p)
		if err != nil {
			return nil, err
		}
		inv, err := s.candidateService.IsInvulnerable(p)
		if err != nil {
			return nil, err
		}
		tallies = append(tallies, producerTally{account: p, blocks: blocks, invulnerable: inv})
		closure.Blocks += blocks
	}

	// liveness: every candidate builds a streak, selected or not
	threshold, err := s.params.Get(thor.KeyKickThreshold)
	if err != nil {
		return nil, err
	}
	authored := make(map[thor.Address]uint64, len(tallies))
	for _, t := range tallies {
		authored[t.account] = t.blocks
	}
	candidates, err := s.candidateService.Candidates()
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		streak, err := s.livenessTracker.UpdateStreak(c, authored[c])
		if err != nil {
			return nil, err
		}
		if threshold > 0 && streak >= threshold {
			if err := s.removeCandidate(c, currentBlock); err != nil {
				return nil, err
			}
			closure.Evicted = append(closure.Evicted, c)
			logger.Info("evicted idle candidate", "account", c, "streak", streak)
		}
	}

	// rewards
	if closure.Blocks > 0 {
		if closure.Subsidy, err = s.fundSubsidy(closure.Blocks); err != nil {
			return nil, err
		}
		if closure.Pot, err = s.rotationPot(); err != nil {
			return nil, err
		}
		var attributed uint64
		for _, t := range tallies {
			if t.invulnerable || t.blocks == 0 {
				continue
			}
			amount := reward.Attribute(closure.Pot, t.blocks, closure.Blocks)
			if amount == 0 {
				continue
			}
			p := &reward.Payout{Rotation: rotation, Producer: t.account, Blocks: t.blocks, Amount: amount}
			if err := s.payoutQueue.Push(p); err != nil {
				return nil, err
			}
			attributed += amount
			closure.Payouts = append(closure.Payouts, p)
		}
		// invulnerable blocks and rounding dust
		if err := s.payoutQueue.Unclaim(closure.Pot - attributed); err != nil {
			return nil, err
		}
	}

	if len(closure.Payouts) == 0 {
		if err := s.livenessTracker.Prune(rotation); err != nil {
			return nil, err
		}
	}
	return closure, nil
}

// fundSubsidy moves ExtraReward per block from the subsidy pot into the fee pot,
// capped by what the subsidy pot holds.
func (s *Staker) fundSubsidy(blocks uint64) (uint64, error) {
	extra, err := s.params.Get(thor.KeyExtraReward)
	if err != nil {
		return 0, err
	}
	if extra == 0 {
		return 0, nil
	}
	available, err := s.currency.Balance(s.cfg.SubsidyPot)
	if err != nil {
		return 0, err
	}
	subsidy, overflow := math.SafeMul(extra, blocks)
	if overflow || subsidy > available {
		subsidy = available
	}
	if subsidy == 0 {
		return 0, nil
	}
	if err := s.currency.TransferFromPot(s.cfg.SubsidyPot, s.cfg.FeePot, subsidy); err != nil {
		metricCurrencyFailures().AddWithLabel(1, map[string]string{"op": "subsidy"})
		logger.Warn("subsidy transfer failed", "amount", subsidy, "error", err)
		return 0, nil
	}
	return subsidy, nil
}

// rotationPot is the fee pot balance neither committed to earlier payouts
// nor set aside as unclaimed, that is what came in since the last close.
func (s *Staker) rotationPot() (uint64, error) {
	balance, err := s.currency.Balance(s.cfg.FeePot)
	if err != nil {
		return 0, err
	}
	committed, err := s.payoutQueue.Committed()
	if err != nil {
		return 0, err
	}
	unclaimed, err := s.payoutQueue.Unclaimed()
	if err != nil {
		return 0, err
	}
	reserved, overflow := math.SafeAdd(committed, unclaimed)
	if overflow || balance < reserved {
		logger.Warn("fee pot below reserved value", "balance", balance, "committed", committed, "unclaimed", unclaimed)
		return 0, nil
	}
	return balance - reserved, nil
}
