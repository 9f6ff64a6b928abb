// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/unstake"
	"github.com/vechain/collator-staking/thor"
)

//
// Stake ledger
//

// Deposit backs a candidate with amount held from the staker.
// A candidate depositing to itself raises its bond.
func (s *Staker) Deposit(staker, candidate thor.Address, amount uint64, currentBlock uint64) error {
	logger.Debug("depositing", "staker", staker, "candidate", candidate, "amount", amount)

	if err := s.deposit(staker, candidate, amount, currentBlock); err != nil {
		logger.Info("deposit failed", "staker", staker, "candidate", candidate, "error", err)
		return err
	}

	logger.Info("deposited", "staker", staker, "candidate", candidate, "amount", amount)
	return nil
}

func (s *Staker) deposit(staker, candidate thor.Address, amount uint64, currentBlock uint64) error {
	if staker.IsZero() {
		return reverts.ErrZeroAddress
	}
	if amount == 0 {
		return reverts.ErrInsufficientStake
	}
	isCandidate, err := s.candidateService.IsCandidate(candidate)
	if err != nil {
		return err
	}
	if !isCandidate {
		return reverts.ErrUnknownCandidate
	}

	if staker == candidate {
		return s.withHold(staker, amount, func() error {
			_, err := s.aggregationService.AddSelfBond(candidate, amount)
			return err
		})
	}

	del, err := s.delegationService.GetDelegation(staker, candidate)
	if err != nil {
		return err
	}
	var current uint64
	if del != nil {
		current = del.Amount
	}
	total, overflow := math.SafeAdd(current, amount)
	if overflow {
		s.alertOverflow(reverts.ErrArithmeticOverflow)
		return reverts.ErrArithmeticOverflow
	}
	minStake, err := s.params.Get(thor.KeyMinStake)
	if err != nil {
		return err
	}
	if total < minStake {
		return reverts.ErrInsufficientStake
	}

	var displaced *delegation.Delegation
	if del == nil {
		if displaced, err = s.checkCaps(staker, candidate, total); err != nil {
			return err
		}
	}

	return s.withHold(staker, amount, func() error {
		if displaced != nil {
			if err := s.displace(displaced, currentBlock); err != nil {
				return err
			}
		}
		if _, err := s.delegationService.Add(staker, candidate, amount); err != nil {
			return err
		}
		_, err := s.aggregationService.AddDelegated(candidate, amount)
		return err
	})
}

// checkCaps validates a new (staker, candidate) pair against the delegation caps.
// It returns the delegation to displace when the candidate is full.
func (s *Staker) checkCaps(staker, candidate thor.Address, amount uint64) (*delegation.Delegation, error) {
	staked, err := s.delegationService.CandidateCount(staker)
	if err != nil {
		return nil, err
	}
	if staked >= s.cfg.MaxStakedCandidates {
		return nil, reverts.ErrDelegationCapExceeded
	}

	stakers, err := s.delegationService.StakerCount(candidate)
	if err != nil {
		return nil, err
	}
	if stakers < s.cfg.MaxStakers {
		return nil, nil
	}
	smallest, err := s.delegationService.Smallest(candidate)
	if err != nil {
		return nil, err
	}
	if smallest == nil || amount <= smallest.Amount {
		return nil, reverts.ErrDelegationCapExceeded
	}
	return smallest, nil
}

// displace moves a whole delegation to the unstake queue with the user delay.
func (s *Staker) displace(del *delegation.Delegation, currentBlock uint64) error {
	at, err := maturity(currentBlock, s.cfg.UserUnstakingDelay)
	if err != nil {
		return err
	}
	if err := s.delegationService.Remove(del.Staker, del.Candidate); err != nil {
		return err
	}
	if _, err := s.aggregationService.SubDelegated(del.Candidate, del.Amount); err != nil {
		return err
	}
	if _, err := s.unstakeQueue.Enqueue(unstake.UserLane, del.Staker, del.Amount, at); err != nil {
		return err
	}
	logger.Info("displaced delegation", "staker", del.Staker, "candidate", del.Candidate, "amount", del.Amount)
	return nil
}

// RequestWithdrawal reduces a delegation, or a candidate's own bond, and queues
// the amount for release. Ranking reflects the reduction immediately.
func (s *Staker) RequestWithdrawal(staker, candidate thor.Address, amount uint64, currentBlock uint64) error {
	logger.Debug("requesting withdrawal", "staker", staker, "candidate", candidate, "amount", amount)

	if err := s.requestWithdrawal(staker, candidate, amount, currentBlock); err != nil {
		logger.Info("withdrawal request failed", "staker", staker, "candidate", candidate, "error", err)
		return err
	}

	logger.Info("withdrawal requested", "staker", staker, "candidate", candidate, "amount", amount)
	return nil
}

func (s *Staker) requestWithdrawal(staker, candidate thor.Address, amount uint64, currentBlock uint64) error {
	if amount == 0 {
		return reverts.ErrInsufficientStake
	}
	isCandidate, err := s.candidateService.IsCandidate(candidate)
	if err != nil {
		return err
	}
	if !isCandidate {
		return reverts.ErrUnknownCandidate
	}

	if staker == candidate {
		agg, err := s.aggregationService.GetAggregation(candidate)
		if err != nil {
			return err
		}
		left, underflow := math.SafeSub(agg.SelfBond, amount)
		if underflow {
			return reverts.ErrInsufficientStake
		}
		bond, err := s.params.Get(thor.KeyCandidacyBond)
		if err != nil {
			return err
		}
		if left < bond {
			return reverts.ErrBondTooLow
		}
		return s.atomic(func() error {
			at, err := maturity(currentBlock, s.cfg.CollatorUnstakingDelay)
			if err != nil {
				return err
			}
			if _, err := s.aggregationService.SubSelfBond(candidate, amount); err != nil {
				return err
			}
			_, err = s.unstakeQueue.Enqueue(unstake.CollatorLane, staker, amount, at)
			return err
		})
	}

	del, err := s.delegationService.GetDelegation(staker, candidate)
	if err != nil {
		return err
	}
	if del == nil || amount > del.Amount {
		return reverts.ErrInsufficientStake
	}
	if left := del.Amount - amount; left > 0 {
		minStake, err := s.params.Get(thor.KeyMinStake)
		if err != nil {
			return err
		}
		if left < minStake {
			return reverts.ErrInsufficientStake
		}
	}

	return s.atomic(func() error {
		at, err := maturity(currentBlock, s.cfg.UserUnstakingDelay)
		if err != nil {
			return err
		}
		if _, err := s.delegationService.Sub(staker, candidate, amount); err != nil {
			return err
		}
		if _, err := s.aggregationService.SubDelegated(candidate, amount); err != nil {
			return err
		}
		_, err = s.unstakeQueue.Enqueue(unstake.UserLane, staker, amount, at)
		return err
	})
}

// SetAutoCompound sets the share of every future reward staked back into the delegation.
func (s *Staker) SetAutoCompound(staker, candidate thor.Address, percentage uint8) error {
	logger.Debug("setting auto compound", "staker", staker, "candidate", candidate, "percentage", percentage)

	if percentage > 100 {
		logger.Info("set auto compound failed", "staker", staker, "candidate", candidate, "error", reverts.ErrInvalidPercentage)
		return reverts.ErrInvalidPercentage
	}
	if err := s.atomic(func() error {
		return s.delegationService.SetAutoCompound(staker, candidate, percentage)
	}); err != nil {
		logger.Info("set auto compound failed", "staker", staker, "candidate", candidate, "error", err)
		return err
	}

	logger.Info("auto compound set", "staker", staker, "candidate", candidate, "percentage", percentage)
	return nil
}
