// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/unstake"
	"github.com/vechain/collator-staking/thor"
)

//
// Candidate directory
//

// Register makes the account a candidate backed by bond.
func (s *Staker) Register(account thor.Address, bond uint64) error {
	logger.Debug("registering candidate", "account", account, "bond", bond)

	if err := s.register(account, bond); err != nil {
		logger.Info("register failed", "account", account, "error", err)
		return err
	}

	s.reportCandidates()
	logger.Info("registered candidate", "account", account, "bond", bond)
	return nil
}

func (s *Staker) register(account thor.Address, bond uint64) error {
	if err := s.checkCandidacy(account, bond); err != nil {
		return err
	}
	count, err := s.candidateService.CandidateCount()
	if err != nil {
		return err
	}
	if count >= s.cfg.MaxCandidates {
		return reverts.ErrTooManyCandidates
	}

	return s.withHold(account, bond, func() error {
		return s.join(account, bond)
	})
}

// checkCandidacy checks the account may become a candidate backed by bond.
func (s *Staker) checkCandidacy(account thor.Address, bond uint64) error {
	if account.IsZero() {
		return reverts.ErrZeroAddress
	}
	eligible, err := s.registrar.IsEligible(account)
	if err != nil {
		return err
	}
	if !eligible {
		return reverts.ErrNotEligible
	}
	if err := s.checkNotRegistered(account); err != nil {
		return err
	}
	minBond, err := s.params.Get(thor.KeyCandidacyBond)
	if err != nil {
		return err
	}
	if bond < minBond || bond == 0 {
		return reverts.ErrBondTooLow
	}
	return nil
}

// join appends a candidate whose bond is already held.
func (s *Staker) join(account thor.Address, bond uint64) error {
	if _, err := s.candidateService.Add(account); err != nil {
		return err
	}
	if _, err := s.aggregationService.AddSelfBond(account, bond); err != nil {
		return err
	}
	s.livenessTracker.ClearStreak(account)
	return nil
}

// TakeCandidateSlot registers the account in place of target, whose
// self-bond must be strictly below bond. The target leaves as if it had
// deregistered, so the candidate count is unchanged even when the list is full.
func (s *Staker) TakeCandidateSlot(account thor.Address, bond uint64, target thor.Address, currentBlock uint64) error {
	logger.Debug("taking candidate slot", "account", account, "bond", bond, "target", target)

	if err := s.takeCandidateSlot(account, bond, target, currentBlock); err != nil {
		logger.Info("take candidate slot failed", "account", account, "target", target, "error", err)
		return err
	}

	logger.Info("took candidate slot", "account", account, "bond", bond, "target", target)
	return nil
}

func (s *Staker) takeCandidateSlot(account thor.Address, bond uint64, target thor.Address, currentBlock uint64) error {
	if err := s.checkCandidacy(account, bond); err != nil {
		return err
	}
	isCandidate, err := s.candidateService.IsCandidate(target)
	if err != nil {
		return err
	}
	if !isCandidate {
		return reverts.ErrUnknownCandidate
	}
	agg, err := s.aggregationService.GetAggregation(target)
	if err != nil {
		return err
	}
	if bond <= agg.SelfBond {
		return reverts.ErrBondTooLow
	}

	return s.withHold(account, bond, func() error {
		if err := s.removeCandidate(target, currentBlock); err != nil {
			return err
		}
		return s.join(account, bond)
	})
}

func (s *Staker) checkNotRegistered(account thor.Address) error {
	inv, err := s.candidateService.IsInvulnerable(account)
	if err != nil {
		return err
	}
	cand, err := s.candidateService.IsCandidate(account)
	if err != nil {
		return err
	}
	if inv || cand {
		return reverts.ErrAlreadyRegistered
	}
	return nil
}

// Deregister is the voluntary exit of a candidate. Its bond and every
// delegation to it are queued for release with the collator delay.
func (s *Staker) Deregister(account thor.Address, currentBlock uint64) error {
	logger.Debug("deregistering candidate", "account", account)

	if err := s.deregister(account, currentBlock); err != nil {
		logger.Info("deregister failed", "account", account, "error", err)
		return err
	}

	s.reportCandidates()
	logger.Info("deregistered candidate", "account", account)
	return nil
}

func (s *Staker) deregister(account thor.Address, currentBlock uint64) error {
	isCandidate, err := s.candidateService.IsCandidate(account)
	if err != nil {
		return err
	}
	if !isCandidate {
		return reverts.ErrUnknownCandidate
	}
	if err := s.checkFloor(); err != nil {
		return err
	}
	return s.atomic(func() error {
		return s.removeCandidate(account, currentBlock)
	})
}

// checkFloor rejects removing one eligible producer when that would leave
// fewer than MinEligibleCollators.
func (s *Staker) checkFloor() error {
	eligible, err := s.eligibleCount()
	if err != nil {
		return err
	}
	if eligible == 0 || eligible-1 < s.cfg.MinEligibleCollators {
		return reverts.ErrTooFewEligible
	}
	return nil
}

// removeCandidate drops a candidate and queues its whole stake for release.
// It is shared by voluntary exit, eviction and bond raises.
func (s *Staker) removeCandidate(account thor.Address, currentBlock uint64) error {
	at, err := maturity(currentBlock, s.cfg.CollatorUnstakingDelay)
	if err != nil {
		return err
	}
	dels, err := s.delegationService.Delegations(account)
	if err != nil {
		return err
	}
	for _, del := range dels {
		if err := s.delegationService.Remove(del.Staker, account); err != nil {
			return err
		}
		if _, err := s.unstakeQueue.Enqueue(unstake.CollatorLane, del.Staker, del.Amount, at); err != nil {
			return err
		}
	}
	agg, err := s.aggregationService.GetAggregation(account)
	if err != nil {
		return err
	}
	if agg.SelfBond > 0 {
		if _, err := s.unstakeQueue.Enqueue(unstake.CollatorLane, account, agg.SelfBond, at); err != nil {
			return err
		}
	}
	s.aggregationService.Remove(account)
	if _, err := s.candidateService.Remove(account); err != nil {
		return err
	}
	s.livenessTracker.ClearStreak(account)
	return nil
}

// AddInvulnerable adds an account to the invulnerable set. A candidate
// becoming invulnerable gives up its candidacy.
func (s *Staker) AddInvulnerable(account thor.Address, currentBlock uint64) error {
	logger.Debug("adding invulnerable", "account", account)

	if err := s.addInvulnerable(account, currentBlock); err != nil {
		logger.Info("add invulnerable failed", "account", account, "error", err)
		return err
	}

	s.reportCandidates()
	logger.Info("added invulnerable", "account", account)
	return nil
}

func (s *Staker) addInvulnerable(account thor.Address, currentBlock uint64) error {
	if account.IsZero() {
		return reverts.ErrZeroAddress
	}
	eligible, err := s.registrar.IsEligible(account)
	if err != nil {
		return err
	}
	if !eligible {
		return reverts.ErrNotEligible
	}
	inv, err := s.candidateService.IsInvulnerable(account)
	if err != nil {
		return err
	}
	if inv {
		return reverts.ErrAlreadyRegistered
	}
	count, err := s.candidateService.InvulnerableCount()
	if err != nil {
		return err
	}
	if count >= s.cfg.MaxInvulnerables {
		return reverts.ErrTooManyInvulnerables
	}
	isCandidate, err := s.candidateService.IsCandidate(account)
	if err != nil {
		return err
	}

	return s.atomic(func() error {
		if isCandidate {
			if err := s.removeCandidate(account, currentBlock); err != nil {
				return err
			}
		}
		return s.candidateService.AddInvulnerable(account)
	})
}

// SetInvulnerables replaces the invulnerable set. Accounts that are not
// eligible are skipped and returned, the others are added in the given
// order the way AddInvulnerable adds them.
func (s *Staker) SetInvulnerables(accounts []thor.Address, currentBlock uint64) ([]thor.Address, error) {
	logger.Debug("setting invulnerables", "count", len(accounts))

	skipped, err := s.setInvulnerables(accounts, currentBlock)
	if err != nil {
		logger.Info("set invulnerables failed", "error", err)
		return nil, err
	}

	s.reportCandidates()
	logger.Info("invulnerables set", "count", len(accounts)-len(skipped), "skipped", len(skipped))
	return skipped, nil
}

func (s *Staker) setInvulnerables(accounts []thor.Address, currentBlock uint64) ([]thor.Address, error) {
	if uint64(len(accounts)) > s.cfg.MaxInvulnerables {
		return nil, reverts.ErrTooManyInvulnerables
	}

	var (
		keep    []thor.Address
		skipped []thor.Address
		seen    = make(map[thor.Address]bool, len(accounts))
	)
	for _, account := range accounts {
		if seen[account] {
			continue
		}
		seen[account] = true
		eligible := false
		if !account.IsZero() {
			var err error
			if eligible, err = s.registrar.IsEligible(account); err != nil {
				return nil, err
			}
		}
		if !eligible {
			skipped = append(skipped, account)
			continue
		}
		keep = append(keep, account)
	}

	// an empty set must leave enough candidates
	if len(keep) == 0 {
		count, err := s.candidateService.CandidateCount()
		if err != nil {
			return nil, err
		}
		if count < s.cfg.MinEligibleCollators {
			return nil, reverts.ErrTooFewEligible
		}
	}

	return skipped, s.atomic(func() error {
		current, err := s.candidateService.Invulnerables()
		if err != nil {
			return err
		}
		for _, account := range current {
			if err := s.candidateService.RemoveInvulnerable(account); err != nil {
				return err
			}
		}
		for _, account := range keep {
			isCandidate, err := s.candidateService.IsCandidate(account)
			if err != nil {
				return err
			}
			if isCandidate {
				if err := s.removeCandidate(account, currentBlock); err != nil {
					return err
				}
			}
			if err := s.candidateService.AddInvulnerable(account); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveInvulnerable drops an account from the invulnerable set.
func (s *Staker) RemoveInvulnerable(account thor.Address) error {
	logger.Debug("removing invulnerable", "account", account)

	err := func() error {
		inv, err := s.candidateService.IsInvulnerable(account)
		if err != nil {
			return err
		}
		if !inv {
			return reverts.ErrNotInvulnerable
		}
		if err := s.checkFloor(); err != nil {
			return err
		}
		return s.atomic(func() error {
			return s.candidateService.RemoveInvulnerable(account)
		})
	}()
	if err != nil {
		logger.Info("remove invulnerable failed", "account", account, "error", err)
		return err
	}

	logger.Info("removed invulnerable", "account", account)
	return nil
}
