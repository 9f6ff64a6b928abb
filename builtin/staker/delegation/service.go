// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/linkedlist"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotDelegations      = thor.BytesToBytes32([]byte("delegations"))
	slotCandidateStakers = thor.BytesToBytes32([]byte("candidate-stakers"))
	slotStakerCandidates = thor.BytesToBytes32([]byte("staker-candidates"))
)

// Service owns the delegation records and the two indexes over them:
// the stakers of every candidate (in joining order) and the candidates of every staker.
type Service struct {
	sctx        *solidity.Context
	delegations *solidity.Mapping[thor.Bytes32, *Delegation]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		sctx:        sctx,
		delegations: solidity.NewMapping[thor.Bytes32, *Delegation](sctx, slotDelegations),
	}
}

func (s *Service) stakersOf(candidate thor.Address) *linkedlist.LinkedList {
	return linkedlist.NewLinkedList(s.sctx, thor.Blake2b(slotCandidateStakers.Bytes(), candidate.Bytes()))
}

func (s *Service) candidatesOf(staker thor.Address) *linkedlist.LinkedList {
	return linkedlist.NewLinkedList(s.sctx, thor.Blake2b(slotStakerCandidates.Bytes(), staker.Bytes()))
}

// GetDelegation returns the delegation, or nil if the pair has none.
func (s *Service) GetDelegation(staker, candidate thor.Address) (*Delegation, error) {
	del, err := s.delegations.Get(ID(staker, candidate))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	if del.IsEmpty() {
		return nil, nil
	}
	return del, nil
}

// Add creates or increases a delegation and returns it.
func (s *Service) Add(staker, candidate thor.Address, amount uint64) (*Delegation, error) {
	del, err := s.GetDelegation(staker, candidate)
	if err != nil {
		return nil, err
	}
	if del == nil {
		del = &Delegation{Staker: staker, Candidate: candidate, Amount: amount}
		if err := s.stakersOf(candidate).Add(staker); err != nil {
			return nil, err
		}
		if err := s.candidatesOf(staker).Add(candidate); err != nil {
			return nil, err
		}
		if err := s.delegations.Insert(ID(staker, candidate), del); err != nil {
			return nil, errors.Wrap(err, "failed to set delegation")
		}
		return del, nil
	}

	sum, overflow := math.SafeAdd(del.Amount, amount)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	del.Amount = sum
	if err := s.delegations.Update(ID(staker, candidate), del); err != nil {
		return nil, errors.Wrap(err, "failed to set delegation")
	}
	return del, nil
}

// Sub decreases a delegation, removing it when nothing is left.
// It returns the remaining amount.
func (s *Service) Sub(staker, candidate thor.Address, amount uint64) (uint64, error) {
	del, err := s.GetDelegation(staker, candidate)
	if err != nil {
		return 0, err
	}
	if del == nil {
		return 0, reverts.ErrInsufficientStake
	}
	remaining, underflow := math.SafeSub(del.Amount, amount)
	if underflow {
		return 0, reverts.ErrInsufficientStake
	}
	if remaining == 0 {
		return 0, s.Remove(staker, candidate)
	}
	del.Amount = remaining
	if err := s.delegations.Update(ID(staker, candidate), del); err != nil {
		return 0, errors.Wrap(err, "failed to set delegation")
	}
	return remaining, nil
}

// Remove deletes a delegation and unlinks it from both indexes.
func (s *Service) Remove(staker, candidate thor.Address) error {
	if _, err := s.stakersOf(candidate).Remove(staker); err != nil {
		return err
	}
	if _, err := s.candidatesOf(staker).Remove(candidate); err != nil {
		return err
	}
	s.delegations.Delete(ID(staker, candidate))
	return nil
}

// SetAutoCompound stores the compounding percentage of an existing delegation.
func (s *Service) SetAutoCompound(staker, candidate thor.Address, percentage uint8) error {
	if percentage > 100 {
		return reverts.ErrInvalidPercentage
	}
	del, err := s.GetDelegation(staker, candidate)
	if err != nil {
		return err
	}
	if del == nil {
		return reverts.ErrInsufficientStake
	}
	del.AutoCompound = percentage
	return s.delegations.Update(ID(staker, candidate), del)
}

// StakerCount returns the number of distinct stakers backing the candidate.
func (s *Service) StakerCount(candidate thor.Address) (uint64, error) {
	return s.stakersOf(candidate).Len()
}

// CandidateCount returns the number of distinct candidates the staker backs.
func (s *Service) CandidateCount(staker thor.Address) (uint64, error) {
	return s.candidatesOf(staker).Len()
}

// Candidates returns the candidates backed by the staker.
func (s *Service) Candidates(staker thor.Address) ([]thor.Address, error) {
	return s.candidatesOf(staker).All()
}

// Delegations returns the delegations to the candidate in joining order.
func (s *Service) Delegations(candidate thor.Address) ([]*Delegation, error) {
	var all []*Delegation
	err := s.stakersOf(candidate).Iter(func(staker thor.Address) error {
		del, err := s.GetDelegation(staker, candidate)
		if err != nil {
			return err
		}
		if del == nil {
			return errors.Errorf("dangling staker %s of candidate %s", staker, candidate)
		}
		all = append(all, del)
		return nil
	})
	return all, err
}

// Smallest returns the delegation to displace when the candidate is full.
// On equal amounts the one that joined last is returned.
func (s *Service) Smallest(candidate thor.Address) (*Delegation, error) {
	all, err := s.Delegations(candidate)
	if err != nil {
		return nil, err
	}
	var smallest *Delegation
	for _, del := range all {
		if smallest == nil || del.Amount <= smallest.Amount {
			smallest = del
		}
	}
	return smallest, nil
}
