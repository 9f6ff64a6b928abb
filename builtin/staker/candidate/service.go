// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidate

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/linkedlist"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotCandidates    = thor.BytesToBytes32([]byte("candidates"))
	slotRegistrations = thor.BytesToBytes32([]byte("registrations"))
	slotInvulnerables = thor.BytesToBytes32([]byte("invulnerables"))
	slotSeq           = thor.BytesToBytes32([]byte("registration-seq"))
)

// Service is the candidate directory: the invulnerable set and the
// competing candidates in registration order.
type Service struct {
	candidates    *solidity.Mapping[thor.Address, *Candidate]
	registrations *linkedlist.LinkedList
	invulnerables *linkedlist.LinkedList
	seq           *solidity.Uint64
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		candidates:    solidity.NewMapping[thor.Address, *Candidate](sctx, slotCandidates),
		registrations: linkedlist.NewLinkedList(sctx, slotRegistrations),
		invulnerables: linkedlist.NewLinkedList(sctx, slotInvulnerables),
		seq:           solidity.NewUint64(sctx, slotSeq),
	}
}

// GetCandidate returns the candidate record, or nil when not registered.
func (s *Service) GetCandidate(account thor.Address) (*Candidate, error) {
	c, err := s.candidates.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidate")
	}
	return c, nil
}

func (s *Service) IsCandidate(account thor.Address) (bool, error) {
	return s.registrations.Contains(account)
}

func (s *Service) IsInvulnerable(account thor.Address) (bool, error) {
	return s.invulnerables.Contains(account)
}

// Add registers a candidate and assigns the next registration sequence.
func (s *Service) Add(account thor.Address) (*Candidate, error) {
	listed, err := s.registrations.Contains(account)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, reverts.ErrAlreadyRegistered
	}
	seq, err := s.seq.Add(1)
	if err != nil {
		return nil, err
	}
	c := &Candidate{Seq: seq}
	if err := s.candidates.Insert(account, c); err != nil {
		return nil, errors.Wrap(err, "failed to set candidate")
	}
	if err := s.registrations.Add(account); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove drops a candidate. It returns false if the account was not registered.
func (s *Service) Remove(account thor.Address) (bool, error) {
	removed, err := s.registrations.Remove(account)
	if err != nil || !removed {
		return false, err
	}
	s.candidates.Delete(account)
	return true, nil
}

// Candidates lists the candidates in registration order.
func (s *Service) Candidates() ([]thor.Address, error) {
	return s.registrations.All()
}

func (s *Service) CandidateCount() (uint64, error) {
	return s.registrations.Len()
}

func (s *Service) AddInvulnerable(account thor.Address) error {
	listed, err := s.invulnerables.Contains(account)
	if err != nil {
		return err
	}
	if listed {
		return reverts.ErrAlreadyRegistered
	}
	return s.invulnerables.Add(account)
}

func (s *Service) RemoveInvulnerable(account thor.Address) error {
	removed, err := s.invulnerables.Remove(account)
	if err != nil {
		return err
	}
	if !removed {
		return reverts.ErrNotInvulnerable
	}
	return nil
}

// Invulnerables lists the invulnerables in the order they were added.
func (s *Service) Invulnerables() ([]thor.Address, error) {
	return s.invulnerables.All()
}

func (s *Service) InvulnerableCount() (uint64, error) {
	return s.invulnerables.Len()
}

// Rank orders the candidates by their total backing, descending.
// Ties go to the earlier registration.
func (s *Service) Rank(total func(thor.Address) (uint64, error)) ([]Ranked, error) {
	var ranked []Ranked
	err := s.registrations.Iter(func(account thor.Address) error {
		c, err := s.GetCandidate(account)
		if err != nil {
			return err
		}
		if c == nil {
			return errors.Errorf("dangling registration %s", account)
		}
		t, err := total(account)
		if err != nil {
			return err
		}
		ranked = append(ranked, Ranked{Account: account, Seq: c.Seq, Total: t})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRanked(ranked)
	return ranked, nil
}
