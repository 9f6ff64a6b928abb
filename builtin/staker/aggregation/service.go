// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var slotAggregations = thor.BytesToBytes32([]byte("aggregated-stake"))

// Service manages the stake aggregation of each candidate.
type Service struct {
	aggregationStorage *solidity.Mapping[thor.Address, *Aggregation]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		aggregationStorage: solidity.NewMapping[thor.Address, *Aggregation](sctx, slotAggregations),
	}
}

// GetAggregation retrieves the aggregation for a candidate.
// Returns a zero-initialized aggregation if none exists.
func (s *Service) GetAggregation(candidate thor.Address) (*Aggregation, error) {
	agg, err := s.aggregationStorage.Get(candidate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidate aggregation")
	}
	// never return nil pointer aggregations
	if agg == nil {
		agg = &Aggregation{}
	}
	return agg, nil
}

// AddSelfBond increases the candidate's own bond.
func (s *Service) AddSelfBond(candidate thor.Address, amount uint64) (*Aggregation, error) {
	return s.update(candidate, func(agg *Aggregation) error {
		if err := checkTotal(agg, amount); err != nil {
			return err
		}
		agg.SelfBond += amount
		return nil
	})
}

// SubSelfBond decreases the candidate's own bond.
func (s *Service) SubSelfBond(candidate thor.Address, amount uint64) (*Aggregation, error) {
	return s.update(candidate, func(agg *Aggregation) error {
		bond, underflow := math.SafeSub(agg.SelfBond, amount)
		if underflow {
			return reverts.ErrInsufficientStake
		}
		agg.SelfBond = bond
		return nil
	})
}

// AddDelegated increases the delegated total, on deposits and compounding.
func (s *Service) AddDelegated(candidate thor.Address, amount uint64) (*Aggregation, error) {
	return s.update(candidate, func(agg *Aggregation) error {
		if err := checkTotal(agg, amount); err != nil {
			return err
		}
		agg.Delegated += amount
		return nil
	})
}

// SubDelegated decreases the delegated total, on withdrawals and displacements.
func (s *Service) SubDelegated(candidate thor.Address, amount uint64) (*Aggregation, error) {
	return s.update(candidate, func(agg *Aggregation) error {
		delegated, underflow := math.SafeSub(agg.Delegated, amount)
		if underflow {
			return reverts.ErrInsufficientStake
		}
		agg.Delegated = delegated
		return nil
	})
}

// Remove drops the aggregation of a candidate that left the directory.
func (s *Service) Remove(candidate thor.Address) {
	s.aggregationStorage.Delete(candidate)
}

func (s *Service) update(candidate thor.Address, fn func(*Aggregation) error) (*Aggregation, error) {
	agg, err := s.GetAggregation(candidate)
	if err != nil {
		return nil, err
	}
	if err := fn(agg); err != nil {
		return nil, err
	}
	if agg.IsEmpty() {
		s.aggregationStorage.Delete(candidate)
		return agg, nil
	}
	if err := s.aggregationStorage.Upsert(candidate, agg); err != nil {
		return nil, errors.Wrap(err, "failed to set candidate aggregation")
	}
	return agg, nil
}

func checkTotal(agg *Aggregation, amount uint64) error {
	if _, overflow := math.SafeAdd(agg.Total(), amount); overflow {
		return reverts.ErrArithmeticOverflow
	}
	return nil
}
