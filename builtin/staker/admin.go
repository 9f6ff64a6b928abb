// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

//
// Administrative setters
//

func (s *Staker) setParam(name string, key thor.Bytes32, value uint64) error {
	if err := s.params.Set(key, value); err != nil {
		logger.Info("set param failed", "param", name, "error", err)
		return err
	}
	logger.Info("param set", "param", name, "value", value)
	return nil
}

// SetDesiredCandidates sets how many ranked candidates join the invulnerables in a producer set.
func (s *Staker) SetDesiredCandidates(n uint64) error {
	if n > s.cfg.MaxCandidates+s.cfg.MaxInvulnerables {
		return reverts.ErrInvalidParam
	}
	return s.setParam("desired-candidates", thor.KeyDesiredCandidates, n)
}

// SetKickThreshold sets the consecutive idle rotations that evict a candidate.
func (s *Staker) SetKickThreshold(n uint64) error {
	if n == 0 {
		return reverts.ErrInvalidParam
	}
	return s.setParam("kick-threshold", thor.KeyKickThreshold, n)
}

// SetCollatorRewardPercentage sets the commission a collator takes before delegators share.
func (s *Staker) SetCollatorRewardPercentage(pct uint8) error {
	if pct > 100 {
		return reverts.ErrInvalidPercentage
	}
	return s.setParam("collator-reward-percentage", thor.KeyCollatorRewardPercentage, uint64(pct))
}

// SetExtraReward sets the subsidy paid per authored block, funded by the subsidy pot.
func (s *Staker) SetExtraReward(amount uint64) error {
	return s.setParam("extra-reward", thor.KeyExtraReward, amount)
}

// SetMinStake sets the smallest delegation a staker may hold.
func (s *Staker) SetMinStake(amount uint64) error {
	return s.setParam("min-stake", thor.KeyMinStake, amount)
}

// SetCandidacyBond sets the minimum self-bond. Candidates whose bond is now
// below it are removed as if they had deregistered.
func (s *Staker) SetCandidacyBond(bond uint64, currentBlock uint64) error {
	logger.Debug("setting candidacy bond", "bond", bond)

	var kicked []thor.Address
	err := s.atomic(func() error {
		if err := s.params.Set(thor.KeyCandidacyBond, bond); err != nil {
			return err
		}
		candidates, err := s.candidateService.Candidates()
		if err != nil {
			return err
		}
		for _, c := range candidates {
			agg, err := s.aggregationService.GetAggregation(c)
			if err != nil {
				return err
			}
			if agg.SelfBond >= bond {
				continue
			}
			if err := s.removeCandidate(c, currentBlock); err != nil {
				return err
			}
			kicked = append(kicked, c)
		}
		return nil
	})
	if err != nil {
		logger.Info("set candidacy bond failed", "error", err)
		return err
	}

	if len(kicked) > 0 {
		metricEvictions().Add(int64(len(kicked)))
		s.reportCandidates()
	}
	logger.Info("candidacy bond set", "bond", bond, "kicked", len(kicked))
	return nil
}
