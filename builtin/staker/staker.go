// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/math"
	pkgerrors "github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/gascharger"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/aggregation"
	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/liveness"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/reward"
	"github.com/vechain/collator-staking/builtin/staker/unstake"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var logger = log.WithContext("pkg", "staker")

func SetLogger(l log.Logger) {
	logger = l
}

// Staker implements native methods of `Staker` contract.
type Staker struct {
	cfg       Config
	state     *state.State
	params    *params.Params
	currency  Currency
	registrar Registrar
	charger   *gascharger.Charger // set for the duration of a step

	aggregationService *aggregation.Service
	delegationService  *delegation.Service
	candidateService   *candidate.Service
	unstakeQueue       *unstake.Queue
	livenessTracker    *liveness.Tracker
	payoutQueue        *reward.Queue
}

// New create a new instance.
func New(
	addr thor.Address,
	state *state.State,
	params *params.Params,
	cfg Config,
	currency Currency,
	registrar Registrar,
) (*Staker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid staker config")
	}
	s := &Staker{
		cfg:       cfg,
		state:     state,
		params:    params,
		currency:  currency,
		registrar: registrar,
	}
	sctx := solidity.NewContext(addr, state, s.useGas)

	s.aggregationService = aggregation.New(sctx)
	s.delegationService = delegation.New(sctx)
	s.candidateService = candidate.New(sctx)
	s.unstakeQueue = unstake.New(sctx)
	s.livenessTracker = liveness.New(sctx)
	s.payoutQueue = reward.NewQueue(sctx)
	return s, nil
}

func (s *Staker) useGas(gas uint64) {
	if s.charger != nil {
		s.charger.Charge(gas)
	}
}

// atomic runs fn inside a state checkpoint and reverts everything fn wrote if it fails.
func (s *Staker) atomic(fn func() error) error {
	cp := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(cp)
		s.alertOverflow(err)
		return err
	}
	return nil
}

// withHold holds amount from the account, then runs fn atomically.
// The hold is released again when fn fails.
func (s *Staker) withHold(account thor.Address, amount uint64, fn func() error) error {
	if err := s.currency.Hold(account, amount); err != nil {
		logger.Debug("hold failed", "account", account, "amount", amount, "error", err)
		return reverts.ErrInsufficientBalance
	}
	if err := s.atomic(fn); err != nil {
		if rerr := s.currency.Release(account, amount); rerr != nil {
			metricCurrencyFailures().AddWithLabel(1, map[string]string{"op": "release"})
			return pkgerrors.Wrapf(rerr, "release hold after %v", err)
		}
		return err
	}
	return nil
}

func (s *Staker) alertOverflow(err error) {
	if errors.Is(err, reverts.ErrArithmeticOverflow) {
		metricOverflowAlerts().Add(1)
		logger.Error("stake arithmetic overflow", "error", err)
	}
}

func maturity(currentBlock, delay uint64) (uint64, error) {
	m, overflow := math.SafeAdd(currentBlock, delay)
	if overflow {
		return 0, reverts.ErrArithmeticOverflow
	}
	return m, nil
}

//
// Getters - no state change
//

// Config returns the immutable limits.
func (s *Staker) Config() Config {
	return s.cfg
}

// Parameters are the tunable values read from the params contract.
type Parameters struct {
	DesiredCandidates        uint64 `json:"desiredCandidates"`
	KickThreshold            uint64 `json:"kickThreshold"`
	CollatorRewardPercentage uint64 `json:"collatorRewardPercentage"`
	ExtraReward              uint64 `json:"extraReward"`
	CandidacyBond            uint64 `json:"candidacyBond"`
	MinStake                 uint64 `json:"minStake"`
}

// Parameters returns the current tunable values.
func (s *Staker) Parameters() (*Parameters, error) {
	var (
		p   Parameters
		err error
	)
	for _, f := range []struct {
		key thor.Bytes32
		dst *uint64
	}{
		{thor.KeyDesiredCandidates, &p.DesiredCandidates},
		{thor.KeyKickThreshold, &p.KickThreshold},
		{thor.KeyCollatorRewardPercentage, &p.CollatorRewardPercentage},
		{thor.KeyExtraReward, &p.ExtraReward},
		{thor.KeyCandidacyBond, &p.CandidacyBond},
		{thor.KeyMinStake, &p.MinStake},
	} {
		if *f.dst, err = s.params.Get(f.key); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// IsCandidate checks whether the account is a registered candidate.
func (s *Staker) IsCandidate(account thor.Address) (bool, error) {
	return s.candidateService.IsCandidate(account)
}

// IsInvulnerable checks whether the account is an invulnerable.
func (s *Staker) IsInvulnerable(account thor.Address) (bool, error) {
	return s.candidateService.IsInvulnerable(account)
}

// Invulnerables lists the invulnerables.
func (s *Staker) Invulnerables() ([]thor.Address, error) {
	return s.candidateService.Invulnerables()
}

// Candidates lists the candidates in registration order.
func (s *Staker) Candidates() ([]thor.Address, error) {
	return s.candidateService.Candidates()
}

// Rank orders the candidates by total backing, earlier registration first on ties.
func (s *Staker) Rank() ([]candidate.Ranked, error) {
	return s.candidateService.Rank(func(account thor.Address) (uint64, error) {
		agg, err := s.aggregationService.GetAggregation(account)
		if err != nil {
			return 0, err
		}
		return agg.Total(), nil
	})
}

// GetAggregation returns the stake backing a candidate.
func (s *Staker) GetAggregation(account thor.Address) (*aggregation.Aggregation, error) {
	return s.aggregationService.GetAggregation(account)
}

// GetDelegation returns a delegation, or nil if the pair has none.
func (s *Staker) GetDelegation(staker, candidate thor.Address) (*delegation.Delegation, error) {
	return s.delegationService.GetDelegation(staker, candidate)
}

// DelegationsOf returns every delegation held by the staker.
func (s *Staker) DelegationsOf(staker thor.Address) ([]*delegation.Delegation, error) {
	candidates, err := s.delegationService.Candidates(staker)
	if err != nil {
		return nil, err
	}
	out := make([]*delegation.Delegation, 0, len(candidates))
	for _, c := range candidates {
		del, err := s.delegationService.GetDelegation(staker, c)
		if err != nil {
			return nil, err
		}
		if del != nil {
			out = append(out, del)
		}
	}
	return out, nil
}

// DelegationsTo returns the delegations backing a candidate in joining order.
func (s *Staker) DelegationsTo(candidate thor.Address) ([]*delegation.Delegation, error) {
	return s.delegationService.Delegations(candidate)
}

// IdleStreak returns the consecutive rotations a candidate authored nothing.
func (s *Staker) IdleStreak(account thor.Address) (uint64, error) {
	return s.livenessTracker.Streak(account)
}

// CurrentRotation returns the open rotation id and its record, if a set was selected.
func (s *Staker) CurrentRotation() (uint64, *liveness.Rotation, error) {
	id, err := s.livenessTracker.Current()
	if err != nil {
		return 0, nil, err
	}
	r, err := s.livenessTracker.GetRotation(id)
	if err != nil {
		return 0, nil, err
	}
	return id, r, nil
}

// Authored returns the blocks counted for a producer in a rotation that is still kept.
func (s *Staker) Authored(rotation uint64, account thor.Address) (uint64, error) {
	return s.livenessTracker.Authored(rotation, account)
}

// PendingPayouts lists payouts not made yet, in payment order.
func (s *Staker) PendingPayouts() ([]*reward.Payout, error) {
	return s.payoutQueue.Pending()
}

// Committed returns the part of the fee pot owed to pending payouts.
func (s *Staker) Committed() (uint64, error) {
	return s.payoutQueue.Committed()
}

// Unclaimed returns the part of the fee pot no payout will claim.
func (s *Staker) Unclaimed() (uint64, error) {
	return s.payoutQueue.Unclaimed()
}

// Unstaking lists the account's queued unstake requests.
func (s *Staker) Unstaking(account thor.Address) ([]*unstake.Entry, error) {
	return s.unstakeQueue.Requests(account)
}

// PendingUnstake returns the total the account has waiting in the unstake queue.
func (s *Staker) PendingUnstake(account thor.Address) (uint64, error) {
	return s.unstakeQueue.Pending(account)
}

// UnstakeQueue lists every queued request in release order.
func (s *Staker) UnstakeQueue() ([]*unstake.Entry, error) {
	return s.unstakeQueue.All()
}

func (s *Staker) eligibleCount() (uint64, error) {
	inv, err := s.candidateService.InvulnerableCount()
	if err != nil {
		return 0, err
	}
	cand, err := s.candidateService.CandidateCount()
	if err != nil {
		return 0, err
	}
	return inv + cand, nil
}

func (s *Staker) reportCandidates() {
	if n, err := s.candidateService.CandidateCount(); err == nil {
		metricCandidates().Set(int64(n))
	}
}
