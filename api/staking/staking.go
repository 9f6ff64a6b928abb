// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/collator-staking/api/utils"
	"github.com/vechain/collator-staking/builtin"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/state"
)

var errNotCandidate = errors.New("not a candidate")

// Staking serves read-only views of the committed staking state.
type Staking struct {
	db  kv.Store
	cfg staker.Config
}

func New(db kv.Store, cfg staker.Config) *Staking {
	return &Staking{
		db,
		cfg,
	}
}

// staker binds a fresh view over the last committed state.
func (s *Staking) staker() (*staker.Staker, error) {
	return builtin.Staker.WithState(state.New(s.db), s.cfg)
}

func (s *Staking) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	stk, err := s.staker()
	if err != nil {
		return err
	}
	params, err := stk.Parameters()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Params{Config: s.cfg, Parameters: params})
}

func (s *Staking) handleGetCandidates(w http.ResponseWriter, _ *http.Request) error {
	stk, err := s.staker()
	if err != nil {
		return err
	}
	ranked, err := stk.Rank()
	if err != nil {
		return err
	}
	candidates := make([]Candidate, 0, len(ranked))
	for i, r := range ranked {
		agg, err := stk.GetAggregation(r.Account)
		if err != nil {
			return err
		}
		idle, err := stk.IdleStreak(r.Account)
		if err != nil {
			return err
		}
		candidates = append(candidates, Candidate{
			Address:   r.Account,
			Rank:      i + 1,
			SelfBond:  agg.SelfBond,
			Delegated: agg.Delegated,
			Total:     r.Total,
			IdleFor:   idle,
		})
	}
	return utils.WriteJSON(w, candidates)
}

func (s *Staking) handleGetCandidateDelegations(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	stk, err := s.staker()
	if err != nil {
		return err
	}
	ok, err := stk.IsCandidate(account)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(errNotCandidate)
	}
	dels, err := stk.DelegationsTo(account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDelegations(dels))
}

func (s *Staking) handleGetInvulnerables(w http.ResponseWriter, _ *http.Request) error {
	stk, err := s.staker()
	if err != nil {
		return err
	}
	invulnerables, err := stk.Invulnerables()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, invulnerables)
}

func (s *Staking) handleGetRotation(w http.ResponseWriter, _ *http.Request) error {
	stk, err := s.staker()
	if err != nil {
		return err
	}
	id, rotation, err := stk.CurrentRotation()
	if err != nil {
		return err
	}
	res := &Rotation{ID: id, Producers: []Producer{}}
	if rotation != nil {
		res.Blocks = rotation.Blocks
		for _, p := range rotation.Producers {
			blocks, err := stk.Authored(id, p)
			if err != nil {
				return err
			}
			res.Producers = append(res.Producers, Producer{Address: p, Blocks: blocks})
		}
	}
	return utils.WriteJSON(w, res)
}

func (s *Staking) handleGetPayouts(w http.ResponseWriter, _ *http.Request) error {
	stk, err := s.staker()
	if err != nil {
		return err
	}
	pending, err := stk.PendingPayouts()
	if err != nil {
		return err
	}
	committed, err := stk.Committed()
	if err != nil {
		return err
	}
	unclaimed, err := stk.Unclaimed()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Payouts{Committed: committed, Unclaimed: unclaimed, Pending: pending})
}

func (s *Staking) handleGetDelegations(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "staker")
	if err != nil {
		return err
	}
	stk, err := s.staker()
	if err != nil {
		return err
	}
	dels, err := stk.DelegationsOf(account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDelegations(dels))
}

func (s *Staking) handleGetUnstaking(w http.ResponseWriter, req *http.Request) error {
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	stk, err := s.staker()
	if err != nil {
		return err
	}
	entries, err := stk.Unstaking(account)
	if err != nil {
		return err
	}
	pending, err := stk.PendingUnstake(account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Unstaking{Account: account, Pending: pending, Requests: convertRequests(entries)})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/params").
		Methods(http.MethodGet).
		Name("staking_get_params").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetParams))
	sub.Path("/candidates").
		Methods(http.MethodGet).
		Name("staking_get_candidates").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidates))
	sub.Path("/candidates/{account}/delegations").
		Methods(http.MethodGet).
		Name("staking_get_candidate_delegations").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidateDelegations))
	sub.Path("/invulnerables").
		Methods(http.MethodGet).
		Name("staking_get_invulnerables").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetInvulnerables))
	sub.Path("/rotation").
		Methods(http.MethodGet).
		Name("staking_get_rotation").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRotation))
	sub.Path("/payouts").
		Methods(http.MethodGet).
		Name("staking_get_payouts").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPayouts))
	sub.Path("/delegations/{staker}").
		Methods(http.MethodGet).
		Name("staking_get_delegations").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegations))
	sub.Path("/unstaking/{account}").
		Methods(http.MethodGet).
		Name("staking_get_unstaking").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetUnstaking))
}
