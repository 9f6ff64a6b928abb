// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Builder helper to build genesis state.
type Builder struct {
	stateProcs []func(state *state.State) error
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build runs the state processes in order and commits the result.
func (b *Builder) Build(db kv.Store) error {
	st := state.New(db)
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	return st.Stage().Commit()
}

// Build writes the genesis state into an empty store and returns the genesis id.
func (g *Genesis) Build(db kv.Store) (thor.Bytes32, error) {
	if err := g.Validate(); err != nil {
		return thor.Bytes32{}, err
	}
	if has, err := metaBucket.NewGetter(db).Has([]byte(metaKey)); err != nil {
		return thor.Bytes32{}, err
	} else if has {
		return thor.Bytes32{}, errors.New("store already initialized")
	}

	err := new(Builder).
		State(g.allocAccounts).
		State(g.setupStaking).
		Build(db)
	if err != nil {
		return thor.Bytes32{}, err
	}

	data, err := json.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if err := metaBucket.NewPutter(db).Put([]byte(metaKey), data); err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "store genesis")
	}
	return thor.Blake2b(data), nil
}

func (g *Genesis) allocAccounts(st *state.State) error {
	cur := builtin.Currency.WithState(st)
	reg := builtin.Registry.WithState(st)
	for _, a := range g.Accounts {
		if a.Balance != nil {
			if err := cur.Mint(a.Address, uint64(*a.Balance)); err != nil {
				return fmt.Errorf("%s: %w", a.Address, err)
			}
		}
		if a.Eligible {
			if err := reg.Register(a.Address); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Genesis) setupStaking(st *state.State) error {
	stk, err := builtin.Staker.WithState(st, g.Config)
	if err != nil {
		return err
	}

	p := g.Params
	if err := stk.SetDesiredCandidates(p.DesiredCandidates); err != nil {
		return errors.Wrap(err, "desiredCandidates")
	}
	if err := stk.SetKickThreshold(p.KickThreshold); err != nil {
		return errors.Wrap(err, "kickThreshold")
	}
	if err := stk.SetCollatorRewardPercentage(p.CollatorRewardPercentage); err != nil {
		return errors.Wrap(err, "collatorRewardPercentage")
	}
	if err := stk.SetExtraReward(uint64(p.ExtraReward)); err != nil {
		return errors.Wrap(err, "extraReward")
	}
	if err := stk.SetMinStake(uint64(p.MinStake)); err != nil {
		return errors.Wrap(err, "minStake")
	}
	if err := stk.SetCandidacyBond(uint64(p.CandidacyBond), 0); err != nil {
		return errors.Wrap(err, "candidacyBond")
	}

	for _, inv := range g.Invulnerables {
		if err := stk.AddInvulnerable(inv, 0); err != nil {
			return fmt.Errorf("invulnerable %s: %w", inv, err)
		}
	}
	for _, c := range g.Candidates {
		if err := stk.Register(c.Address, uint64(c.Bond)); err != nil {
			return fmt.Errorf("candidate %s: %w", c.Address, err)
		}
	}
	for _, d := range g.Delegations {
		if err := stk.Deposit(d.Staker, d.Candidate, uint64(d.Amount), 0); err != nil {
			return fmt.Errorf("delegation %s to %s: %w", d.Staker, d.Candidate, err)
		}
		if d.AutoCompound > 0 {
			if err := stk.SetAutoCompound(d.Staker, d.Candidate, d.AutoCompound); err != nil {
				return err
			}
		}
	}
	return nil
}
