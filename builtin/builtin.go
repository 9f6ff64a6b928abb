// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/registry"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/state"
)

// Builtin contracts binding.
var (
	Params   = &paramsContract{newContract("Params")}
	Currency = &currencyContract{newContract("Currency")}
	Registry = &registryContract{newContract("Registry")}
	Staker   = &stakerContract{newContract("Staker")}
)

type (
	paramsContract   struct{ *contract }
	currencyContract struct{ *contract }
	registryContract struct{ *contract }
	stakerContract   struct{ *contract }
)

func (p *paramsContract) WithState(state *state.State) *params.Params {
	return params.New(p.Address, state)
}

func (c *currencyContract) WithState(state *state.State) *currency.Currency {
	return currency.New(c.Address, state)
}

func (r *registryContract) WithState(state *state.State) *registry.Registry {
	return registry.New(r.Address, state)
}

// WithState binds the staker to the other builtin contracts over the same state.
func (s *stakerContract) WithState(state *state.State, cfg staker.Config) (*staker.Staker, error) {
	return staker.New(
		s.Address,
		state,
		Params.WithState(state),
		cfg,
		Currency.WithState(state),
		Registry.WithState(state),
	)
}
