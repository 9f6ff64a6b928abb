// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var slotEligible = thor.BytesToBytes32([]byte("eligible"))

// Registry binder of `Registry` contract.
// It holds the accounts that have registered producer keys.
type Registry struct {
	eligible *solidity.Mapping[thor.Address, bool]
}

func New(addr thor.Address, state *state.State) *Registry {
	sctx := solidity.NewContext(addr, state, nil)
	return &Registry{
		eligible: solidity.NewMapping[thor.Address, bool](sctx, slotEligible),
	}
}

func (r *Registry) IsEligible(account thor.Address) (bool, error) {
	return r.eligible.Get(account)
}

func (r *Registry) Register(account thor.Address) error {
	return r.eligible.Upsert(account, true)
}

func (r *Registry) Revoke(account thor.Address) {
	r.eligible.Delete(account)
}
