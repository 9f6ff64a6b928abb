// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var slotParams = thor.BytesToBytes32([]byte("params"))

// Params binder of `Params` contract.
// It stores the tunable staking parameters keyed by thor.Key* constants.
type Params struct {
	storage *solidity.Mapping[thor.Bytes32, uint64]
}

func New(addr thor.Address, state *state.State) *Params {
	sctx := solidity.NewContext(addr, state, nil)
	return &Params{
		storage: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotParams),
	}
}

// Get native way to get param.
func (p *Params) Get(key thor.Bytes32) (uint64, error) {
	v, err := p.storage.Get(key)
	if err != nil {
		return 0, errors.Wrapf(err, "get param %s", key.AbbrevString())
	}
	return v, nil
}

// Set native way to set param.
func (p *Params) Set(key thor.Bytes32, value uint64) error {
	if err := p.storage.Upsert(key, value); err != nil {
		return errors.Wrapf(err, "set param %s", key.AbbrevString())
	}
	return nil
}
