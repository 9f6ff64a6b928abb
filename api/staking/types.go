// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/reward"
	"github.com/vechain/collator-staking/builtin/staker/unstake"
	"github.com/vechain/collator-staking/thor"
)

type Params struct {
	Config     staker.Config      `json:"config"`
	Parameters *staker.Parameters `json:"parameters"`
}

type Candidate struct {
	Address   thor.Address `json:"address"`
	Rank      int          `json:"rank"`
	SelfBond  uint64       `json:"selfBond"`
	Delegated uint64       `json:"delegated"`
	Total     uint64       `json:"total"`
	IdleFor   uint64       `json:"idleFor"`
}

type Producer struct {
	Address thor.Address `json:"address"`
	Blocks  uint64       `json:"blocks"`
}

type Rotation struct {
	ID        uint64     `json:"id"`
	Blocks    uint64     `json:"blocks"`
	Producers []Producer `json:"producers"`
}

type Payouts struct {
	Committed uint64           `json:"committed"`
	Unclaimed uint64           `json:"unclaimed"`
	Pending   []*reward.Payout `json:"pending"`
}

type Delegation struct {
	Staker       thor.Address `json:"staker"`
	Candidate    thor.Address `json:"candidate"`
	Amount       uint64       `json:"amount"`
	AutoCompound uint8        `json:"autoCompound"`
}

func convertDelegations(dels []*delegation.Delegation) []Delegation {
	out := make([]Delegation, 0, len(dels))
	for _, d := range dels {
		out = append(out, Delegation{
			Staker:       d.Staker,
			Candidate:    d.Candidate,
			Amount:       d.Amount,
			AutoCompound: d.AutoCompound,
		})
	}
	return out
}

type UnstakeRequest struct {
	ID       uint64 `json:"id"`
	Amount   uint64 `json:"amount"`
	Maturity uint64 `json:"maturity"`
}

type Unstaking struct {
	Account  thor.Address     `json:"account"`
	Pending  uint64           `json:"pending"`
	Requests []UnstakeRequest `json:"requests"`
}

func convertRequests(entries []*unstake.Entry) []UnstakeRequest {
	out := make([]UnstakeRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, UnstakeRequest{ID: e.ID, Amount: e.Amount, Maturity: e.Maturity})
	}
	return out
}
