// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker/reverts"
)

// mulDiv returns a * b / c with a 256-bit intermediate product.
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return x.Div(x, uint256.NewInt(c)).Uint64()
}

// Attribute returns the part of the pot earned by blocks out of total blocks.
func Attribute(pot, blocks, total uint64) uint64 {
	if blocks >= total {
		return pot
	}
	return mulDiv(pot, blocks, total)
}

// Split is the division of one producer's payout.
type Split struct {
	Commission uint64   // the collator's fixed percentage
	Shares     []uint64 // one per delegation, in the order given
	Collator   uint64   // everything not paid as a share
}

// Compute splits amount between the collator and the delegations backing it.
// The commission comes off the top, the rest is divided by stake / total.
// Rounding dust and the self-bond's part of the pool go to the collator,
// so Collator + Σ Shares == amount.
func Compute(amount uint64, commissionPct uint8, total uint64, stakes []uint64) (*Split, error) {
	if commissionPct > 100 {
		return nil, reverts.ErrInvalidPercentage
	}
	commission := mulDiv(amount, uint64(commissionPct), 100)
	pool := amount - commission

	split := &Split{
		Commission: commission,
		Shares:     make([]uint64, len(stakes)),
	}
	var (
		staked uint64
		paid   uint64
	)
	for i, stake := range stakes {
		staked += stake
		if staked < stake || staked > total {
			return nil, errors.New("delegations exceed candidate total")
		}
		split.Shares[i] = mulDiv(pool, stake, total)
		paid += split.Shares[i]
	}
	split.Collator = amount - paid
	return split, nil
}
