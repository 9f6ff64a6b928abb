// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/vechain/collator-staking/thor"
)

// Delegation is a staker's backing of a candidate.
type Delegation struct {
	Staker       thor.Address
	Candidate    thor.Address
	Amount       uint64
	AutoCompound uint8 // percentage of every reward share staked back, 0-100
}

// ID returns the storage key of the (staker, candidate) pair.
func ID(staker, candidate thor.Address) thor.Bytes32 {
	return thor.Blake2b(staker.Bytes(), candidate.Bytes())
}

// IsEmpty returns whether the entry can be treated as empty.
func (d *Delegation) IsEmpty() bool {
	return d == nil || d.Amount == 0
}

// Compound returns the part of a reward share that is staked back.
func (d *Delegation) Compound(share uint64) uint64 {
	if d.AutoCompound == 0 || share == 0 {
		return 0
	}
	if d.AutoCompound >= 100 {
		return share
	}
	// split so share * p cannot overflow
	return share/100*uint64(d.AutoCompound) + share%100*uint64(d.AutoCompound)/100
}
