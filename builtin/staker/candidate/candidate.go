// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidate

import (
	"sort"

	"github.com/vechain/collator-staking/thor"
)

// Candidate is a registered collator competing for a producer slot.
type Candidate struct {
	Seq uint64 // registration sequence, earlier wins ranking ties
}

// Ranked is a candidate together with its ranking key.
type Ranked struct {
	Account thor.Address `json:"account"`
	Seq     uint64       `json:"seq"`
	Total   uint64       `json:"total"`
}

// sortRanked orders by total descending, then by registration sequence.
func sortRanked(ranked []Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Seq < ranked[j].Seq
	})
}
