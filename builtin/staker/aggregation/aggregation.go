// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

// Aggregation is the stake backing a single candidate.
type Aggregation struct {
	SelfBond  uint64 // bond held from the candidate itself
	Delegated uint64 // sum of all delegations to the candidate
}

// Total returns the ranking key of the candidate.
// SelfBond + Delegated never overflows, the service checks it on every change.
func (a *Aggregation) Total() uint64 {
	return a.SelfBond + a.Delegated
}

// IsEmpty returns whether the entry can be treated as empty.
func (a *Aggregation) IsEmpty() bool {
	return a.SelfBond == 0 && a.Delegated == 0
}
