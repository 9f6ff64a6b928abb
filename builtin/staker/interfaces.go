// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/collator-staking/thor"
)

// Currency is the balance keeper the staker moves funds through.
// Stake is held, never transferred, so it stays owned by the staker.
type Currency interface {
	Hold(account thor.Address, amount uint64) error
	Release(account thor.Address, amount uint64) error
	TransferFromPot(pot, account thor.Address, amount uint64) error
	Balance(account thor.Address) (uint64, error)
}

// Registrar tells whether an account has registered producer keys.
type Registrar interface {
	IsEligible(account thor.Address) (bool, error)
}
