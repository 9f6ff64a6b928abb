// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"fmt"

	"github.com/vechain/collator-staking/thor"
)

// Charger meters the resources used by one execution step against its budget.
// Work is admitted with Reserve before it starts, storage access is recorded
// with Charge while it runs.
type Charger struct {
	limit          uint64
	reserved       uint64
	sloadOps       uint64
	sstoreSetOps   uint64
	sstoreResetOps uint64
	customGas      uint64
	totalGas       uint64
}

// New creates a charger with the given budget. A zero limit means unbounded.
func New(limit uint64) *Charger {
	return &Charger{limit: limit}
}

// Charge records gas used by a storage access.
func (c *Charger) Charge(gas uint64) {
	c.totalGas += gas

	switch {
	// Handle multiples and single operations
	case gas%thor.SstoreSetGas == 0 && gas > 0:
		c.sstoreSetOps += gas / thor.SstoreSetGas

	case gas%thor.SstoreResetGas == 0 && gas > 0:
		c.sstoreResetOps += gas / thor.SstoreResetGas

	case gas%thor.SloadGas == 0 && gas > 0:
		c.sloadOps += gas / thor.SloadGas

	default:
		// Unknown/custom gas amount
		c.customGas += gas
	}
}

// Remaining returns the budget not yet reserved.
func (c *Charger) Remaining() uint64 {
	if c.limit == 0 {
		return ^uint64(0)
	}
	return c.limit - c.reserved
}

// Reserve admits a unit of work costing at most gas.
// It returns false, reserving nothing, when the unit does not fit.
func (c *Charger) Reserve(gas uint64) bool {
	if gas > c.Remaining() {
		return false
	}
	c.reserved += gas
	return true
}

// Reserved returns the sum of admitted estimates.
func (c *Charger) Reserved() uint64 {
	return c.reserved
}

// TotalGas returns the gas recorded by storage accesses.
func (c *Charger) TotalGas() uint64 {
	return c.totalGas
}

func (c *Charger) Breakdown() string {
	return fmt.Sprintf(
		"SLOAD: %d ops (%d gas) | SSTORE_SET: %d ops (%d gas) | SSTORE_RESET: %d ops (%d gas) | CUSTOM: %d gas | TOTAL: %d gas | RESERVED: %d/%d",
		c.sloadOps,
		c.sloadOps*thor.SloadGas,
		c.sstoreSetOps,
		c.sstoreSetOps*thor.SstoreSetGas,
		c.sstoreResetOps,
		c.sstoreResetOps*thor.SstoreResetGas,
		c.customGas,
		c.totalGas,
		c.reserved,
		c.limit,
	)
}
