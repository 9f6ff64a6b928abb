// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotFree = thor.BytesToBytes32([]byte("free-balances"))
	slotHeld = thor.BytesToBytes32([]byte("held-balances"))

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Currency binder of `Currency` contract.
// Every account has a spendable (free) balance and a held balance.
type Currency struct {
	free *solidity.Mapping[thor.Address, uint64]
	held *solidity.Mapping[thor.Address, uint64]
}

func New(addr thor.Address, state *state.State) *Currency {
	sctx := solidity.NewContext(addr, state, nil)
	return &Currency{
		free: solidity.NewMapping[thor.Address, uint64](sctx, slotFree),
		held: solidity.NewMapping[thor.Address, uint64](sctx, slotHeld),
	}
}

// Balance returns the spendable balance.
func (c *Currency) Balance(account thor.Address) (uint64, error) {
	return c.free.Get(account)
}

// Held returns the balance held on behalf of the account.
func (c *Currency) Held(account thor.Address) (uint64, error) {
	return c.held.Get(account)
}

// Mint credits new spendable funds, used by genesis and for collected fees.
func (c *Currency) Mint(account thor.Address, amount uint64) error {
	return c.add(c.free, account, amount)
}

// Hold moves funds from spendable to held.
func (c *Currency) Hold(account thor.Address, amount uint64) error {
	if err := c.sub(c.free, account, amount); err != nil {
		return err
	}
	return c.add(c.held, account, amount)
}

// Release moves funds from held back to spendable.
func (c *Currency) Release(account thor.Address, amount uint64) error {
	if err := c.sub(c.held, account, amount); err != nil {
		return err
	}
	return c.add(c.free, account, amount)
}

// TransferFromPot pays spendable funds out of a pot account.
func (c *Currency) TransferFromPot(pot, account thor.Address, amount uint64) error {
	if err := c.sub(c.free, pot, amount); err != nil {
		return err
	}
	return c.add(c.free, account, amount)
}

func (c *Currency) add(m *solidity.Mapping[thor.Address, uint64], account thor.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := m.Get(account)
	if err != nil {
		return err
	}
	sum, overflow := math.SafeAdd(bal, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	return m.Upsert(account, sum)
}

func (c *Currency) sub(m *solidity.Mapping[thor.Address, uint64], account thor.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := m.Get(account)
	if err != nil {
		return err
	}
	left, underflow := math.SafeSub(bal, amount)
	if underflow {
		return ErrInsufficientFunds
	}
	if left == 0 {
		m.Delete(account)
		return nil
	}
	return m.Update(account, left)
}
