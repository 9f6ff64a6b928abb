// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/thor"
)

// Uint64 is a counter stored in a single slot.
type Uint64 struct {
	raw *Raw[uint64]
}

func NewUint64(context *Context, pos thor.Bytes32) *Uint64 {
	return &Uint64{raw: NewRaw[uint64](context, pos)}
}

func (u *Uint64) Get() (uint64, error) {
	return u.raw.Get()
}

func (u *Uint64) Set(value uint64) error {
	if value == 0 {
		u.raw.Delete()
		return nil
	}
	return u.raw.Upsert(value)
}

func (u *Uint64) Add(delta uint64) (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	sum, overflow := math.SafeAdd(v, delta)
	if overflow {
		return 0, errors.New("uint64 counter overflow")
	}
	return sum, u.Set(sum)
}

func (u *Uint64) Sub(delta uint64) (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	diff, underflow := math.SafeSub(v, delta)
	if underflow {
		return 0, errors.New("uint64 counter underflow")
	}
	return diff, u.Set(diff)
}
