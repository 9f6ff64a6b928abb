// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package liveness

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotCurrent   = thor.BytesToBytes32([]byte("rotation-current"))
	slotLastBlock = thor.BytesToBytes32([]byte("rotation-last-block"))
	slotRotations = thor.BytesToBytes32([]byte("rotations"))
	slotAuthored  = thor.BytesToBytes32([]byte("rotation-authored"))
	slotStreaks   = thor.BytesToBytes32([]byte("idle-streaks"))
)

// Rotation is the producer set of one rotation and the blocks it authored.
type Rotation struct {
	Producers []thor.Address
	Blocks    uint64 // total authored blocks counted for the rotation
}

// Contains reports whether the account is part of the producer set.
func (r *Rotation) Contains(account thor.Address) bool {
	for _, p := range r.Producers {
		if p == account {
			return true
		}
	}
	return false
}

type lastBlock struct {
	Height uint64
}

// Tracker records authored blocks per producer per rotation and the idle
// streak of every candidate across rotations.
type Tracker struct {
	current   *solidity.Uint64
	lastBlock *solidity.Raw[*lastBlock]
	rotations *solidity.Mapping[thor.Bytes32, *Rotation]
	authored  *solidity.Mapping[thor.Bytes32, uint64]
	streaks   *solidity.Mapping[thor.Address, uint64]
}

func New(sctx *solidity.Context) *Tracker {
	return &Tracker{
		current:   solidity.NewUint64(sctx, slotCurrent),
		lastBlock: solidity.NewRaw[*lastBlock](sctx, slotLastBlock),
		rotations: solidity.NewMapping[thor.Bytes32, *Rotation](sctx, slotRotations),
		authored:  solidity.NewMapping[thor.Bytes32, uint64](sctx, slotAuthored),
		streaks:   solidity.NewMapping[thor.Address, uint64](sctx, slotStreaks),
	}
}

func authoredKey(rotation uint64, account thor.Address) thor.Bytes32 {
	return thor.Blake2b(thor.Uint64ToBytes32(rotation).Bytes(), account.Bytes())
}

// Current returns the id of the open rotation.
func (t *Tracker) Current() (uint64, error) {
	return t.current.Get()
}

// GetRotation returns the record of a rotation, or nil if none is kept.
func (t *Tracker) GetRotation(rotation uint64) (*Rotation, error) {
	r, err := t.rotations.Get(thor.Uint64ToBytes32(rotation))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rotation")
	}
	return r, nil
}

// SetProducers records the producer set of the open rotation.
func (t *Tracker) SetProducers(producers []thor.Address) (uint64, error) {
	id, err := t.current.Get()
	if err != nil {
		return 0, err
	}
	r, err := t.GetRotation(id)
	if err != nil {
		return 0, err
	}
	if r == nil {
		r = &Rotation{}
	}
	r.Producers = producers
	if err := t.rotations.Upsert(thor.Uint64ToBytes32(id), r); err != nil {
		return 0, errors.Wrap(err, "failed to set rotation")
	}
	return id, nil
}

// Record counts a block authored at the given height.
// Reports at or below the last counted height are ignored, as are
// reports from accounts outside the open rotation's producer set.
func (t *Tracker) Record(account thor.Address, height uint64) (bool, error) {
	last, err := t.lastBlock.Get()
	if err != nil {
		return false, err
	}
	if last != nil && height <= last.Height {
		return false, nil
	}

	id, err := t.current.Get()
	if err != nil {
		return false, err
	}
	r, err := t.GetRotation(id)
	if err != nil {
		return false, err
	}
	if r == nil || !r.Contains(account) {
		return false, nil
	}

	key := authoredKey(id, account)
	n, err := t.authored.Get(key)
	if err != nil {
		return false, err
	}
	if n, err = checkedInc(n); err != nil {
		return false, err
	}
	if r.Blocks, err = checkedInc(r.Blocks); err != nil {
		return false, err
	}
	if err := t.authored.Upsert(key, n); err != nil {
		return false, err
	}
	if err := t.rotations.Update(thor.Uint64ToBytes32(id), r); err != nil {
		return false, err
	}
	return true, t.lastBlock.Upsert(&lastBlock{Height: height})
}

func checkedInc(n uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(n, 1)
	if overflow {
		return 0, reverts.ErrArithmeticOverflow
	}
	return sum, nil
}

// Authored returns the blocks counted for the account in a rotation.
func (t *Tracker) Authored(rotation uint64, account thor.Address) (uint64, error) {
	return t.authored.Get(authoredKey(rotation, account))
}

// Close ends the open rotation and opens the next one.
func (t *Tracker) Close(rotation uint64) (*Rotation, error) {
	id, err := t.current.Get()
	if err != nil {
		return nil, err
	}
	if rotation != id {
		return nil, reverts.ErrUnknownRotation
	}
	r, err := t.GetRotation(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &Rotation{}
	}
	if _, err := t.current.Add(1); err != nil {
		return nil, err
	}
	return r, nil
}

// Prune drops a closed rotation's record once its payouts are done.
func (t *Tracker) Prune(rotation uint64) error {
	r, err := t.GetRotation(rotation)
	if err != nil || r == nil {
		return err
	}
	for _, p := range r.Producers {
		t.authored.Delete(authoredKey(rotation, p))
	}
	t.rotations.Delete(thor.Uint64ToBytes32(rotation))
	return nil
}

// UpdateStreak extends the account's idle streak when it authored nothing,
// otherwise resets it. It returns the new streak.
func (t *Tracker) UpdateStreak(account thor.Address, authored uint64) (uint64, error) {
	if authored > 0 {
		t.streaks.Delete(account)
		return 0, nil
	}
	streak, err := t.streaks.Get(account)
	if err != nil {
		return 0, err
	}
	if streak, err = checkedInc(streak); err != nil {
		return 0, err
	}
	return streak, t.streaks.Upsert(account, streak)
}

// Streak returns the number of consecutive idle rotations.
func (t *Tracker) Streak(account thor.Address) (uint64, error) {
	return t.streaks.Get(account)
}

// ClearStreak forgets an account's streak when it leaves the directory.
func (t *Tracker) ClearStreak(account thor.Address) {
	t.streaks.Delete(account)
}
