// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/collator-staking/thor"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction for built-in contracts, similar to the mapping in Solidity.
// Values are rlp encoded at blake2b(key, basePos). A missing entry decodes to the zero value of V.
type Mapping[K Key, V any] struct {
	context *Context
	basePos thor.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) thor.Bytes32 {
	return thor.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		m.context.UseGas(toWordSize(len(raw)) * thor.SloadGas)
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether an entry is stored under key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	m.context.UseGas(thor.SloadGas)
	return len(raw) > 0, nil
}

// Insert stores a value under a key that is expected to be empty.
func (m *Mapping[K, V]) Insert(key K, value V) error {
	return m.set(key, value, thor.SstoreSetGas)
}

// Update overwrites a value under a key that is expected to be present.
func (m *Mapping[K, V]) Update(key K, value V) error {
	return m.set(key, value, thor.SstoreResetGas)
}

// Upsert stores a value, charging according to whether the slot was empty.
func (m *Mapping[K, V]) Upsert(key K, value V) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return m.Update(key, value)
	}
	return m.Insert(key, value)
}

// Delete clears the entry under key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.UseGas(thor.SstoreResetGas)
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}

func (m *Mapping[K, V]) set(key K, value V, slotGas uint64) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		m.context.UseGas(toWordSize(len(val)) * slotGas)
		return val, nil
	})
}
