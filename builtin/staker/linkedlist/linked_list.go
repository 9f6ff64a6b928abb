// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

// LinkedList is a persisted doubly linked list of unique addresses.
// Insertion order is preserved, which makes iteration deterministic.
type LinkedList struct {
	head  *solidity.Raw[thor.Address]
	tail  *solidity.Raw[thor.Address]
	count *solidity.Uint64
	next  *solidity.Mapping[thor.Address, thor.Address]
	prev  *solidity.Mapping[thor.Address, thor.Address]
}

// NewLinkedList creates a list whose slots are all derived from base.
func NewLinkedList(sctx *solidity.Context, base thor.Bytes32) *LinkedList {
	pos := func(name string) thor.Bytes32 {
		return thor.Blake2b(base.Bytes(), []byte(name))
	}
	return &LinkedList{
		head:  solidity.NewRaw[thor.Address](sctx, pos("head")),
		tail:  solidity.NewRaw[thor.Address](sctx, pos("tail")),
		count: solidity.NewUint64(sctx, pos("count")),
		next:  solidity.NewMapping[thor.Address, thor.Address](sctx, pos("next")),
		prev:  solidity.NewMapping[thor.Address, thor.Address](sctx, pos("prev")),
	}
}

// Add appends an address to the end of the list.
// Adding an address that is already listed is a no-op.
func (l *LinkedList) Add(address thor.Address) error {
	if address.IsZero() {
		return reverts.ErrZeroAddress
	}
	listed, err := l.Contains(address)
	if err != nil || listed {
		return err
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		if err := l.head.Upsert(address); err != nil {
			return err
		}
	} else {
		if err := l.next.Upsert(oldTail, address); err != nil {
			return err
		}
		if err := l.prev.Upsert(address, oldTail); err != nil {
			return err
		}
	}
	if err := l.tail.Upsert(address); err != nil {
		return err
	}
	_, err = l.count.Add(1)
	return err
}

// Remove unlinks an address from anywhere in the list.
// It returns false when the address is not listed.
func (l *LinkedList) Remove(address thor.Address) (bool, error) {
	listed, err := l.Contains(address)
	if err != nil || !listed {
		return false, err
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return false, err
	}

	if prev.IsZero() {
		err = setOrClear(l.head, next)
	} else {
		err = setOrClearLink(l.next, prev, next)
	}
	if err != nil {
		return false, err
	}

	if next.IsZero() {
		err = setOrClear(l.tail, prev)
	} else {
		err = setOrClearLink(l.prev, next, prev)
	}
	if err != nil {
		return false, err
	}

	l.next.Delete(address)
	l.prev.Delete(address)

	if _, err := l.count.Sub(1); err != nil {
		return false, errors.Wrap(err, "linked list count")
	}
	return true, nil
}

func setOrClear(slot *solidity.Raw[thor.Address], value thor.Address) error {
	if value.IsZero() {
		slot.Delete()
		return nil
	}
	return slot.Upsert(value)
}

func setOrClearLink(m *solidity.Mapping[thor.Address, thor.Address], key, value thor.Address) error {
	if value.IsZero() {
		m.Delete(key)
		return nil
	}
	return m.Upsert(key, value)
}

// Contains reports whether the address is listed.
func (l *LinkedList) Contains(address thor.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	if head == address {
		return true, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	return !prev.IsZero(), nil
}

// Pop removes and returns the head.
func (l *LinkedList) Pop() (thor.Address, error) {
	head, err := l.head.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if head.IsZero() {
		return thor.Address{}, errors.New("list is empty")
	}
	if _, err := l.Remove(head); err != nil {
		return thor.Address{}, err
	}
	return head, nil
}

// Head returns the oldest address, or zero address if empty.
func (l *LinkedList) Head() (thor.Address, error) {
	return l.head.Get()
}

// Tail returns the newest address, or zero address if empty.
func (l *LinkedList) Tail() (thor.Address, error) {
	return l.tail.Get()
}

// Next returns the successor address in the list, or zero address if at the end.
func (l *LinkedList) Next(address thor.Address) (thor.Address, error) {
	return l.next.Get(address)
}

// Len returns the number of listed addresses.
func (l *LinkedList) Len() (uint64, error) {
	return l.count.Get()
}

// Iter traverses the list from head to tail. The callback may remove the
// visited address.
func (l *LinkedList) Iter(callback func(thor.Address) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// All returns every listed address in order.
func (l *LinkedList) All() ([]thor.Address, error) {
	var all []thor.Address
	err := l.Iter(func(addr thor.Address) error {
		all = append(all, addr)
		return nil
	})
	return all, err
}
