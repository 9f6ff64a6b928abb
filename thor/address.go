// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding"

	"github.com/ethereum/go-ethereum/common"
)

const AddressLength = common.AddressLength

// Address identifies an account: a staker, a candidate, a pot or a builtin
// contract. The zero address is reserved as the empty marker of persisted lists.
type Address common.Address

var (
	_ encoding.TextMarshaler   = Address{}
	_ encoding.TextUnmarshaler = (*Address)(nil)
)

func (a Address) String() string { return encodeHex(a[:]) }

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == Address{} }

// MarshalText renders the 0x prefixed lower case hex form, used by json and yaml.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}

// ParseAddress accepts 40 hex digits, optionally 0x prefixed.
func ParseAddress(s string) (*Address, error) {
	var a Address
	if err := decodeFixedHex(s, a[:]); err != nil {
		return nil, err
	}
	return &a, nil
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return *a
}

// BytesToAddress keeps the last AddressLength bytes of b, left padding shorter input.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}
