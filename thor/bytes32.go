// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Bytes32 is a storage slot key, a parameter key or a hash.
type Bytes32 [32]byte

var (
	_ encoding.TextMarshaler   = Bytes32{}
	_ encoding.TextUnmarshaler = (*Bytes32)(nil)
)

func (b Bytes32) String() string { return encodeHex(b[:]) }

// AbbrevString keeps the first and last four bytes, for logs and errors.
func (b Bytes32) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", b[:4], b[28:])
}

func (b Bytes32) Bytes() []byte { return b[:] }

func (b Bytes32) IsZero() bool { return b == Bytes32{} }

// Uint64 reads the big-endian integer held in the last 8 bytes.
func (b Bytes32) Uint64() uint64 {
	return binary.BigEndian.Uint64(b[24:])
}

func (b Bytes32) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes32) UnmarshalText(text []byte) error {
	parsed, err := ParseBytes32(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func ParseBytes32(s string) (b Bytes32, err error) {
	if err := decodeFixedHex(s, b[:]); err != nil {
		return Bytes32{}, err
	}
	return b, nil
}

// BytesToBytes32 keeps the last 32 bytes of b, left padding shorter input.
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}

// Uint64ToBytes32 is the inverse of Bytes32.Uint64.
func Uint64ToBytes32(n uint64) (b Bytes32) {
	binary.BigEndian.PutUint64(b[24:], n)
	return
}
