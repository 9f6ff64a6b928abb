// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/hex"
	"errors"
	"strings"
)

// decodeFixedHex fills out from s, which must hold exactly len(out) bytes in
// hex, with or without a 0x prefix.
func decodeFixedHex(s string, out []byte) error {
	if len(s) == len(out)*2+2 {
		if !strings.EqualFold(s[:2], "0x") {
			return errors.New("invalid prefix")
		}
		s = s[2:]
	}
	if len(s) != len(out)*2 {
		return errors.New("invalid length")
	}
	_, err := hex.Decode(out, []byte(s))
	return err
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
