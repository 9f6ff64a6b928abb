// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(42))
}

func Test_WrappedSentinels(t *testing.T) {
	err := pkgerrors.Wrap(ErrBondTooLow, "register 0x01")
	assert.True(t, IsRevertErr(err))
	assert.True(t, errors.Is(err, ErrBondTooLow))
	assert.False(t, errors.Is(err, ErrInsufficientStake))

	err = fmt.Errorf("deposit: %w", ErrArithmeticOverflow)
	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}
