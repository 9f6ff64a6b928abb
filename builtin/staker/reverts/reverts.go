// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is an error caused by the caller's input or the current staking
// state. It never leaves state partially mutated.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInsufficientBalance   = New("insufficient balance")
	ErrInsufficientStake     = New("insufficient stake")
	ErrUnknownCandidate      = New("unknown candidate")
	ErrAlreadyRegistered     = New("already registered")
	ErrNotEligible           = New("account not eligible")
	ErrBondTooLow            = New("candidacy bond too low")
	ErrTooFewEligible        = New("too few eligible collators")
	ErrTooManyInvulnerables  = New("too many invulnerables")
	ErrTooManyCandidates     = New("too many candidates")
	ErrNotInvulnerable       = New("not an invulnerable")
	ErrDelegationCapExceeded = New("delegation cap exceeded")
	ErrInvalidPercentage     = New("invalid percentage")
	ErrInvalidParam          = New("invalid parameter")
	ErrUnknownRotation       = New("unknown rotation")
	ErrZeroAddress           = New("zero address")

	// ErrArithmeticOverflow means a stake or reward total left the uint64
	// domain. It is an invariant breach rather than a user mistake.
	ErrArithmeticOverflow = New("arithmetic overflow")
)
