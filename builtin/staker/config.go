// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/thor"
)

// Config holds the limits fixed for the lifetime of a chain.
// Tunable values live in the params contract instead.
type Config struct {
	MaxInvulnerables       uint64       `json:"maxInvulnerables" yaml:"maxInvulnerables"`
	MaxCandidates          uint64       `json:"maxCandidates" yaml:"maxCandidates"`
	MinEligibleCollators   uint64       `json:"minEligibleCollators" yaml:"minEligibleCollators"`
	MaxStakers             uint64       `json:"maxStakers" yaml:"maxStakers"`                   // distinct stakers per candidate
	MaxStakedCandidates    uint64       `json:"maxStakedCandidates" yaml:"maxStakedCandidates"` // distinct candidates per staker
	UserUnstakingDelay     uint64       `json:"userUnstakingDelay" yaml:"userUnstakingDelay"`
	CollatorUnstakingDelay uint64       `json:"collatorUnstakingDelay" yaml:"collatorUnstakingDelay"`
	FeePot                 thor.Address `json:"feePot" yaml:"feePot"`
	SubsidyPot             thor.Address `json:"subsidyPot" yaml:"subsidyPot"`
}

// DefaultConfig returns the limits used by the development network.
func DefaultConfig() Config {
	return Config{
		MaxInvulnerables:       20,
		MaxCandidates:          100,
		MinEligibleCollators:   4,
		MaxStakers:             100,
		MaxStakedCandidates:    10,
		UserUnstakingDelay:     100,
		CollatorUnstakingDelay: 300,
		FeePot:                 thor.BytesToAddress([]byte("fee-pot")),
		SubsidyPot:             thor.BytesToAddress([]byte("subsidy-pot")),
	}
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if c.MaxInvulnerables == 0 && c.MaxCandidates == 0 {
		return errors.New("no producer slot: max invulnerables and max candidates are both zero")
	}
	if c.MinEligibleCollators > c.MaxInvulnerables+c.MaxCandidates {
		return errors.Errorf("min eligible collators %d exceeds max invulnerables + max candidates (%d)",
			c.MinEligibleCollators, c.MaxInvulnerables+c.MaxCandidates)
	}
	if c.MaxStakers == 0 {
		return errors.New("max stakers must be positive")
	}
	if c.MaxStakedCandidates == 0 {
		return errors.New("max staked candidates must be positive")
	}
	if c.FeePot.IsZero() || c.SubsidyPot.IsZero() {
		return errors.New("pot accounts must be set")
	}
	if c.FeePot == c.SubsidyPot {
		return errors.New("fee pot and subsidy pot must differ")
	}
	return nil
}
