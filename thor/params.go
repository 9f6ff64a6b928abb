// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Storage gas, charged by the native storage primitives.
const (
	SloadGas       uint64 = 200
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	GetBalanceGas  uint64 = 400
)

// Per-step work estimates used to decide whether a unit of deferred work
// fits the remaining budget of a step.
const (
	PayoutBaseGas      uint64 = 60000 // queue pop, aggregate read, collator transfer
	PayoutPerStakerGas uint64 = 30000 // delegation read, transfer, optional compound
	UnstakeReleaseGas  uint64 = 25000 // release, unlink, pending total update

	DefaultStepBudget uint64 = 1_000_000
)

// Keys of the tunable staking parameters.
var (
	KeyDesiredCandidates        = BytesToBytes32([]byte("desired-candidates"))
	KeyKickThreshold            = BytesToBytes32([]byte("kick-threshold"))
	KeyCollatorRewardPercentage = BytesToBytes32([]byte("collator-reward-percentage"))
	KeyExtraReward              = BytesToBytes32([]byte("extra-reward"))
	KeyCandidacyBond            = BytesToBytes32([]byte("candidacy-bond"))
	KeyMinStake                 = BytesToBytes32([]byte("min-stake"))
)
