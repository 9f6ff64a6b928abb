// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/thor"
)

// DevAccount account for development.
type DevAccount struct {
	Address    thor.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for the dev network.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
		"c8c53657e41a8d669349fc287f57457bd746cb1fcfc38cf94d235deb2cfca81b",
		"87e0eba9c86c494d98353800571089f316740b0cb84c9a7cdf2fe5c9997c7966",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{thor.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet creates the dev network genesis: two invulnerables, four
// candidates and four funded stakers, all from the dev accounts.
func NewDevnet() *Genesis {
	const (
		balance = 1_000_000
		bond    = 10_000
	)
	accs := DevAccounts()

	gen := &Genesis{
		Config: staker.DefaultConfig(),
		Params: Params{
			DesiredCandidates:        4,
			KickThreshold:            3,
			CollatorRewardPercentage: 20,
			ExtraReward:              10,
			CandidacyBond:            bond,
			MinStake:                 100,
		},
	}
	for i, acc := range accs {
		b := math.HexOrDecimal64(balance)
		gen.Accounts = append(gen.Accounts, Account{Address: acc.Address, Balance: &b, Eligible: i < 6})
		switch {
		case i < 2:
			gen.Invulnerables = append(gen.Invulnerables, acc.Address)
		case i < 6:
			gen.Candidates = append(gen.Candidates, Candidate{Address: acc.Address, Bond: bond})
		}
	}
	subsidy := math.HexOrDecimal64(balance)
	gen.Accounts = append(gen.Accounts, Account{Address: gen.Config.SubsidyPot, Balance: &subsidy})
	return gen
}
