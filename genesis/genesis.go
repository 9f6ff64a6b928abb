// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/thor"
)

// Genesis is the initial staking setup.
type Genesis struct {
	Config        staker.Config  `json:"config"`
	Params        Params         `json:"params"`
	Accounts      []Account      `json:"accounts"`
	Invulnerables []thor.Address `json:"invulnerables"`
	Candidates    []Candidate    `json:"candidates"`
	Delegations   []Delegation   `json:"delegations"`
}

// Params are the initial tunable values.
type Params struct {
	DesiredCandidates        uint64              `json:"desiredCandidates"`
	KickThreshold            uint64              `json:"kickThreshold"`
	CollatorRewardPercentage uint8               `json:"collatorRewardPercentage"`
	ExtraReward              math.HexOrDecimal64 `json:"extraReward"`
	CandidacyBond            math.HexOrDecimal64 `json:"candidacyBond"`
	MinStake                 math.HexOrDecimal64 `json:"minStake"`
}

// Account is an account funded or made eligible at genesis.
type Account struct {
	Address  thor.Address         `json:"address"`
	Balance  *math.HexOrDecimal64 `json:"balance"`
	Eligible bool                 `json:"eligible"`
}

// Candidate is a candidate registered at genesis, its bond held from its balance.
type Candidate struct {
	Address thor.Address        `json:"address"`
	Bond    math.HexOrDecimal64 `json:"bond"`
}

// Delegation is a stake deposited at genesis.
type Delegation struct {
	Staker       thor.Address        `json:"staker"`
	Candidate    thor.Address        `json:"candidate"`
	Amount       math.HexOrDecimal64 `json:"amount"`
	AutoCompound uint8               `json:"autoCompound"`
}

// Load reads a genesis file. Unknown fields are rejected.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Decode(data)
}

// Decode parses and validates genesis JSON.
func Decode(data []byte) (*Genesis, error) {
	var gen Genesis
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// ID is the hash identifying the genesis content.
func (g *Genesis) ID() (thor.Bytes32, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(data), nil
}

// Validate checks the setup before anything is written.
func (g *Genesis) Validate() error {
	cfg := g.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if g.Params.KickThreshold == 0 {
		return errors.New("kickThreshold must be positive")
	}
	if g.Params.CollatorRewardPercentage > 100 {
		return errors.New("collatorRewardPercentage must not exceed 100")
	}
	if g.Params.DesiredCandidates > cfg.MaxCandidates+cfg.MaxInvulnerables {
		return errors.New("desiredCandidates exceeds maxCandidates + maxInvulnerables")
	}

	eligible := make(map[thor.Address]bool, len(g.Accounts))
	funded := make(map[thor.Address]bool, len(g.Accounts))
	for _, a := range g.Accounts {
		if a.Address.IsZero() {
			return errors.New("account address must be set")
		}
		if funded[a.Address] {
			return fmt.Errorf("%s: duplicate account", a.Address)
		}
		funded[a.Address] = true
		if a.Eligible {
			eligible[a.Address] = true
		}
	}

	if uint64(len(g.Invulnerables)) > cfg.MaxInvulnerables {
		return errors.New("too many invulnerables")
	}
	if uint64(len(g.Candidates)) > cfg.MaxCandidates {
		return errors.New("too many candidates")
	}
	if uint64(len(g.Invulnerables)+len(g.Candidates)) < cfg.MinEligibleCollators {
		return fmt.Errorf("at least %d invulnerables and candidates required", cfg.MinEligibleCollators)
	}

	producers := make(map[thor.Address]bool, len(g.Invulnerables)+len(g.Candidates))
	for _, inv := range g.Invulnerables {
		if producers[inv] {
			return fmt.Errorf("%s: duplicate invulnerable", inv)
		}
		if !eligible[inv] {
			return fmt.Errorf("%s: invulnerable is not eligible", inv)
		}
		producers[inv] = true
	}
	candidates := make(map[thor.Address]bool, len(g.Candidates))
	for _, c := range g.Candidates {
		if producers[c.Address] {
			return fmt.Errorf("%s: duplicate candidate", c.Address)
		}
		if !eligible[c.Address] {
			return fmt.Errorf("%s: candidate is not eligible", c.Address)
		}
		if uint64(c.Bond) < uint64(g.Params.CandidacyBond) || c.Bond == 0 {
			return fmt.Errorf("%s: bond below candidacyBond", c.Address)
		}
		producers[c.Address] = true
		candidates[c.Address] = true
	}

	pairs := make(map[thor.Bytes32]bool, len(g.Delegations))
	for _, d := range g.Delegations {
		if !candidates[d.Candidate] {
			return fmt.Errorf("%s: delegation to a non candidate", d.Candidate)
		}
		if d.Staker == d.Candidate {
			return fmt.Errorf("%s: self delegation, raise the bond instead", d.Staker)
		}
		if d.AutoCompound > 100 {
			return fmt.Errorf("%s: autoCompound must not exceed 100", d.Staker)
		}
		id := thor.Blake2b(d.Staker.Bytes(), d.Candidate.Bytes())
		if pairs[id] {
			return fmt.Errorf("%s: duplicate delegation to %s", d.Staker, d.Candidate)
		}
		pairs[id] = true
	}
	return nil
}

const (
	metaBucket = kv.Bucket("g/")
	metaKey    = "genesis"
)

// FromStore returns the genesis a store was built from.
func FromStore(db kv.Getter) (*Genesis, error) {
	data, err := metaBucket.NewGetter(db).Get([]byte(metaKey))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New("store not initialized")
		}
		return nil, err
	}
	var gen Genesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode stored genesis")
	}
	return &gen, nil
}
