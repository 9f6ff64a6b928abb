// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/registry"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/thor"
)

// Scenario is a scripted sequence of blocks replayed on top of a store.
type Scenario struct {
	Blocks         uint64         `yaml:"blocks"`
	RotationLength uint64         `yaml:"rotationLength"`
	FeePerBlock    uint64         `yaml:"feePerBlock"`
	Idle           []thor.Address `yaml:"idle"` // producers that never author
	Events         []Event        `yaml:"events"`
}

// Event is one call applied at the start of block At.
type Event struct {
	At        uint64       `yaml:"at"`
	Op        string       `yaml:"op"`
	Account   thor.Address `yaml:"account"`
	Candidate thor.Address `yaml:"candidate"`
	Amount    uint64       `yaml:"amount"`
	Param     string       `yaml:"param"`
}

const (
	opFund               = "fund"
	opEligible           = "eligible"
	opRevoke             = "revoke"
	opRegister           = "register"
	opDeregister         = "deregister"
	opTakeSlot           = "take-slot"
	opDeposit            = "deposit"
	opWithdraw           = "withdraw"
	opAutoCompound       = "autocompound"
	opAddInvulnerable    = "add-invulnerable"
	opRemoveInvulnerable = "remove-invulnerable"
	opSet                = "set"
)

var setters = map[string]func(stk *staker.Staker, value, currentBlock uint64) error{
	"desired-candidates": func(stk *staker.Staker, v, _ uint64) error { return stk.SetDesiredCandidates(v) },
	"kick-threshold":     func(stk *staker.Staker, v, _ uint64) error { return stk.SetKickThreshold(v) },
	"collator-reward-percentage": func(stk *staker.Staker, v, _ uint64) error {
		if v > 100 {
			return errors.Errorf("percentage %d out of range", v)
		}
		return stk.SetCollatorRewardPercentage(uint8(v))
	},
	"extra-reward":   func(stk *staker.Staker, v, _ uint64) error { return stk.SetExtraReward(v) },
	"candidacy-bond": func(stk *staker.Staker, v, b uint64) error { return stk.SetCandidacyBond(v, b) },
	"min-stake":      func(stk *staker.Staker, v, _ uint64) error { return stk.SetMinStake(v) },
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return DecodeScenario(data)
}

// DecodeScenario parses YAML, rejecting unknown fields, and sorts events by block.
func DecodeScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].At < sc.Events[j].At })
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if sc.Blocks == 0 {
		return errors.New("blocks must be positive")
	}
	if sc.RotationLength == 0 {
		return errors.New("rotationLength must be positive")
	}
	for i, ev := range sc.Events {
		if ev.At == 0 || ev.At > sc.Blocks {
			return errors.Errorf("event %d: block %d out of range [1, %d]", i, ev.At, sc.Blocks)
		}
		if ev.Account.IsZero() && ev.Op != opSet {
			return errors.Errorf("event %d: account required for %q", i, ev.Op)
		}
		switch ev.Op {
		case opFund, opEligible, opRevoke, opRegister, opDeregister,
			opAddInvulnerable, opRemoveInvulnerable:
		case opDeposit, opWithdraw, opTakeSlot:
			if ev.Candidate.IsZero() {
				return errors.Errorf("event %d: candidate required for %q", i, ev.Op)
			}
		case opAutoCompound:
			if ev.Candidate.IsZero() {
				return errors.Errorf("event %d: candidate required for %q", i, ev.Op)
			}
			if ev.Amount > 100 {
				return errors.Errorf("event %d: percentage %d out of range", i, ev.Amount)
			}
		case opSet:
			if _, ok := setters[ev.Param]; !ok {
				return errors.Errorf("event %d: unknown param %q", i, ev.Param)
			}
		default:
			return errors.Errorf("event %d: unknown op %q", i, ev.Op)
		}
	}
	return nil
}

// Apply executes the event against the staker at currentBlock.
func (ev *Event) Apply(stk *staker.Staker, cur *currency.Currency, reg *registry.Registry, currentBlock uint64) error {
	switch ev.Op {
	case opFund:
		return cur.Mint(ev.Account, ev.Amount)
	case opEligible:
		return reg.Register(ev.Account)
	case opRevoke:
		reg.Revoke(ev.Account)
		return nil
	case opRegister:
		return stk.Register(ev.Account, ev.Amount)
	case opDeregister:
		return stk.Deregister(ev.Account, currentBlock)
	case opTakeSlot:
		return stk.TakeCandidateSlot(ev.Account, ev.Amount, ev.Candidate, currentBlock)
	case opDeposit:
		return stk.Deposit(ev.Account, ev.Candidate, ev.Amount, currentBlock)
	case opWithdraw:
		return stk.RequestWithdrawal(ev.Account, ev.Candidate, ev.Amount, currentBlock)
	case opAutoCompound:
		return stk.SetAutoCompound(ev.Account, ev.Candidate, uint8(ev.Amount))
	case opAddInvulnerable:
		return stk.AddInvulnerable(ev.Account, currentBlock)
	case opRemoveInvulnerable:
		return stk.RemoveInvulnerable(ev.Account)
	case opSet:
		return setters[ev.Param](stk, ev.Amount, currentBlock)
	}
	return errors.Errorf("unknown op %q", ev.Op)
}
