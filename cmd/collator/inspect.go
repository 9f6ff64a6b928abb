// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"github.com/vechain/collator-staking/builtin"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/reward"
	"github.com/vechain/collator-staking/builtin/staker/unstake"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Snapshot is the staking state read back from a store.
type Snapshot struct {
	Head          uint64
	Params        *staker.Parameters
	Invulnerables []thor.Address
	Candidates    []CandidateRow
	Rotation      uint64
	Producers     []thor.Address
	Blocks        uint64
	Committed     uint64
	Unclaimed     uint64
	FeePot        uint64
	SubsidyPot    uint64
	Payouts       []*reward.Payout
	Unstaking     []*unstake.Entry
	Storage       []StorageRow
}

// StorageRow counts the committed slots of one builtin contract.
type StorageRow struct {
	Contract string
	Address  thor.Address
	Slots    int
}

type CandidateRow struct {
	Account   thor.Address
	SelfBond  uint64
	Delegated uint64
	Stakers   int
	Idle      uint64
}

// TakeSnapshot reads the committed staking state.
func TakeSnapshot(db kv.Store, cfg staker.Config) (*Snapshot, error) {
	st := state.New(db)
	stk, err := builtin.Staker.WithState(st, cfg)
	if err != nil {
		return nil, err
	}
	cur := builtin.Currency.WithState(st)

	snap := &Snapshot{}
	if snap.Head, err = NewRunner(db, cfg, 0).Head(); err != nil {
		return nil, err
	}
	if snap.Params, err = stk.Parameters(); err != nil {
		return nil, err
	}
	if snap.Invulnerables, err = stk.Invulnerables(); err != nil {
		return nil, err
	}
	ranked, err := stk.Rank()
	if err != nil {
		return nil, err
	}
	for _, r := range ranked {
		agg, err := stk.GetAggregation(r.Account)
		if err != nil {
			return nil, err
		}
		dels, err := stk.DelegationsTo(r.Account)
		if err != nil {
			return nil, err
		}
		idle, err := stk.IdleStreak(r.Account)
		if err != nil {
			return nil, err
		}
		snap.Candidates = append(snap.Candidates, CandidateRow{
			Account:   r.Account,
			SelfBond:  agg.SelfBond,
			Delegated: agg.Delegated,
			Stakers:   len(dels),
			Idle:      idle,
		})
	}
	rotation, rec, err := stk.CurrentRotation()
	if err != nil {
		return nil, err
	}
	snap.Rotation = rotation
	if rec != nil {
		snap.Producers, snap.Blocks = rec.Producers, rec.Blocks
	}
	if snap.Committed, err = stk.Committed(); err != nil {
		return nil, err
	}
	if snap.Unclaimed, err = stk.Unclaimed(); err != nil {
		return nil, err
	}
	if snap.FeePot, err = cur.Balance(cfg.FeePot); err != nil {
		return nil, err
	}
	if snap.SubsidyPot, err = cur.Balance(cfg.SubsidyPot); err != nil {
		return nil, err
	}
	if snap.Payouts, err = stk.PendingPayouts(); err != nil {
		return nil, err
	}
	if snap.Unstaking, err = stk.UnstakeQueue(); err != nil {
		return nil, err
	}

	counts, err := state.SlotCounts(db)
	if err != nil {
		return nil, err
	}
	for _, c := range builtin.Contracts() {
		addr := c.ContractAddress()
		snap.Storage = append(snap.Storage, StorageRow{c.Name(), addr, counts[addr]})
	}
	return snap, nil
}

// Dump writes the snapshot as-is.
func (s *Snapshot) Dump(w io.Writer) {
	spew.Fdump(w, s)
}

// Render writes the snapshot as tables.
func (s *Snapshot) Render(w io.Writer) {
	u := func(n uint64) string { return strconv.FormatUint(n, 10) }

	fmt.Fprintf(w, "head %d, rotation %d (%d blocks), fee pot %d (committed %d, unclaimed %d), subsidy pot %d\n",
		s.Head, s.Rotation, s.Blocks, s.FeePot, s.Committed, s.Unclaimed, s.SubsidyPot)
	if s.Params != nil {
		fmt.Fprintf(w, "desired %d, kick %d, collator %d%%, extra %d, bond %d, min stake %d\n\n",
			s.Params.DesiredCandidates, s.Params.KickThreshold, s.Params.CollatorRewardPercentage,
			s.Params.ExtraReward, s.Params.CandidacyBond, s.Params.MinStake)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Candidate", "Self bond", "Delegated", "Stakers", "Idle"})
	for i, c := range s.Candidates {
		table.Append([]string{strconv.Itoa(i + 1), c.Account.String(), u(c.SelfBond), u(c.Delegated), strconv.Itoa(c.Stakers), u(c.Idle)})
	}
	for _, a := range s.Invulnerables {
		table.Append([]string{"-", a.String(), "", "", "", "invulnerable"})
	}
	table.Render()

	if len(s.Payouts) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"Rotation", "Producer", "Blocks", "Amount"})
		for _, p := range s.Payouts {
			table.Append([]string{u(p.Rotation), p.Producer.String(), u(p.Blocks), u(p.Amount)})
		}
		table.Render()
	}

	if len(s.Unstaking) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Account", "Amount", "Maturity"})
		for _, e := range s.Unstaking {
			table.Append([]string{u(e.ID), e.Account.String(), u(e.Amount), u(e.Maturity)})
		}
		table.Render()
	}

	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Contract", "Address", "Slots"})
	for _, r := range s.Storage {
		table.Append([]string{r.Contract, r.Address.String(), strconv.Itoa(r.Slots)})
	}
	table.Render()
}
