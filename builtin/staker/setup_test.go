// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/registry"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

type StakerTest struct {
	*Staker
	t        *testing.T
	params   *params.Params
	currency *currency.Currency
	registry *registry.Registry
}

// testConfig keeps the default limits but drops the eligible floor so
// small fixtures can exit freely.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinEligibleCollators = 0
	return cfg
}

func newTest(t *testing.T) *StakerTest {
	return newTestWithConfig(t, testConfig())
}

func newTestWithConfig(t *testing.T, cfg Config) *StakerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)

	param := params.New(thor.BytesToAddress([]byte("params")), st)
	cur := currency.New(thor.BytesToAddress([]byte("currency")), st)
	reg := registry.New(thor.BytesToAddress([]byte("registry")), st)

	for key, value := range map[thor.Bytes32]uint64{
		thor.KeyDesiredCandidates:        10,
		thor.KeyKickThreshold:            3,
		thor.KeyCollatorRewardPercentage: 20,
		thor.KeyCandidacyBond:            100,
		thor.KeyMinStake:                 10,
	} {
		require.NoError(t, param.Set(key, value))
	}

	staker, err := New(thor.BytesToAddress([]byte("stkr")), st, param, cfg, cur, reg)
	require.NoError(t, err)

	return &StakerTest{
		Staker:   staker,
		t:        t,
		params:   param,
		currency: cur,
		registry: reg,
	}
}

// Fund mints spendable funds to the account.
func (ts *StakerTest) Fund(account thor.Address, amount uint64) *StakerTest {
	require.NoError(ts.t, ts.currency.Mint(account, amount))
	return ts
}

// Candidate makes the account an eligible, funded candidate with the given bond.
func (ts *StakerTest) Candidate(account thor.Address, bond uint64) *StakerTest {
	require.NoError(ts.t, ts.registry.Register(account))
	ts.Fund(account, bond)
	require.NoError(ts.t, ts.Register(account, bond))
	return ts
}

// Invulnerable adds an eligible invulnerable.
func (ts *StakerTest) Invulnerable(account thor.Address) *StakerTest {
	require.NoError(ts.t, ts.registry.Register(account))
	require.NoError(ts.t, ts.AddInvulnerable(account, 0))
	return ts
}

// Delegate funds the staker and deposits to the candidate.
func (ts *StakerTest) Delegate(staker, candidate thor.Address, amount uint64) *StakerTest {
	ts.Fund(staker, amount)
	require.NoError(ts.t, ts.Deposit(staker, candidate, amount, 0))
	return ts
}

func (ts *StakerTest) Free(account thor.Address) uint64 {
	bal, err := ts.currency.Balance(account)
	require.NoError(ts.t, err)
	return bal
}

func (ts *StakerTest) Held(account thor.Address) uint64 {
	held, err := ts.currency.Held(account)
	require.NoError(ts.t, err)
	return held
}

func (ts *StakerTest) SetParam(key thor.Bytes32, value uint64) *StakerTest {
	require.NoError(ts.t, ts.params.Set(key, value))
	return ts
}

// AssertLedger checks every candidate's aggregate equals its bond plus the
// delegations backing it.
func (ts *StakerTest) AssertLedger() {
	candidates, err := ts.Candidates()
	require.NoError(ts.t, err)
	for _, c := range candidates {
		agg, err := ts.GetAggregation(c)
		require.NoError(ts.t, err)
		dels, err := ts.DelegationsTo(c)
		require.NoError(ts.t, err)
		var sum uint64
		for _, d := range dels {
			sum += d.Amount
		}
		assert.Equal(ts.t, agg.Delegated, sum, "candidate %s delegated mismatch", c)
		assert.LessOrEqual(ts.t, uint64(len(dels)), ts.cfg.MaxStakers)
	}
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	staker *Staker

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(staker *Staker) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), staker: staker}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) SelectProducers() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		sel, err := st.staker.NewProducerSet()
		if err != nil {
			t.Fatalf("failed to select producers: %v", err)
		}
		t.Logf("selected %d producers for rotation %d", len(sel.Producers), sel.Rotation)
	})
}

func (st *TestSequence) Author(addr thor.Address, height uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		counted, err := st.staker.BlockAuthored(addr, height)
		if err != nil {
			t.Fatalf("failed to record block %d for %s: %v", height, addr, err)
		}
		if !counted {
			t.Fatalf("block %d for %s was not counted", height, addr)
		}
	})
}

func (st *TestSequence) CloseRotation(block uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		id, _, err := st.staker.CurrentRotation()
		if err != nil {
			t.Fatalf("failed to read current rotation: %v", err)
		}
		closure, err := st.staker.RotationClosed(id, nil, block)
		if err != nil {
			t.Fatalf("failed to close rotation %d: %v", id, err)
		}
		t.Logf("closed rotation %d with %d payouts", id, len(closure.Payouts))
	})
}

func (st *TestSequence) Step(block uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if _, err := st.staker.OnStep(block, 0); err != nil {
			t.Fatalf("failed to step at block %d: %v", block, err)
		}
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}
