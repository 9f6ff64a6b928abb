// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/api/staking"
	"github.com/vechain/collator-staking/builtin"
	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var ts *httptest.Server

func TestStaking(t *testing.T) {
	gen := initStakingServer(t)
	defer ts.Close()

	t.Run("getParams", func(t *testing.T) { testGetParams(t, gen) })
	t.Run("getCandidates", testGetCandidates)
	t.Run("getCandidateDelegations", testGetCandidateDelegations)
	t.Run("getInvulnerables", func(t *testing.T) { testGetInvulnerables(t, gen) })
	t.Run("getRotation", testGetRotation)
	t.Run("getPayouts", testGetPayouts)
	t.Run("getDelegations", testGetDelegations)
	t.Run("getUnstaking", testGetUnstaking)
	t.Run("badAddress", testBadAddress)
}

func initStakingServer(t *testing.T) *genesis.Genesis {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gen := genesis.NewDevnet()
	_, err = gen.Build(db)
	require.NoError(t, err)

	// one block of activity on top of genesis
	st := state.New(db)
	stk, err := builtin.Staker.WithState(st, gen.Config)
	require.NoError(t, err)
	accs := genesis.DevAccounts()
	require.NoError(t, stk.Deposit(accs[8].Address, accs[2].Address, 500, 1))
	require.NoError(t, stk.RequestWithdrawal(accs[8].Address, accs[2].Address, 200, 1))
	_, err = stk.NewProducerSet()
	require.NoError(t, err)
	_, err = stk.BlockAuthored(accs[2].Address, 1)
	require.NoError(t, err)
	require.NoError(t, st.Stage().Commit())

	router := mux.NewRouter()
	staking.New(db, gen.Config).Mount(router, "/staking")
	ts = httptest.NewServer(router)
	return gen
}

func httpGet(t *testing.T, path string) ([]byte, int) {
	res, err := http.Get(ts.URL + path) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func testGetParams(t *testing.T, gen *genesis.Genesis) {
	body, status := httpGet(t, "/staking/params")
	require.Equal(t, http.StatusOK, status)

	var params staking.Params
	require.NoError(t, json.Unmarshal(body, &params))
	assert.Equal(t, gen.Config, params.Config)
	assert.Equal(t, uint64(gen.Params.CandidacyBond), params.Parameters.CandidacyBond)
}

func testGetCandidates(t *testing.T) {
	body, status := httpGet(t, "/staking/candidates")
	require.Equal(t, http.StatusOK, status)

	var candidates []staking.Candidate
	require.NoError(t, json.Unmarshal(body, &candidates))
	require.Len(t, candidates, 4)
	assert.Equal(t, genesis.DevAccounts()[2].Address, candidates[0].Address)
	assert.Equal(t, 1, candidates[0].Rank)
	assert.Equal(t, uint64(300), candidates[0].Delegated)
	assert.Equal(t, uint64(10_300), candidates[0].Total)
}

func testGetCandidateDelegations(t *testing.T) {
	accs := genesis.DevAccounts()
	body, status := httpGet(t, "/staking/candidates/"+accs[2].Address.String()+"/delegations")
	require.Equal(t, http.StatusOK, status)

	var dels []staking.Delegation
	require.NoError(t, json.Unmarshal(body, &dels))
	require.Len(t, dels, 1)
	assert.Equal(t, accs[8].Address, dels[0].Staker)

	_, status = httpGet(t, "/staking/candidates/"+accs[0].Address.String()+"/delegations")
	assert.Equal(t, http.StatusNotFound, status)
}

func testGetInvulnerables(t *testing.T, gen *genesis.Genesis) {
	body, status := httpGet(t, "/staking/invulnerables")
	require.Equal(t, http.StatusOK, status)

	var invulnerables []thor.Address
	require.NoError(t, json.Unmarshal(body, &invulnerables))
	assert.Equal(t, gen.Invulnerables, invulnerables)
}

func testGetRotation(t *testing.T) {
	body, status := httpGet(t, "/staking/rotation")
	require.Equal(t, http.StatusOK, status)

	var rotation staking.Rotation
	require.NoError(t, json.Unmarshal(body, &rotation))
	assert.Equal(t, uint64(0), rotation.ID)
	assert.Equal(t, uint64(1), rotation.Blocks)
	assert.Len(t, rotation.Producers, 6)
}

func testGetPayouts(t *testing.T) {
	body, status := httpGet(t, "/staking/payouts")
	require.Equal(t, http.StatusOK, status)

	var payouts staking.Payouts
	require.NoError(t, json.Unmarshal(body, &payouts))
	assert.Equal(t, uint64(0), payouts.Committed)
	assert.Equal(t, uint64(0), payouts.Unclaimed)
	assert.Empty(t, payouts.Pending)
}

func testGetDelegations(t *testing.T) {
	accs := genesis.DevAccounts()
	body, status := httpGet(t, "/staking/delegations/"+accs[8].Address.String())
	require.Equal(t, http.StatusOK, status)

	var dels []staking.Delegation
	require.NoError(t, json.Unmarshal(body, &dels))
	require.Len(t, dels, 1)
	assert.Equal(t, uint64(300), dels[0].Amount)
}

func testGetUnstaking(t *testing.T) {
	accs := genesis.DevAccounts()
	body, status := httpGet(t, "/staking/unstaking/"+accs[8].Address.String())
	require.Equal(t, http.StatusOK, status)

	var unstaking staking.Unstaking
	require.NoError(t, json.Unmarshal(body, &unstaking))
	assert.Equal(t, uint64(200), unstaking.Pending)
	require.Len(t, unstaking.Requests, 1)
	assert.Equal(t, 1+genesis.NewDevnet().Config.UserUnstakingDelay, unstaking.Requests[0].Maturity)
}

func testBadAddress(t *testing.T) {
	_, status := httpGet(t, "/staking/unstaking/not-an-address")
	assert.Equal(t, http.StatusBadRequest, status)
}
