// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/lvldb"
)

func TestNew(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	gen := genesis.NewDevnet()
	_, err = gen.Build(db)
	require.NoError(t, err)

	handler := New(db, gen.Config, Options{
		AllowedOrigins:       "*",
		EnableReqLogger:      true,
		SlowQueriesThreshold: time.Second,
		EnableMetrics:        true,
	})

	req := httptest.NewRequest(http.MethodGet, "/staking/params", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/staking/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
