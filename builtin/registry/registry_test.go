// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func TestRegistry(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := New(thor.BytesToAddress([]byte("Registry")), state.New(db))
	acc := thor.Address{1}

	ok, err := r.IsEligible(acc)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Register(acc))
	ok, _ = r.IsEligible(acc)
	assert.True(t, ok)

	r.Revoke(acc)
	ok, _ = r.IsEligible(acc)
	assert.False(t, ok)
}
