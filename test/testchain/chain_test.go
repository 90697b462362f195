// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/poe"
)

func newChain(t *testing.T) *Chain {
	chain, err := NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })
	return chain
}

func (c *Chain) operator(t *testing.T, name string) *valset.OperatorResponse {
	res, err := c.Runtime().Query(c.Network().Valset, valset.ValidatorQuery{Operator: c.Account(name)})
	require.NoError(t, err)
	return res.(*valset.OperatorResponse)
}

func Test_ChainDefault(t *testing.T) {
	chain := newChain(t)

	first, err := chain.MintBlock()
	require.NoError(t, err)
	assert.True(t, first.EpochEnded)
	assert.Len(t, first.Diff, 3)

	next, err := chain.MintEpoch()
	require.NoError(t, err)
	assert.Equal(t, poe.Block{Height: 2, Time: 1020}, next.Block)
	assert.Empty(t, next.Diff)

	// 30% to engagement, 10% to the community, the rest to the validators
	net := chain.Network()
	for addr, want := range map[poe.Address]int64{net.Engagement: 300, net.Community: 100, net.Rewards: 600} {
		b, err := chain.Runtime().Balance(addr, "utgd")
		require.NoError(t, err)
		assert.Equal(t, want, b.Int64())
	}
}

func Test_OfflineValidatorJailed(t *testing.T) {
	chain := newChain(t)
	carl := chain.Account("carl")

	_, err := chain.MintBlock()
	require.NoError(t, err)
	chain.Solo().SetOffline(carl, true)

	for range poe.MissedBlocks {
		_, err := chain.MintBlock()
		require.NoError(t, err)
	}
	assert.Nil(t, chain.operator(t, "carl").JailedUntil)

	_, err = chain.MintBlock()
	require.NoError(t, err)
	jailed := chain.operator(t, "carl").JailedUntil
	require.NotNil(t, jailed)
	assert.False(t, jailed.Forever)

	s, err := chain.MintEpoch()
	require.NoError(t, err)
	require.Len(t, s.Diff, 1)
	assert.Equal(t, carl, s.Diff[0].Operator)
	assert.Zero(t, s.Diff[0].Power)
}

func Test_DoubleSign(t *testing.T) {
	chain := newChain(t)
	bob := chain.Account("bob")

	_, err := chain.MintBlock()
	require.NoError(t, err)
	require.NoError(t, chain.Solo().ReportDoubleSign(bob))
	_, err = chain.MintBlock()
	require.NoError(t, err)

	jailed := chain.operator(t, "bob").JailedUntil
	require.NotNil(t, jailed)
	assert.True(t, jailed.Forever)

	assert.Error(t, chain.Solo().ReportDoubleSign(chain.Account("nobody")))
}
