// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

type bank map[poe.Address]*big.Int

func (b bank) Balance(addr poe.Address, _ string) (*big.Int, error) {
	if v, ok := b[addr]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (b bank) QueryContract(poe.Address, any) (any, error) { return nil, nil }

func TestRewardsEndpoints(t *testing.T) {
	sctx := storage.NewContext(newMemStore(t), nil)
	ledger := New(sctx)
	require.NoError(t, ledger.Init(denom))
	members := membership.New(sctx)
	rewards := &Rewards{Ledger: ledger, Weights: members}

	self, alice, bob := member(0xff), member(1), member(2)
	diffs, err := members.UpdateMembers([]group.Member{{Addr: alice, Weight: 1}, {Addr: bob, Weight: 3}}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, ledger.ApplyCorrections(diffs))

	balances := bank{self: big.NewInt(400)}
	env := func(sender poe.Address) *xenv.Environment {
		return xenv.New(poe.Block{Height: 2}, self, sender, nil, balances)
	}

	res, handled, err := rewards.Query(env(alice), UndistributedRewardsQuery{})
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(400)}, res)

	resp, handled, err := rewards.Execute(env(alice), DistributeRewardsMsg{})
	assert.True(t, handled)
	assert.NoError(t, err)
	amount, _ := resp.Attribute("amount")
	assert.Equal(t, "400", amount)

	res, _, err = rewards.Query(env(alice), WithdrawableRewardsQuery{Owner: bob})
	assert.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(300)}, res)

	res, _, err = rewards.Query(env(alice), DistributedRewardsQuery{})
	assert.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(400)}, res)

	_, _, err = rewards.Execute(env(bob), DelegateWithdrawalMsg{Delegated: alice})
	require.NoError(t, err)
	res, _, err = rewards.Query(env(alice), DelegatedQuery{Owner: bob})
	assert.NoError(t, err)
	assert.Equal(t, alice, res)

	resp, _, err = rewards.Execute(env(alice), WithdrawRewardsMsg{Owner: &bob})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, xenv.BankSend{To: alice, Amount: poe.Coins{{Denom: denom, Amount: big.NewInt(300)}}}, resp.Messages[0].Msg)

	// withdrawing twice yields nothing
	resp, _, err = rewards.Execute(env(alice), WithdrawRewardsMsg{Owner: &bob})
	require.NoError(t, err)
	assert.True(t, resp.IsEmpty())

	_, handled, err = rewards.Execute(env(alice), struct{}{})
	assert.False(t, handled)
	assert.NoError(t, err)
}
