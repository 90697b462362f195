// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engagement

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/test/contracttest"
	"github.com/vechain/poe/xenv"
)

const denom = "utgd"

var (
	admin   = poe.BytesToAddress([]byte("admin"))
	alice   = poe.BytesToAddress([]byte("alice"))
	bob     = poe.BytesToAddress([]byte("bob"))
	carl    = poe.BytesToAddress([]byte("carl"))
	slasher = poe.BytesToAddress([]byte("slasher"))
	hook    = poe.BytesToAddress([]byte("hook"))
)

func setup(t *testing.T, halflife uint64) *contracttest.Harness {
	h := contracttest.New(t, Contract{})
	h.Instantiate(admin, InstantiateMsg{
		Admin:    &admin,
		Members:  []group.Member{{Addr: alice, Weight: 10}, {Addr: bob, Weight: 6}},
		Halflife: halflife,
		Denom:    denom,
	})
	return h
}

func points(t *testing.T, h *contracttest.Harness, addr poe.Address) uint64 {
	res, err := h.Query(group.MemberQuery{Addr: addr})
	require.NoError(t, err)
	return group.WeightOf(res.(*uint64))
}

func total(t *testing.T, h *contracttest.Harness) uint64 {
	res, err := h.Query(group.TotalWeightQuery{})
	require.NoError(t, err)
	return res.(uint64)
}

func TestUpdateMembers(t *testing.T) {
	h := setup(t, 0)
	assert.Equal(t, uint64(16), total(t, h))

	_, err := h.Execute(alice, group.UpdateMembersMsg{Add: []group.Member{{Addr: carl, Weight: 1}}})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	h.Advance(1, 5)
	h.MustExecute(admin, group.AddHookMsg{Addr: hook})
	resp := h.MustExecute(admin, group.UpdateMembersMsg{
		Add:    []group.Member{{Addr: carl, Weight: 4}, {Addr: bob, Weight: 1}},
		Remove: []poe.Address{bob},
	})
	assert.Equal(t, uint64(14), total(t, h))
	assert.Zero(t, points(t, h, bob))

	require.Len(t, resp.Messages, 1)
	exec := resp.Messages[0].Msg.(xenv.Execute)
	assert.Equal(t, hook, exec.Contract)
	diffs := exec.Msg.(group.MemberChangedHookMsg).Diffs
	require.Len(t, diffs, 3)
	assert.Equal(t, group.NewDiff(bob, group.Weight(1), nil), diffs[2])

	// writes are visible from the next height on
	res, err := h.Query(group.MemberQuery{Addr: bob, AtHeight: &h.Block.Height})
	assert.NoError(t, err)
	assert.Equal(t, uint64(6), *res.(*uint64))
	next := h.Block.Height + 1
	res, err = h.Query(group.MemberQuery{Addr: bob, AtHeight: &next})
	assert.NoError(t, err)
	assert.Nil(t, res.(*uint64))
}

func TestAddPoints(t *testing.T) {
	h := setup(t, 0)
	_, err := h.Execute(bob, AddPointsMsg{Addr: bob, Points: 5})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	h.MustExecute(admin, AddPointsMsg{Addr: bob, Points: 5})
	h.MustExecute(admin, AddPointsMsg{Addr: carl, Points: 2})
	assert.Equal(t, uint64(11), points(t, h, bob))
	assert.Equal(t, uint64(2), points(t, h, carl))
	assert.Equal(t, uint64(23), total(t, h))

	res, err := h.Query(group.ListMembersByWeightQuery{})
	assert.NoError(t, err)
	assert.Equal(t, []group.Member{{Addr: bob, Weight: 11}, {Addr: alice, Weight: 10}, {Addr: carl, Weight: 2}}, res)
}

func TestHalflife(t *testing.T) {
	h := setup(t, 100)
	h.MustExecute(admin, AddPointsMsg{Addr: carl, Points: 1})

	resp, err := h.Sudo(xenv.EndBlock{})
	require.NoError(t, err)
	assert.True(t, resp.IsEmpty())

	h.Advance(10, 100)
	_, err = h.Sudo(xenv.EndBlock{})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), points(t, h, alice))
	assert.Equal(t, uint64(3), points(t, h, bob))
	assert.Equal(t, uint64(1), points(t, h, carl))
	assert.Equal(t, uint64(9), total(t, h))

	res, err := h.Query(HalflifeQuery{})
	require.NoError(t, err)
	assert.Equal(t, HalflifeResponse{Halflife: 100, LastHalflife: 1100, NextHalflife: 1200}, res)

	// not due again yet
	h.Advance(1, 50)
	_, err = h.Sudo(xenv.EndBlock{})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), points(t, h, alice))
}

func TestHalflifeKeepsRewards(t *testing.T) {
	h := setup(t, 100)
	h.MustExecute(carl, distribution.DistributeRewardsMsg{}, poe.NewCoin(160, denom))

	h.Advance(10, 100)
	_, err := h.Sudo(xenv.EndBlock{})
	require.NoError(t, err)

	res, err := h.Query(distribution.WithdrawableRewardsQuery{Owner: alice})
	require.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(100)}, res)

	// alice 5, bob 3 points now
	h.MustExecute(carl, distribution.DistributeRewardsMsg{}, poe.NewCoin(80, denom))
	res, err = h.Query(distribution.WithdrawableRewardsQuery{Owner: bob})
	require.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(90)}, res)

	h.MustExecute(alice, distribution.WithdrawRewardsMsg{})
	bal, err := h.Balance(alice, denom)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), bal)
}

func TestSlash(t *testing.T) {
	h := setup(t, 0)

	_, err := h.Execute(slasher, group.SlashMsg{Addr: alice, Portion: poe.Percent(50)})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	h.MustExecute(admin, group.AddSlasherMsg{Addr: slasher})
	res, err := h.Query(group.IsSlasherQuery{Addr: slasher})
	require.NoError(t, err)
	assert.True(t, res.(bool))

	_, err = h.Execute(slasher, group.SlashMsg{Addr: alice, Portion: poe.MustParseDecimal("1.5")})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)

	// slashing a non member is a no-op
	resp := h.MustExecute(slasher, group.SlashMsg{Addr: carl, Portion: poe.Percent(50)})
	assert.True(t, resp.IsEmpty())

	h.MustExecute(carl, distribution.DistributeRewardsMsg{}, poe.NewCoin(32, denom))
	h.MustExecute(slasher, group.SlashMsg{Addr: alice, Portion: poe.Percent(30)})
	assert.Equal(t, uint64(7), points(t, h, alice))
	assert.Equal(t, uint64(13), total(t, h))

	// rewards earned before the slash are kept
	res, err = h.Query(distribution.WithdrawableRewardsQuery{Owner: alice})
	require.NoError(t, err)
	assert.Equal(t, poe.Coin{Denom: denom, Amount: big.NewInt(20)}, res)

	h.MustExecute(slasher, group.RemoveSlasherMsg{Addr: slasher})
	_, err = h.Execute(slasher, group.SlashMsg{Addr: alice, Portion: poe.Percent(30)})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
}

func TestPreauthHooks(t *testing.T) {
	h := contracttest.New(t, Contract{})
	h.Instantiate(admin, InstantiateMsg{PreauthHooks: 1, Denom: denom})

	h.MustExecute(hook, group.AddHookMsg{Addr: hook})
	_, err := h.Execute(carl, group.AddHookMsg{Addr: carl})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	res, err := h.Query(group.PreauthQuery{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res)

	res, err = h.Query(group.HooksQuery{})
	require.NoError(t, err)
	assert.Equal(t, []poe.Address{hook}, res)

	// nobody is admin
	_, err = h.Execute(admin, group.RemoveHookMsg{Addr: hook})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	h.MustExecute(hook, group.RemoveHookMsg{Addr: hook})
}

func TestSudoUpdateMember(t *testing.T) {
	h := setup(t, 0)
	_, err := h.Sudo(UpdateMemberMsg{Member: group.Member{Addr: carl, Weight: 9}})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), points(t, h, carl))

	_, err = h.Query(struct{}{})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
}
