// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixer

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/test/contracttest"
	"github.com/vechain/poe/xenv"
)

var (
	stakeGroup      = poe.BytesToAddress([]byte("stake"))
	engagementGroup = poe.BytesToAddress([]byte("engagement"))
	alice           = poe.BytesToAddress([]byte("alice"))
	bob             = poe.BytesToAddress([]byte("bob"))
	carl            = poe.BytesToAddress([]byte("carl"))
	slasher         = poe.BytesToAddress([]byte("slasher"))
)

// fakeGroup answers member queries from a map.
type fakeGroup map[poe.Address]uint64

func (g fakeGroup) query(q any) (any, error) {
	switch q := q.(type) {
	case group.MemberQuery:
		if w, ok := g[q.Addr]; ok {
			return &w, nil
		}
		return (*uint64)(nil), nil
	case group.ListMembersQuery:
		var members []group.Member
		for addr, w := range g {
			if q.StartAfter == nil || addr.Compare(*q.StartAfter) > 0 {
				members = append(members, group.Member{Addr: addr, Weight: w})
			}
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Addr.Compare(members[j].Addr) < 0 })
		if limit := poe.ClampLimit(q.Limit, poe.DefaultMemberLimit, poe.MaxMemberLimit); len(members) > limit {
			members = members[:limit]
		}
		return members, nil
	default:
		return nil, errors.Errorf("unexpected query %T", q)
	}
}

func setup(t *testing.T) (*contracttest.Harness, fakeGroup, fakeGroup) {
	stakes := fakeGroup{alice: 9, bob: 4}
	engagement := fakeGroup{alice: 4, carl: 100}

	h := contracttest.New(t, Contract{})
	h.Peer(stakeGroup, stakes.query).Peer(engagementGroup, engagement.query)
	resp := h.Instantiate(alice, InstantiateMsg{
		LeftGroup:       stakeGroup,
		RightGroup:      engagementGroup,
		Function:        GeometricMean{},
		PreauthHooks:    1,
		PreauthSlashing: 1,
		RewardsDenom:    "utgd",
	})
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, xenv.Execute{Contract: stakeGroup, Msg: group.AddHookMsg{Addr: h.Self}}, resp.Messages[0].Msg)
	return h, stakes, engagement
}

func weight(t *testing.T, h *contracttest.Harness, addr poe.Address) *uint64 {
	res, err := h.Query(group.MemberQuery{Addr: addr})
	require.NoError(t, err)
	return res.(*uint64)
}

func TestInstantiateMixesMembers(t *testing.T) {
	h, _, _ := setup(t)
	assert.Equal(t, uint64(6), *weight(t, h, alice))
	assert.Nil(t, weight(t, h, bob))
	assert.Nil(t, weight(t, h, carl))

	res, err := h.Query(group.TotalWeightQuery{})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res)

	res, err = h.Query(RewardFunctionQuery{Stake: 16, Engagement: 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), res)

	_, err = Contract{}.Instantiate(xenv.New(h.Block, h.Self, alice, nil, h), h.Context(), InstantiateMsg{
		LeftGroup:    stakeGroup,
		RightGroup:   stakeGroup,
		Function:     GeometricMean{},
		RewardsDenom: "utgd",
	})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
}

func TestMemberChangedHook(t *testing.T) {
	h, stakes, engagement := setup(t)
	h.MustExecute(carl, group.AddHookMsg{Addr: carl})
	h.Advance(1, 5)

	_, err := h.Execute(alice, group.MemberChangedHookMsg{})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	// carl bonds
	stakes[carl] = 25
	resp := h.MustExecute(stakeGroup, group.MemberChangedHookMsg{Diffs: []group.MemberDiff{
		group.NewDiff(carl, nil, group.Weight(25)),
	}})
	assert.Equal(t, uint64(50), *weight(t, h, carl))
	require.Len(t, resp.Messages, 1)
	hook := resp.Messages[0].Msg.(xenv.Execute)
	assert.Equal(t, carl, hook.Contract)
	assert.Equal(t, group.MemberChangedHookMsg{Diffs: []group.MemberDiff{group.NewDiff(carl, nil, group.Weight(50))}}, hook.Msg)

	// alice loses her engagement
	delete(engagement, alice)
	h.MustExecute(engagementGroup, group.MemberChangedHookMsg{Diffs: []group.MemberDiff{
		group.NewDiff(alice, group.Weight(4), nil),
	}})
	assert.Nil(t, weight(t, h, alice))

	// unchanged mixed weight sends nothing
	resp = h.MustExecute(engagementGroup, group.MemberChangedHookMsg{Diffs: []group.MemberDiff{
		group.NewDiff(bob, nil, nil),
	}})
	assert.Empty(t, resp.Messages)
}

func TestSlashForwarded(t *testing.T) {
	h, _, _ := setup(t)
	slash := group.SlashMsg{Addr: alice, Portion: poe.Percent(10)}

	_, err := h.Execute(slasher, slash)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	h.MustExecute(slasher, group.AddSlasherMsg{Addr: slasher})
	resp := h.MustExecute(slasher, slash)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, xenv.Execute{Contract: stakeGroup, Msg: slash}, resp.Messages[0].Msg)
	assert.Equal(t, xenv.Execute{Contract: engagementGroup, Msg: slash}, resp.Messages[1].Msg)
}
