// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/jailing"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/test/contracttest"
	"github.com/vechain/poe/xenv"
)

var (
	mixerAddr    = poe.BytesToAddress([]byte("mixer"))
	rewardsAddr  = poe.BytesToAddress([]byte("validator-rewards"))
	communityAdr = poe.BytesToAddress([]byte("community"))
	adminAddr    = poe.BytesToAddress([]byte("admin"))
	alice        = poe.BytesToAddress([]byte("alice"))
	bob          = poe.BytesToAddress([]byte("bob"))
	carl         = poe.BytesToAddress([]byte("carl"))
	dave         = poe.BytesToAddress([]byte("dave"))
)

func key(op poe.Address) poe.PubKey {
	return poe.PubKey(poe.Blake2b(op.Bytes()))
}

type fixture struct {
	*contracttest.Harness
	t       *testing.T
	members *membership.Store
}

func defaultMsg() InstantiateMsg {
	return InstantiateMsg{
		Admin:                &adminAddr,
		Membership:           mixerAddr,
		MinPoints:            2,
		MaxValidators:        10,
		EpochLength:          100,
		EpochReward:          poe.NewCoin(1000, "utgd"),
		Scaling:              2,
		FeePercentage:        poe.Percent(50),
		DoubleSignSlashRatio: poe.Percent(50),
		DistributionContracts: []DistributionContract{
			{Contract: communityAdr, Ratio: poe.Percent(10)},
		},
		RewardsGroup:        rewardsAddr,
		OfflineJailDuration: poe.Seconds(3600),
		InitialKeys: []OperatorKey{
			{Operator: alice, PubKey: key(alice), Metadata: Metadata{Moniker: "alice"}},
			{Operator: bob, PubKey: key(bob), Metadata: Metadata{Moniker: "bob"}},
		},
	}
}

func newFixture(t *testing.T, configure func(*InstantiateMsg)) *fixture {
	db := muxdb.NewMem()
	tx, err := db.Begin("mixer")
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Discard()
		db.Close()
	})
	members := membership.New(storage.NewContext(tx, nil))

	h := contracttest.New(t, Contract{})
	h.Peer(mixerAddr, func(q any) (any, error) {
		res, handled, err := group.Query(members, q)
		if !handled {
			return nil, errors.Errorf("unexpected query %T", q)
		}
		return res, err
	})
	msg := defaultMsg()
	if configure != nil {
		configure(&msg)
	}
	h.Instantiate(adminAddr, msg)
	return &fixture{Harness: h, t: t, members: members}
}

func (f *fixture) setWeight(addr poe.Address, w uint64) *fixture {
	_, err := f.members.Set(addr, w, f.Block.Height)
	require.NoError(f.t, err)
	return f
}

func (f *fixture) endBlock() *xenv.Response {
	resp, err := f.Sudo(xenv.EndBlock{})
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) active() []selection.ValidatorInfo {
	res, err := f.Query(ListActiveValidatorsQuery{})
	require.NoError(f.t, err)
	return res.([]selection.ValidatorInfo)
}

func (f *fixture) jailedUntil(op poe.Address) *jailing.Period {
	res, err := f.Query(ValidatorQuery{Operator: op})
	require.NoError(f.t, err)
	return res.(*OperatorResponse).JailedUntil
}

func validator(op poe.Address, power uint64) selection.ValidatorInfo {
	return selection.ValidatorInfo{Operator: op, PubKey: key(op), Power: power}
}

func diffOf(t *testing.T, resp *xenv.Response) []selection.ValidatorInfo {
	require.NotNil(t, resp.Data)
	return resp.Data.(ValidatorDiff).Diffs
}

func TestInstantiateValidation(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*InstantiateMsg)
		err       error
	}{
		{"zero epoch", func(m *InstantiateMsg) { m.EpochLength = 0 }, reverts.ErrInvalidParameter},
		{"zero max validators", func(m *InstantiateMsg) { m.MaxValidators = 0 }, reverts.ErrInvalidParameter},
		{"no membership", func(m *InstantiateMsg) { m.Membership = poe.Address{} }, reverts.ErrInvalidAddress},
		{"fee above one", func(m *InstantiateMsg) { m.FeePercentage = poe.Percent(101) }, reverts.ErrInvalidParameter},
		{"ratios above one", func(m *InstantiateMsg) {
			m.DistributionContracts = append(m.DistributionContracts, DistributionContract{Contract: carl, Ratio: poe.Percent(95)})
		}, reverts.ErrInvalidParameter},
		{"duplicate key", func(m *InstantiateMsg) { m.InitialKeys[1].PubKey = key(alice) }, reverts.ErrInvalidParameter},
		{"no moniker", func(m *InstantiateMsg) { m.InitialKeys[0].Metadata.Moniker = "" }, reverts.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := contracttest.New(t, Contract{})
			msg := defaultMsg()
			tt.configure(&msg)
			_, err := Contract{}.Instantiate(xenv.New(h.Block, h.Self, adminAddr, nil, h), h.Context(), msg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestOperators(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.Execute(alice, RegisterValidatorKeyMsg{PubKey: key(carl), Metadata: Metadata{Moniker: "again"}})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
	_, err = f.Execute(carl, RegisterValidatorKeyMsg{PubKey: key(alice), Metadata: Metadata{Moniker: "carl"}})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
	f.MustExecute(carl, RegisterValidatorKeyMsg{PubKey: key(carl), Metadata: Metadata{Moniker: "carl"}})

	f.MustExecute(carl, UpdateMetadataMsg{Metadata: Metadata{Moniker: "carl", Website: "https://carl.example"}})
	_, err = f.Execute(dave, UpdateMetadataMsg{Metadata: Metadata{Moniker: "dave"}})
	assert.ErrorIs(t, err, reverts.ErrNotFound)

	res, err := f.Query(ValidatorQuery{Operator: carl})
	require.NoError(t, err)
	assert.Equal(t, &OperatorResponse{
		Operator: carl,
		PubKey:   key(carl),
		Metadata: Metadata{Moniker: "carl", Website: "https://carl.example"},
	}, res)

	res, err = f.Query(ValidatorQuery{Operator: dave})
	require.NoError(t, err)
	assert.Nil(t, res)

	limit := uint32(2)
	res, err = f.Query(ListValidatorsQuery{Limit: &limit})
	require.NoError(t, err)
	page := res.([]OperatorResponse)
	require.Len(t, page, 2)
	res, err = f.Query(ListValidatorsQuery{StartAfter: &page[1].Operator, Limit: &limit})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestEpochs(t *testing.T) {
	f := newFixture(t, nil)
	f.MustExecute(carl, RegisterValidatorKeyMsg{PubKey: key(carl), Metadata: Metadata{Moniker: "carl"}})
	// dave has no key, carl is below min points
	f.setWeight(alice, 10).setWeight(bob, 5).setWeight(carl, 1).setWeight(dave, 20)

	resp := f.endBlock()
	assert.ElementsMatch(t, []selection.ValidatorInfo{validator(alice, 20), validator(bob, 10)}, diffOf(t, resp))
	// no validators yet, so no rewards
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, xenv.Execute{Contract: rewardsAddr, Msg: group.UpdateMembersMsg{
		Add: []group.Member{{Addr: alice, Weight: 20}, {Addr: bob, Weight: 10}},
	}}, resp.Messages[0].Msg)
	assert.Equal(t, []selection.ValidatorInfo{validator(alice, 20), validator(bob, 10)}, f.active())

	res, err := f.Query(EpochQuery{})
	require.NoError(t, err)
	assert.Equal(t, EpochResponse{EpochLength: 100, CurrentEpoch: 10, LastUpdateTime: 1000, LastUpdateHeight: 1, NextUpdateTime: 1100}, res)

	// same epoch
	f.Advance(1, 50)
	assert.True(t, f.endBlock().IsEmpty())

	f.setWeight(carl, 3)
	_, err = f.members.Remove(bob, f.Block.Height)
	require.NoError(t, err)
	f.Credit(f.Self, 200, "utgd")
	f.Advance(1, 50)

	resp = f.endBlock()
	diff := diffOf(t, resp)
	assert.Len(t, diff, 2)
	assert.Contains(t, diff, validator(carl, 6))
	assert.Contains(t, diff, selection.ValidatorInfo{Operator: bob, PubKey: key(bob)})

	// 1000 minus half of the 200 fees is minted, 10% of 1100 goes to the community pool
	require.Len(t, resp.Messages, 4)
	assert.Equal(t, xenv.MintTokens{To: f.Self, Amount: poe.NewCoin(900, "utgd")}, resp.Messages[0].Msg)
	assert.Equal(t, xenv.SubMsg{
		Msg:         xenv.Execute{Contract: communityAdr, Msg: distribution.DistributeRewardsMsg{}, Funds: poe.Coins{poe.NewCoin(110, "utgd")}},
		IgnoreError: true,
	}, resp.Messages[1])
	assert.Equal(t, xenv.Execute{Contract: rewardsAddr, Msg: distribution.DistributeRewardsMsg{}, Funds: poe.Coins{poe.NewCoin(990, "utgd")}}, resp.Messages[2].Msg)
	assert.Equal(t, xenv.Execute{Contract: rewardsAddr, Msg: group.UpdateMembersMsg{
		Add:    []group.Member{{Addr: carl, Weight: 6}},
		Remove: []poe.Address{bob},
	}}, resp.Messages[3].Msg)

	res, err = f.Query(ValidatorQuery{Operator: bob})
	require.NoError(t, err)
	assert.False(t, res.(*OperatorResponse).ActiveValidator)
	res, err = f.Query(ValidatorQuery{Operator: carl})
	require.NoError(t, err)
	assert.True(t, res.(*OperatorResponse).ActiveValidator)
}

func TestMaxValidators(t *testing.T) {
	f := newFixture(t, func(m *InstantiateMsg) { m.MaxValidators = 1 })
	f.setWeight(alice, 10).setWeight(bob, 50)

	f.endBlock()
	assert.Equal(t, []selection.ValidatorInfo{validator(bob, 100)}, f.active())

	_, err := f.Execute(adminAddr, UpdateConfigMsg{MaxValidators: ptr(uint32(0))})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
	f.MustExecute(adminAddr, UpdateConfigMsg{MaxValidators: ptr(uint32(5))})

	res, err := f.Query(SimulateActiveValidatorsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []selection.ValidatorInfo{validator(bob, 100), validator(alice, 20)}, res)
	assert.Len(t, f.active(), 1, "simulation does not change the active set")
}

func TestJailing(t *testing.T) {
	f := newFixture(t, nil)
	f.setWeight(alice, 10).setWeight(bob, 5)

	_, err := f.Execute(alice, JailMsg{Operator: bob})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	_, err = f.Execute(adminAddr, JailMsg{Operator: dave})
	assert.ErrorIs(t, err, reverts.ErrNotFound)

	hour := poe.Seconds(3600)
	f.MustExecute(adminAddr, JailMsg{Operator: alice, Duration: &hour})
	f.MustExecute(adminAddr, JailMsg{Operator: bob})
	assert.Equal(t, jailing.Until(poe.ExpiresAtTime(4600)), *f.jailedUntil(alice))

	res, err := f.Query(ListJailedValidatorsQuery{})
	require.NoError(t, err)
	assert.Len(t, res, 2)

	f.endBlock()
	assert.Empty(t, f.active())

	_, err = f.Execute(alice, UnjailMsg{})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	f.Advance(10, 3600)
	f.MustExecute(alice, UnjailMsg{})
	assert.Nil(t, f.jailedUntil(alice))

	// forever cannot be undone, not even by the admin
	_, err = f.Execute(bob, UnjailMsg{})
	assert.ErrorIs(t, err, reverts.ErrInvariantViolation)
	_, err = f.Execute(adminAddr, UnjailMsg{Operator: &bob})
	assert.ErrorIs(t, err, reverts.ErrInvariantViolation)

	res, err = f.Query(ListValidatorSlashingQuery{Operator: bob})
	require.NoError(t, err)
	assert.True(t, res.(ValidatorSlashingResponse).Tombstoned)

	f.endBlock()
	assert.Equal(t, []selection.ValidatorInfo{validator(alice, 20)}, f.active())
}

func TestAutoUnjail(t *testing.T) {
	f := newFixture(t, func(m *InstantiateMsg) { m.AutoUnjail = true })
	f.setWeight(alice, 10)

	d := poe.Seconds(50)
	f.MustExecute(adminAddr, JailMsg{Operator: alice, Duration: &d})
	f.endBlock()
	assert.Empty(t, f.active())

	f.Advance(1, 100)
	f.endBlock()
	assert.Equal(t, []selection.ValidatorInfo{validator(alice, 20)}, f.active())
	assert.Nil(t, f.jailedUntil(alice))
}

func TestLiveness(t *testing.T) {
	f := newFixture(t, func(m *InstantiateMsg) { m.VerifyValidators = true })
	f.setWeight(alice, 10).setWeight(bob, 5)
	f.endBlock()

	votes := []Vote{
		{Address: key(alice).Address(), Power: 20, Voted: true},
		{Address: key(bob).Address(), Power: 10, Voted: false},
	}
	f.Advance(poe.MissedBlocks, 10)
	_, err := f.Sudo(BeginBlockMsg{Votes: votes})
	require.NoError(t, err)
	assert.Nil(t, f.jailedUntil(bob))

	f.Advance(1, 10)
	_, err = f.Sudo(BeginBlockMsg{Votes: votes})
	require.NoError(t, err)
	assert.Nil(t, f.jailedUntil(alice))
	assert.Equal(t, jailing.Until(poe.Seconds(3600).After(f.Block)), *f.jailedUntil(bob))

	// bob leaves the set at the next epoch
	f.Advance(1, 100)
	f.endBlock()
	assert.Equal(t, []selection.ValidatorInfo{validator(alice, 20)}, f.active())
}

func TestDoubleSign(t *testing.T) {
	f := newFixture(t, nil)
	f.setWeight(alice, 10).setWeight(bob, 5)
	f.Advance(4, 0)
	f.endBlock()

	evidence := func(op poe.Address, height uint64) Evidence {
		return Evidence{Kind: DuplicateVote, Validator: key(op).Address(), Power: 20, Height: height}
	}

	// before bob became a validator, and an unknown key
	resp, err := f.Sudo(BeginBlockMsg{Evidence: []Evidence{
		evidence(bob, 3),
		{Kind: DuplicateVote, Validator: key(dave).Address(), Height: 9},
	}})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
	assert.Nil(t, f.jailedUntil(bob))

	resp, err = f.Sudo(BeginBlockMsg{Evidence: []Evidence{evidence(bob, 5)}})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	exec := resp.Messages[0].Msg.(xenv.Execute)
	assert.Equal(t, mixerAddr, exec.Contract)
	slash := exec.Msg.(group.SlashMsg)
	assert.Equal(t, bob, slash.Addr)
	assert.True(t, slash.Portion.Equal(poe.Percent(50)))

	res, err := f.Query(ListValidatorSlashingQuery{Operator: bob})
	require.NoError(t, err)
	hist := res.(ValidatorSlashingResponse)
	require.NotNil(t, hist.StartHeight)
	assert.Equal(t, uint64(5), *hist.StartHeight)
	require.Len(t, hist.Slashing, 1)
	assert.Equal(t, uint64(5), hist.Slashing[0].SlashHeight)
	assert.True(t, hist.Slashing[0].Portion.Equal(poe.Percent(50)))
	assert.True(t, hist.Tombstoned)
	assert.Equal(t, jailing.Forever(), *hist.JailedUntil)

	// tombstoned validators are not punished twice
	resp, err = f.Sudo(BeginBlockMsg{Evidence: []Evidence{evidence(bob, 6)}})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
}

func export(t *testing.T, h *contracttest.Harness) (State, []byte) {
	res, err := h.Query(ExportQuery{})
	require.NoError(t, err)
	st := res.(State)
	data, err := rlp.EncodeToBytes(&st)
	require.NoError(t, err)
	return st, data
}

func TestExportImport(t *testing.T) {
	f := newFixture(t, func(m *InstantiateMsg) { m.VerifyValidators = true })
	f.setWeight(alice, 10).setWeight(bob, 5)
	f.endBlock()
	_, err := f.Sudo(BeginBlockMsg{Evidence: []Evidence{{Kind: DuplicateVote, Validator: key(bob).Address(), Height: 1}}})
	require.NoError(t, err)
	hour := poe.Seconds(3600)
	f.MustExecute(adminAddr, JailMsg{Operator: alice, Duration: &hour})

	st, data := export(t, f.Harness)
	assert.Len(t, st.Operators, 2)
	assert.Len(t, st.Jailed, 2)
	assert.Len(t, st.Signers, 2)

	var decoded State
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	other := contracttest.New(t, Contract{})
	other.Instantiate(adminAddr, ImportMsg{State: decoded})
	_, again := export(t, other)
	assert.Equal(t, data, again)

	// migrating over a different state leaves exactly the imported one
	g := newFixture(t, nil)
	g.MustExecute(carl, RegisterValidatorKeyMsg{PubKey: key(carl), Metadata: Metadata{Moniker: "carl"}})
	_, err = Contract{}.Migrate(xenv.New(g.Block, g.Self, poe.Address{}, nil, g), g.Context(), ImportMsg{State: decoded})
	require.NoError(t, err)
	_, migrated := export(t, g.Harness)
	assert.Equal(t, data, migrated)
}

func TestExportRewardsAmountsRoundTrip(t *testing.T) {
	f := newFixture(t, func(m *InstantiateMsg) {
		m.EpochReward = poe.Coin{Denom: "utgd", Amount: new(big.Int).Lsh(big.NewInt(1), 100)}
	})
	st, data := export(t, f.Harness)
	var decoded State
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, 0, st.Config.EpochReward.Amount.Cmp(decoded.Config.EpochReward.Amount))
	assert.True(t, st.Config.FeePercentage.Equal(decoded.Config.FeePercentage))
}

func ptr[T any](v T) *T {
	return &v
}
