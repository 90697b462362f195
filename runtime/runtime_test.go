// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin"
	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/engagement"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/mixer"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/stake"
	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
	"github.com/vechain/poe/test/datagen"
)

var (
	genesis = poe.BytesToAddress([]byte("genesis"))
	alice   = poe.BytesToAddress([]byte("alice"))
	bob     = poe.BytesToAddress([]byte("bob"))
)

func key(op poe.Address) poe.PubKey {
	return poe.PubKey(poe.Blake2b(op.Bytes()))
}

// network is a deployed proof of engagement stack.
type network struct {
	t  *testing.T
	rt *runtime.Runtime

	engagement poe.Address
	stake      poe.Address
	mixer      poe.Address
	community  poe.Address
	rewards    poe.Address
	valset     poe.Address
}

func (n *network) instantiate(code, label string, msg any) poe.Address {
	res, err := n.rt.Instantiate(genesis, code, label, msg)
	require.NoError(n.t, err, label)
	return res.Contract
}

func (n *network) execute(sender, contract poe.Address, msg any, funds ...poe.Coin) *runtime.Result {
	res, err := n.rt.Execute(sender, contract, msg, funds...)
	require.NoError(n.t, err)
	return res
}

func (n *network) balance(addr poe.Address, denom string) int64 {
	b, err := n.rt.Balance(addr, denom)
	require.NoError(n.t, err)
	return b.Int64()
}

func (n *network) weight(grp, addr poe.Address) *uint64 {
	res, err := n.rt.Query(grp, group.MemberQuery{Addr: addr})
	require.NoError(n.t, err)
	return res.(*uint64)
}

func (n *network) endBlock(height, time uint64) []*runtime.Result {
	n.rt.SetBlock(poe.Block{Height: height, Time: time})
	results, err := n.rt.EndBlock()
	require.NoError(n.t, err)
	return results
}

// newNetwork deploys the groups, the mixer and the validator set the way genesis does, without
// granting the valset any privilege.
func newNetwork(t *testing.T) *network {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	n := &network{t: t, rt: runtime.New(db, poe.Block{Height: 1, Time: 1000})}

	require.NoError(t, n.rt.Mint(alice, poe.NewCoin(1000, "stake")))
	require.NoError(t, n.rt.Mint(bob, poe.NewCoin(1000, "stake")))

	n.engagement = n.instantiate(builtin.Engagement, "engagement", engagement.InstantiateMsg{
		Admin:           &genesis,
		Members:         []group.Member{{Addr: alice, Weight: 10}, {Addr: bob, Weight: 10}},
		PreauthHooks:    1,
		PreauthSlashing: 1,
		Denom:           "utgd",
	})
	n.stake = n.instantiate(builtin.Stake, "stake", stake.InstantiateMsg{
		Admin:           &genesis,
		Denom:           "stake",
		RewardsDenom:    "utgd",
		TokensPerPoint:  big.NewInt(10),
		MinBond:         big.NewInt(10),
		UnbondingPeriod: poe.Seconds(100),
		PreauthHooks:    1,
		PreauthSlashing: 1,
	})
	n.mixer = n.instantiate(builtin.Mixer, "mixer", mixer.InstantiateMsg{
		LeftGroup:       n.stake,
		RightGroup:      n.engagement,
		Function:        mixer.GeometricMean{},
		PreauthSlashing: 1,
		RewardsDenom:    "utgd",
	})
	n.community = n.instantiate(builtin.Engagement, "community", engagement.InstantiateMsg{Admin: &genesis, Denom: "utgd"})
	n.rewards = n.instantiate(builtin.Engagement, "validator-rewards", engagement.InstantiateMsg{Admin: &genesis, Denom: "utgd"})
	n.valset = n.instantiate(builtin.Valset, "valset", valset.InstantiateMsg{
		Admin:                &genesis,
		Membership:           n.mixer,
		MinPoints:            1,
		MaxValidators:        10,
		EpochLength:          100,
		EpochReward:          poe.NewCoin(1000, "utgd"),
		Scaling:              1,
		FeePercentage:        poe.Percent(0),
		DoubleSignSlashRatio: poe.Percent(50),
		DistributionContracts: []valset.DistributionContract{
			{Contract: n.community, Ratio: poe.Percent(10)},
		},
		RewardsGroup:        n.rewards,
		OfflineJailDuration: poe.Seconds(3600),
		InitialKeys: []valset.OperatorKey{
			{Operator: alice, PubKey: key(alice), Metadata: valset.Metadata{Moniker: "alice"}},
			{Operator: bob, PubKey: key(bob), Metadata: valset.Metadata{Moniker: "bob"}},
		},
	})

	n.execute(genesis, n.rewards, group.UpdateAdminMsg{Admin: &n.valset})
	n.execute(genesis, n.mixer, group.AddSlasherMsg{Addr: n.valset})
	n.execute(genesis, n.stake, group.AddSlasherMsg{Addr: n.mixer})
	n.execute(genesis, n.engagement, group.AddSlasherMsg{Addr: n.mixer})

	n.execute(alice, n.stake, stake.BondMsg{}, poe.NewCoin(500, "stake"))
	n.execute(bob, n.stake, stake.BondMsg{}, poe.NewCoin(200, "stake"))
	return n
}

func (n *network) grant(privileges ...runtime.Privilege) {
	for _, p := range privileges {
		require.NoError(n.t, n.rt.Grant(n.valset, p))
	}
}

func TestDeploy(t *testing.T) {
	n := newNetwork(t)

	contracts, err := n.rt.Contracts()
	require.NoError(t, err)
	assert.Len(t, contracts, 6)

	info, err := n.rt.Contract(n.valset)
	require.NoError(t, err)
	assert.Equal(t, runtime.ContractInfo{Address: n.valset, Code: builtin.Valset, Creator: genesis, Label: "valset"}, info)

	_, err = n.rt.Contract(alice)
	assert.True(t, errors.Is(err, reverts.ErrNotFound))

	_, err = n.rt.Instantiate(genesis, "unknown", "x", nil)
	assert.True(t, errors.Is(err, reverts.ErrNotFound))

	hooks, err := n.rt.Query(n.stake, group.HooksQuery{})
	require.NoError(t, err)
	assert.Equal(t, []poe.Address{n.mixer}, hooks)
}

func TestBondFlowsThroughMixer(t *testing.T) {
	n := newNetwork(t)

	assert.Equal(t, int64(500), n.balance(alice, "stake"))
	assert.Equal(t, int64(700), n.balance(n.stake, "stake"))

	// sqrt(50 * 10) and sqrt(20 * 10)
	assert.Equal(t, uint64(22), *n.weight(n.mixer, alice))
	assert.Equal(t, uint64(14), *n.weight(n.mixer, bob))

	_, err := n.rt.Execute(alice, n.stake, stake.BondMsg{}, poe.NewCoin(5000, "stake"))
	assert.True(t, errors.Is(err, reverts.ErrInvalidParameter))
	assert.Equal(t, int64(500), n.balance(alice, "stake"), "failed invocation leaves balances")
}

func TestEpochRewards(t *testing.T) {
	n := newNetwork(t)
	n.grant(runtime.EndBlocker, runtime.BeginBlocker, runtime.TokenMinter)

	results := n.endBlock(1, 1000)
	require.Len(t, results, 1)
	diff := results[0].Data.(valset.ValidatorDiff)
	assert.ElementsMatch(t, []selection.ValidatorInfo{
		{Operator: alice, PubKey: key(alice), Power: 22},
		{Operator: bob, PubKey: key(bob), Power: 14},
	}, diff.Diffs)
	assert.Equal(t, uint64(22), *n.weight(n.rewards, alice))

	active, err := n.rt.Query(n.valset, valset.ListActiveValidatorsQuery{})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// same epoch
	results = n.endBlock(2, 1050)
	assert.Nil(t, results[0].Data)

	n.endBlock(3, 1100)
	supply, err := n.rt.Supply("utgd")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), supply.Int64())

	// the community group has no members, its share stays with the valset
	assert.Equal(t, int64(0), n.balance(n.community, "utgd"))
	assert.Equal(t, int64(100), n.balance(n.valset, "utgd"))
	assert.Equal(t, int64(900), n.balance(n.rewards, "utgd"))

	withdrawable := func(addr poe.Address) int64 {
		res, err := n.rt.Query(n.rewards, distribution.WithdrawableRewardsQuery{Owner: addr})
		require.NoError(t, err)
		return res.(poe.Coin).Amount.Int64()
	}
	assert.Equal(t, int64(550), withdrawable(alice))
	assert.Equal(t, int64(350), withdrawable(bob))

	n.execute(alice, n.rewards, distribution.WithdrawRewardsMsg{})
	assert.Equal(t, int64(550), n.balance(alice, "utgd"))
	assert.Equal(t, int64(0), withdrawable(alice))
}

func TestEndBlockWithoutMinter(t *testing.T) {
	n := newNetwork(t)
	n.grant(runtime.EndBlocker)

	n.endBlock(1, 1000)

	n.rt.SetBlock(poe.Block{Height: 2, Time: 1100})
	_, err := n.rt.EndBlock()
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))

	epoch, err := n.rt.Query(n.valset, valset.EpochQuery{})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), epoch.(valset.EpochResponse).CurrentEpoch, "epoch change rolled back")
}

func TestDoubleSign(t *testing.T) {
	n := newNetwork(t)
	n.grant(runtime.EndBlocker, runtime.BeginBlocker, runtime.TokenMinter)
	n.endBlock(1, 1000)

	n.rt.SetBlock(poe.Block{Height: 2, Time: 1010})
	_, err := n.rt.BeginBlock(valset.BeginBlockMsg{Evidence: []valset.Evidence{{
		Kind:             valset.DuplicateVote,
		Validator:        key(alice).Address(),
		Power:            22,
		Height:           2,
		Time:             1010,
		TotalVotingPower: 36,
	}}})
	require.NoError(t, err)

	// half the stake is burnt, half the engagement points are gone
	assert.Equal(t, int64(450), n.balance(n.stake, "stake"))
	supply, err := n.rt.Supply("stake")
	require.NoError(t, err)
	assert.Equal(t, int64(1750), supply.Int64())
	assert.Equal(t, uint64(5), *n.weight(n.engagement, alice))
	assert.Equal(t, uint64(11), *n.weight(n.mixer, alice))

	results := n.endBlock(3, 1100)
	diff := results[0].Data.(valset.ValidatorDiff)
	assert.Equal(t, []selection.ValidatorInfo{{Operator: alice, PubKey: key(alice)}}, diff.Diffs)

	slashing, err := n.rt.Query(n.valset, valset.ListValidatorSlashingQuery{Operator: alice})
	require.NoError(t, err)
	assert.True(t, slashing.(valset.ValidatorSlashingResponse).Tombstoned)
}

func TestMigrate(t *testing.T) {
	n := newNetwork(t)

	exported, err := n.rt.Query(n.valset, valset.ExportQuery{})
	require.NoError(t, err)
	msg := valset.ImportMsg{State: exported.(valset.State)}

	_, err = n.rt.Migrate(alice, n.valset, builtin.Valset, msg)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))

	_, err = n.rt.Migrate(genesis, n.stake, builtin.Stake, nil)
	assert.True(t, errors.Is(err, reverts.ErrInvalidParameter))

	_, err = n.rt.Migrate(genesis, n.valset, builtin.Valset, msg)
	require.NoError(t, err)

	again, err := n.rt.Query(n.valset, valset.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, exported, again)
	assertSameEncoding(t, exported, again)

	// again with an active set
	n.grant(runtime.EndBlocker)
	n.endBlock(2, 1000)
	exported, err = n.rt.Query(n.valset, valset.ExportQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, exported.(valset.State).Validators)
	_, err = n.rt.Migrate(genesis, n.valset, builtin.Valset, valset.ImportMsg{State: exported.(valset.State)})
	require.NoError(t, err)
	again, err = n.rt.Query(n.valset, valset.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, exported, again)
	assertSameEncoding(t, exported, again)
}

func assertSameEncoding(t *testing.T, want, got any) {
	wantBytes, err := rlp.EncodeToBytes(want)
	require.NoError(t, err)
	gotBytes, err := rlp.EncodeToBytes(got)
	require.NoError(t, err)
	assert.Equal(t, wantBytes, gotBytes)
}

func TestNestedQuery(t *testing.T) {
	n := newNetwork(t)

	res, err := n.rt.Query(n.valset, valset.SimulateActiveValidatorsQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []selection.ValidatorInfo{
		{Operator: alice, PubKey: key(alice), Power: 22},
		{Operator: bob, PubKey: key(bob), Power: 14},
	}, res)

	_, err = n.rt.Query(n.valset, "unknown")
	assert.True(t, errors.Is(err, reverts.ErrInvalidParameter))
}

func TestPrivileges(t *testing.T) {
	n := newNetwork(t)

	assert.True(t, errors.Is(n.rt.Grant(alice, runtime.EndBlocker), reverts.ErrNotFound))

	n.grant(runtime.EndBlocker, runtime.EndBlocker)
	holders, err := n.rt.Privileged(runtime.EndBlocker)
	require.NoError(t, err)
	assert.Equal(t, []poe.Address{n.valset}, holders)

	require.NoError(t, n.rt.Grant(n.stake, runtime.EndBlocker))
	results, err := n.rt.EndBlock()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, n.valset, results[0].Contract)
	assert.Equal(t, n.stake, results[1].Contract)

	// the mixer has no sudo entry point
	require.NoError(t, n.rt.Grant(n.mixer, runtime.EndBlocker))
	results, err = n.rt.EndBlock()
	assert.True(t, errors.Is(err, reverts.ErrInvalidParameter))
	assert.Len(t, results, 2)
}

func TestMintSupply(t *testing.T) {
	db := muxdb.NewMem()
	defer db.Close()
	rt := runtime.New(db, poe.Block{})

	var total int64
	for range 8 {
		addr := datagen.RandAddress()
		amount := int64(datagen.RandUint64N(1000)) + 1
		require.NoError(t, rt.Mint(addr, poe.Coin{Denom: "utgd", Amount: big.NewInt(amount)}))
		total += amount

		b, err := rt.Balance(addr, "utgd")
		require.NoError(t, err)
		assert.Equal(t, amount, b.Int64())
	}
	supply, err := rt.Supply("utgd")
	require.NoError(t, err)
	assert.Equal(t, total, supply.Int64())

	_, err = rt.Query(datagen.RandAddress(), group.TotalWeightQuery{})
	assert.True(t, errors.Is(err, reverts.ErrNotFound))
}
