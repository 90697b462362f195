// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package selection

import (
	"sort"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
)

type fakeJail map[poe.Address]bool

func (f fakeJail) IsJailed(op poe.Address) (bool, error) { return f[op], nil }

type fakeKeys map[poe.Address]poe.PubKey

func (f fakeKeys) PubKey(op poe.Address) (*poe.PubKey, error) {
	pk, ok := f[op]
	if !ok {
		return nil, nil
	}
	return &pk, nil
}

func newMembers(t *testing.T) *membership.Store {
	db := muxdb.NewMem()
	tx, err := db.Begin("selection")
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Discard()
		db.Close()
	})
	return membership.New(storage.NewContext(tx, nil))
}

func operator(i int) poe.Address {
	return poe.BytesToAddress([]byte{0xaa, byte(i)})
}

func pubKey(i int) poe.PubKey {
	return poe.PubKey{byte(i), 0x01}
}

func TestComputeActiveSet(t *testing.T) {
	members := newMembers(t)
	keys := fakeKeys{}
	for i := 1; i <= 6; i++ {
		_, err := members.Set(operator(i), uint64(i*10), 1)
		require.NoError(t, err)
		keys[operator(i)] = pubKey(i)
	}
	delete(keys, operator(5))
	jail := fakeJail{operator(6): true}

	set, err := ComputeActiveSet(members, jail, keys, Params{MinWeight: 20, MaxValidators: 3, Scaling: 2})
	require.NoError(t, err)
	assert.Equal(t, []ValidatorInfo{
		{Operator: operator(4), PubKey: pubKey(4), Power: 80},
		{Operator: operator(3), PubKey: pubKey(3), Power: 60},
		{Operator: operator(2), PubKey: pubKey(2), Power: 40},
	}, set)

	// min weight cuts before max validators
	set, err = ComputeActiveSet(members, jail, keys, Params{MinWeight: 35, MaxValidators: 10})
	require.NoError(t, err)
	assert.Equal(t, []ValidatorInfo{{Operator: operator(4), PubKey: pubKey(4), Power: 40}}, set)
}

func TestComputeActiveSetPaging(t *testing.T) {
	members := newMembers(t)
	keys := fakeKeys{}
	jail := fakeJail{}
	n := poe.MaxMemberLimit*2 + 5
	for i := 0; i < n; i++ {
		_, err := members.Set(operator(i), 100, 1)
		require.NoError(t, err)
		keys[operator(i)] = pubKey(i)
		// jail every third member so pages run short
		jail[operator(i)] = i%3 == 0
	}

	set, err := ComputeActiveSet(members, jail, keys, Params{MaxValidators: 100})
	require.NoError(t, err)
	assert.Len(t, set, n-(n+2)/3)
	for i := 1; i < len(set); i++ {
		assert.Equal(t, -1, set[i-1].Operator.Compare(set[i].Operator), "ties ascend by address")
	}

	set, err = ComputeActiveSet(members, jail, keys, Params{MaxValidators: 40})
	require.NoError(t, err)
	assert.Len(t, set, 40)
}

func TestComputeActiveSetOverflow(t *testing.T) {
	members := newMembers(t)
	_, err := members.Set(operator(1), 1<<40, 1)
	require.NoError(t, err)

	_, err = ComputeActiveSet(members, fakeJail{}, fakeKeys{operator(1): pubKey(1)}, Params{MaxValidators: 1, Scaling: 1 << 30})
	assert.ErrorIs(t, err, reverts.ErrOverflow)
}

func TestCalculateDiff(t *testing.T) {
	a := ValidatorInfo{Operator: operator(1), PubKey: pubKey(1), Power: 10}
	b := ValidatorInfo{Operator: operator(2), PubKey: pubKey(2), Power: 20}
	c := ValidatorInfo{Operator: operator(3), PubKey: pubKey(3), Power: 30}

	// power change of b, c leaves, a stays
	bUp := b
	bUp.Power = 25
	diff, additions, removals := CalculateDiff([]ValidatorInfo{bUp, a}, []ValidatorInfo{a, b, c})
	assert.Equal(t, []ValidatorInfo{bUp}, additions)
	assert.Equal(t, []ValidatorInfo{{Operator: c.Operator, PubKey: c.PubKey}}, removals)
	assert.Equal(t, []ValidatorInfo{bUp, {Operator: c.Operator, PubKey: c.PubKey}}, diff)

	// a key rotation is an addition of the new identity and a removal of the old
	aRotated := a
	aRotated.PubKey = pubKey(9)
	diff, additions, removals = CalculateDiff([]ValidatorInfo{aRotated}, []ValidatorInfo{a})
	assert.Equal(t, []ValidatorInfo{aRotated}, additions)
	assert.Equal(t, []ValidatorInfo{{Operator: a.Operator, PubKey: a.PubKey}}, removals)
	assert.Len(t, diff, 2)
}

func randomSet(f *fuzz.Fuzzer) []ValidatorInfo {
	var n uint8
	f.Fuzz(&n)
	set := make([]ValidatorInfo, 0, n%20)
	for i := 0; i < int(n%20); i++ {
		var v ValidatorInfo
		f.Fuzz(&v)
		set = append(set, v)
	}
	sort.Slice(set, func(i, j int) bool { return less(set[i], set[j]) })
	return set
}

func TestCalculateDiffProperties(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		f := fuzz.NewWithSeed(seed).NilChance(0)
		set := randomSet(f)

		diff, additions, removals := CalculateDiff(set, set)
		assert.Empty(t, diff)
		assert.Empty(t, additions)
		assert.Empty(t, removals)

		diff, additions, removals = CalculateDiff(set, nil)
		assert.Equal(t, len(set), len(diff))
		assert.Equal(t, len(set), len(additions))
		for i := range set {
			assert.Equal(t, set[i], additions[i])
			assert.Equal(t, set[i], diff[i])
		}
		assert.Empty(t, removals)

		diff, additions, removals = CalculateDiff(nil, set)
		assert.Empty(t, additions)
		assert.Equal(t, len(set), len(removals))
		assert.Equal(t, removals, diff)
		for i := range set {
			assert.Equal(t, set[i].Operator, removals[i].Operator)
			assert.Equal(t, set[i].PubKey, removals[i].PubKey)
			assert.Zero(t, removals[i].Power)
		}
	}
}
