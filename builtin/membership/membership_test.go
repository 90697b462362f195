// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package membership

import (
	"sort"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
)

func newStore(t *testing.T) *Store {
	db := muxdb.NewMem()
	tx, err := db.Begin("membership")
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Discard()
		db.Close()
	})
	return New(storage.NewContext(tx, nil))
}

func addr(b byte) poe.Address {
	return poe.BytesToAddress([]byte{b})
}

func weight(t *testing.T, w *uint64) uint64 {
	require.NotNil(t, w)
	return *w
}

func TestSetAndRemove(t *testing.T) {
	s := newStore(t)

	diff, err := s.Set(addr(1), 10, 1)
	assert.NoError(t, err)
	assert.Equal(t, group.NewDiff(addr(1), nil, group.Weight(10)), *diff)

	// replay is a no-op
	diff, err = s.Set(addr(1), 10, 1)
	assert.NoError(t, err)
	assert.Nil(t, diff)

	_, err = s.Set(addr(2), 5, 1)
	assert.NoError(t, err)

	total, err := s.TotalWeight()
	assert.NoError(t, err)
	assert.Equal(t, uint64(15), total)

	diff, err = s.Set(addr(1), 3, 2)
	assert.NoError(t, err)
	assert.Equal(t, group.NewDiff(addr(1), group.Weight(10), group.Weight(3)), *diff)

	diff, err = s.Remove(addr(2), 3)
	assert.NoError(t, err)
	assert.Equal(t, group.NewDiff(addr(2), group.Weight(5), nil), *diff)

	diff, err = s.Remove(addr(2), 3)
	assert.NoError(t, err)
	assert.Nil(t, diff)

	total, err = s.TotalWeight()
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), total)

	// zero weight means absent
	_, err = s.Set(addr(1), 0, 4)
	assert.NoError(t, err)
	w, err := s.IsMember(addr(1))
	assert.NoError(t, err)
	assert.Nil(t, w)

	members, err := s.ListMembers(nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, members)

	// history survives removal
	assert.Equal(t, uint64(10), weight(t, must(s.WasMemberAt(addr(1), 2))))
	assert.Equal(t, uint64(3), weight(t, must(s.WasMemberAt(addr(1), 4))))
	assert.Equal(t, uint64(5), weight(t, must(s.WasMemberAt(addr(2), 3))))
	assert.Nil(t, must(s.WasMemberAt(addr(1), 1)))
}

func must(w *uint64, err error) *uint64 {
	if err != nil {
		panic(err)
	}
	return w
}

func TestUpdateMembersOrdering(t *testing.T) {
	s := newStore(t)

	diffs, err := s.UpdateMembers(
		[]group.Member{{Addr: addr(1), Weight: 1}, {Addr: addr(2), Weight: 2}, {Addr: addr(1), Weight: 7}},
		[]poe.Address{addr(2)},
		10,
	)
	assert.NoError(t, err)
	assert.Len(t, diffs, 4)

	// later duplicates win, removals after additions
	assert.Equal(t, uint64(7), weight(t, must(s.IsMember(addr(1)))))
	assert.Nil(t, must(s.IsMember(addr(2))))

	total, err := s.TotalWeight()
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), total)
}

func TestListing(t *testing.T) {
	s := newStore(t)
	weights := map[byte]uint64{1: 5, 2: 9, 3: 5, 4: 1, 5: 9}
	for b, w := range weights {
		_, err := s.Set(addr(b), w, 1)
		require.NoError(t, err)
	}

	members, err := s.ListMembers(nil, nil)
	assert.NoError(t, err)
	assert.Len(t, members, 5)
	for i := 1; i < len(members); i++ {
		assert.Equal(t, -1, members[i-1].Addr.Compare(members[i].Addr))
	}

	two := uint32(2)
	page, err := s.ListMembers(&members[1].Addr, &two)
	assert.NoError(t, err)
	assert.Equal(t, members[2:4], page)

	byWeight, err := s.ListMembersByWeight(nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, []group.Member{
		{Addr: addr(2), Weight: 9},
		{Addr: addr(5), Weight: 9},
		{Addr: addr(1), Weight: 5},
		{Addr: addr(3), Weight: 5},
		{Addr: addr(4), Weight: 1},
	}, byWeight)

	page, err = s.ListMembersByWeight(&byWeight[1], &two)
	assert.NoError(t, err)
	assert.Equal(t, byWeight[2:4], page)

	zero := uint32(0)
	page, err = s.ListMembersByWeight(nil, &zero)
	assert.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestListLimitClamp(t *testing.T) {
	s := newStore(t)
	for i := 1; i <= 40; i++ {
		_, err := s.Set(addr(byte(i)), uint64(i), 1)
		require.NoError(t, err)
	}
	members, err := s.ListMembers(nil, nil)
	assert.NoError(t, err)
	assert.Len(t, members, poe.DefaultMemberLimit)

	big := uint32(1000)
	members, err = s.ListMembersByWeight(nil, &big)
	assert.NoError(t, err)
	assert.Len(t, members, poe.MaxMemberLimit)
	assert.Equal(t, uint64(40), members[0].Weight)
}

// Random writes keep TOTAL equal to the sum of weights, and answers for past heights never
// change once the height is over.
func TestHistoryAndTotalProperties(t *testing.T) {
	s := newStore(t)
	f := fuzz.NewWithSeed(42).NilChance(0)

	type op struct {
		Addr   uint8
		Weight uint16
		Remove bool
	}
	current := map[byte]uint64{}
	history := map[uint64]map[byte]uint64{} // state at the start of a height

	for height := uint64(1); height <= 60; height++ {
		snapshot := map[byte]uint64{}
		for k, v := range current {
			snapshot[k] = v
		}
		history[height] = snapshot

		var ops [4]op
		f.Fuzz(&ops)
		for _, o := range ops {
			a := o.Addr % 8
			if o.Remove || o.Weight == 0 {
				_, err := s.Remove(addr(a), height)
				require.NoError(t, err)
				delete(current, a)
			} else {
				_, err := s.Set(addr(a), uint64(o.Weight), height)
				require.NoError(t, err)
				current[a] = uint64(o.Weight)
			}
		}

		var sum uint64
		for _, w := range current {
			sum += w
		}
		total, err := s.TotalWeight()
		require.NoError(t, err)
		require.Equal(t, sum, total)
	}

	heights := make([]uint64, 0, len(history))
	for h := range history {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	for _, h := range heights {
		for a := byte(0); a < 8; a++ {
			got, err := s.WasMemberAt(addr(a), h)
			require.NoError(t, err)
			want, ok := history[h][a]
			if !ok {
				assert.Nil(t, got, "addr %d height %d", a, h)
			} else {
				assert.Equal(t, want, weight(t, got), "addr %d height %d", a, h)
			}
		}
	}
}
