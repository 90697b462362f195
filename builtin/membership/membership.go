// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package membership stores weighted members with their history.
//
// All writes go through Store so the running total always equals the sum of the current
// weights, and the weight index always mirrors the members map.
package membership

import (
	"encoding/binary"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
)

var logger = log.WithContext("pkg", "membership")

// Store is a height-indexed address to weight mapping.
type Store struct {
	members  *storage.SnapshotMap[poe.Address, uint64]
	byWeight *storage.Map[storage.RawKey, poe.Address]
	total    *storage.Item[uint64]
}

var _ group.Source = (*Store)(nil)

func New(sctx *storage.Context) *Store {
	return &Store{
		members:  storage.NewSnapshotMap[poe.Address, uint64](sctx, "members"),
		byWeight: storage.NewMap[storage.RawKey, poe.Address](sctx, "members-by-weight"),
		total:    storage.NewItem[uint64](sctx, "total"),
	}
}

// weightKey sorts by weight, then by inverted address, so a descending scan yields weight
// descending and address ascending.
func weightKey(weight uint64, addr poe.Address) storage.RawKey {
	key := binary.BigEndian.AppendUint64(make([]byte, 0, 8+poe.AddressLength), weight)
	for _, b := range addr {
		key = append(key, ^b)
	}
	return key
}

func (s *Store) adjustTotal(old, new uint64) error {
	total, err := s.TotalWeight()
	if err != nil {
		return err
	}
	if total, err = poe.SafeSub(total, old); err != nil {
		return reverts.InvariantViolationf("total weight below member weight")
	}
	if total, err = poe.SafeAdd(total, new); err != nil {
		return reverts.Overflowf("total weight")
	}
	return s.total.Save(total)
}

// Set writes the weight of addr at height. A zero weight removes the member. The returned
// diff is nil when the weight did not change.
func (s *Store) Set(addr poe.Address, weight uint64, height uint64) (*group.MemberDiff, error) {
	if weight == 0 {
		return s.Remove(addr, height)
	}
	old, err := s.IsMember(addr)
	if err != nil {
		return nil, err
	}
	if old != nil && *old == weight {
		return nil, nil
	}

	if err := s.members.Save(addr, weight, height); err != nil {
		return nil, err
	}
	if old != nil {
		if err := s.byWeight.Remove(weightKey(*old, addr)); err != nil {
			return nil, err
		}
	}
	if err := s.byWeight.Save(weightKey(weight, addr), addr); err != nil {
		return nil, err
	}
	if err := s.adjustTotal(group.WeightOf(old), weight); err != nil {
		return nil, err
	}

	diff := group.NewDiff(addr, old, &weight)
	logger.Trace("member set", "diff", diff, "height", height)
	return &diff, nil
}

// Remove deletes addr at height. History before height stays queryable.
func (s *Store) Remove(addr poe.Address, height uint64) (*group.MemberDiff, error) {
	old, err := s.IsMember(addr)
	if err != nil || old == nil {
		return nil, err
	}
	if err := s.members.Remove(addr, height); err != nil {
		return nil, err
	}
	if err := s.byWeight.Remove(weightKey(*old, addr)); err != nil {
		return nil, err
	}
	if err := s.adjustTotal(*old, 0); err != nil {
		return nil, err
	}

	diff := group.NewDiff(addr, old, nil)
	logger.Trace("member removed", "diff", diff, "height", height)
	return &diff, nil
}

// UpdateMembers applies additions in order, then removals. An address in both lists ends
// up removed.
func (s *Store) UpdateMembers(add []group.Member, remove []poe.Address, height uint64) ([]group.MemberDiff, error) {
	var diffs []group.MemberDiff
	for _, m := range add {
		diff, err := s.Set(m.Addr, m.Weight, height)
		if err != nil {
			return nil, err
		}
		if diff != nil {
			diffs = append(diffs, *diff)
		}
	}
	for _, addr := range remove {
		diff, err := s.Remove(addr, height)
		if err != nil {
			return nil, err
		}
		if diff != nil {
			diffs = append(diffs, *diff)
		}
	}
	return diffs, nil
}

func (s *Store) TotalWeight() (uint64, error) {
	total, _, err := s.total.Get()
	return total, err
}

// IsMember returns the current weight, nil if addr is not a member.
func (s *Store) IsMember(addr poe.Address) (*uint64, error) {
	w, ok, err := s.members.Get(addr)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

// WasMemberAt returns the weight in effect at the start of height.
func (s *Store) WasMemberAt(addr poe.Address, height uint64) (*uint64, error) {
	w, ok, err := s.members.GetAt(addr, height)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

func (s *Store) ListMembers(startAfter *poe.Address, limit *uint32) ([]group.Member, error) {
	var after []byte
	if startAfter != nil {
		after = startAfter.Bytes()
	}
	keys, weights, err := s.members.Primary().Page(after, poe.ClampLimit(limit, poe.DefaultMemberLimit, poe.MaxMemberLimit), storage.Ascending)
	if err != nil {
		return nil, err
	}
	members := make([]group.Member, len(weights))
	for i, w := range weights {
		members[i] = group.Member{Addr: poe.BytesToAddress(keys[i]), Weight: w}
	}
	return members, nil
}

func (s *Store) ListMembersByWeight(startAfter *group.Member, limit *uint32) ([]group.Member, error) {
	var after []byte
	if startAfter != nil {
		after = weightKey(startAfter.Weight, startAfter.Addr)
	}
	keys, addrs, err := s.byWeight.Page(after, poe.ClampLimit(limit, poe.DefaultMemberLimit, poe.MaxMemberLimit), storage.Descending)
	if err != nil {
		return nil, err
	}
	members := make([]group.Member, len(addrs))
	for i, addr := range addrs {
		members[i] = group.Member{Addr: addr, Weight: binary.BigEndian.Uint64(keys[i][:8])}
	}
	return members, nil
}
