// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package group defines weighted groups: their members, the diffs sent to hook listeners
// and the read interface other contracts consume.
package group

import (
	"fmt"

	"github.com/vechain/poe/poe"
)

// Member is an address with a non-zero weight.
type Member struct {
	Addr   poe.Address
	Weight uint64
}

// MemberDiff is the change of a single member. A nil weight means not a member.
type MemberDiff struct {
	Addr poe.Address
	Old  *uint64 `rlp:"nil"`
	New  *uint64 `rlp:"nil"`
}

func NewDiff(addr poe.Address, old, new *uint64) MemberDiff {
	return MemberDiff{Addr: addr, Old: old, New: new}
}

// Delta returns new - old, absent weights count as zero.
func (d MemberDiff) Delta() int64 {
	return int64(WeightOf(d.New)) - int64(WeightOf(d.Old))
}

func (d MemberDiff) String() string {
	return fmt.Sprintf("%s: %s -> %s", d.Addr, fmtWeight(d.Old), fmtWeight(d.New))
}

// WeightOf dereferences an optional weight.
func WeightOf(w *uint64) uint64 {
	if w == nil {
		return 0
	}
	return *w
}

// Weight returns a pointer to w.
func Weight(w uint64) *uint64 {
	return &w
}

func fmtWeight(w *uint64) string {
	if w == nil {
		return "none"
	}
	return fmt.Sprint(*w)
}

// Source is the read interface of a weighted group contract.
type Source interface {
	TotalWeight() (uint64, error)
	IsMember(addr poe.Address) (*uint64, error)
	WasMemberAt(addr poe.Address, height uint64) (*uint64, error)
	// ListMembers is ascending by address.
	ListMembers(startAfter *poe.Address, limit *uint32) ([]Member, error)
	// ListMembersByWeight is descending by weight, ascending by address on ties.
	ListMembersByWeight(startAfter *Member, limit *uint32) ([]Member, error)
}
