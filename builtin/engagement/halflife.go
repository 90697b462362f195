// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engagement

import (
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/poe"
)

type halflife struct {
	Halflife     uint64
	LastHalflife uint64
}

func (h halflife) enabled() bool {
	return h.Halflife > 0
}

func (h halflife) due(now uint64) bool {
	return h.enabled() && now >= h.LastHalflife+h.Halflife
}

func (h halflife) response() HalflifeResponse {
	resp := HalflifeResponse{Halflife: h.Halflife, LastHalflife: h.LastHalflife}
	if h.enabled() {
		resp.NextHalflife = h.LastHalflife + h.Halflife
	}
	return resp
}

// decayed returns the points left after one halflife.
func decayed(points uint64) uint64 {
	return points - points/2
}

// applyHalflife halves the points of every member, rounding in their favour.
func (s *state) applyHalflife(height uint64) ([]group.MemberDiff, error) {
	var (
		members []group.Member
		after   *poe.Address
		limit   = uint32(poe.MaxMemberLimit)
	)
	for {
		page, err := s.members.ListMembers(after, &limit)
		if err != nil {
			return nil, err
		}
		members = append(members, page...)
		if len(page) < int(limit) {
			break
		}
		after = &page[len(page)-1].Addr
	}

	updates := make([]group.Member, 0, len(members))
	for _, m := range members {
		if p := decayed(m.Weight); p != m.Weight {
			updates = append(updates, group.Member{Addr: m.Addr, Weight: p})
		}
	}
	return s.members.UpdateMembers(updates, nil, height)
}
