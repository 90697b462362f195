// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package groups

import (
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/poe"
)

type JSONMember struct {
	Address poe.Address `json:"address"`
	// Weight is null for non members.
	Weight *uint64 `json:"weight"`
}

func convertMembers(members []group.Member) []*JSONMember {
	res := make([]*JSONMember, 0, len(members))
	for _, m := range members {
		res = append(res, &JSONMember{Address: m.Addr, Weight: &m.Weight})
	}
	return res
}

type JSONTotalWeight struct {
	TotalWeight uint64 `json:"totalWeight"`
}

type JSONRewards struct {
	Denom         string `json:"denom"`
	Distributed   string `json:"distributed"`
	Undistributed string `json:"undistributed"`
}

type JSONWithdrawable struct {
	Owner  poe.Address `json:"owner"`
	Denom  string      `json:"denom"`
	Amount string      `json:"amount"`
}
