// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engagement

import (
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/poe"
)

type InstantiateMsg struct {
	Admin           *poe.Address
	Members         []group.Member
	PreauthHooks    uint64
	PreauthSlashing uint64
	// Halflife in seconds, zero disables the decay.
	Halflife uint64
	Denom    string
}

// AddPointsMsg grants points to Addr, admin only.
type AddPointsMsg struct {
	Addr   poe.Address
	Points uint64
}

// UpdateMemberMsg is the privileged way to set the points of a member.
type UpdateMemberMsg struct {
	Member group.Member
}

// HalflifeQuery returns HalflifeResponse.
type HalflifeQuery struct{}

type HalflifeResponse struct {
	// Halflife in seconds, zero when disabled.
	Halflife     uint64
	LastHalflife uint64
	NextHalflife uint64
}
