// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"github.com/vechain/poe/poe"
)

// MemberChangedHookMsg is sent to every registered hook after the group changed.
type MemberChangedHookMsg struct {
	Diffs []MemberDiff
}

// UpdateMembersMsg adds (or updates) members and then removes others.
type UpdateMembersMsg struct {
	Add    []Member
	Remove []poe.Address
}

type UpdateAdminMsg struct {
	Admin *poe.Address
}

type AddHookMsg struct {
	Addr poe.Address
}

type RemoveHookMsg struct {
	Addr poe.Address
}

type AddSlasherMsg struct {
	Addr poe.Address
}

type RemoveSlasherMsg struct {
	Addr poe.Address
}

// SlashMsg reduces the weight of Addr by Portion, a decimal in [0, 1].
type SlashMsg struct {
	Addr    poe.Address
	Portion poe.Decimal
}

// Queries every group contract answers.

type TotalWeightQuery struct{}

// MemberQuery returns *uint64. AtHeight selects the value in effect at the start of a height.
type MemberQuery struct {
	Addr     poe.Address
	AtHeight *uint64
}

// ListMembersQuery returns []Member.
type ListMembersQuery struct {
	StartAfter *poe.Address
	Limit      *uint32
}

// ListMembersByWeightQuery returns []Member.
type ListMembersByWeightQuery struct {
	StartAfter *Member
	Limit      *uint32
}

type AdminQuery struct{}

type HooksQuery struct{}

type SlashersQuery struct{}

type IsSlasherQuery struct {
	Addr poe.Address
}

type PreauthQuery struct{}
