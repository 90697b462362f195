// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixer

import (
	"github.com/vechain/poe/poe"
)

type InstantiateMsg struct {
	// LeftGroup and RightGroup are the stake and engagement groups.
	LeftGroup       poe.Address
	RightGroup      poe.Address
	Function        Function
	PreauthHooks    uint64
	PreauthSlashing uint64
	RewardsDenom    string
}

// RewardFunctionQuery previews the mixing function, returns uint64.
type RewardFunctionQuery struct {
	Stake      uint64
	Engagement uint64
}

// ConfigQuery returns Config.
type ConfigQuery struct{}

type Config struct {
	LeftGroup  poe.Address
	RightGroup poe.Address
	Function   Function
}
