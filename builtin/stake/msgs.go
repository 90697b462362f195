// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"

	"github.com/vechain/poe/poe"
)

type InstantiateMsg struct {
	Admin *poe.Address
	// Denom is the token bonded, RewardsDenom the token distributed as rewards.
	Denom        string
	RewardsDenom string
	// TokensPerPoint converts stake to weight, stake below MinBond carries no weight.
	TokensPerPoint  *big.Int
	MinBond         *big.Int
	UnbondingPeriod poe.Duration
	// AutoReturnLimit caps the claims released per end block, zero disables auto release.
	AutoReturnLimit uint64
	PreauthHooks    uint64
	PreauthSlashing uint64
}

// BondMsg bonds the tokens attached to the message.
type BondMsg struct{}

// UnbondMsg starts unbonding Tokens, released after the unbonding period.
type UnbondMsg struct {
	Tokens *big.Int
}

// ClaimMsg pays out the matured claims of the sender.
type ClaimMsg struct{}

// StakedQuery returns poe.Coin, the liquid stake of Addr.
type StakedQuery struct {
	Addr poe.Address
}

// ClaimsQuery returns []claims.Claim.
type ClaimsQuery struct {
	Addr       poe.Address
	StartAfter *poe.Expiration
	Limit      *uint32
}

// UnbondingPeriodQuery returns poe.Duration.
type UnbondingPeriodQuery struct{}

// ConfigQuery returns Config.
type ConfigQuery struct{}
