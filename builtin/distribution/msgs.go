// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"github.com/vechain/poe/poe"
)

// DistributeRewardsMsg distributes everything the contract received since the last round.
// Funds may be attached to the message.
type DistributeRewardsMsg struct{}

// WithdrawRewardsMsg withdraws the rewards of Owner (the sender by default) to Receiver (the
// sender by default).
type WithdrawRewardsMsg struct {
	Owner    *poe.Address
	Receiver *poe.Address
}

// DelegateWithdrawalMsg allows Delegated to withdraw the rewards of the sender.
type DelegateWithdrawalMsg struct {
	Delegated poe.Address
}

// WithdrawableRewardsQuery returns poe.Coin.
type WithdrawableRewardsQuery struct {
	Owner poe.Address
}

// DistributedRewardsQuery returns poe.Coin.
type DistributedRewardsQuery struct{}

// UndistributedRewardsQuery returns poe.Coin.
type UndistributedRewardsQuery struct{}

// DelegatedQuery returns poe.Address.
type DelegatedQuery struct {
	Owner poe.Address
}
