// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

// ParseAddress parses an address received from outside, failing with an InvalidAddress revert.
func ParseAddress(s string) (poe.Address, error) {
	addr, err := poe.ParseAddress(s)
	if err != nil {
		return poe.Address{}, reverts.InvalidAddressf("%q: %v", s, err)
	}
	return addr, nil
}

// ParseMembers parses (address, weight) pairs.
func ParseMembers(addrs []string, weights []uint64) ([]Member, error) {
	if len(addrs) != len(weights) {
		return nil, reverts.InvalidParameterf("%d addresses for %d weights", len(addrs), len(weights))
	}
	members := make([]Member, len(addrs))
	for i, s := range addrs {
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		members[i] = Member{Addr: addr, Weight: weights[i]}
	}
	return members, nil
}
