// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import "github.com/vechain/poe/poe"

type JSONBalance struct {
	Address poe.Address `json:"address"`
	Denom   string      `json:"denom"`
	Amount  string      `json:"amount"`
}

type JSONSupply struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}
