// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
)

type JSONContract struct {
	Address poe.Address `json:"address"`
	Code    string      `json:"code"`
	Creator poe.Address `json:"creator"`
	Label   string      `json:"label"`
}

func convertContract(info runtime.ContractInfo) *JSONContract {
	return &JSONContract{
		Address: info.Address,
		Code:    info.Code,
		Creator: info.Creator,
		Label:   info.Label,
	}
}
