// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package membership

import (
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// Connect returns the members of the group contract at addr. It reads the group's storage
// directly when the host allows it, and sends charged queries otherwise. Both answer the same.
func Connect(q xenv.Querier, addr poe.Address, useGas func(uint64)) (group.Source, error) {
	raw, ok := q.(xenv.RawQuerier)
	if !ok {
		return group.NewRemote(q, addr, useGas), nil
	}
	store, err := raw.RawStore(addr)
	if err != nil {
		return nil, err
	}
	return New(storage.NewContext(store, useGas)), nil
}
