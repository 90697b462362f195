// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin keeps the optional admin of a contract.
package admin

import (
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
)

// Admin is the contract admin. No admin means nobody holds admin rights.
type Admin struct {
	item *storage.Item[poe.Address]
}

func New(sctx *storage.Context) *Admin {
	return &Admin{item: storage.NewItem[poe.Address](sctx, "admin")}
}

// Get returns the admin, nil when unset.
func (a *Admin) Get() (*poe.Address, error) {
	addr, ok, err := a.item.Get()
	if err != nil || !ok {
		return nil, err
	}
	return &addr, nil
}

// Set replaces the admin without authorization checks.
func (a *Admin) Set(addr *poe.Address) error {
	if addr == nil {
		return a.item.Remove()
	}
	return a.item.Save(*addr)
}

func (a *Admin) IsAdmin(addr poe.Address) (bool, error) {
	cur, err := a.Get()
	if err != nil {
		return false, err
	}
	return cur != nil && *cur == addr, nil
}

// Assert fails with Unauthorized unless sender is the admin.
func (a *Admin) Assert(sender poe.Address) error {
	ok, err := a.IsAdmin(sender)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Unauthorizedf("%s is not admin", sender)
	}
	return nil
}

// Update sets a new admin on behalf of sender, which must be the current admin.
func (a *Admin) Update(sender poe.Address, newAdmin *poe.Address) error {
	if err := a.Assert(sender); err != nil {
		return err
	}
	return a.Set(newAdmin)
}
