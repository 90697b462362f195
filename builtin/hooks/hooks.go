// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package hooks manages lists of privileged contracts, such as member change listeners or
// slashers. The admin adds entries freely, anyone else consumes one pre-authorization.
package hooks

import (
	"github.com/vechain/poe/builtin/admin"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var logger = log.WithContext("pkg", "hooks")

type Hooks struct {
	name    string
	list    *LinkedList
	preauth *storage.Item[uint64]
}

func New(sctx *storage.Context, name string) *Hooks {
	return &Hooks{
		name:    name,
		list:    NewLinkedList(sctx, name),
		preauth: storage.NewItem[uint64](sctx, name+"-preauth"),
	}
}

func (h *Hooks) List() ([]poe.Address, error) {
	return h.list.All()
}

func (h *Hooks) Contains(addr poe.Address) (bool, error) {
	return h.list.Contains(addr)
}

func (h *Hooks) Preauths() (uint64, error) {
	n, _, err := h.preauth.Get()
	return n, err
}

func (h *Hooks) SetPreauths(n uint64) error {
	return h.preauth.Save(n)
}

// Add registers addr on behalf of sender.
func (h *Hooks) Add(adm *admin.Admin, sender, addr poe.Address) error {
	in, err := h.list.Contains(addr)
	if err != nil {
		return err
	}
	if in {
		return reverts.InvalidParameterf("%s %s already registered", h.name, addr)
	}

	isAdmin, err := adm.IsAdmin(sender)
	if err != nil {
		return err
	}
	if !isAdmin {
		n, err := h.Preauths()
		if err != nil {
			return err
		}
		if n == 0 {
			return reverts.Unauthorizedf("no %s preauthorization left for %s", h.name, sender)
		}
		if err := h.preauth.Save(n - 1); err != nil {
			return err
		}
	}

	if err := h.list.Add(addr); err != nil {
		return err
	}
	logger.Debug("registered", "list", h.name, "addr", addr, "by", sender)
	return nil
}

// Remove unregisters addr, allowed for the admin and for addr itself.
func (h *Hooks) Remove(adm *admin.Admin, sender, addr poe.Address) error {
	in, err := h.list.Contains(addr)
	if err != nil {
		return err
	}
	if !in {
		return reverts.NotFoundf("%s %s not registered", h.name, addr)
	}
	if sender != addr {
		if err := adm.Assert(sender); err != nil {
			return err
		}
	}
	if err := h.list.Remove(addr); err != nil {
		return err
	}
	logger.Debug("unregistered", "list", h.name, "addr", addr, "by", sender)
	return nil
}

// Prepare builds one Execute message carrying msg for every registered address.
func (h *Hooks) Prepare(msg any) ([]xenv.Msg, error) {
	var msgs []xenv.Msg
	err := h.list.Iter(func(addr poe.Address) error {
		msgs = append(msgs, xenv.Execute{Contract: addr, Msg: msg})
		return nil
	})
	return msgs, err
}
