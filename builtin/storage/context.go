// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, rlp encoded storage primitives native contracts keep their
// state in: single items, ordered maps and height-indexed snapshot maps.
package storage

import (
	"github.com/vechain/poe/kv"
)

type UseGasFunc func(gas uint64)

// Context is the store of one contract plus the gas meter its accesses are charged to.
type Context struct {
	store   kv.Store
	charger UseGasFunc
}

func NewContext(store kv.Store, charger UseGasFunc) *Context {
	return &Context{
		store:   store,
		charger: charger,
	}
}

func (c *Context) Store() kv.Store {
	return c.store
}

func (c *Context) UseGas(gas uint64) {
	if c.charger != nil {
		c.charger(gas)
	}
}

// namespace builds a length prefixed namespace, so that no namespace is a prefix of another.
func namespace(name string) []byte {
	if len(name) > 255 {
		panic("storage: namespace too long")
	}
	return append([]byte{byte(len(name))}, name...)
}
