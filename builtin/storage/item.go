// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

// slots converts a value length into the number of 32 byte words it occupies.
func slots(length int) uint64 {
	return (uint64(length) + 31) / 32
}

func get[V any](ctx *Context, key []byte) (value V, ok bool, err error) {
	raw, err := ctx.store.Get(key)
	if err != nil {
		if ctx.store.IsNotFound(err) {
			ctx.UseGas(poe.SloadGas)
			return value, false, nil
		}
		return value, false, err
	}
	ctx.UseGas(max(slots(len(raw)), 1) * poe.SloadGas)
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, false, errors.Wrapf(err, "decode %x", key)
	}
	return value, true, nil
}

func set[V any](ctx *Context, key []byte, value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %x", key)
	}
	exists, err := ctx.store.Has(key)
	if err != nil {
		return err
	}
	if exists {
		ctx.UseGas(slots(len(val)) * poe.SstoreResetGas)
	} else {
		ctx.UseGas(slots(len(val)) * poe.SstoreSetGas)
	}
	return ctx.store.Put(key, val)
}

func remove(ctx *Context, key []byte) error {
	ctx.UseGas(poe.SstoreResetGas)
	return ctx.store.Delete(key)
}

// Item is a single value stored under a fixed key.
type Item[V any] struct {
	context *Context
	key     []byte
}

func NewItem[V any](context *Context, name string) *Item[V] {
	return &Item[V]{context: context, key: namespace(name)}
}

// Get returns the value, ok is false when nothing is stored.
func (i *Item[V]) Get() (V, bool, error) {
	return get[V](i.context, i.key)
}

// Load returns the value, or a NotFound revert when nothing is stored.
func (i *Item[V]) Load() (V, error) {
	v, ok, err := i.Get()
	if err != nil {
		return v, err
	}
	if !ok {
		return v, reverts.NotFoundf("%s not found", i.key[1:])
	}
	return v, nil
}

// GetOr returns the value or def when nothing is stored.
func (i *Item[V]) GetOr(def V) (V, error) {
	v, ok, err := i.Get()
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

func (i *Item[V]) Save(value V) error {
	return set(i.context, i.key, value)
}

func (i *Item[V]) Remove() error {
	return remove(i.context, i.key)
}
