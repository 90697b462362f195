// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
)

type Order uint8

const (
	Ascending Order = iota
	Descending
)

// Map is an ordered key/value mapping, keys iterate in byte order.
type Map[K Key, V any] struct {
	context *Context
	prefix  []byte
}

func NewMap[K Key, V any](context *Context, name string) *Map[K, V] {
	return &Map[K, V]{context: context, prefix: namespace(name)}
}

func (m *Map[K, V]) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(m.prefix)+len(k)), m.prefix...), k...)
}

// Get returns the value for k, ok is false when absent.
func (m *Map[K, V]) Get(k K) (V, bool, error) {
	return get[V](m.context, m.key(k.Bytes()))
}

// Load returns the value for k, or a NotFound revert when absent.
func (m *Map[K, V]) Load(k K) (V, error) {
	v, ok, err := m.Get(k)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, reverts.NotFoundf("%s %x not found", m.prefix[1:], k.Bytes())
	}
	return v, nil
}

func (m *Map[K, V]) Has(k K) (bool, error) {
	m.context.UseGas(poe.SloadGas)
	return m.context.store.Has(m.key(k.Bytes()))
}

func (m *Map[K, V]) Save(k K, value V) error {
	return set(m.context, m.key(k.Bytes()), value)
}

func (m *Map[K, V]) Remove(k K) error {
	return remove(m.context, m.key(k.Bytes()))
}

// Range iterates entries with keys in [r.Start, r.Limit), an empty limit means the end of
// the map. fn receives a copy of the key without the map prefix and returns false to stop.
func (m *Map[K, V]) Range(r kv.Range, order Order, fn func(key []byte, value V) (bool, error)) error {
	full := kv.Range{Start: m.key(r.Start)}
	if len(r.Limit) == 0 {
		full.Limit = kv.PrefixRange(m.prefix).Limit
	} else {
		full.Limit = m.key(r.Limit)
	}

	it := m.context.store.Iterate(full)
	defer it.Release()

	var ok bool
	next := it.Next
	if order == Descending {
		ok, next = it.Last(), it.Prev
	} else {
		ok = it.First()
	}
	for ; ok; ok = next() {
		raw := it.Value()
		m.context.UseGas(max(slots(len(raw)), 1) * poe.SloadGas)

		var value V
		if err := rlp.DecodeBytes(raw, &value); err != nil {
			return errors.Wrapf(err, "decode %x", it.Key())
		}
		key := append([]byte(nil), it.Key()[len(m.prefix):]...)
		cont, err := fn(key, value)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return it.Error()
}

// Page returns up to limit entries starting after startAfter (nil for the beginning) in the
// given order.
func (m *Map[K, V]) Page(startAfter []byte, limit int, order Order) ([][]byte, []V, error) {
	var r kv.Range
	if startAfter != nil {
		if order == Descending {
			r.Limit = startAfter
		} else {
			r.Start = After(startAfter)
		}
	}
	var (
		keys   [][]byte
		values []V
	)
	err := m.Range(r, order, func(key []byte, value V) (bool, error) {
		keys = append(keys, key)
		values = append(values, value)
		return len(keys) < limit, nil
	})
	return keys, values, err
}
