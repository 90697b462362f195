// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/kv"
)

// changeSet records the value a key had before the first write at some height.
type changeSet struct {
	Exists bool
	Old    []byte
}

// SnapshotMap is a Map that also answers what a key held at the start of a given height.
//
// Every first write to a key at a height appends the previous value to a changelog keyed
// (key, height). The value at the start of height H is the old value of the first changelog
// entry with height >= H, or the current value if the key was not written since.
// Keys must have a fixed length.
type SnapshotMap[K Key, V any] struct {
	primary   *Map[K, V]
	changelog *Map[RawKey, changeSet]
}

func NewSnapshotMap[K Key, V any](context *Context, name string) *SnapshotMap[K, V] {
	return &SnapshotMap[K, V]{
		primary:   NewMap[K, V](context, name),
		changelog: NewMap[RawKey, changeSet](context, name+"__changelog"),
	}
}

func heightKey(k []byte, height uint64) RawKey {
	return binary.BigEndian.AppendUint64(append([]byte(nil), k...), height)
}

// Primary exposes the current values for iteration.
func (s *SnapshotMap[K, V]) Primary() *Map[K, V] {
	return s.primary
}

func (s *SnapshotMap[K, V]) Get(k K) (V, bool, error) {
	return s.primary.Get(k)
}

func (s *SnapshotMap[K, V]) Has(k K) (bool, error) {
	return s.primary.Has(k)
}

// GetAt returns the value in effect at the start of height. Writes made at height itself
// are not visible.
func (s *SnapshotMap[K, V]) GetAt(k K, height uint64) (value V, ok bool, err error) {
	kb := k.Bytes()
	var (
		found bool
		cs    changeSet
	)
	err = s.changelog.Range(kv.Range{
		Start: heightKey(kb, height),
		Limit: kv.PrefixRange(kb).Limit,
	}, Ascending, func(_ []byte, c changeSet) (bool, error) {
		found, cs = true, c
		return false, nil
	})
	if err != nil {
		return value, false, err
	}
	if !found {
		return s.primary.Get(k)
	}
	if !cs.Exists {
		return value, false, nil
	}
	if err := rlp.DecodeBytes(cs.Old, &value); err != nil {
		return value, false, errors.Wrap(err, "decode snapshot")
	}
	return value, true, nil
}

// latestCheckpoint returns the height of the last changelog entry of k.
func (s *SnapshotMap[K, V]) latestCheckpoint(kb []byte) (height uint64, ok bool, err error) {
	err = s.changelog.Range(kv.PrefixRange(kb), Descending, func(key []byte, _ changeSet) (bool, error) {
		height, ok = binary.BigEndian.Uint64(key[len(kb):]), true
		return false, nil
	})
	return
}

// checkpoint records the current value of k if this is the first write at height.
func (s *SnapshotMap[K, V]) checkpoint(k K, height uint64) error {
	kb := k.Bytes()
	latest, ok, err := s.latestCheckpoint(kb)
	if err != nil {
		return err
	}
	if ok {
		if latest > height {
			return reverts.InvalidParameterf("write at height %d predates checkpoint %d", height, latest)
		}
		if latest == height {
			return nil
		}
	}

	old, exists, err := s.primary.Get(k)
	if err != nil {
		return err
	}
	cs := changeSet{Exists: exists}
	if exists {
		if cs.Old, err = rlp.EncodeToBytes(old); err != nil {
			return err
		}
	}
	return s.changelog.Save(heightKey(kb, height), cs)
}

// Save writes the value of k at height.
func (s *SnapshotMap[K, V]) Save(k K, value V, height uint64) error {
	if err := s.checkpoint(k, height); err != nil {
		return err
	}
	return s.primary.Save(k, value)
}

// Remove deletes k at height, history before height stays queryable.
func (s *SnapshotMap[K, V]) Remove(k K, height uint64) error {
	if err := s.checkpoint(k, height); err != nil {
		return err
	}
	return s.primary.Remove(k)
}
