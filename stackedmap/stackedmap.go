// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap stacks snapshots on top of a kv store. Writes go straight through to the
// store while the previous value of every written key is journaled, so the writes made since
// any snapshot can be reverted.
package stackedmap

import (
	"github.com/pkg/errors"

	"github.com/vechain/poe/kv"
)

// JournalEntry is the value a key had before a write.
type JournalEntry struct {
	Key     []byte
	Value   []byte
	Existed bool
}

// StackedMap is a kv.Store with save-restore/snapshot-revert manner.
type StackedMap struct {
	kv.Store
	journal []JournalEntry
}

// New wraps src.
func New(src kv.Store) *StackedMap {
	return &StackedMap{Store: src}
}

// Snapshot returns the revision to pass to RevertTo.
func (sm *StackedMap) Snapshot() int {
	return len(sm.journal)
}

// Depth returns the number of journaled writes.
func (sm *StackedMap) Depth() int {
	return len(sm.journal)
}

func (sm *StackedMap) record(key []byte) error {
	val, err := sm.Store.Get(key)
	switch {
	case err == nil:
		sm.journal = append(sm.journal, JournalEntry{Key: append([]byte(nil), key...), Value: val, Existed: true})
	case sm.Store.IsNotFound(err):
		sm.journal = append(sm.journal, JournalEntry{Key: append([]byte(nil), key...)})
	default:
		return err
	}
	return nil
}

func (sm *StackedMap) Put(key, val []byte) error {
	if err := sm.record(key); err != nil {
		return err
	}
	return sm.Store.Put(key, val)
}

func (sm *StackedMap) Delete(key []byte) error {
	if err := sm.record(key); err != nil {
		return err
	}
	return sm.Store.Delete(key)
}

// RevertTo restores every key written after the snapshot rev, latest first.
func (sm *StackedMap) RevertTo(rev int) error {
	if rev < 0 || rev > len(sm.journal) {
		return errors.Errorf("invalid snapshot %d, depth %d", rev, len(sm.journal))
	}
	for i := len(sm.journal) - 1; i >= rev; i-- {
		e := sm.journal[i]
		var err error
		if e.Existed {
			err = sm.Store.Put(e.Key, e.Value)
		} else {
			err = sm.Store.Delete(e.Key)
		}
		if err != nil {
			return errors.Wrap(err, "revert")
		}
	}
	sm.journal = sm.journal[:rev]
	return nil
}

// Journal returns the journaled writes since the beginning.
func (sm *StackedMap) Journal() []JournalEntry {
	return sm.journal
}
