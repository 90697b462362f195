// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package muxdb implements the storage layer contracts execute against.
// Every write happens inside a transaction which is either committed or discarded as a whole.
package muxdb

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/poe/kv"
)

const namedStoreSpace = byte(3) // the key space for named store.

var errReadOnly = errors.New("read-only store")

// Options optional parameters for MuxDB.
type Options struct {
	// OpenFilesCacheCapacity is the capacity of open files caching for underlying database.
	OpenFilesCacheCapacity int
	// ReadCacheMB is the size of read cache for underlying database.
	ReadCacheMB int
	// WriteBufferMB is the size of write buffer for underlying database.
	WriteBufferMB int
}

// MuxDB is the database contract state lives in.
type MuxDB struct {
	db *leveldb.DB
	mu sync.Mutex
}

// Open opens or creates DB at the given path.
func Open(path string, options *Options) (*MuxDB, error) {
	ldbOpts := opt.Options{
		OpenFilesCacheCapacity: options.OpenFilesCacheCapacity,
		BlockCacheCapacity:     options.ReadCacheMB * opt.MiB,
		WriteBuffer:            options.WriteBufferMB * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
		BlockSize:              1024 * 32,
		CompactionTableSize:    4 * opt.MiB,
	}

	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &MuxDB{db: ldb}, nil
}

// NewMem creates a memory-backed DB.
func NewMem() *MuxDB {
	ldb, _ := leveldb.Open(storage.NewMemStorage(), nil)
	return &MuxDB{db: ldb}
}

// Close closes the DB.
func (db *MuxDB) Close() error {
	return db.db.Close()
}

// NewStore creates a read-only view of the named kv-store. Writes must go through Transact.
func (db *MuxDB) NewStore(name string) kv.Store {
	return kv.Bucket(string(namedStoreSpace) + name).NewStore(&levelStore{r: db.db})
}

// Tx is an open transaction on the named store. Writes are visible to reads made through
// the Tx and become durable on Commit.
type Tx struct {
	kv.Store
	tx     *leveldb.Transaction
	unlock func()
	done   bool
}

// Begin opens a transaction. Only one transaction is open at a time, Begin blocks until
// the previous one is committed or discarded.
func (db *MuxDB) Begin(name string) (*Tx, error) {
	db.mu.Lock()
	tx, err := db.db.OpenTransaction()
	if err != nil {
		db.mu.Unlock()
		return nil, errors.Wrap(err, "open transaction")
	}
	return &Tx{
		Store:  kv.Bucket(string(namedStoreSpace) + name).NewStore(&levelStore{r: tx, w: tx}),
		tx:     tx,
		unlock: db.mu.Unlock,
	}, nil
}

// Commit makes the writes durable.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	defer t.unlock()

	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	metricTransactionCounterVec().AddWithLabel(1, map[string]string{"result": "committed"})
	return nil
}

// Discard drops every write of the transaction. It is a no-op after Commit.
func (t *Tx) Discard() {
	if t.done {
		return
	}
	t.done = true
	defer t.unlock()

	t.tx.Discard()
	metricTransactionCounterVec().AddWithLabel(1, map[string]string{"result": "discarded"})
}

// Transact runs fn against a store whose writes are committed only if fn returns nil.
func (db *MuxDB) Transact(name string, fn func(kv.Store) error) error {
	tx, err := db.Begin(name)
	if err != nil {
		return err
	}
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
