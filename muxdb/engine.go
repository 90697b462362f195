// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/poe/kv"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}
)

// leveldbReader is implemented by both *leveldb.DB and *leveldb.Transaction.
type leveldbReader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type leveldbWriter interface {
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
}

// levelStore adapts a leveldb reader/writer to kv.Store.
type levelStore struct {
	r leveldbReader
	w leveldbWriter
}

func (s *levelStore) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (s *levelStore) Get(key []byte) ([]byte, error) {
	val, err := s.r.Get(key, &readOpt)
	// val will be []byte{} if error occurs, which is not expected
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *levelStore) Has(key []byte) (bool, error) {
	return s.r.Has(key, &readOpt)
}

func (s *levelStore) Put(key, val []byte) error {
	if s.w == nil {
		return errReadOnly
	}
	return s.w.Put(key, val, &writeOpt)
}

func (s *levelStore) Delete(key []byte) error {
	if s.w == nil {
		return errReadOnly
	}
	return s.w.Delete(key, &writeOpt)
}

func (s *levelStore) Iterate(r kv.Range) kv.Iterator {
	return s.r.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, &scanOpt)
}
