// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket is a key prefix carving a logical store out of a shared one.
type Bucket string

// Key returns the bucket prefixed key in a newly allocated slice.
func (b Bucket) Key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

// NewStore returns the view of src restricted to the bucket, with the prefix hidden from
// keys going in and out.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{prefix: b, src: src}
}

type bucketStore struct {
	prefix Bucket
	src    Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.prefix.Key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.prefix.Key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.prefix.Key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.prefix.Key(key)) }

// Iterate walks r within the bucket. An empty limit stops at the end of the bucket.
func (s *bucketStore) Iterate(r Range) Iterator {
	limit := PrefixRange([]byte(s.prefix)).Limit
	if len(r.Limit) > 0 {
		limit = s.prefix.Key(r.Limit)
	}
	return &bucketIterator{
		Iterator: s.src.Iterate(Range{Start: s.prefix.Key(r.Start), Limit: limit}),
		strip:    len(s.prefix),
	}
}

type bucketIterator struct {
	Iterator
	strip int
}

func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.strip:] }
