// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed LRU cache on top of golang-lru, recording hit/miss stats.
type LRU[K comparable, V any] struct {
	cache *lru.Cache
	Stats
}

// NewLRU creates a LRU cache whose lookups are reported under name.
// maxSize should be > 0, or an error returned.
func NewLRU[K comparable, V any](name string, maxSize int) (*LRU[K, V], error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: cache, Stats: Stats{name: name}}, nil
}

// Get returns the cached value for key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.Hit()
		return v.(V), true
	}
	l.Miss()
	var zero V
	return zero, false
}

// Add caches a value.
func (l *LRU[K, V]) Add(key K, val V) {
	l.cache.Add(key, val)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// GetOrLoad first try to get from cache, do load if missed.
func (l *LRU[K, V]) GetOrLoad(key K, loader func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		var zero V
		return zero, err
	}

	l.cache.Add(key, v)
	return v, nil
}
