// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/vechain/poe/metrics"
)

var metricLookups = metrics.LazyLoadCounterVec("cache_lookup_count", []string{"cache", "result"})

// Stats counts the lookups of a named cache. Named caches also report them as metrics.
type Stats struct {
	name      string
	hit, miss atomic.Int64
}

func (s *Stats) record(counter *atomic.Int64, result string) {
	counter.Add(1)
	if s.name != "" {
		metricLookups().AddWithLabel(1, map[string]string{"cache": s.name, "result": result})
	}
}

// Hit records a hit.
func (s *Stats) Hit() { s.record(&s.hit, "hit") }

// Miss records a miss.
func (s *Stats) Miss() { s.record(&s.miss, "miss") }

// Lookups returns the number of hits and misses so far.
func (s *Stats) Lookups() (hit, miss int64) {
	return s.hit.Load(), s.miss.Load()
}

// HitRate is hits over lookups, 0 before the first lookup.
func (s *Stats) HitRate() float64 {
	hit, miss := s.Lookups()
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}
