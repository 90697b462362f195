// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

//go:build linux

package metrics

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ioCounters are the /proc/self/io fields the default process collector leaves out. The
// byte counters track the storage traffic of the data directory.
var ioCounters = []struct{ field, name, help string }{
	{"syscr", "read_syscalls_total", "Read syscalls issued by the process."},
	{"syscw", "write_syscalls_total", "Write syscalls issued by the process."},
	{"read_bytes", "read_bytes_total", "Bytes the process fetched from storage."},
	{"write_bytes", "write_bytes_total", "Bytes the process sent to storage."},
}

// parseProcIO reads the "name: value" lines of a /proc/[pid]/io file, skipping malformed ones.
func parseProcIO(data string) map[string]uint64 {
	values := make(map[string]uint64)
	for _, line := range strings.Split(data, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			logger.Warn("unable to parse io value", "line", line, "err", err)
			continue
		}
		values[name] = v
	}
	return values
}

type ioCollector struct {
	descs map[string]*prometheus.Desc
}

func (c *ioCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *ioCollector) Collect(ch chan<- prometheus.Metric) {
	data, err := os.ReadFile("/proc/self/io")
	if err != nil {
		return
	}
	values := parseProcIO(string(data))
	for field, d := range c.descs {
		if v, ok := values[field]; ok {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
		}
	}
}

var registerIOOnce sync.Once

func registerIOCollector() {
	registerIOOnce.Do(func() {
		c := &ioCollector{descs: make(map[string]*prometheus.Desc)}
		for _, f := range ioCounters {
			c.descs[f.field] = prometheus.NewDesc(prometheus.BuildFQName(namespace, "process", f.name), f.help, nil, nil)
		}
		prometheus.MustRegister(c)
	})
}
