// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

//go:build linux

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProcIO(t *testing.T) {
	values := parseProcIO("rchar: 10\nsyscr: 3\nsyscw: 4\nread_bytes: 4096\nwrite_bytes: nope\n\n")
	assert.Equal(t, map[string]uint64{"rchar": 10, "syscr": 3, "syscw": 4, "read_bytes": 4096}, values)
}
