// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/stackedmap"
)

func get(t *testing.T, sm *stackedmap.StackedMap, key string) []interface{} {
	v, err := sm.Get([]byte(key))
	if sm.IsNotFound(err) {
		return []interface{}{nil, false}
	}
	require.NoError(t, err)
	return []interface{}{string(v), true}
}

func M(a ...interface{}) []interface{} {
	return a
}

func TestStackedMap(t *testing.T) {
	db := muxdb.NewMem()
	tx, err := db.Begin("stacked")
	require.NoError(t, err)
	defer db.Close()
	defer tx.Discard()

	require.NoError(t, tx.Put([]byte("foo"), []byte("bar")))
	sm := stackedmap.New(tx)

	tests := []struct {
		f        func()
		putKey   string
		putValue string
		getKey   string
		want     []interface{}
	}{
		{func() {}, "", "", "foo", M("bar", true)},
		{func() {}, "foo", "baz", "foo", M("baz", true)},
		{func() {}, "foo", "baz1", "foo", M("baz1", true)},
		{func() {}, "bar", "qux", "bar", M("qux", true)},
		{func() { require.NoError(t, sm.RevertTo(2)) }, "", "", "bar", M(nil, false)},
		{func() {}, "", "", "foo", M("baz1", true)},
		{func() { require.NoError(t, sm.RevertTo(0)) }, "", "", "foo", M("bar", true)},
	}
	for _, tt := range tests {
		tt.f()
		if tt.putKey != "" {
			require.NoError(t, sm.Put([]byte(tt.putKey), []byte(tt.putValue)))
		}
		assert.Equal(t, tt.want, get(t, sm, tt.getKey))
	}
	assert.Equal(t, 0, sm.Depth())
}

func TestRevertDelete(t *testing.T) {
	db := muxdb.NewMem()
	tx, err := db.Begin("stacked")
	require.NoError(t, err)
	defer db.Close()
	defer tx.Discard()

	sm := stackedmap.New(tx)
	require.NoError(t, sm.Put([]byte("a"), []byte("1")))
	rev := sm.Snapshot()
	require.NoError(t, sm.Delete([]byte("a")))
	require.NoError(t, sm.Put([]byte("b"), []byte("2")))
	assert.Equal(t, M(nil, false), get(t, sm, "a"))

	require.NoError(t, sm.RevertTo(rev))
	assert.Equal(t, M("1", true), get(t, sm, "a"))
	assert.Equal(t, M(nil, false), get(t, sm, "b"))
	assert.Len(t, sm.Journal(), 1)

	assert.Error(t, sm.RevertTo(5))
}
