// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpiration(t *testing.T) {
	block := Block{Height: 100, Time: 1000}

	assert.False(t, Expiration{}.IsExpired(block))
	assert.True(t, ExpiresAtHeight(100).IsExpired(block))
	assert.False(t, ExpiresAtHeight(101).IsExpired(block))
	assert.True(t, ExpiresAtTime(999).IsExpired(block))
	assert.False(t, ExpiresAtTime(1001).IsExpired(block))

	assert.Equal(t, ExpiresAtHeight(110), Blocks(10).After(block))
	assert.Equal(t, ExpiresAtTime(1060), Seconds(60).After(block))
	assert.False(t, Duration{}.IsValid())
}

func TestExpirationKeyOrder(t *testing.T) {
	assert.Equal(t, -1, bytes.Compare(ExpiresAtTime(5).Key(), ExpiresAtTime(256).Key()))
	assert.Equal(t, -1, bytes.Compare(ExpiresAtHeight(1<<40).Key(), ExpiresAtTime(0).Key()))
}

func TestClampLimit(t *testing.T) {
	zero, fifty, five := uint32(0), uint32(50), uint32(5)
	assert.Equal(t, DefaultMemberLimit, ClampLimit(nil, DefaultMemberLimit, MaxMemberLimit))
	assert.Equal(t, 1, ClampLimit(&zero, DefaultMemberLimit, MaxMemberLimit))
	assert.Equal(t, MaxMemberLimit, ClampLimit(&fifty, DefaultMemberLimit, MaxMemberLimit))
	assert.Equal(t, 5, ClampLimit(&five, DefaultMemberLimit, MaxMemberLimit))
}
