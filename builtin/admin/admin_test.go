// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
)

func newAdmin(t *testing.T) *Admin {
	db := muxdb.NewMem()
	tx, err := db.Begin("admin")
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Discard()
		db.Close()
	})
	return New(storage.NewContext(tx, nil))
}

func TestAdmin(t *testing.T) {
	a := newAdmin(t)
	alice := poe.BytesToAddress([]byte("alice"))
	bob := poe.BytesToAddress([]byte("bob"))

	cur, err := a.Get()
	assert.NoError(t, err)
	assert.Nil(t, cur)
	assert.True(t, errors.Is(a.Assert(alice), reverts.ErrUnauthorized))

	assert.NoError(t, a.Set(&alice))
	assert.NoError(t, a.Assert(alice))

	err = a.Update(bob, &bob)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))

	assert.NoError(t, a.Update(alice, &bob))
	ok, err := a.IsAdmin(bob)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, a.Update(bob, nil))
	cur, err = a.Get()
	assert.NoError(t, err)
	assert.Nil(t, cur)
}
