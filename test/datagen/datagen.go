// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random test data.
package datagen

import (
	"crypto/rand"
	mathrand "math/rand/v2"

	"github.com/vechain/poe/poe"
)

func RandAddress() (addr poe.Address) {
	rand.Read(addr[:])
	return
}

func RandPubKey() (pk poe.PubKey) {
	rand.Read(pk[:])
	return
}

func RandBytes32() (b poe.Bytes32) {
	rand.Read(b[:])
	return
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

func RandUint64N(n uint64) uint64 {
	return mathrand.N(n) //#nosec G404
}
