// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"
)

type Key interface {
	Bytes() []byte
}

// RawKey is a key made of arbitrary bytes.
type RawKey []byte

func (k RawKey) Bytes() []byte { return k }

// Uint64Key is a big endian encoded uint64, so keys sort numerically.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// Join concatenates key parts. Parts other than the last must have a fixed length.
func Join(parts ...Key) RawKey {
	var out []byte
	for _, p := range parts {
		out = append(out, p.Bytes()...)
	}
	return out
}

// After returns the smallest key sorting after k.
func After(k []byte) []byte {
	return append(append(make([]byte, 0, len(k)+1), k...), 0)
}
