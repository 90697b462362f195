// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// PubKey is an ed25519 consensus public key.
type PubKey [32]byte

// ConsensusAddress is the 20 byte address the consensus engine uses to identify a validator.
type ConsensusAddress [20]byte

func (p PubKey) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

func (p PubKey) Bytes() []byte {
	return p[:]
}

func (p PubKey) IsZero() bool {
	return p == PubKey{}
}

func (p PubKey) Compare(other PubKey) int {
	return bytes.Compare(p[:], other[:])
}

// Address returns the first 20 bytes of sha256(pubkey), the consensus address format
// evidence and votes refer to.
func (p PubKey) Address() ConsensusAddress {
	sum := sha256.Sum256(p[:])
	var addr ConsensusAddress
	copy(addr[:], sum[:20])
	return addr
}

func (p PubKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PubKey) UnmarshalText(text []byte) error {
	b, err := ParseBytes32(string(text))
	if err != nil {
		return err
	}
	*p = PubKey(b)
	return nil
}

func (c ConsensusAddress) String() string {
	return "0x" + hex.EncodeToString(c[:])
}
