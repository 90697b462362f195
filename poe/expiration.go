// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"encoding/binary"
	"fmt"
)

// Block is the block an invocation executes in. Time is in unix seconds.
type Block struct {
	Height uint64
	Time   uint64
}

type ExpirationKind uint8

const (
	Never ExpirationKind = iota
	AtHeight
	AtTime
)

// Expiration is a point in block height or block time.
type Expiration struct {
	Kind  ExpirationKind
	Value uint64
}

func ExpiresAtHeight(h uint64) Expiration { return Expiration{Kind: AtHeight, Value: h} }
func ExpiresAtTime(t uint64) Expiration   { return Expiration{Kind: AtTime, Value: t} }

// IsExpired returns true once the block reached the expiration.
func (e Expiration) IsExpired(b Block) bool {
	switch e.Kind {
	case AtHeight:
		return b.Height >= e.Value
	case AtTime:
		return b.Time >= e.Value
	default:
		return false
	}
}

// Key is the sortable storage representation, expirations of the same kind sort chronologically.
func (e Expiration) Key() []byte {
	key := make([]byte, 9)
	key[0] = byte(e.Kind)
	binary.BigEndian.PutUint64(key[1:], e.Value)
	return key
}

func (e Expiration) String() string {
	switch e.Kind {
	case AtHeight:
		return fmt.Sprintf("height:%d", e.Value)
	case AtTime:
		return fmt.Sprintf("time:%d", e.Value)
	default:
		return "never"
	}
}

type DurationKind uint8

const (
	HeightDuration DurationKind = iota + 1
	TimeDuration
)

// Duration is a span in blocks or seconds.
type Duration struct {
	Kind  DurationKind
	Value uint64
}

func Blocks(n uint64) Duration  { return Duration{Kind: HeightDuration, Value: n} }
func Seconds(n uint64) Duration { return Duration{Kind: TimeDuration, Value: n} }

// After returns the expiration reached this duration after the given block.
func (d Duration) After(b Block) Expiration {
	switch d.Kind {
	case HeightDuration:
		return ExpiresAtHeight(b.Height + d.Value)
	case TimeDuration:
		return ExpiresAtTime(b.Time + d.Value)
	default:
		return Expiration{}
	}
}

func (d Duration) IsValid() bool {
	return d.Kind == HeightDuration || d.Kind == TimeDuration
}

func (d Duration) String() string {
	switch d.Kind {
	case HeightDuration:
		return fmt.Sprintf("%d blocks", d.Value)
	case TimeDuration:
		return fmt.Sprintf("%ds", d.Value)
	default:
		return "invalid"
	}
}
