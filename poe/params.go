// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

// Fixed-point precision of the reward distribution ledger.
const PointsShift = 32

// Pagination bounds.
const (
	DefaultMemberLimit    = 10
	MaxMemberLimit        = 30
	DefaultValidatorLimit = 30
	MaxValidatorLimit     = 100
)

// MissedBlocks is the number of blocks an active validator may go without signing before it
// is jailed for being offline.
const MissedBlocks uint64 = 1000

// Storage and query costs charged by contracts.
const (
	SloadGas       uint64 = 200
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	GetBalanceGas  uint64 = 400
	SmartQueryGas  uint64 = 1500
)

// ClampLimit applies the pagination convention: nil selects def, values are clamped to [1, max].
func ClampLimit(limit *uint32, def, max int) int {
	if limit == nil {
		return def
	}
	l := int(*limit)
	if l < 1 {
		return 1
	}
	if l > max {
		return max
	}
	return l
}
