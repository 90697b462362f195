// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// ErrOverflow is returned by checked arithmetic.
var ErrOverflow = errors.New("arithmetic overflow")

var (
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func SafeAdd(x, y uint64) (uint64, error) {
	if z, overflow := math.SafeAdd(x, y); !overflow {
		return z, nil
	}
	return 0, ErrOverflow
}

func SafeSub(x, y uint64) (uint64, error) {
	if z, overflow := math.SafeSub(x, y); !overflow {
		return z, nil
	}
	return 0, ErrOverflow
}

func SafeMul(x, y uint64) (uint64, error) {
	if z, overflow := math.SafeMul(x, y); !overflow {
		return z, nil
	}
	return 0, ErrOverflow
}

// FitsUint128 reports whether 0 <= x < 2^128.
func FitsUint128(x *big.Int) bool {
	return x.Sign() >= 0 && x.Cmp(maxUint128) <= 0
}

// FitsInt128 reports whether -2^127 <= x < 2^127.
func FitsInt128(x *big.Int) bool {
	return x.Cmp(minInt128) >= 0 && x.Cmp(maxInt128) <= 0
}
