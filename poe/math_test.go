// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeArithmetic(t *testing.T) {
	v, err := SafeAdd(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	_, err = SafeAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = SafeSub(1, 2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = SafeMul(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestFits128(t *testing.T) {
	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	assert.False(t, FitsUint128(two128))
	assert.True(t, FitsUint128(new(big.Int).Sub(two128, big.NewInt(1))))
	assert.False(t, FitsUint128(big.NewInt(-1)))

	two127 := new(big.Int).Lsh(big.NewInt(1), 127)
	assert.False(t, FitsInt128(two127))
	assert.True(t, FitsInt128(new(big.Int).Neg(two127)))
	assert.False(t, FitsInt128(new(big.Int).Sub(new(big.Int).Neg(two127), big.NewInt(1))))
}
