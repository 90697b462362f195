// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixer

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

// precision of the intermediate results, in decimal digits.
const precision = 24

// saturation is the sigmoid input from which the output is taken as 1.
var saturation = decimal.NewFromInt(100)

// Function mixes a stake weight and an engagement weight into a reward weight.
type Function interface {
	Mix(stake, engagement uint64) (uint64, error)
	Validate() error
}

// GeometricMean is floor(sqrt(stake * engagement)).
type GeometricMean struct{}

// Sigmoid is max_points * (2 / (1 + e^(-s * (stake * engagement)^p)) - 1).
type Sigmoid struct {
	MaxPoints uint64
	P         poe.Decimal
	S         poe.Decimal
}

// SigmoidSqrt is Sigmoid with p = 0.5.
type SigmoidSqrt struct {
	MaxPoints uint64
	S         poe.Decimal
}

// AlgebraicSigmoid is max_points * y / sqrt(a + y^2), with y = s * (stake * engagement)^p.
type AlgebraicSigmoid struct {
	MaxPoints uint64
	A         poe.Decimal
	P         poe.Decimal
	S         poe.Decimal
}

func (GeometricMean) Validate() error { return nil }

func (GeometricMean) Mix(stake, engagement uint64) (uint64, error) {
	product := new(big.Int).Mul(new(big.Int).SetUint64(stake), new(big.Int).SetUint64(engagement))
	return product.Sqrt(product).Uint64(), nil
}

func (f Sigmoid) Validate() error {
	if f.MaxPoints == 0 {
		return reverts.InvalidParameterf("sigmoid max points must be positive")
	}
	if !f.P.Decimal().IsPositive() || f.P.Decimal().GreaterThan(decimal.NewFromInt(1)) {
		return reverts.InvalidParameterf("sigmoid p %s not in (0, 1]", f.P)
	}
	if !f.S.Decimal().IsPositive() {
		return reverts.InvalidParameterf("sigmoid s %s must be positive", f.S)
	}
	return nil
}

func (f Sigmoid) Mix(stake, engagement uint64) (uint64, error) {
	x, err := pow(product(stake, engagement), f.P.Decimal())
	if err != nil {
		return 0, err
	}
	z := f.S.Decimal().Mul(x)
	if z.GreaterThanOrEqual(saturation) {
		return f.MaxPoints, nil
	}
	ez, err := z.ExpTaylor(precision)
	if err != nil {
		return 0, reverts.Overflowf("sigmoid: %v", err)
	}
	// 2 / (1 + e^-z) - 1 == (e^z - 1) / (e^z + 1)
	one := decimal.NewFromInt(1)
	ratio := ez.Sub(one).DivRound(ez.Add(one), precision)
	return floorMul(f.MaxPoints, ratio), nil
}

func (f SigmoidSqrt) sigmoid() Sigmoid {
	return Sigmoid{MaxPoints: f.MaxPoints, P: poe.NewDecimal(decimal.New(5, -1)), S: f.S}
}

func (f SigmoidSqrt) Validate() error {
	return f.sigmoid().Validate()
}

func (f SigmoidSqrt) Mix(stake, engagement uint64) (uint64, error) {
	return f.sigmoid().Mix(stake, engagement)
}

func (f AlgebraicSigmoid) Validate() error {
	if f.MaxPoints == 0 {
		return reverts.InvalidParameterf("algebraic sigmoid max points must be positive")
	}
	if !f.A.Decimal().IsPositive() {
		return reverts.InvalidParameterf("algebraic sigmoid a %s must be positive", f.A)
	}
	if !f.P.Decimal().IsPositive() || f.P.Decimal().GreaterThan(decimal.NewFromInt(1)) {
		return reverts.InvalidParameterf("algebraic sigmoid p %s not in (0, 1]", f.P)
	}
	if !f.S.Decimal().IsPositive() {
		return reverts.InvalidParameterf("algebraic sigmoid s %s must be positive", f.S)
	}
	return nil
}

func (f AlgebraicSigmoid) Mix(stake, engagement uint64) (uint64, error) {
	x, err := pow(product(stake, engagement), f.P.Decimal())
	if err != nil {
		return 0, err
	}
	y := f.S.Decimal().Mul(x)
	denom, err := pow(f.A.Decimal().Add(y.Mul(y)), decimal.New(5, -1))
	if err != nil {
		return 0, err
	}
	return floorMul(f.MaxPoints, y.DivRound(denom, precision)), nil
}

func product(stake, engagement uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).Mul(new(big.Int).SetUint64(stake), new(big.Int).SetUint64(engagement)), 0)
}

// pow computes x^p for x >= 0 as e^(p * ln x).
func pow(x, p decimal.Decimal) (decimal.Decimal, error) {
	if x.IsZero() {
		return decimal.Zero, nil
	}
	ln, err := x.Ln(precision)
	if err != nil {
		return decimal.Zero, reverts.InvalidParameterf("ln(%s): %v", x, err)
	}
	exp := ln.Mul(p)
	if exp.IsNegative() {
		r, err := exp.Neg().ExpTaylor(precision)
		if err != nil {
			return decimal.Zero, reverts.Overflowf("pow: %v", err)
		}
		return decimal.NewFromInt(1).DivRound(r, precision), nil
	}
	r, err := exp.ExpTaylor(precision)
	if err != nil {
		return decimal.Zero, reverts.Overflowf("pow: %v", err)
	}
	return r, nil
}

// floorMul returns floor(max * ratio) for ratio in [0, 1].
func floorMul(max uint64, ratio decimal.Decimal) uint64 {
	if ratio.IsNegative() {
		return 0
	}
	r := decimal.NewFromBigInt(new(big.Int).SetUint64(max), 0).Mul(ratio).Floor().BigInt()
	if !r.IsUint64() || r.Uint64() > max {
		return max
	}
	return r.Uint64()
}
