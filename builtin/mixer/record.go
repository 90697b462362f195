// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixer

import (
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

type functionKind uint8

const (
	geometricMean functionKind = iota + 1
	sigmoid
	sigmoidSqrt
	algebraicSigmoid
)

// functionRecord is the stored form of a Function.
type functionRecord struct {
	Kind      functionKind
	MaxPoints uint64
	A         poe.Decimal
	P         poe.Decimal
	S         poe.Decimal
}

func recordOf(f Function) (functionRecord, error) {
	switch f := f.(type) {
	case GeometricMean:
		return functionRecord{Kind: geometricMean}, nil
	case Sigmoid:
		return functionRecord{Kind: sigmoid, MaxPoints: f.MaxPoints, P: f.P, S: f.S}, nil
	case SigmoidSqrt:
		return functionRecord{Kind: sigmoidSqrt, MaxPoints: f.MaxPoints, S: f.S}, nil
	case AlgebraicSigmoid:
		return functionRecord{Kind: algebraicSigmoid, MaxPoints: f.MaxPoints, A: f.A, P: f.P, S: f.S}, nil
	default:
		return functionRecord{}, reverts.InvalidParameterf("unknown mixing function %T", f)
	}
}

func (r functionRecord) function() (Function, error) {
	switch r.Kind {
	case geometricMean:
		return GeometricMean{}, nil
	case sigmoid:
		return Sigmoid{MaxPoints: r.MaxPoints, P: r.P, S: r.S}, nil
	case sigmoidSqrt:
		return SigmoidSqrt{MaxPoints: r.MaxPoints, S: r.S}, nil
	case algebraicSigmoid:
		return AlgebraicSigmoid{MaxPoints: r.MaxPoints, A: r.A, P: r.P, S: r.S}, nil
	default:
		return nil, reverts.InvariantViolationf("unknown mixing function kind %d", r.Kind)
	}
}
