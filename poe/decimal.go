// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimal is a fixed point decimal used for portions and ratios.
type Decimal struct {
	d decimal.Decimal
}

var (
	ZeroDecimal = Decimal{decimal.Zero}
	OneDecimal  = Decimal{decimal.NewFromInt(1)}
)

// NewDecimal wraps a shopspring decimal in its canonical form, the one its string parses to.
func NewDecimal(d decimal.Decimal) Decimal {
	c, err := decimal.NewFromString(d.String())
	if err != nil {
		return Decimal{d}
	}
	return Decimal{c}
}

// ParseDecimal parses a decimal string such as "0.5".
func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, errors.Wrapf(err, "parse decimal %q", s)
	}
	return NewDecimal(d), nil
}

// MustParseDecimal parses a decimal string, panic on error.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percent returns n/100.
func Percent(n int64) Decimal {
	return NewDecimal(decimal.New(n, -2))
}

func (d Decimal) Decimal() decimal.Decimal { return d.d }
func (d Decimal) String() string           { return d.d.String() }
func (d Decimal) IsZero() bool             { return d.d.IsZero() }
func (d Decimal) Equal(o Decimal) bool     { return d.d.Equal(o.d) }

// IsPortion reports whether 0 <= d <= 1.
func (d Decimal) IsPortion() bool {
	return !d.d.IsNegative() && d.d.LessThanOrEqual(decimal.NewFromInt(1))
}

// MulFloor returns floor(x * d).
func (d Decimal) MulFloor(x uint64) uint64 {
	return d.MulFloorBig(new(big.Int).SetUint64(x)).Uint64()
}

// MulFloorBig returns floor(x * d) for a non-negative x.
func (d Decimal) MulFloorBig(x *big.Int) *big.Int {
	return decimal.NewFromBigInt(x, 0).Mul(d.d).Floor().BigInt()
}

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.d.String()), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	parsed, err := ParseDecimal(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EncodeRLP implements rlp.Encoder, decimals are stored in their canonical string form.
func (d Decimal) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, d.d.String())
}

// DecodeRLP implements rlp.Decoder.
func (d *Decimal) DecodeRLP(s *rlp.Stream) error {
	var str string
	if err := s.Decode(&str); err != nil {
		return err
	}
	parsed, err := ParseDecimal(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
