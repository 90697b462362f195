// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poe

import (
	"fmt"
	"math/big"
)

// Coin is an amount of a native token.
type Coin struct {
	Denom  string
	Amount *big.Int
}

func NewCoin(amount int64, denom string) Coin {
	return Coin{Denom: denom, Amount: big.NewInt(amount)}
}

func (c Coin) String() string {
	if c.Amount == nil {
		return "0" + c.Denom
	}
	return fmt.Sprintf("%s%s", c.Amount.String(), c.Denom)
}

func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

// Coins is a list of coins, usually attached to a message.
type Coins []Coin

// AmountOf sums the amount of the given denom.
func (cs Coins) AmountOf(denom string) *big.Int {
	total := new(big.Int)
	for _, c := range cs {
		if c.Denom == denom && c.Amount != nil {
			total.Add(total, c.Amount)
		}
	}
	return total
}
