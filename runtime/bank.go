// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
)

// bank keeps the native token balances and supplies.
type bank struct {
	balances *storage.Map[storage.RawKey, *big.Int]
	supplies *storage.Map[storage.RawKey, *big.Int]
}

func newBank(sctx *storage.Context) *bank {
	return &bank{
		balances: storage.NewMap[storage.RawKey, *big.Int](sctx, "balances"),
		supplies: storage.NewMap[storage.RawKey, *big.Int](sctx, "supplies"),
	}
}

func balanceKey(addr poe.Address, denom string) storage.RawKey {
	return storage.Join(addr, storage.RawKey(denom))
}

func load(m *storage.Map[storage.RawKey, *big.Int], key storage.RawKey) (*big.Int, error) {
	v, ok, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	return v, nil
}

func store(m *storage.Map[storage.RawKey, *big.Int], key storage.RawKey, v *big.Int) error {
	if v.Sign() == 0 {
		return m.Remove(key)
	}
	return m.Save(key, v)
}

func (b *bank) balance(addr poe.Address, denom string) (*big.Int, error) {
	return load(b.balances, balanceKey(addr, denom))
}

func (b *bank) supply(denom string) (*big.Int, error) {
	return load(b.supplies, storage.RawKey(denom))
}

func (b *bank) add(addr poe.Address, c poe.Coin) error {
	bal, err := b.balance(addr, c.Denom)
	if err != nil {
		return err
	}
	return store(b.balances, balanceKey(addr, c.Denom), bal.Add(bal, c.Amount))
}

func (b *bank) sub(addr poe.Address, c poe.Coin) error {
	bal, err := b.balance(addr, c.Denom)
	if err != nil {
		return err
	}
	if bal.Cmp(c.Amount) < 0 {
		return reverts.InvalidParameterf("insufficient funds: %s has %s%s, needs %s", addr, bal, c.Denom, c)
	}
	return store(b.balances, balanceKey(addr, c.Denom), bal.Sub(bal, c.Amount))
}

func validCoins(coins poe.Coins) error {
	for _, c := range coins {
		if c.Denom == "" || c.Amount == nil || c.Amount.Sign() < 0 {
			return reverts.InvalidParameterf("invalid coin %s", c)
		}
	}
	return nil
}

func (b *bank) transfer(from, to poe.Address, coins poe.Coins) error {
	if err := validCoins(coins); err != nil {
		return err
	}
	for _, c := range coins {
		if c.Amount.Sign() == 0 {
			continue
		}
		if err := b.sub(from, c); err != nil {
			return err
		}
		if err := b.add(to, c); err != nil {
			return err
		}
	}
	return nil
}

func (b *bank) adjustSupply(c poe.Coin, mint bool) error {
	s, err := b.supply(c.Denom)
	if err != nil {
		return err
	}
	if mint {
		s.Add(s, c.Amount)
	} else {
		s.Sub(s, c.Amount)
	}
	return store(b.supplies, storage.RawKey(c.Denom), s)
}

func (b *bank) mint(to poe.Address, coins poe.Coins) error {
	if err := validCoins(coins); err != nil {
		return err
	}
	for _, c := range coins {
		if err := b.add(to, c); err != nil {
			return err
		}
		if err := b.adjustSupply(c, true); err != nil {
			return err
		}
	}
	return nil
}

func (b *bank) burn(from poe.Address, coins poe.Coins) error {
	if err := validCoins(coins); err != nil {
		return err
	}
	for _, c := range coins {
		if err := b.sub(from, c); err != nil {
			return err
		}
		if err := b.adjustSupply(c, false); err != nil {
			return err
		}
	}
	return nil
}
