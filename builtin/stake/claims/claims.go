// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package claims keeps unbonding tokens until their release.
package claims

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
)

// Claim is an amount of unbonded tokens of Addr released at ReleaseAt.
type Claim struct {
	Addr           poe.Address
	Amount         *big.Int
	ReleaseAt      poe.Expiration
	CreationHeight uint64
}

// Release is the amount paid out to an address.
type Release struct {
	Addr   poe.Address
	Amount *big.Int
}

// Claims stores claims keyed (addr, release), indexed by (release, addr).
type Claims struct {
	claims    *storage.Map[storage.RawKey, Claim]
	byRelease *storage.Map[storage.RawKey, poe.Address]
}

func New(sctx *storage.Context) *Claims {
	return &Claims{
		claims:    storage.NewMap[storage.RawKey, Claim](sctx, "claims"),
		byRelease: storage.NewMap[storage.RawKey, poe.Address](sctx, "claims-by-release"),
	}
}

func claimKey(addr poe.Address, releaseAt poe.Expiration) storage.RawKey {
	return append(addr.Bytes(), releaseAt.Key()...)
}

func releaseKey(releaseAt poe.Expiration, addr poe.Address) storage.RawKey {
	return append(releaseAt.Key(), addr.Bytes()...)
}

// Create adds a claim, merging it into an existing claim with the same release.
func (c *Claims) Create(addr poe.Address, amount *big.Int, releaseAt poe.Expiration, height uint64) error {
	key := claimKey(addr, releaseAt)
	claim, ok, err := c.claims.Get(key)
	if err != nil {
		return err
	}
	if ok {
		claim.Amount = new(big.Int).Add(claim.Amount, amount)
	} else {
		claim = Claim{Addr: addr, Amount: new(big.Int).Set(amount), ReleaseAt: releaseAt, CreationHeight: height}
		if err := c.byRelease.Save(releaseKey(releaseAt, addr), addr); err != nil {
			return err
		}
	}
	return c.claims.Save(key, claim)
}

func (c *Claims) remove(claim Claim) error {
	if err := c.claims.Remove(claimKey(claim.Addr, claim.ReleaseAt)); err != nil {
		return err
	}
	return c.byRelease.Remove(releaseKey(claim.ReleaseAt, claim.Addr))
}

func (c *Claims) all(addr poe.Address) ([]Claim, error) {
	var claims []Claim
	err := c.claims.Range(kv.PrefixRange(addr.Bytes()), storage.Ascending, func(_ []byte, claim Claim) (bool, error) {
		claims = append(claims, claim)
		return true, nil
	})
	return claims, err
}

// Claim releases every matured claim of addr and returns the total.
func (c *Claims) Claim(addr poe.Address, block poe.Block) (*big.Int, error) {
	claims, err := c.all(addr)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, claim := range claims {
		if !claim.ReleaseAt.IsExpired(block) {
			continue
		}
		if err := c.remove(claim); err != nil {
			return nil, err
		}
		total.Add(total, claim.Amount)
	}
	return total, nil
}

// ReleaseExpired releases up to limit matured claims of any address, oldest first. Releases
// of the same address are merged, in order of first appearance.
func (c *Claims) ReleaseExpired(block poe.Block, limit int) ([]Release, error) {
	var matured []Claim
	for _, kind := range []poe.ExpirationKind{poe.AtHeight, poe.AtTime} {
		var addrs []poe.Address
		var keys [][]byte
		err := c.byRelease.Range(kv.PrefixRange([]byte{byte(kind)}), storage.Ascending, func(key []byte, addr poe.Address) (bool, error) {
			if len(matured)+len(addrs) >= limit {
				return false, nil
			}
			releaseAt := poe.Expiration{Kind: kind, Value: binary.BigEndian.Uint64(key[1:9])}
			if !releaseAt.IsExpired(block) {
				return false, nil
			}
			addrs = append(addrs, addr)
			keys = append(keys, key)
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		for i, addr := range addrs {
			claim, err := c.claims.Load(claimKey(addr, poe.Expiration{Kind: kind, Value: binary.BigEndian.Uint64(keys[i][1:9])}))
			if err != nil {
				return nil, err
			}
			matured = append(matured, claim)
		}
	}

	var (
		releases []Release
		index    = make(map[poe.Address]int)
	)
	for _, claim := range matured {
		if err := c.remove(claim); err != nil {
			return nil, err
		}
		i, ok := index[claim.Addr]
		if !ok {
			i = len(releases)
			index[claim.Addr] = i
			releases = append(releases, Release{Addr: claim.Addr, Amount: new(big.Int)})
		}
		releases[i].Amount.Add(releases[i].Amount, claim.Amount)
	}
	return releases, nil
}

// Slash cuts every claim of addr by portion and returns the total cut.
func (c *Claims) Slash(addr poe.Address, portion poe.Decimal) (*big.Int, error) {
	claims, err := c.all(addr)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, claim := range claims {
		cut := portion.MulFloorBig(claim.Amount)
		if cut.Sign() == 0 {
			continue
		}
		total.Add(total, cut)
		claim.Amount = new(big.Int).Sub(claim.Amount, cut)
		if claim.Amount.Sign() == 0 {
			err = c.remove(claim)
		} else {
			err = c.claims.Save(claimKey(claim.Addr, claim.ReleaseAt), claim)
		}
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

// List returns the claims of addr ordered by release, starting after startAfter.
func (c *Claims) List(addr poe.Address, startAfter *poe.Expiration, limit int) ([]Claim, error) {
	r := kv.PrefixRange(addr.Bytes())
	if startAfter != nil {
		r.Start = storage.After(claimKey(addr, *startAfter))
	}
	var claims []Claim
	err := c.claims.Range(r, storage.Ascending, func(_ []byte, claim Claim) (bool, error) {
		claims = append(claims, claim)
		return len(claims) < limit, nil
	})
	return claims, err
}
