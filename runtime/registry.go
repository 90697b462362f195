// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/binary"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
)

// Privilege grants a contract access to a privileged chain callback or message.
type Privilege string

const (
	BeginBlocker Privilege = "begin_blocker"
	EndBlocker   Privilege = "end_blocker"
	TokenMinter  Privilege = "token_minter"
)

// ContractInfo describes a deployed contract.
type ContractInfo struct {
	Address poe.Address `rlp:"-"`
	Code    string
	Creator poe.Address
	Label   string
}

type registry struct {
	contracts  *storage.Map[poe.Address, ContractInfo]
	nonce      *storage.Item[uint64]
	privileged func(p Privilege) *storage.Item[[]poe.Address]
}

func newRegistry(sctx *storage.Context) *registry {
	return &registry{
		contracts: storage.NewMap[poe.Address, ContractInfo](sctx, "contracts"),
		nonce:     storage.NewItem[uint64](sctx, "nonce"),
		privileged: func(p Privilege) *storage.Item[[]poe.Address] {
			return storage.NewItem[[]poe.Address](sctx, "privileged/"+string(p))
		},
	}
}

// contractAddress derives the address of the nonce-th contract.
func contractAddress(creator poe.Address, code string, nonce uint64) poe.Address {
	h := poe.Blake2b(creator.Bytes(), []byte(code), binary.BigEndian.AppendUint64(nil, nonce))
	return poe.BytesToAddress(h[12:])
}

func (r *registry) create(creator poe.Address, code, label string) (poe.Address, error) {
	nonce, err := r.nonce.GetOr(0)
	if err != nil {
		return poe.Address{}, err
	}
	if err := r.nonce.Save(nonce + 1); err != nil {
		return poe.Address{}, err
	}
	addr := contractAddress(creator, code, nonce)
	if ok, err := r.contracts.Has(addr); err != nil {
		return poe.Address{}, err
	} else if ok {
		return poe.Address{}, reverts.InvariantViolationf("contract %s exists", addr)
	}
	return addr, r.contracts.Save(addr, ContractInfo{Code: code, Creator: creator, Label: label})
}

func (r *registry) get(addr poe.Address) (ContractInfo, error) {
	info, ok, err := r.contracts.Get(addr)
	if err != nil {
		return info, err
	}
	if !ok {
		return info, reverts.NotFoundf("no contract at %s", addr)
	}
	info.Address = addr
	return info, nil
}

func (r *registry) list() ([]ContractInfo, error) {
	var infos []ContractInfo
	err := r.contracts.Range(kv.Range{}, storage.Ascending, func(key []byte, info ContractInfo) (bool, error) {
		info.Address = poe.BytesToAddress(key)
		infos = append(infos, info)
		return true, nil
	})
	return infos, err
}

func (r *registry) holders(p Privilege) ([]poe.Address, error) {
	return r.privileged(p).GetOr(nil)
}

func (r *registry) hasPrivilege(addr poe.Address, p Privilege) (bool, error) {
	holders, err := r.holders(p)
	if err != nil {
		return false, err
	}
	for _, h := range holders {
		if h == addr {
			return true, nil
		}
	}
	return false, nil
}

func (r *registry) grant(addr poe.Address, p Privilege) error {
	if _, err := r.get(addr); err != nil {
		return err
	}
	ok, err := r.hasPrivilege(addr, p)
	if err != nil || ok {
		return err
	}
	holders, err := r.holders(p)
	if err != nil {
		return err
	}
	return r.privileged(p).Save(append(holders, addr))
}
