// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

import (
	"github.com/pkg/errors"

	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// remote is a Source backed by queries to another contract, each charged as a smart query.
type remote struct {
	querier  xenv.Querier
	contract poe.Address
	useGas   func(uint64)
}

// NewRemote returns a Source querying the group contract at addr.
func NewRemote(querier xenv.Querier, addr poe.Address, useGas func(uint64)) Source {
	return &remote{querier: querier, contract: addr, useGas: useGas}
}

func query[T any](r *remote, q any) (T, error) {
	var zero T
	if r.useGas != nil {
		r.useGas(poe.SmartQueryGas)
	}
	res, err := r.querier.QueryContract(r.contract, q)
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.Errorf("unexpected %T response to %T from %s", res, q, r.contract)
	}
	return v, nil
}

func (r *remote) TotalWeight() (uint64, error) {
	return query[uint64](r, TotalWeightQuery{})
}

func (r *remote) IsMember(addr poe.Address) (*uint64, error) {
	return query[*uint64](r, MemberQuery{Addr: addr})
}

func (r *remote) WasMemberAt(addr poe.Address, height uint64) (*uint64, error) {
	return query[*uint64](r, MemberQuery{Addr: addr, AtHeight: &height})
}

func (r *remote) ListMembers(startAfter *poe.Address, limit *uint32) ([]Member, error) {
	return query[[]Member](r, ListMembersQuery{StartAfter: startAfter, Limit: limit})
}

func (r *remote) ListMembersByWeight(startAfter *Member, limit *uint32) ([]Member, error) {
	return query[[]Member](r, ListMembersByWeightQuery{StartAfter: startAfter, Limit: limit})
}
