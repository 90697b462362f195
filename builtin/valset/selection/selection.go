// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package selection computes the active validator set from a weighted group and the diff
// reported to the consensus engine.
package selection

import (
	"sort"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

// ValidatorInfo is a member of the active set.
type ValidatorInfo struct {
	Operator poe.Address
	PubKey   poe.PubKey
	Power    uint64
}

// Jailer reports whether an operator may not validate.
type Jailer interface {
	IsJailed(operator poe.Address) (bool, error)
}

// PubKeys resolves the consensus key an operator registered, nil if none.
type PubKeys interface {
	PubKey(operator poe.Address) (*poe.PubKey, error)
}

// Params bound the active set.
type Params struct {
	MinWeight     uint64
	MaxValidators uint32
	// Scaling multiplies weights into consensus power, zero means one.
	Scaling uint32
}

// ComputeActiveSet walks source by descending weight and keeps up to MaxValidators members
// with at least MinWeight, a registered key and no jail.
func ComputeActiveSet(src group.Source, jail Jailer, keys PubKeys, params Params) ([]ValidatorInfo, error) {
	var (
		set   []ValidatorInfo
		after *group.Member
		limit = uint32(poe.MaxMemberLimit)
		want  = int(params.MaxValidators)
	)
	scaling := uint64(params.Scaling)
	if scaling == 0 {
		scaling = 1
	}
	for len(set) < want {
		page, err := src.ListMembersByWeight(after, &limit)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			if m.Weight < params.MinWeight {
				return set, nil
			}
			pk, err := keys.PubKey(m.Addr)
			if err != nil {
				return nil, err
			}
			if pk == nil {
				continue
			}
			jailed, err := jail.IsJailed(m.Addr)
			if err != nil {
				return nil, err
			}
			if jailed {
				continue
			}
			power, err := poe.SafeMul(m.Weight, scaling)
			if err != nil {
				return nil, reverts.Overflowf("power of %s: %d * %d", m.Addr, m.Weight, scaling)
			}
			set = append(set, ValidatorInfo{Operator: m.Addr, PubKey: *pk, Power: power})
			if len(set) == want {
				return set, nil
			}
		}
		if len(page) < int(limit) {
			break
		}
		last := page[len(page)-1]
		after = &last
	}
	return set, nil
}

type identity struct {
	pubKey   poe.PubKey
	operator poe.Address
}

func (v ValidatorInfo) identity() identity {
	return identity{v.PubKey, v.Operator}
}

func less(a, b ValidatorInfo) bool {
	if c := a.PubKey.Compare(b.PubKey); c != 0 {
		return c < 0
	}
	if c := a.Operator.Compare(b.Operator); c != 0 {
		return c < 0
	}
	return a.Power < b.Power
}

// CalculateDiff compares two active sets. Additions are current entries absent from previous
// as a whole (new members and power changes). Removals are previous identities (pubkey,
// operator) absent from current, reported with zero power. The diff is additions followed by
// removals.
func CalculateDiff(current, previous []ValidatorInfo) (diff, additions, removals []ValidatorInfo) {
	prevFull := make(map[ValidatorInfo]struct{}, len(previous))
	for _, v := range previous {
		prevFull[v] = struct{}{}
	}
	currIDs := make(map[identity]struct{}, len(current))
	for _, v := range current {
		currIDs[v.identity()] = struct{}{}
		if _, ok := prevFull[v]; !ok {
			additions = append(additions, v)
		}
	}
	seen := make(map[identity]struct{}, len(previous))
	for _, v := range previous {
		id := v.identity()
		if _, ok := currIDs[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		removals = append(removals, ValidatorInfo{Operator: v.Operator, PubKey: v.PubKey})
	}
	sort.Slice(additions, func(i, j int) bool { return less(additions[i], additions[j]) })
	sort.Slice(removals, func(i, j int) bool { return less(removals[i], removals[j]) })

	diff = make([]ValidatorInfo, 0, len(additions)+len(removals))
	diff = append(append(diff, additions...), removals...)
	return diff, additions, removals
}
