// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

func (Contract) Query(env *xenv.Environment, sctx *storage.Context, query any) (any, error) {
	s := newState(sctx)
	switch q := query.(type) {
	case ConfigQuery:
		return s.config.Load()
	case EpochQuery:
		e, err := s.epoch.Load()
		if err != nil {
			return nil, err
		}
		return e.response(), nil
	case AdminQuery:
		return s.admin.Get()
	case ValidatorQuery:
		return s.operator(q.Operator)
	case ListValidatorsQuery:
		return s.listOperators(q)
	case ListActiveValidatorsQuery:
		return s.activeValidators()
	case SimulateActiveValidatorsQuery:
		cfg, err := s.config.Load()
		if err != nil {
			return nil, err
		}
		src, err := membership.Connect(env.Querier(), cfg.Membership, sctx.UseGas)
		if err != nil {
			return nil, err
		}
		j := jailer{jail: s.jail, block: env.Block(), autoUnjail: cfg.AutoUnjail, readOnly: true}
		return selection.ComputeActiveSet(src, j, s, cfg.params())
	case ListValidatorSlashingQuery:
		return s.slashingOf(q.Operator)
	case ListJailedValidatorsQuery:
		return s.jail.List(q.StartAfter, poe.ClampLimit(q.Limit, poe.DefaultValidatorLimit, poe.MaxValidatorLimit))
	case ExportQuery:
		st, err := s.export()
		if err != nil {
			return nil, err
		}
		return *st, nil
	default:
		return nil, reverts.InvalidParameterf("unknown query %T", query)
	}
}

// operator returns nil for unknown operators.
func (s *state) operator(addr poe.Address) (*OperatorResponse, error) {
	info, ok, err := s.operators.Get(addr)
	if err != nil || !ok {
		return nil, err
	}
	return s.operatorResponse(addr, info)
}

func (s *state) operatorResponse(addr poe.Address, info OperatorInfo) (*OperatorResponse, error) {
	jailed, err := s.jail.Get(addr)
	if err != nil {
		return nil, err
	}
	return &OperatorResponse{
		Operator:        addr,
		PubKey:          info.PubKey,
		Metadata:        info.Metadata,
		JailedUntil:     jailed,
		ActiveValidator: info.ActiveValidator,
	}, nil
}

func (s *state) listOperators(q ListValidatorsQuery) ([]OperatorResponse, error) {
	var after []byte
	if q.StartAfter != nil {
		after = q.StartAfter.Bytes()
	}
	limit := poe.ClampLimit(q.Limit, poe.DefaultValidatorLimit, poe.MaxValidatorLimit)
	keys, infos, err := s.operators.Page(after, limit, storage.Ascending)
	if err != nil {
		return nil, err
	}
	res := make([]OperatorResponse, 0, len(keys))
	for i, key := range keys {
		r, err := s.operatorResponse(poe.BytesToAddress(key), infos[i])
		if err != nil {
			return nil, err
		}
		res = append(res, *r)
	}
	return res, nil
}

func (s *state) slashingOf(addr poe.Address) (ValidatorSlashingResponse, error) {
	res := ValidatorSlashingResponse{Operator: addr}
	start, ok, err := s.startHeights.Get(addr)
	if err != nil {
		return res, err
	}
	if ok {
		res.StartHeight = &start
	}
	if res.Slashing, _, err = s.slashing.Get(addr); err != nil {
		return res, err
	}
	if res.JailedUntil, err = s.jail.Get(addr); err != nil {
		return res, err
	}
	res.Tombstoned = res.JailedUntil != nil && res.JailedUntil.Forever
	return res, nil
}
