// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/jailing"
	"github.com/vechain/poe/cache"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var consensusAddresses = func() *cache.LRU[poe.PubKey, poe.ConsensusAddress] {
	c, err := cache.NewLRU[poe.PubKey, poe.ConsensusAddress]("consensus_address", 4096)
	if err != nil {
		panic(err)
	}
	return c
}()

func consensusAddress(pk poe.PubKey) poe.ConsensusAddress {
	addr, _ := consensusAddresses.GetOrLoad(pk, func(pk poe.PubKey) (poe.ConsensusAddress, error) {
		return pk.Address(), nil
	})
	return addr
}

func (s *state) beginBlock(env *xenv.Environment, msg BeginBlockMsg) (*xenv.Response, error) {
	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	resp := xenv.NewResponse()
	if cfg.VerifyValidators && len(msg.Votes) > 0 {
		if err := s.trackLiveness(&cfg, env.Block(), msg.Votes); err != nil {
			return nil, err
		}
	}
	for _, ev := range msg.Evidence {
		m, err := s.punish(&cfg, ev)
		if err != nil {
			return nil, err
		}
		if m != nil {
			resp.AddMessage(m)
		}
	}
	return resp, nil
}

// trackLiveness records the signers of the previous block and jails active validators that
// did not sign for more than MissedBlocks.
func (s *state) trackLiveness(cfg *Config, block poe.Block, votes []Vote) error {
	voted := make(map[poe.ConsensusAddress]bool, len(votes))
	for _, v := range votes {
		if v.Voted {
			voted[v.Address] = true
		}
	}
	active, err := s.activeValidators()
	if err != nil {
		return err
	}
	for _, v := range active {
		if voted[consensusAddress(v.PubKey)] {
			if err := s.signers.Save(v.Operator, block.Height); err != nil {
				return err
			}
			continue
		}
		last, ok, err := s.signers.Get(v.Operator)
		if err != nil {
			return err
		}
		if !ok {
			if err := s.signers.Save(v.Operator, block.Height); err != nil {
				return err
			}
			continue
		}
		if block.Height-last <= poe.MissedBlocks {
			continue
		}
		if jailed, err := s.jail.IsJailed(v.Operator, block, false); err != nil {
			return err
		} else if jailed {
			continue
		}
		period := jailing.Until(cfg.OfflineJailDuration.After(block))
		logger.Debug("jailing offline validator", "operator", v.Operator, "last_signed", last)
		if err := s.jail.Jail(v.Operator, period); err != nil {
			return err
		}
		if err := s.signers.Remove(v.Operator); err != nil {
			return err
		}
		metricJailed().AddWithLabel(1, map[string]string{"reason": "offline"})
	}
	return nil
}

// findOperator returns the operator whose key hashes to addr and who was already a validator
// at height.
func (s *state) findOperator(addr poe.ConsensusAddress, height uint64) (*poe.Address, error) {
	var found *poe.Address
	err := s.operators.Range(kv.Range{}, storage.Ascending, func(key []byte, info OperatorInfo) (bool, error) {
		if consensusAddress(info.PubKey) != addr {
			return true, nil
		}
		op := poe.BytesToAddress(key)
		start, ok, err := s.startHeights.Get(op)
		if err != nil {
			return false, err
		}
		if ok && start <= height {
			found = &op
		}
		return false, nil
	})
	return found, err
}

// punish tombstones the validator a double sign evidence points to and slashes it.
func (s *state) punish(cfg *Config, ev Evidence) (xenv.Msg, error) {
	op, err := s.findOperator(ev.Validator, ev.Height)
	if err != nil {
		return nil, err
	}
	if op == nil {
		logger.Info("evidence for unknown validator", "address", ev.Validator, "height", ev.Height)
		return nil, nil
	}
	if p, err := s.jail.Get(*op); err != nil {
		return nil, err
	} else if p != nil && p.Forever {
		return nil, nil
	}

	logger.Debug("punishing double sign", "operator", *op, "height", ev.Height)
	if err := s.jail.Jail(*op, jailing.Forever()); err != nil {
		return nil, err
	}
	metricJailed().AddWithLabel(1, map[string]string{"reason": "double_sign"})
	msg, err := s.slashOperator(cfg, *op, ev.Height, cfg.DoubleSignSlashRatio)
	if err != nil {
		return nil, err
	}
	logger.Info("validator tombstoned", "operator", *op, "portion", cfg.DoubleSignSlashRatio)
	return msg, nil
}
