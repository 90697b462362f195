// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"math/big"

	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// endBlock starts a new epoch once the block time crossed an epoch boundary: the ending
// epoch's validators are rewarded, then the next active set is selected.
func (s *state) endBlock(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error) {
	epoch, err := s.epoch.Load()
	if err != nil {
		return nil, err
	}
	block := env.Block()
	current := block.Time / epoch.EpochLength
	if current <= epoch.CurrentEpoch {
		return xenv.NewResponse(), nil
	}
	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	previous, err := s.activeValidators()
	if err != nil {
		return nil, err
	}

	logger.Debug("ending epoch", "epoch", epoch.CurrentEpoch, "next", current, "height", block.Height)
	resp := xenv.NewResponse().AddAttribute("action", "end_epoch").AddAttribute("epoch", current)
	if len(previous) > 0 {
		msgs, err := s.payRewards(env, &cfg)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			resp.AddSubMsg(m)
		}
	}

	src, err := membership.Connect(env.Querier(), cfg.Membership, sctx.UseGas)
	if err != nil {
		return nil, err
	}
	next, err := selection.ComputeActiveSet(src, jailer{jail: s.jail, block: block, autoUnjail: cfg.AutoUnjail}, s, cfg.params())
	if err != nil {
		logger.Info("active set selection failed", "epoch", current, "error", err)
		return nil, err
	}
	diff, _, _ := selection.CalculateDiff(next, previous)
	if err := s.rotate(&cfg, block, previous, next); err != nil {
		return nil, err
	}
	if update := rewardsUpdate(previous, next); len(update.Add) > 0 || len(update.Remove) > 0 {
		resp.AddMessage(xenv.Execute{Contract: cfg.RewardsGroup, Msg: update})
	}

	epoch.CurrentEpoch = current
	epoch.LastUpdateTime = block.Time
	epoch.LastUpdateHeight = block.Height
	if err := s.epoch.Save(epoch); err != nil {
		return nil, err
	}

	metricEpochs().Add(1)
	metricActiveValidators().Set(int64(len(next)))
	logger.Info("epoch started", "epoch", current, "validators", len(next), "changes", len(diff))
	resp.Data = ValidatorDiff{Diffs: diff}
	return resp, nil
}

// rotate stores the new active set and tracks who joined and left it.
func (s *state) rotate(cfg *Config, block poe.Block, previous, next []selection.ValidatorInfo) error {
	was := make(map[poe.Address]bool, len(previous))
	for _, v := range previous {
		was[v.Operator] = true
	}
	is := make(map[poe.Address]bool, len(next))
	for _, v := range next {
		is[v.Operator] = true
		if was[v.Operator] {
			continue
		}
		if err := s.setActive(v.Operator, true); err != nil {
			return err
		}
		if ok, err := s.startHeights.Has(v.Operator); err != nil {
			return err
		} else if !ok {
			if err := s.startHeights.Save(v.Operator, block.Height); err != nil {
				return err
			}
		}
		if cfg.VerifyValidators {
			// joining validators get MissedBlocks to sign
			if err := s.signers.Save(v.Operator, block.Height); err != nil {
				return err
			}
		}
	}
	for _, v := range previous {
		if is[v.Operator] {
			continue
		}
		if err := s.setActive(v.Operator, false); err != nil {
			return err
		}
		if err := s.signers.Remove(v.Operator); err != nil {
			return err
		}
	}
	return s.validators.Save(next)
}

func (s *state) setActive(operator poe.Address, active bool) error {
	info, ok, err := s.operators.Get(operator)
	if err != nil || !ok {
		return err
	}
	info.ActiveValidator = active
	return s.operators.Save(operator, info)
}

// rewardsUpdate makes the validator rewards group mirror the active set, weighted by power.
func rewardsUpdate(previous, next []selection.ValidatorInfo) group.UpdateMembersMsg {
	var update group.UpdateMembersMsg
	power := make(map[poe.Address]uint64, len(previous))
	for _, v := range previous {
		power[v.Operator] = v.Power
	}
	is := make(map[poe.Address]bool, len(next))
	for _, v := range next {
		is[v.Operator] = true
		if p, ok := power[v.Operator]; ok && p == v.Power {
			continue
		}
		update.Add = append(update.Add, group.Member{Addr: v.Operator, Weight: v.Power})
	}
	for _, v := range previous {
		if !is[v.Operator] {
			update.Remove = append(update.Remove, v.Operator)
		}
	}
	return update
}

// payRewards mints the epoch reward, reduced by a share of the collected fees, and splits it
// together with the fees between the distribution contracts and the rewards group.
func (s *state) payRewards(env *xenv.Environment, cfg *Config) ([]xenv.SubMsg, error) {
	denom := cfg.EpochReward.Denom
	fees, err := env.Balance(denom)
	if err != nil {
		return nil, err
	}
	mint := new(big.Int).Sub(cfg.EpochReward.Amount, cfg.FeePercentage.MulFloorBig(fees))
	if mint.Sign() < 0 {
		mint.SetInt64(0)
	}
	total := new(big.Int).Add(mint, fees)
	if total.Sign() == 0 {
		return nil, nil
	}

	var msgs []xenv.SubMsg
	if mint.Sign() > 0 {
		msgs = append(msgs, xenv.SubMsg{Msg: xenv.MintTokens{To: env.Contract(), Amount: poe.Coin{Denom: denom, Amount: mint}}})
	}
	left := new(big.Int).Set(total)
	for _, dc := range cfg.DistributionContracts {
		amount := dc.Ratio.MulFloorBig(total)
		if amount.Sign() == 0 {
			continue
		}
		left.Sub(left, amount)
		// a failing distribution keeps the funds here, they count as fees next epoch
		msgs = append(msgs, xenv.SubMsg{
			Msg: xenv.Execute{
				Contract: dc.Contract,
				Msg:      distribution.DistributeRewardsMsg{},
				Funds:    poe.Coins{{Denom: denom, Amount: amount}},
			},
			IgnoreError: true,
		})
	}
	if left.Sign() > 0 {
		msgs = append(msgs, xenv.SubMsg{Msg: xenv.Execute{
			Contract: cfg.RewardsGroup,
			Msg:      distribution.DistributeRewardsMsg{},
			Funds:    poe.Coins{{Denom: denom, Amount: left}},
		}})
	}
	logger.Debug("paying epoch rewards", "minted", mint, "fees", fees, "total", total)
	return msgs, nil
}
