// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin"
	"github.com/vechain/poe/builtin/engagement"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/mixer"
	"github.com/vechain/poe/builtin/stake"
	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
)

var logger = log.WithContext("pkg", "genesis")

// Network holds the addresses of the genesis contracts.
type Network struct {
	Admin      poe.Address `json:"admin"`
	Engagement poe.Address `json:"engagement"`
	Stake      poe.Address `json:"stake"`
	Mixer      poe.Address `json:"mixer"`
	Community  poe.Address `json:"community"`
	Rewards    poe.Address `json:"rewards"`
	Valset     poe.Address `json:"valset"`
}

// builder stops at the first failing step.
type builder struct {
	rt    *runtime.Runtime
	admin poe.Address
	err   error
}

func (b *builder) instantiate(code, label string, msg any) poe.Address {
	if b.err != nil {
		return poe.Address{}
	}
	res, err := b.rt.Instantiate(b.admin, code, label, msg)
	if err != nil {
		b.err = errors.Wrapf(err, "instantiate %s", label)
		return poe.Address{}
	}
	return res.Contract
}

func (b *builder) execute(sender, contract poe.Address, msg any, funds ...poe.Coin) {
	if b.err != nil {
		return
	}
	if _, err := b.rt.Execute(sender, contract, msg, funds...); err != nil {
		b.err = errors.Wrapf(err, "execute %T on %s", msg, contract)
	}
}

func (b *builder) do(step string, fn func() error) {
	if b.err != nil {
		return
	}
	if err := fn(); err != nil {
		b.err = errors.Wrap(err, step)
	}
}

// Build deploys the proof of engagement contracts described by cfg on rt: the engagement and
// stake groups, the mixer, the community pool, the validator rewards group and the validator
// set, which is granted the block callbacks and minting.
func Build(rt *runtime.Runtime, cfg *Config) (*Network, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	fn, err := cfg.Mixer.function()
	if err != nil {
		return nil, err
	}
	valsetMsg, err := cfg.valsetMsg()
	if err != nil {
		return nil, err
	}
	var ratios [2]poe.Decimal
	for i, r := range []string{cfg.Rewards.EngagementRatio, cfg.Rewards.CommunityRatio} {
		if ratios[i], err = decimal(r, "rewards ratio"); err != nil {
			return nil, err
		}
	}

	admin := AddressOf(cfg.Admin)
	b := &builder{rt: rt, admin: admin}
	n := &Network{Admin: admin}

	var members []group.Member
	for _, a := range cfg.Accounts {
		if a.Balance > 0 {
			b.do("mint", func() error { return rt.Mint(AddressOf(a.Name), coin(a.Balance, cfg.Denom)) })
		}
		if a.Engagement > 0 {
			members = append(members, group.Member{Addr: AddressOf(a.Name), Weight: a.Engagement})
		}
	}

	n.Engagement = b.instantiate(builtin.Engagement, "engagement", engagement.InstantiateMsg{
		Admin:           &admin,
		Members:         members,
		PreauthHooks:    1,
		PreauthSlashing: 1,
		Halflife:        cfg.Engagement.Halflife,
		Denom:           cfg.RewardsDenom,
	})
	n.Stake = b.instantiate(builtin.Stake, "stake", stake.InstantiateMsg{
		Admin:           &admin,
		Denom:           cfg.Denom,
		RewardsDenom:    cfg.RewardsDenom,
		TokensPerPoint:  bigOf(cfg.Stake.TokensPerPoint),
		MinBond:         bigOf(cfg.Stake.MinBond),
		UnbondingPeriod: poe.Seconds(cfg.Stake.UnbondingPeriod),
		AutoReturnLimit: cfg.Stake.AutoReturnLimit,
		PreauthHooks:    1,
		PreauthSlashing: 1,
	})
	n.Mixer = b.instantiate(builtin.Mixer, "mixer", mixer.InstantiateMsg{
		LeftGroup:       n.Stake,
		RightGroup:      n.Engagement,
		Function:        fn,
		PreauthSlashing: 1,
		RewardsDenom:    cfg.RewardsDenom,
	})
	n.Community = b.instantiate(builtin.Engagement, "community", engagement.InstantiateMsg{
		Admin:   &admin,
		Members: []group.Member{{Addr: admin, Weight: 1}},
		Denom:   cfg.RewardsDenom,
	})
	n.Rewards = b.instantiate(builtin.Engagement, "validator-rewards", engagement.InstantiateMsg{
		Admin: &admin,
		Denom: cfg.RewardsDenom,
	})

	valsetMsg.Admin = &admin
	valsetMsg.Membership = n.Mixer
	valsetMsg.RewardsGroup = n.Rewards
	for i, c := range []poe.Address{n.Engagement, n.Community} {
		if !ratios[i].IsZero() {
			valsetMsg.DistributionContracts = append(valsetMsg.DistributionContracts, valset.DistributionContract{Contract: c, Ratio: ratios[i]})
		}
	}
	n.Valset = b.instantiate(builtin.Valset, "valset", valsetMsg)

	b.execute(admin, n.Rewards, group.UpdateAdminMsg{Admin: &n.Valset})
	b.execute(admin, n.Mixer, group.AddSlasherMsg{Addr: n.Valset})
	b.execute(admin, n.Stake, group.AddSlasherMsg{Addr: n.Mixer})
	b.execute(admin, n.Engagement, group.AddSlasherMsg{Addr: n.Mixer})
	for _, p := range []runtime.Privilege{runtime.BeginBlocker, runtime.EndBlocker, runtime.TokenMinter} {
		b.do("grant", func() error { return rt.Grant(n.Valset, p) })
	}
	for _, c := range []poe.Address{n.Stake, n.Engagement} {
		b.do("grant", func() error { return rt.Grant(c, runtime.EndBlocker) })
	}

	for _, a := range cfg.Accounts {
		if a.Bond > 0 {
			b.execute(AddressOf(a.Name), n.Stake, stake.BondMsg{}, coin(a.Bond, cfg.Denom))
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	logger.Info("genesis built", "valset", n.Valset, "mixer", n.Mixer, "accounts", len(cfg.Accounts))
	return n, nil
}

func (c *Config) valsetMsg() (valset.InstantiateMsg, error) {
	v := c.Valset
	fee, err := decimal(v.FeePercentage, "valset.feePercentage")
	if err != nil {
		return valset.InstantiateMsg{}, err
	}
	slash, err := decimal(v.DoubleSignSlashRatio, "valset.doubleSignSlashRatio")
	if err != nil {
		return valset.InstantiateMsg{}, err
	}
	msg := valset.InstantiateMsg{
		MinPoints:            v.MinPoints,
		MaxValidators:        v.MaxValidators,
		EpochLength:          v.EpochLength,
		EpochReward:          coin(v.EpochReward, c.RewardsDenom),
		Scaling:              v.Scaling,
		FeePercentage:        fee,
		AutoUnjail:           v.AutoUnjail,
		DoubleSignSlashRatio: slash,
		VerifyValidators:     v.VerifyValidators,
		OfflineJailDuration:  poe.Seconds(v.OfflineJailDuration),
	}
	for _, a := range c.Accounts {
		if !a.Validator {
			continue
		}
		op := AddressOf(a.Name)
		msg.InitialKeys = append(msg.InitialKeys, valset.OperatorKey{
			Operator: op,
			PubKey:   KeyOf(op),
			Metadata: valset.Metadata{Moniker: a.Name},
		})
	}
	return msg, nil
}
