// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stake implements the staking group. The weight of a member is its bonded stake
// divided by the tokens per point, unbonded tokens are held as claims until released.
package stake

import (
	"math"
	"math/big"

	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/hooks"
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/stake/claims"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var logger = log.WithContext("pkg", "stake")

// Contract is the stake contract code.
type Contract struct{}

type Config struct {
	Denom           string
	RewardsDenom    string
	TokensPerPoint  *big.Int
	MinBond         *big.Int
	UnbondingPeriod poe.Duration
	AutoReturnLimit uint64
}

func (c *Config) validate() error {
	switch {
	case c.Denom == "" || c.RewardsDenom == "":
		return reverts.InvalidParameterf("empty denom")
	case c.Denom == c.RewardsDenom:
		return reverts.InvalidParameterf("rewards denom must differ from the staked denom %s", c.Denom)
	case c.TokensPerPoint == nil || c.TokensPerPoint.Sign() <= 0:
		return reverts.InvalidParameterf("tokens per point must be positive")
	case c.MinBond == nil || c.MinBond.Sign() < 0:
		return reverts.InvalidParameterf("negative min bond")
	case !c.UnbondingPeriod.IsValid():
		return reverts.InvalidParameterf("invalid unbonding period")
	}
	return nil
}

// weight converts a stake to points.
func (c *Config) weight(stake *big.Int) (uint64, error) {
	if stake.Cmp(c.MinBond) < 0 {
		return 0, nil
	}
	w := new(big.Int).Quo(stake, c.TokensPerPoint)
	if !w.IsUint64() {
		return 0, reverts.Overflowf("weight of stake %v", stake)
	}
	return w.Uint64(), nil
}

type state struct {
	config   *storage.Item[Config]
	registry *hooks.Registry
	members  *membership.Store
	ledger   *distribution.Ledger
	stakes   *storage.Map[poe.Address, *big.Int]
	claims   *claims.Claims
}

func newState(sctx *storage.Context) *state {
	return &state{
		config:   storage.NewItem[Config](sctx, "config"),
		registry: hooks.NewRegistry(sctx),
		members:  membership.New(sctx),
		ledger:   distribution.New(sctx),
		stakes:   storage.NewMap[poe.Address, *big.Int](sctx, "stake"),
		claims:   claims.New(sctx),
	}
}

func (s *state) rewards() *distribution.Rewards {
	return &distribution.Rewards{Ledger: s.ledger, Weights: s.members}
}

func (s *state) stake(addr poe.Address) (*big.Int, error) {
	stake, ok, err := s.stakes.Get(addr)
	if err != nil || !ok {
		return new(big.Int), err
	}
	return stake, nil
}

// setStake stores the stake of addr and updates its weight, returning the weight change.
func (s *state) setStake(cfg *Config, addr poe.Address, stake *big.Int, height uint64) ([]group.MemberDiff, error) {
	var err error
	if stake.Sign() == 0 {
		err = s.stakes.Remove(addr)
	} else {
		err = s.stakes.Save(addr, stake)
	}
	if err != nil {
		return nil, err
	}
	weight, err := cfg.weight(stake)
	if err != nil {
		return nil, err
	}
	diff, err := s.members.Set(addr, weight, height)
	if err != nil || diff == nil {
		return nil, err
	}
	return []group.MemberDiff{*diff}, nil
}

// commit reconciles the ledger with diffs and notifies the hooks.
func (s *state) commit(diffs []group.MemberDiff, resp *xenv.Response) (*xenv.Response, error) {
	if err := s.ledger.ApplyCorrections(diffs); err != nil {
		return nil, err
	}
	msgs, err := s.registry.Notify(diffs)
	if err != nil {
		return nil, err
	}
	return resp.AddMessages(msgs...), nil
}

func (Contract) Instantiate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	m, ok := msg.(InstantiateMsg)
	if !ok {
		return nil, reverts.InvalidParameterf("unexpected instantiate message %T", msg)
	}
	cfg := Config{
		Denom:           m.Denom,
		RewardsDenom:    m.RewardsDenom,
		TokensPerPoint:  m.TokensPerPoint,
		MinBond:         m.MinBond,
		UnbondingPeriod: m.UnbondingPeriod,
		AutoReturnLimit: m.AutoReturnLimit,
	}
	if cfg.MinBond == nil {
		cfg.MinBond = new(big.Int)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := newState(sctx)
	if err := s.config.Save(cfg); err != nil {
		return nil, err
	}
	if err := s.registry.Init(m.Admin, m.PreauthHooks, m.PreauthSlashing); err != nil {
		return nil, err
	}
	if err := s.ledger.Init(m.RewardsDenom); err != nil {
		return nil, err
	}
	logger.Info("instantiated", "contract", env.Contract(), "denom", cfg.Denom, "unbonding", cfg.UnbondingPeriod)
	return xenv.NewResponse(), nil
}

func (Contract) Execute(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	if resp, handled, err := s.registry.Execute(env, msg); handled {
		return resp, err
	}
	if resp, handled, err := s.rewards().Execute(env, msg); handled {
		return resp, err
	}

	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	switch msg := msg.(type) {
	case BondMsg:
		return s.bond(env, &cfg)
	case UnbondMsg:
		return s.unbond(env, &cfg, msg)
	case ClaimMsg:
		return s.claim(env, &cfg)
	case group.SlashMsg:
		return s.slash(env, &cfg, msg)
	default:
		return nil, reverts.InvalidParameterf("unknown message %T", msg)
	}
}

func (Contract) Sudo(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	switch msg.(type) {
	case xenv.EndBlock:
		cfg, err := s.config.Load()
		if err != nil {
			return nil, err
		}
		return s.endBlock(env, &cfg)
	default:
		return nil, reverts.InvalidParameterf("unknown sudo message %T", msg)
	}
}

func (Contract) Query(env *xenv.Environment, sctx *storage.Context, query any) (any, error) {
	s := newState(sctx)
	if res, handled, err := group.Query(s.members, query); handled {
		return res, err
	}
	if res, handled, err := s.registry.Query(query); handled {
		return res, err
	}
	if res, handled, err := s.rewards().Query(env, query); handled {
		return res, err
	}

	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	switch q := query.(type) {
	case StakedQuery:
		stake, err := s.stake(q.Addr)
		if err != nil {
			return nil, err
		}
		return poe.Coin{Denom: cfg.Denom, Amount: stake}, nil
	case ClaimsQuery:
		return s.claims.List(q.Addr, q.StartAfter, poe.ClampLimit(q.Limit, poe.DefaultMemberLimit, poe.MaxMemberLimit))
	case UnbondingPeriodQuery:
		return cfg.UnbondingPeriod, nil
	case ConfigQuery:
		return cfg, nil
	default:
		return nil, reverts.InvalidParameterf("unknown query %T", query)
	}
}

func (s *state) bond(env *xenv.Environment, cfg *Config) (*xenv.Response, error) {
	amount := env.Funds().AmountOf(cfg.Denom)
	if amount.Sign() <= 0 {
		return nil, reverts.InvalidParameterf("no %s attached to bond", cfg.Denom)
	}
	sender := env.Sender()
	stake, err := s.stake(sender)
	if err != nil {
		return nil, err
	}
	logger.Debug("bonding", "addr", sender, "amount", amount, "stake", stake)

	stake = new(big.Int).Add(stake, amount)
	diffs, err := s.setStake(cfg, sender, stake, env.Block().Height)
	if err != nil {
		return nil, err
	}
	logger.Info("bonded", "addr", sender, "amount", amount, "stake", stake)
	return s.commit(diffs, xenv.NewResponse().
		AddAttribute("action", "bond").
		AddAttribute("amount", amount).
		AddAttribute("sender", sender))
}

func (s *state) unbond(env *xenv.Environment, cfg *Config, msg UnbondMsg) (*xenv.Response, error) {
	if msg.Tokens == nil || msg.Tokens.Sign() <= 0 {
		return nil, reverts.InvalidParameterf("unbond amount must be positive")
	}
	sender := env.Sender()
	stake, err := s.stake(sender)
	if err != nil {
		return nil, err
	}
	if stake.Cmp(msg.Tokens) < 0 {
		return nil, reverts.InvalidParameterf("cannot unbond %v, staked %v", msg.Tokens, stake)
	}
	logger.Debug("unbonding", "addr", sender, "amount", msg.Tokens, "stake", stake)

	stake = new(big.Int).Sub(stake, msg.Tokens)
	diffs, err := s.setStake(cfg, sender, stake, env.Block().Height)
	if err != nil {
		return nil, err
	}
	releaseAt := cfg.UnbondingPeriod.After(env.Block())
	if err := s.claims.Create(sender, msg.Tokens, releaseAt, env.Block().Height); err != nil {
		return nil, err
	}
	logger.Info("unbonded", "addr", sender, "amount", msg.Tokens, "releaseAt", releaseAt)
	return s.commit(diffs, xenv.NewResponse().
		AddAttribute("action", "unbond").
		AddAttribute("amount", msg.Tokens).
		AddAttribute("release_at", releaseAt).
		AddAttribute("sender", sender))
}

func (s *state) claim(env *xenv.Environment, cfg *Config) (*xenv.Response, error) {
	sender := env.Sender()
	amount, err := s.claims.Claim(sender, env.Block())
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return xenv.NewResponse(), nil
	}
	logger.Info("claimed", "addr", sender, "amount", amount)
	return xenv.NewResponse().
		AddMessage(xenv.BankSend{To: sender, Amount: poe.Coins{{Denom: cfg.Denom, Amount: amount}}}).
		AddAttribute("action", "claim").
		AddAttribute("amount", amount).
		AddAttribute("sender", sender), nil
}

// slash cuts the stake and every pending claim of an address by the same portion and burns
// what was cut.
func (s *state) slash(env *xenv.Environment, cfg *Config, msg group.SlashMsg) (*xenv.Response, error) {
	if err := s.registry.AssertSlasher(env.Sender()); err != nil {
		return nil, err
	}
	if !msg.Portion.IsPortion() {
		return nil, reverts.InvalidParameterf("slash portion %s not in [0, 1]", msg.Portion)
	}
	stake, err := s.stake(msg.Addr)
	if err != nil {
		return nil, err
	}
	logger.Debug("slashing", "addr", msg.Addr, "portion", msg.Portion, "stake", stake)

	cut := msg.Portion.MulFloorBig(stake)
	var diffs []group.MemberDiff
	if cut.Sign() > 0 {
		if diffs, err = s.setStake(cfg, msg.Addr, new(big.Int).Sub(stake, cut), env.Block().Height); err != nil {
			logger.Info("slashing failed", "addr", msg.Addr, "error", err)
			return nil, err
		}
	}
	claimsCut, err := s.claims.Slash(msg.Addr, msg.Portion)
	if err != nil {
		return nil, err
	}
	burn := new(big.Int).Add(cut, claimsCut)
	if burn.Sign() == 0 {
		return xenv.NewResponse(), nil
	}

	resp, err := s.commit(diffs, xenv.NewResponse().
		AddMessage(xenv.BankBurn{Amount: poe.Coins{{Denom: cfg.Denom, Amount: burn}}}).
		AddAttribute("action", "slash").
		AddAttribute("addr", msg.Addr).
		AddAttribute("portion", msg.Portion).
		AddAttribute("stake_slashed", cut).
		AddAttribute("claims_slashed", claimsCut))
	if err != nil {
		return nil, err
	}
	logger.Info("slashed", "addr", msg.Addr, "stake", cut, "claims", claimsCut)
	return resp, nil
}

// endBlock pays out matured claims, at most AutoReturnLimit per block.
func (s *state) endBlock(env *xenv.Environment, cfg *Config) (*xenv.Response, error) {
	if cfg.AutoReturnLimit == 0 {
		return xenv.NewResponse(), nil
	}
	releases, err := s.claims.ReleaseExpired(env.Block(), int(min(cfg.AutoReturnLimit, math.MaxInt32)))
	if err != nil {
		return nil, err
	}
	resp := xenv.NewResponse()
	for _, r := range releases {
		resp.AddMessage(xenv.BankSend{To: r.Addr, Amount: poe.Coins{{Denom: cfg.Denom, Amount: r.Amount}}})
	}
	if len(releases) > 0 {
		logger.Info("claims released", "count", len(releases), "height", env.Block().Height)
	}
	return resp, nil
}
