// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mixer implements a group whose weights mix the weights of two other groups through
// a proof-of-engagement function. Only addresses member of both groups are members.
package mixer

import (
	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/hooks"
	"github.com/vechain/poe/builtin/membership"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var logger = log.WithContext("pkg", "mixer")

// Contract is the mixer contract code.
type Contract struct{}

type config struct {
	LeftGroup  poe.Address
	RightGroup poe.Address
	Function   functionRecord
}

type state struct {
	sctx     *storage.Context
	config   *storage.Item[config]
	registry *hooks.Registry
	members  *membership.Store
	ledger   *distribution.Ledger
}

func newState(sctx *storage.Context) *state {
	return &state{
		sctx:     sctx,
		config:   storage.NewItem[config](sctx, "config"),
		registry: hooks.NewRegistry(sctx),
		members:  membership.New(sctx),
		ledger:   distribution.New(sctx),
	}
}

// groups loads the configuration and connects to both groups.
type groups struct {
	cfg         config
	fn          Function
	left, right group.Source
}

func (s *state) groups(env *xenv.Environment) (*groups, error) {
	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	fn, err := cfg.Function.function()
	if err != nil {
		return nil, err
	}
	g := &groups{cfg: cfg, fn: fn}
	if g.left, err = membership.Connect(env.Querier(), cfg.LeftGroup, s.sctx.UseGas); err != nil {
		return nil, err
	}
	if g.right, err = membership.Connect(env.Querier(), cfg.RightGroup, s.sctx.UseGas); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *groups) mix(left, right *uint64) (uint64, error) {
	if left == nil || right == nil {
		return 0, nil
	}
	return g.fn.Mix(*left, *right)
}

func (s *state) rewards() *distribution.Rewards {
	return &distribution.Rewards{Ledger: s.ledger, Weights: s.members}
}

func (Contract) Instantiate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	m, ok := msg.(InstantiateMsg)
	if !ok {
		return nil, reverts.InvalidParameterf("unexpected instantiate message %T", msg)
	}
	if m.LeftGroup == m.RightGroup {
		return nil, reverts.InvalidParameterf("mixing group %s with itself", m.LeftGroup)
	}
	if m.Function == nil {
		return nil, reverts.InvalidParameterf("no mixing function")
	}
	if err := m.Function.Validate(); err != nil {
		return nil, err
	}
	record, err := recordOf(m.Function)
	if err != nil {
		return nil, err
	}

	s := newState(sctx)
	if err := s.config.Save(config{LeftGroup: m.LeftGroup, RightGroup: m.RightGroup, Function: record}); err != nil {
		return nil, err
	}
	if err := s.registry.Init(nil, m.PreauthHooks, m.PreauthSlashing); err != nil {
		return nil, err
	}
	if err := s.ledger.Init(m.RewardsDenom); err != nil {
		return nil, err
	}

	g, err := s.groups(env)
	if err != nil {
		return nil, err
	}
	diffs, err := s.initMembers(env, g)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ApplyCorrections(diffs); err != nil {
		return nil, err
	}

	logger.Info("instantiated", "contract", env.Contract(), "left", m.LeftGroup, "right", m.RightGroup, "members", len(diffs))
	self := group.AddHookMsg{Addr: env.Contract()}
	return xenv.NewResponse().AddMessages(
		xenv.Execute{Contract: m.LeftGroup, Msg: self},
		xenv.Execute{Contract: m.RightGroup, Msg: self},
	), nil
}

// initMembers mixes every current member of the left group.
func (s *state) initMembers(env *xenv.Environment, g *groups) ([]group.MemberDiff, error) {
	var (
		diffs []group.MemberDiff
		after *poe.Address
		limit = uint32(poe.MaxMemberLimit)
	)
	for {
		page, err := g.left.ListMembers(after, &limit)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			right, err := g.right.IsMember(m.Addr)
			if err != nil {
				return nil, err
			}
			weight, err := g.mix(&m.Weight, right)
			if err != nil {
				return nil, err
			}
			diff, err := s.members.Set(m.Addr, weight, env.Block().Height)
			if err != nil {
				return nil, err
			}
			if diff != nil {
				diffs = append(diffs, *diff)
			}
		}
		if len(page) < int(limit) {
			return diffs, nil
		}
		after = &page[len(page)-1].Addr
	}
}

func (Contract) Execute(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	if resp, handled, err := s.registry.Execute(env, msg); handled {
		return resp, err
	}
	if resp, handled, err := s.rewards().Execute(env, msg); handled {
		return resp, err
	}

	switch msg := msg.(type) {
	case group.MemberChangedHookMsg:
		return s.memberChanged(env, msg)
	case group.SlashMsg:
		return s.slash(env, msg)
	default:
		return nil, reverts.InvalidParameterf("unknown message %T", msg)
	}
}

// memberChanged remixes the weights changed in one of the groups.
func (s *state) memberChanged(env *xenv.Environment, msg group.MemberChangedHookMsg) (*xenv.Response, error) {
	g, err := s.groups(env)
	if err != nil {
		return nil, err
	}
	sender := env.Sender()
	if sender != g.cfg.LeftGroup && sender != g.cfg.RightGroup {
		return nil, reverts.Unauthorizedf("%s is not a mixed group", sender)
	}
	logger.Debug("mixing changes", "group", sender, "diffs", len(msg.Diffs))

	var diffs []group.MemberDiff
	for _, d := range msg.Diffs {
		var left, right *uint64
		if sender == g.cfg.LeftGroup {
			left = d.New
			right, err = g.right.IsMember(d.Addr)
		} else {
			right = d.New
			left, err = g.left.IsMember(d.Addr)
		}
		if err != nil {
			return nil, err
		}
		weight, err := g.mix(left, right)
		if err != nil {
			return nil, err
		}
		diff, err := s.members.Set(d.Addr, weight, env.Block().Height)
		if err != nil {
			return nil, err
		}
		if diff != nil {
			diffs = append(diffs, *diff)
		}
	}

	if err := s.ledger.ApplyCorrections(diffs); err != nil {
		return nil, err
	}
	msgs, err := s.registry.Notify(diffs)
	if err != nil {
		return nil, err
	}
	return xenv.NewResponse().AddMessages(msgs...), nil
}

// slash forwards the slash to both groups, the mixed weight follows through the hooks.
func (s *state) slash(env *xenv.Environment, msg group.SlashMsg) (*xenv.Response, error) {
	if err := s.registry.AssertSlasher(env.Sender()); err != nil {
		return nil, err
	}
	if !msg.Portion.IsPortion() {
		return nil, reverts.InvalidParameterf("slash portion %s not in [0, 1]", msg.Portion)
	}
	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("forwarding slash", "addr", msg.Addr, "portion", msg.Portion)
	return xenv.NewResponse().
		AddMessages(
			xenv.Execute{Contract: cfg.LeftGroup, Msg: msg},
			xenv.Execute{Contract: cfg.RightGroup, Msg: msg},
		).
		AddAttribute("action", "slash").
		AddAttribute("addr", msg.Addr).
		AddAttribute("portion", msg.Portion), nil
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

	switch q := query.(type) {
	case RewardFunctionQuery:
		g, err := s.groups(env)
		if err != nil {
			return nil, err
		}
		return g.fn.Mix(q.Stake, q.Engagement)
	case ConfigQuery:
		g, err := s.groups(env)
		if err != nil {
			return nil, err
		}
		return Config{LeftGroup: g.cfg.LeftGroup, RightGroup: g.cfg.RightGroup, Function: g.fn}, nil
	default:
		return nil, reverts.InvalidParameterf("unknown query %T", query)
	}
}
