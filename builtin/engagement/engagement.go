// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engagement implements the engagement group: members hold points granted by the
// admin, points decay by half every halflife and rewards are distributed by points.
package engagement

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

var logger = log.WithContext("pkg", "engagement")

// Contract is the engagement contract code.
type Contract struct{}

type state struct {
	registry *hooks.Registry
	members  *membership.Store
	ledger   *distribution.Ledger
	halflife *storage.Item[halflife]
}

func newState(sctx *storage.Context) *state {
	return &state{
		registry: hooks.NewRegistry(sctx),
		members:  membership.New(sctx),
		ledger:   distribution.New(sctx),
		halflife: storage.NewItem[halflife](sctx, "halflife"),
	}
}

func (s *state) rewards() *distribution.Rewards {
	return &distribution.Rewards{Ledger: s.ledger, Weights: s.members}
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
	s := newState(sctx)
	if err := s.registry.Init(m.Admin, m.PreauthHooks, m.PreauthSlashing); err != nil {
		return nil, err
	}
	if err := s.ledger.Init(m.Denom); err != nil {
		return nil, err
	}
	if err := s.halflife.Save(halflife{Halflife: m.Halflife, LastHalflife: env.Block().Time}); err != nil {
		return nil, err
	}
	diffs, err := s.members.UpdateMembers(m.Members, nil, env.Block().Height)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ApplyCorrections(diffs); err != nil {
		return nil, err
	}
	logger.Info("instantiated", "contract", env.Contract(), "members", len(m.Members), "denom", m.Denom)
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

	switch msg := msg.(type) {
	case group.UpdateMembersMsg:
		return s.updateMembers(env, msg)
	case AddPointsMsg:
		return s.addPoints(env, msg)
	case group.SlashMsg:
		return s.slash(env, msg)
	default:
		return nil, reverts.InvalidParameterf("unknown message %T", msg)
	}
}

func (Contract) Sudo(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	switch msg := msg.(type) {
	case UpdateMemberMsg:
		diff, err := s.members.Set(msg.Member.Addr, msg.Member.Weight, env.Block().Height)
		if err != nil || diff == nil {
			return xenv.NewResponse(), err
		}
		return s.commit([]group.MemberDiff{*diff}, xenv.NewResponse())
	case xenv.EndBlock:
		return s.endBlock(env)
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

	switch query.(type) {
	case HalflifeQuery:
		h, err := s.halflife.Load()
		if err != nil {
			return nil, err
		}
		return h.response(), nil
	default:
		return nil, reverts.InvalidParameterf("unknown query %T", query)
	}
}

func (s *state) updateMembers(env *xenv.Environment, msg group.UpdateMembersMsg) (*xenv.Response, error) {
	if err := s.registry.Admin.Assert(env.Sender()); err != nil {
		return nil, err
	}
	logger.Debug("updating members", "add", len(msg.Add), "remove", len(msg.Remove))

	diffs, err := s.members.UpdateMembers(msg.Add, msg.Remove, env.Block().Height)
	if err != nil {
		return nil, err
	}
	return s.commit(diffs, xenv.NewResponse().
		AddAttribute("action", "update_members").
		AddAttribute("added", len(msg.Add)).
		AddAttribute("removed", len(msg.Remove)))
}

func (s *state) addPoints(env *xenv.Environment, msg AddPointsMsg) (*xenv.Response, error) {
	if err := s.registry.Admin.Assert(env.Sender()); err != nil {
		return nil, err
	}
	if msg.Points == 0 {
		return xenv.NewResponse(), nil
	}
	cur, err := s.members.IsMember(msg.Addr)
	if err != nil {
		return nil, err
	}
	points, err := poe.SafeAdd(group.WeightOf(cur), msg.Points)
	if err != nil {
		return nil, reverts.Overflowf("points of %s", msg.Addr)
	}
	diff, err := s.members.Set(msg.Addr, points, env.Block().Height)
	if err != nil {
		return nil, err
	}
	return s.commit([]group.MemberDiff{*diff}, xenv.NewResponse().
		AddAttribute("action", "add_points").
		AddAttribute("addr", msg.Addr).
		AddAttribute("points", msg.Points))
}

// slash cuts the points of a member by a portion. Slashing a non member does nothing.
func (s *state) slash(env *xenv.Environment, msg group.SlashMsg) (*xenv.Response, error) {
	if err := s.registry.AssertSlasher(env.Sender()); err != nil {
		return nil, err
	}
	if !msg.Portion.IsPortion() {
		return nil, reverts.InvalidParameterf("slash portion %s not in [0, 1]", msg.Portion)
	}
	cur, err := s.members.IsMember(msg.Addr)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return xenv.NewResponse(), nil
	}
	cut := msg.Portion.MulFloor(*cur)
	if cut == 0 {
		return xenv.NewResponse(), nil
	}

	logger.Debug("slashing", "addr", msg.Addr, "portion", msg.Portion, "points", *cur)
	diff, err := s.members.Set(msg.Addr, *cur-cut, env.Block().Height)
	if err != nil {
		logger.Info("slashing failed", "addr", msg.Addr, "error", err)
		return nil, err
	}
	resp, err := s.commit([]group.MemberDiff{*diff}, xenv.NewResponse().
		AddAttribute("action", "slash").
		AddAttribute("addr", msg.Addr).
		AddAttribute("portion", msg.Portion).
		AddAttribute("slashed", cut))
	if err != nil {
		return nil, err
	}
	logger.Info("slashed", "addr", msg.Addr, "slashed", cut)
	return resp, nil
}

func (s *state) endBlock(env *xenv.Environment) (*xenv.Response, error) {
	h, err := s.halflife.Load()
	if err != nil {
		return nil, err
	}
	now := env.Block().Time
	if !h.due(now) {
		return xenv.NewResponse(), nil
	}

	diffs, err := s.applyHalflife(env.Block().Height)
	if err != nil {
		return nil, err
	}
	h.LastHalflife = now
	if err := s.halflife.Save(h); err != nil {
		return nil, err
	}
	logger.Info("halflife applied", "time", now, "members", len(diffs))
	return s.commit(diffs, xenv.NewResponse().AddAttribute("action", "halflife").AddAttribute("reduced", len(diffs)))
}
