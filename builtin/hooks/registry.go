// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hooks

import (
	"github.com/vechain/poe/builtin/admin"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// Registry is the admin, the member change listeners and the slashers of a group contract.
type Registry struct {
	Admin    *admin.Admin
	Hooks    *Hooks
	Slashers *Hooks
}

func NewRegistry(sctx *storage.Context) *Registry {
	return &Registry{
		Admin:    admin.New(sctx),
		Hooks:    New(sctx, "hooks"),
		Slashers: New(sctx, "slashers"),
	}
}

// Init sets the admin and the number of unprivileged registrations allowed.
func (r *Registry) Init(adm *poe.Address, preauthHooks, preauthSlashing uint64) error {
	if err := r.Admin.Set(adm); err != nil {
		return err
	}
	if err := r.Hooks.SetPreauths(preauthHooks); err != nil {
		return err
	}
	return r.Slashers.SetPreauths(preauthSlashing)
}

// Notify builds the hook messages announcing diffs, none if diffs is empty.
func (r *Registry) Notify(diffs []group.MemberDiff) ([]xenv.Msg, error) {
	if len(diffs) == 0 {
		return nil, nil
	}
	return r.Hooks.Prepare(group.MemberChangedHookMsg{Diffs: diffs})
}

// AssertSlasher fails with Unauthorized unless addr is a registered slasher.
func (r *Registry) AssertSlasher(addr poe.Address) error {
	ok, err := r.Slashers.Contains(addr)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Unauthorizedf("%s is not a slasher", addr)
	}
	return nil
}

// Execute handles the admin, hook and slasher messages. handled is false for any other
// message.
func (r *Registry) Execute(env *xenv.Environment, msg any) (resp *xenv.Response, handled bool, err error) {
	sender := env.Sender()
	switch msg := msg.(type) {
	case group.UpdateAdminMsg:
		err = r.Admin.Update(sender, msg.Admin)
		resp = xenv.NewResponse().AddAttribute("action", "update_admin")
	case group.AddHookMsg:
		err = r.Hooks.Add(r.Admin, sender, msg.Addr)
		resp = xenv.NewResponse().AddAttribute("action", "add_hook").AddAttribute("hook", msg.Addr)
	case group.RemoveHookMsg:
		err = r.Hooks.Remove(r.Admin, sender, msg.Addr)
		resp = xenv.NewResponse().AddAttribute("action", "remove_hook").AddAttribute("hook", msg.Addr)
	case group.AddSlasherMsg:
		err = r.Slashers.Add(r.Admin, sender, msg.Addr)
		resp = xenv.NewResponse().AddAttribute("action", "add_slasher").AddAttribute("slasher", msg.Addr)
	case group.RemoveSlasherMsg:
		err = r.Slashers.Remove(r.Admin, sender, msg.Addr)
		resp = xenv.NewResponse().AddAttribute("action", "remove_slasher").AddAttribute("slasher", msg.Addr)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return resp.AddAttribute("sender", sender), true, nil
}

// Query answers admin, hook and slasher queries. handled is false for any other query.
func (r *Registry) Query(query any) (res any, handled bool, err error) {
	switch q := query.(type) {
	case group.AdminQuery:
		res, err = r.Admin.Get()
	case group.HooksQuery:
		res, err = r.Hooks.List()
	case group.PreauthQuery:
		res, err = r.Hooks.Preauths()
	case group.SlashersQuery:
		res, err = r.Slashers.List()
	case group.IsSlasherQuery:
		res, err = r.Slashers.Contains(q.Addr)
	default:
		return nil, false, nil
	}
	return res, true, err
}
