// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package groups serves the members and rewards of any group contract: engagement, stake,
// mixer and the validator rewards group.
package groups

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
)

type Groups struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Groups {
	return &Groups{rt}
}

func (g *Groups) contract(req *http.Request) (poe.Address, error) {
	return utils.ParseAddress(mux.Vars(req)["address"], "address")
}

func (g *Groups) handleListMembers(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	start, err := utils.ParseOptionalAddress(req.URL.Query().Get("start"), "start")
	if err != nil {
		return err
	}
	limit, err := utils.ParseLimit(req)
	if err != nil {
		return err
	}
	res, err := g.rt.Query(addr, group.ListMembersQuery{StartAfter: start, Limit: limit})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertMembers(res.([]group.Member)))
}

func (g *Groups) handleRanking(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	limit, err := utils.ParseLimit(req)
	if err != nil {
		return err
	}
	res, err := g.rt.Query(addr, group.ListMembersByWeightQuery{Limit: limit})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertMembers(res.([]group.Member)))
}

func (g *Groups) handleGetMember(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	member, err := utils.ParseAddress(mux.Vars(req)["member"], "member")
	if err != nil {
		return err
	}
	q := group.MemberQuery{Addr: member}
	if h := req.URL.Query().Get("height"); h != "" {
		height, err := strconv.ParseUint(h, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "height"))
		}
		q.AtHeight = &height
	}
	res, err := g.rt.Query(addr, q)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &JSONMember{Address: member, Weight: res.(*uint64)})
}

func (g *Groups) handleTotalWeight(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	res, err := g.rt.Query(addr, group.TotalWeightQuery{})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &JSONTotalWeight{TotalWeight: res.(uint64)})
}

func (g *Groups) handleRewards(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	distributed, err := g.rt.Query(addr, distribution.DistributedRewardsQuery{})
	if err != nil {
		return err
	}
	undistributed, err := g.rt.Query(addr, distribution.UndistributedRewardsQuery{})
	if err != nil {
		return err
	}
	d, u := distributed.(poe.Coin), undistributed.(poe.Coin)
	return utils.WriteJSON(w, &JSONRewards{Denom: d.Denom, Distributed: d.Amount.String(), Undistributed: u.Amount.String()})
}

func (g *Groups) handleWithdrawable(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.contract(req)
	if err != nil {
		return err
	}
	owner, err := utils.ParseAddress(mux.Vars(req)["owner"], "owner")
	if err != nil {
		return err
	}
	res, err := g.rt.Query(addr, distribution.WithdrawableRewardsQuery{Owner: owner})
	if err != nil {
		return err
	}
	c := res.(poe.Coin)
	return utils.WriteJSON(w, &JSONWithdrawable{Owner: owner, Denom: c.Denom, Amount: c.Amount.String()})
}

func (g *Groups) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{address}/members").
		Methods(http.MethodGet).
		Name("groups_list_members").
		HandlerFunc(utils.WrapHandlerFunc(g.handleListMembers))
	sub.Path("/{address}/members/{member}").
		Methods(http.MethodGet).
		Name("groups_get_member").
		HandlerFunc(utils.WrapHandlerFunc(g.handleGetMember))
	sub.Path("/{address}/ranking").
		Methods(http.MethodGet).
		Name("groups_ranking").
		HandlerFunc(utils.WrapHandlerFunc(g.handleRanking))
	sub.Path("/{address}/total").
		Methods(http.MethodGet).
		Name("groups_total_weight").
		HandlerFunc(utils.WrapHandlerFunc(g.handleTotalWeight))
	sub.Path("/{address}/rewards").
		Methods(http.MethodGet).
		Name("groups_rewards").
		HandlerFunc(utils.WrapHandlerFunc(g.handleRewards))
	sub.Path("/{address}/rewards/{owner}").
		Methods(http.MethodGet).
		Name("groups_withdrawable_rewards").
		HandlerFunc(utils.WrapHandlerFunc(g.handleWithdrawable))
}
