// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/runtime"
)

type Accounts struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Accounts {
	return &Accounts{rt}
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"], "address")
	if err != nil {
		return err
	}
	denom := mux.Vars(req)["denom"]
	amount, err := a.rt.Balance(addr, denom)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &JSONBalance{Address: addr, Denom: denom, Amount: amount.String()})
}

func (a *Accounts) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	denom := mux.Vars(req)["denom"]
	amount, err := a.rt.Supply(denom)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &JSONSupply{Denom: denom, Amount: amount.String()})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/supply/{denom}").
		Methods(http.MethodGet).
		Name("accounts_get_supply").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetSupply))
	sub.Path("/{address}/balances/{denom}").
		Methods(http.MethodGet).
		Name("accounts_get_balance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
}
