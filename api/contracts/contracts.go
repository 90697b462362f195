// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contracts serves the registry of deployed contracts.
package contracts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/runtime"
)

// Contracts serves the contract registry of a runtime.
type Contracts struct {
	rt *runtime.Runtime
}

// New return a Contracts by runtime
func New(rt *runtime.Runtime) *Contracts {
	return &Contracts{rt}
}

func (c *Contracts) handleListContracts(w http.ResponseWriter, _ *http.Request) error {
	infos, err := c.rt.Contracts()
	if err != nil {
		return err
	}
	res := make([]*JSONContract, 0, len(infos))
	for _, info := range infos {
		res = append(res, convertContract(info))
	}
	return utils.WriteJSON(w, res)
}

func (c *Contracts) handleGetContract(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"], "address")
	if err != nil {
		return err
	}
	info, err := c.rt.Contract(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertContract(info))
}

func (c *Contracts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("contracts_list").
		HandlerFunc(utils.WrapHandlerFunc(c.handleListContracts))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("contracts_get_contract").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetContract))
}
