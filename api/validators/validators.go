// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validators serves the validator set contract.
package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
)

type Validators struct {
	rt     *runtime.Runtime
	valset poe.Address
}

func New(rt *runtime.Runtime, valsetAddr poe.Address) *Validators {
	return &Validators{rt, valsetAddr}
}

// query writes the valset answer to q as is.
func (v *Validators) query(w http.ResponseWriter, q any) error {
	res, err := v.rt.Query(v.valset, q)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (v *Validators) handleList(w http.ResponseWriter, req *http.Request) error {
	start, err := utils.ParseOptionalAddress(req.URL.Query().Get("start"), "start")
	if err != nil {
		return err
	}
	limit, err := utils.ParseLimit(req)
	if err != nil {
		return err
	}
	return v.query(w, valset.ListValidatorsQuery{StartAfter: start, Limit: limit})
}

func (v *Validators) handleActive(w http.ResponseWriter, _ *http.Request) error {
	return v.query(w, valset.ListActiveValidatorsQuery{})
}

func (v *Validators) handleSimulate(w http.ResponseWriter, _ *http.Request) error {
	return v.query(w, valset.SimulateActiveValidatorsQuery{})
}

func (v *Validators) handleJailed(w http.ResponseWriter, req *http.Request) error {
	start, err := utils.ParseOptionalAddress(req.URL.Query().Get("start"), "start")
	if err != nil {
		return err
	}
	limit, err := utils.ParseLimit(req)
	if err != nil {
		return err
	}
	return v.query(w, valset.ListJailedValidatorsQuery{StartAfter: start, Limit: limit})
}

func (v *Validators) handleEpoch(w http.ResponseWriter, _ *http.Request) error {
	return v.query(w, valset.EpochQuery{})
}

func (v *Validators) handleConfig(w http.ResponseWriter, _ *http.Request) error {
	return v.query(w, valset.ConfigQuery{})
}

func (v *Validators) handleGet(w http.ResponseWriter, req *http.Request) error {
	op, err := utils.ParseAddress(mux.Vars(req)["operator"], "operator")
	if err != nil {
		return err
	}
	res, err := v.rt.Query(v.valset, valset.ValidatorQuery{Operator: op})
	if err != nil {
		return err
	}
	if res.(*valset.OperatorResponse) == nil {
		return utils.NotFound(errors.Errorf("operator %s not registered", op))
	}
	return utils.WriteJSON(w, res)
}

func (v *Validators) handleSlashing(w http.ResponseWriter, req *http.Request) error {
	op, err := utils.ParseAddress(mux.Vars(req)["operator"], "operator")
	if err != nil {
		return err
	}
	return v.query(w, valset.ListValidatorSlashingQuery{Operator: op})
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	routes := []struct {
		path, name string
		handler    utils.HandlerFunc
	}{
		{"", "validators_list", v.handleList},
		{"/active", "validators_active", v.handleActive},
		{"/simulate", "validators_simulate", v.handleSimulate},
		{"/jailed", "validators_jailed", v.handleJailed},
		{"/epoch", "validators_epoch", v.handleEpoch},
		{"/config", "validators_config", v.handleConfig},
		{"/{operator}", "validators_get", v.handleGet},
		{"/{operator}/slashing", "validators_slashing", v.handleSlashing},
	}
	for _, r := range routes {
		sub.Path(r.path).
			Methods(http.MethodGet).
			Name(r.name).
			HandlerFunc(utils.WrapHandlerFunc(r.handler))
	}
}
