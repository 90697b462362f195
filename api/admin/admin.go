// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the runtime toggles of a running node: the log level and the request logs.
package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/log"
)

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type LogLevel struct {
	Level string `json:"level"`
}

type LogStatus struct {
	Enabled bool `json:"enabled"`
}

type Admin struct {
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
}

func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool) http.HandlerFunc {
	a := &Admin{logLevel, apiLogs}

	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()
	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("GET /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetLogLevel))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("POST /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetLogLevel))
	sub.Path("/apilogs").
		Methods(http.MethodGet).
		Name("GET /admin/apilogs").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAPILogs))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		Name("POST /admin/apilogs").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetAPILogs))

	return handlers.CompressHandler(router).ServeHTTP
}

// levelName maps the custom trace and crit levels back to their names.
func (a *Admin) levelName() string {
	current := a.logLevel.Level()
	for name, l := range levels {
		if l == current {
			return name
		}
	}
	return current.String()
}

func (a *Admin) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, LogLevel{a.levelName()})
}

func (a *Admin) handleSetLogLevel(w http.ResponseWriter, r *http.Request) error {
	var req LogLevel
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	l, ok := levels[req.Level]
	if !ok {
		return utils.BadRequest(errors.Errorf("invalid verbosity level %q", req.Level))
	}
	a.logLevel.Set(l)
	log.Info("log level updated", "pkg", "admin", "level", req.Level)
	return utils.WriteJSON(w, LogLevel{a.levelName()})
}

func (a *Admin) handleGetAPILogs(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, LogStatus{a.apiLogs.Load()})
}

func (a *Admin) handleSetAPILogs(w http.ResponseWriter, r *http.Request) error {
	var req LogStatus
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	a.apiLogs.Store(req.Enabled)
	log.Info("api logs updated", "pkg", "admin", "enabled", req.Enabled)
	return utils.WriteJSON(w, LogStatus{a.apiLogs.Load()})
}
