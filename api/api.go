// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves read-only JSON endpoints over a runtime.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/poe/api/accounts"
	"github.com/vechain/poe/api/contracts"
	"github.com/vechain/poe/api/groups"
	"github.com/vechain/poe/api/middleware"
	"github.com/vechain/poe/api/node"
	"github.com/vechain/poe/api/subscriptions"
	"github.com/vechain/poe/api/validators"
	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins string
	EnableMetrics  bool
	// APILogs toggles request logging, requests slower than SlowQueriesThreshold are always
	// logged when it is set.
	APILogs              *atomic.Bool
	SlowQueriesThreshold time.Duration
}

// New return api router. Block subscriptions are served when feed is not nil.
func New(rt *runtime.Runtime, network *genesis.Network, feed subscriptions.BlockFeed, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(rt).
		Mount(router, "/accounts")
	contracts.New(rt).
		Mount(router, "/contracts")
	groups.New(rt).
		Mount(router, "/groups")
	validators.New(rt, network.Valset).
		Mount(router, "/validators")
	node.New(rt, network).
		Mount(router, "/node")
	if feed != nil {
		subscriptions.New(feed, origins).
			Mount(router, "/subscriptions")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}
	if opts.APILogs != nil {
		router.Use(middleware.RequestLoggerMiddleware(logger, opts.APILogs, opts.SlowQueriesThreshold))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP
}
