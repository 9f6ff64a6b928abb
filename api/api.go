// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/collator-staking/api/staking"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/log"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
}

// New return api router
func New(db kv.Store, cfg staker.Config, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	staking.New(db, cfg).
		Mount(router, "/staking")

	if opts.EnableMetrics {
		router.Use(metricsHandler)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger || opts.SlowQueriesThreshold > 0 {
		handler = RequestLoggerHandler(handler, logger, opts.EnableReqLogger, opts.SlowQueriesThreshold)
	}

	return handler.ServeHTTP
}
