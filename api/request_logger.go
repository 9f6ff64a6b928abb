// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"

	"github.com/vechain/collator-staking/log"
)

// RequestLoggerHandler logs every request when enabled, otherwise only
// those slower than the threshold.
func RequestLoggerHandler(handler http.Handler, logger log.Logger, enabled bool, slowQueriesThreshold time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)

		duration := time.Since(start)
		if enabled || (slowQueriesThreshold > 0 && duration > slowQueriesThreshold) {
			logger.Info("API Request",
				"DurationMs", duration.Milliseconds(),
				"URI", r.URL.String(),
				"Method", r.Method,
			)
		}
	})
}
