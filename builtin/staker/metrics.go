// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/collator-staking/metrics"
)

var (
	metricPayouts          = metrics.LazyLoadCounter("staker_payouts_count")
	metricPaidAmount       = metrics.LazyLoadCounter("staker_paid_amount")
	metricDeferredPayouts  = metrics.LazyLoadCounter("staker_deferred_payouts_count")
	metricUnstakeReleased  = metrics.LazyLoadCounter("staker_unstake_released_count")
	metricEvictions        = metrics.LazyLoadCounter("staker_evictions_count")
	metricOverflowAlerts   = metrics.LazyLoadCounter("staker_overflow_alerts_count")
	metricCurrencyFailures = metrics.LazyLoadCounterVec("staker_currency_failures_count", []string{"op"})
	metricCandidates       = metrics.LazyLoadGauge("staker_candidates")
	metricStepGas          = metrics.LazyLoadHistogram("staker_step_gas", metrics.BucketStepGas)
)
