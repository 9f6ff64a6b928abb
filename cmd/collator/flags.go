// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/collator-staking/thor"
)

var (
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a genesis file (the dev genesis is used when omitted)",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the staking database",
	}
	scenarioFlag = cli.StringFlag{
		Name:  "scenario",
		Usage: "path to the YAML scenario to replay",
	}
	stepBudgetFlag = cli.Uint64Flag{
		Name:  "step-budget",
		Value: thor.DefaultStepBudget,
		Usage: "gas available to deferred work per block (0 for unbounded)",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "",
		Usage: "API service listening address (disabled when empty)",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "log API requests slower than this many milliseconds (0 disables)",
	}
	serveFlag = cli.BoolFlag{
		Name:  "serve",
		Usage: "keep the API and metrics servers up after the scenario ends, until interrupted",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "dump the raw structures instead of tables",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
)
