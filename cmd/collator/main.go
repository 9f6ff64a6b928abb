// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/collator-staking/api"
	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "collator",
		Usage:     "Collator selection and delegated staking rewards",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "initialize the staking database from a genesis file",
				Flags:  []cli.Flag{dataDirFlag, genesisFlag, verbosityFlag, jsonLogsFlag},
				Action: initAction,
			},
			{
				Name:  "run",
				Usage: "replay a scenario on top of the staking database",
				Flags: []cli.Flag{
					dataDirFlag,
					scenarioFlag,
					stepBudgetFlag,
					apiAddrFlag,
					apiCorsFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					serveFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: runAction,
			},
			{
				Name:   "inspect",
				Usage:  "print the committed staking state",
				Flags:  []cli.Flag{dataDirFlag, rawFlag, verbosityFlag},
				Action: inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func initAction(ctx *cli.Context) error {
	initLogger(ctx)

	gen := genesis.NewDevnet()
	if path := ctx.String(genesisFlag.Name); path != "" {
		var err error
		if gen, err = genesis.Load(path); err != nil {
			return err
		}
	}

	db, err := openDB(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := gen.Build(db)
	if err != nil {
		return err
	}
	logger.Info("staking database initialized", "genesis", id, "dir", ctx.String(dataDirFlag.Name))
	return nil
}

func runAction(ctx *cli.Context) error {
	initLogger(ctx)

	path := ctx.String(scenarioFlag.Name)
	if path == "" {
		return errors.New("--scenario is required")
	}
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	db, err := openDB(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	gen, err := genesis.FromStore(db)
	if err != nil {
		return errors.Wrap(err, "run init first")
	}

	exitCtx, cancel := handleExitSignal()
	defer cancel()
	group, groupCtx := errgroup.WithContext(exitCtx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, err := serve(groupCtx, group, "metrics", ctx.String(metricsAddrFlag.Name), metricsHandler())
		if err != nil {
			cancel()
			return err
		}
		logger.Info("metrics server started", "url", url+"/metrics")
	}
	if addr := ctx.String(apiAddrFlag.Name); addr != "" {
		handler := api.New(db, gen.Config, api.Options{
			AllowedOrigins:       ctx.String(apiCorsFlag.Name),
			EnableReqLogger:      ctx.Bool(enableAPILogsFlag.Name),
			SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
			EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		})
		url, err := serve(groupCtx, group, "API", addr, handler)
		if err != nil {
			cancel()
			return err
		}
		logger.Info("API server started", "url", url)
	}

	sum, runErr := replay(groupCtx, NewRunner(db, gen.Config, ctx.Uint64(stepBudgetFlag.Name)), sc)
	if sum != nil {
		logger.Info("scenario done",
			"from", sum.From, "to", sum.To,
			"authored", sum.Authored, "rotations", sum.Rotations,
			"paid", sum.Paid, "deferred", sum.Deferred,
			"released", sum.Released, "evicted", sum.Evicted, "reverted", sum.Reverted)
	}
	if runErr == nil && ctx.Bool(serveFlag.Name) {
		logger.Info("serving until interrupted")
		<-groupCtx.Done()
	}
	cancel()
	if err := group.Wait(); err != nil && runErr == nil {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func replay(ctx context.Context, runner *Runner, sc *Scenario) (*Summary, error) {
	fmt.Println(">> Replaying scenario <<")
	pb := pb.New64(int64(sc.Blocks)).
		SetMaxWidth(90).
		Start()
	defer func() { pb.NotPrint = true }()

	sum, err := runner.Run(ctx, sc, func() { pb.Add64(1) })
	if err != nil {
		return sum, err
	}
	pb.Finish()
	return sum, nil
}

func inspectAction(ctx *cli.Context) error {
	initLogger(ctx)

	db, err := openDB(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()

	gen, err := genesis.FromStore(db)
	if err != nil {
		return errors.Wrap(err, "run init first")
	}
	snap, err := TakeSnapshot(db, gen.Config)
	if err != nil {
		return err
	}
	if ctx.Bool(rawFlag.Name) {
		snap.Dump(os.Stdout)
	} else {
		snap.Render(os.Stdout)
	}
	return nil
}
