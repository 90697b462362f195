// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// poesim runs a proof of engagement network on a single node: it replays scenarios, or produces
// blocks on a timer and serves the network state over http.
package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/poe/api"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/metrics"
)

var (
	version       string
	gitCommit     string
	gitTag        string
	copyrightYear string

	logger = log.WithContext("pkg", "poesim")
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
		Name:      "poesim",
		Usage:     "Proof of engagement network simulator",
		Copyright: fmt.Sprintf("2025-%s VeChain Foundation <https://vechain.org/>", copyrightYear),
		Commands: []cli.Command{
			{
				Name:      "run",
				Usage:     "replay a scenario and print the validator set updates",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					dataDirFlag,
					blockIntervalFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: runAction,
			},
			{
				Name:  "serve",
				Usage: "produce blocks and serve the network state",
				Flags: []cli.Flag{
					dataDirFlag,
					genesisFlag,
					blockIntervalFlag,
					verbosityFlag,
					jsonLogsFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiSlowQueriesThresholdFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
				},
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	initLogger(ctx)
	if ctx.NArg() != 1 {
		return errors.New("expected one scenario file")
	}
	scenario, err := loadScenario(ctx.Args().First())
	if err != nil {
		return err
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	sim, err := openSimulation(db, scenario.Genesis, ctx.Uint64(blockIntervalFlag.Name))
	if err != nil {
		return err
	}
	if err := newRunner(sim, scenario.Genesis, ctx.App.Writer).run(scenario.Steps); err != nil {
		return err
	}
	return sim.save()
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	cfg, err := loadGenesis(ctx)
	if err != nil {
		return err
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	sim, err := openSimulation(db, cfg, ctx.Uint64(blockIntervalFlag.Name))
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.WithMessage(err, "start metrics server")
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics server started", "url", url)
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := api.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs)
		if err != nil {
			return errors.WithMessage(err, "start admin server")
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		logger.Info("admin server started", "url", url)
	}

	handler := api.New(sim.rt, sim.network, sim.solo, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		APILogs:              apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
	})
	url, closeFunc, err := startServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return errors.WithMessage(err, "start API server")
	}
	defer func() { logger.Info("stopping API server..."); closeFunc() }()
	logger.Info("API server started", "url", url, "valset", sim.network.Valset)

	g, gctx := errgroup.WithContext(handleExitSignal())
	g.Go(func() error { return sim.solo.Run(gctx) })
	err = g.Wait()
	sim.solo.Close()
	if serr := sim.save(); serr != nil {
		logger.Warn("failed to save network meta", "err", serr)
	}
	return err
}
