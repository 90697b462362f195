// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/metrics"
	"github.com/vechain/poe/muxdb"
)

// initLogger installs the root handler and returns the level it filters on, which the admin
// server may change later.
func initLogger(ctx *cli.Context) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))

	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.SetHandler(log.NewLevelHandler(os.Stderr, lvl, ctx.Bool(jsonLogsFlag.Name), useColor))
	return lvl
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func loadGenesis(ctx *cli.Context) (*genesis.Config, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.DevConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var cfg genesis.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &cfg, nil
}

func openDB(ctx *cli.Context) (*muxdb.MuxDB, error) {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return muxdb.NewMem(), nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}
	return muxdb.Open(dir, &muxdb.Options{
		OpenFilesCacheCapacity: 256,
		ReadCacheMB:            64,
		WriteBufferMB:          16,
	})
}

// startServer serves handler on addr until the returned close function is called.
func startServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var g errgroup.Group
	g.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return "http://" + listener.Addr().String(), func() {
		srv.Close()
		if err := g.Wait(); err != nil {
			logger.Warn("server stopped", "addr", addr, "err", err)
		}
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	url, closeFunc, err := startServer(addr, handlers.CompressHandler(router))
	if err != nil {
		return "", nil, err
	}
	return url + "/metrics", closeFunc, nil
}
