// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/snapcat/database"
	"github.com/blinklabs-io/snapcat/internal/config"
	"github.com/blinklabs-io/snapcat/rpc"
	"github.com/blinklabs-io/snapcat/syncer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// Run syncs the configured token ledger until the node tip is reached (once)
// or until a termination signal is received
func Run(cfg *config.Config, logger *slog.Logger, once bool) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	if err := cfg.Validate(); err != nil {
		return err
	}
	identity, err := cfg.Identity()
	if err != nil {
		return err
	}
	templates, err := cfg.Templates()
	if err != nil {
		return err
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	pollInterval, err := cfg.PollIntervalDuration()
	if err != nil {
		return err
	}
	rpcTimeout, err := cfg.RpcTimeoutDuration()
	if err != nil {
		return err
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	shutdownTracing, err := setupTracing(signalCtx, TracingConfig{
		Enabled: cfg.Tracing,
		Stdout:  cfg.TracingStdout,
		Writer:  os.Stdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()

	db, err := database.New(
		database.WithLogger(logger),
		database.WithPath(dbPath),
	)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tlsConfig, err := rpc.NewTLSConfig(cfg.TLSOptions())
	if err != nil {
		return err
	}
	client, err := rpc.NewClient(
		cfg.RpcUrl,
		rpc.WithTLSConfig(tlsConfig),
		rpc.WithTimeout(rpcTimeout),
		rpc.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var registry prometheus.Registerer
	if cfg.MetricsListen != "" {
		registry = prometheus.DefaultRegisterer
		metricsServer, addr, err := startMetricsServer(
			cfg.MetricsListen,
			prometheus.DefaultGatherer,
			logger,
		)
		if err != nil {
			return err
		}
		logger.Info(
			"serving prometheus metrics on "+addr.String(),
			"component", "node",
		)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	s, err := syncer.New(syncer.SyncerConfig{
		Logger:       logger,
		Node:         client,
		Database:     db,
		Identity:     identity,
		Templates:    templates,
		PromRegistry: registry,
		MaxCost:      cfg.MaxCost,
		StartHeight:  cfg.StartHeight,
	})
	if err != nil {
		return err
	}
	logger.Info(
		"starting sync",
		"component", "node",
		"tail_hash", identity.TailHash.String(),
		"revocable", identity.Revocable(),
		"database", dbPath,
		"endpoints", len(client.Endpoints()),
	)
	if err := PollLoop(signalCtx, s, pollInterval, once, logger); err != nil {
		logger.Error("sync error", "component", "node", "error", err)
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}

// PollLoop repeatedly syncs to the node tip, waiting interval between
// passes. An unsynced node or a missing block is retried; any other error
// ends the loop. Cancelling ctx ends the loop without an error
func PollLoop(
	ctx context.Context,
	s *syncer.Syncer,
	interval time.Duration,
	once bool,
	logger *slog.Logger,
) error {
	for {
		count, err := s.SyncToTip(ctx)
		switch {
		case err == nil:
			_, height := s.State()
			if count > 0 {
				logger.Info(
					fmt.Sprintf("synced %d heights", count),
					"component", "node",
					"height", height,
				)
			}
			if once {
				return nil
			}
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, syncer.ErrNodeUnsynced),
			errors.Is(err, syncer.ErrBlockNotFound):
			logger.Info(
				"waiting for full node",
				"component", "node",
				"reason", err.Error(),
			)
		default:
			return err
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// startMetricsServer serves gatherer on /metrics. The listener is opened
// before returning so that address errors are reported to the caller
func startMetricsServer(
	addr string,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) (*http.Server, net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("metrics listener failed: %s", err),
				"component", "node",
			)
		}
	}()
	return metricsServer, listener.Addr(), nil
}
