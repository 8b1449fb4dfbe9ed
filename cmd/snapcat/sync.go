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

package main

import (
	"log/slog"
	"os"

	"github.com/blinklabs-io/snapcat/internal/config"
	"github.com/blinklabs-io/snapcat/internal/node"
	"github.com/spf13/cobra"
)

var syncFlags = struct {
	hiddenPuzzleHash string
	rpcUrl           string
	startHeight      uint64
	pollInterval     string
	metricsListen    string
	once             bool
}{}

// applySyncFlags copies explicitly set flags over the loaded config
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("hidden-puzzle-hash") {
		cfg.HiddenPuzzleHash = syncFlags.hiddenPuzzleHash
	}
	if flags.Changed("rpc-url") {
		cfg.RpcUrl = syncFlags.rpcUrl
	}
	if flags.Changed("start-height") {
		cfg.StartHeight = syncFlags.startHeight
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = syncFlags.pollInterval
	}
	if flags.Changed("metrics-listen") {
		cfg.MetricsListen = syncFlags.metricsListen
	}
}

func syncRun(cmd *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun(os.Stdout)
	applySyncFlags(cmd, cfg)

	if err := node.Run(cfg, logger, syncFlags.once); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the token ledger against a full node",
		Run: func(cmd *cobra.Command, args []string) {
			syncRun(cmd, args, configFromCommand(cmd))
		},
	}
	cmd.Flags().
		StringVar(&syncFlags.hiddenPuzzleHash, "hidden-puzzle-hash", "", "the hidden puzzle hash of a revocable token")
	cmd.Flags().
		StringVar(&syncFlags.rpcUrl, "rpc-url", config.DefaultRpcUrl, "full node RPC URL, or several separated by commas")
	cmd.Flags().
		Uint64Var(&syncFlags.startHeight, "start-height", 0, "first height to sync when the database is empty")
	cmd.Flags().
		StringVar(&syncFlags.pollInterval, "poll-interval", config.DefaultPollInterval, "wait between polls of the full node")
	cmd.Flags().
		StringVar(&syncFlags.metricsListen, "metrics-listen", "", "address to serve prometheus metrics on")
	cmd.Flags().
		BoolVar(&syncFlags.once, "once", false, "exit once the ledger reaches the node tip")
	return cmd
}
