// Copyright 2026 Blink Labs Software
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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/blinklabs-io/snapcat/database"
	"github.com/blinklabs-io/snapcat/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	limit int
}{}

// renderShow writes the ledger summary and the largest holders as tables
func renderShow(w io.Writer, db *database.Database, limit int) error {
	txn := db.Transaction(false)
	defer txn.Release()
	summary, err := db.Summary(txn)
	if err != nil {
		return err
	}
	holders, err := db.HolderBalances(limit, txn)
	if err != nil {
		return err
	}

	lastHeight := "none"
	if summary.HasWatermark {
		lastHeight = strconv.FormatUint(summary.LastHeight, 10)
	}
	summaryTable, err := pterm.DefaultTable.
		WithHasHeader(false).
		WithData(pterm.TableData{
			{"Last synced height", lastHeight},
			{"Spends", strconv.FormatInt(summary.SpendCount, 10)},
			{"Coins created", strconv.FormatInt(summary.CoinCount, 10)},
			{"Unspent coins", strconv.FormatInt(summary.UnspentCount, 10)},
			{"Total created", summary.TotalCreated.String()},
			{"Unspent supply", summary.UnspentSupply.String()},
			{"Holders", strconv.Itoa(summary.Holders)},
		}).
		Srender()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, summaryTable); err != nil {
		return err
	}
	if len(holders) == 0 {
		return nil
	}
	data := pterm.TableData{{"Puzzle hash", "Balance", "Coins"}}
	for _, h := range holders {
		data = append(data, []string{
			h.PuzzleHash,
			h.Balance.String(),
			strconv.Itoa(h.Coins),
		})
	}
	holderTable, err := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderRowSeparator("-").
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, holderTable)
	return err
}

func showRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun(os.Stderr)
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return renderShow(cmd.OutOrStdout(), db, showFlags.limit)
}

func showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show ledger totals and the largest holders",
		Run: func(cmd *cobra.Command, args []string) {
			if err := showRun(cmd, configFromCommand(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		IntVar(&showFlags.limit, "limit", 10, "number of holders to list, 0 for all")
	return cmd
}
