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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/snapcat/internal/config"
	"github.com/blinklabs-io/snapcat/internal/export"
	"github.com/spf13/cobra"
)

var exportFlags = struct {
	format  string
	output  string
	unspent bool
}{}

func exportRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun(os.Stderr)
	format, err := export.ParseFormat(exportFlags.format)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var w io.Writer = cmd.OutOrStdout()
	var outFile *os.File
	if exportFlags.output != "" {
		outFile, err = os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		w = outFile
	}
	count, err := export.Write(w, db, export.Options{
		Format:      format,
		UnspentOnly: exportFlags.unspent,
	})
	if outFile != nil {
		err = errors.Join(err, outFile.Close())
	}
	if err != nil {
		return err
	}
	logger.Info(
		fmt.Sprintf("exported %d coins", count),
		"component", programName,
	)
	return nil
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the coin ledger as CSV or JSON",
		Run: func(cmd *cobra.Command, args []string) {
			if err := exportRun(cmd, configFromCommand(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		StringVar(&exportFlags.format, "format", string(export.FormatCSV), "output format: csv or json")
	cmd.Flags().
		StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().
		BoolVar(&exportFlags.unspent, "unspent", false, "only export coins that have not been spent")
	return cmd
}
