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

// Package export writes the coin ledger in CSV or JSON form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blinklabs-io/snapcat/database"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var csvHeader = []string{"coin_name", "puzzle_hash", "amount", "height", "spent"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (must be 'csv' or 'json')", s)
	}
}

type Options struct {
	Format      Format
	UnspentOnly bool
}

// Write streams coin rows from db to w and returns the number written.
// Rows are read in one read-only transaction so the export is consistent
func Write(w io.Writer, db *database.Database, opts Options) (int, error) {
	var rw rowWriter
	switch opts.Format {
	case FormatCSV, "":
		rw = newCSVWriter(w)
	case FormatJSON:
		rw = newJSONWriter(w)
	default:
		return 0, fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err := rw.begin(); err != nil {
		return 0, err
	}
	count := 0
	txn := db.Transaction(false)
	defer txn.Release()
	err := db.IterateCoins(
		opts.UnspentOnly,
		func(rec database.CoinRecord) error {
			if err := rw.write(rec); err != nil {
				return err
			}
			count++
			return nil
		},
		txn,
	)
	if err != nil {
		return count, fmt.Errorf("export coins: %w", err)
	}
	if err := rw.end(); err != nil {
		return count, err
	}
	return count, nil
}

type rowWriter interface {
	begin() error
	write(rec database.CoinRecord) error
	end() error
}

type csvWriter struct {
	w *csv.Writer
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) begin() error {
	return c.w.Write(csvHeader)
}

func (c *csvWriter) write(rec database.CoinRecord) error {
	return c.w.Write([]string{
		rec.CoinName,
		rec.PuzzleHash,
		strconv.FormatUint(uint64(rec.Amount), 10),
		strconv.FormatUint(rec.Height, 10),
		strconv.FormatBool(rec.Spent),
	})
}

func (c *csvWriter) end() error {
	c.w.Flush()
	return c.w.Error()
}

// jsonWriter emits a single JSON array without buffering the whole ledger
type jsonWriter struct {
	w     io.Writer
	count int
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{w: w}
}

func (j *jsonWriter) begin() error {
	_, err := io.WriteString(j.w, "[")
	return err
}

func (j *jsonWriter) write(rec database.CoinRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	sep := "\n"
	if j.count > 0 {
		sep = ",\n"
	}
	j.count++
	if _, err := io.WriteString(j.w, sep); err != nil {
		return err
	}
	_, err = j.w.Write(buf)
	return err
}

func (j *jsonWriter) end() error {
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}
