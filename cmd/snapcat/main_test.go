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
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/snapcat/database"
	"github.com/blinklabs-io/snapcat/database/models"
	"github.com/blinklabs-io/snapcat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderShow(t *testing.T) {
	db, err := database.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	require.NoError(t, renderShow(&buf, db, 10))
	assert.Contains(t, buf.String(), "none")

	require.NoError(t, db.AddCoins([]models.Coin{
		{CoinName: "aa", PuzzleHash: "holder-one", Amount: 1000, Height: 10},
		{CoinName: "bb", PuzzleHash: "holder-one", Amount: 5, Height: 11},
		{CoinName: "cc", PuzzleHash: "holder-two", Amount: 7, Height: 11},
	}, nil))
	require.NoError(t, db.AddCoinSpends([]models.CoinSpend{
		{CoinName: "cc", Height: 12},
	}, nil))
	require.NoError(t, db.SetWatermark(12, nil))

	buf.Reset()
	require.NoError(t, renderShow(&buf, db, 10))
	out := buf.String()
	assert.Contains(t, out, "Unspent supply")
	assert.Contains(t, out, "1012")
	assert.Contains(t, out, "1005")
	assert.Contains(t, out, "holder-one")
	assert.NotContains(t, out, "holder-two")
}

func TestApplySyncFlags(t *testing.T) {
	cmd := syncCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--rpc-url", "https://a:8555,https://b:8555",
		"--start-height", "77",
	}))
	cfg := &config.Config{PollInterval: "1m", HiddenPuzzleHash: "keep"}
	applySyncFlags(cmd, cfg)
	assert.Equal(t, "https://a:8555,https://b:8555", cfg.RpcUrl)
	assert.Equal(t, uint64(77), cfg.StartHeight)
	// Unset flags leave the config alone
	assert.Equal(t, "1m", cfg.PollInterval)
	assert.Equal(t, "keep", cfg.HiddenPuzzleHash)
}

func TestOpenDatabase(t *testing.T) {
	logger := commonRun(&bytes.Buffer{})
	cfg := &config.Config{DatabaseFile: filepath.Join(t.TempDir(), "missing.db")}
	_, err := openDatabase(cfg, logger)
	require.Error(t, err)

	cfg = &config.Config{}
	_, err = openDatabase(cfg, logger)
	require.ErrorIs(t, err, config.ErrNoTailHash)

	path := filepath.Join(t.TempDir(), strings.Repeat("ab", 32)+".db")
	created, err := database.New(database.WithPath(path))
	require.NoError(t, err)
	require.NoError(t, created.Close())
	cfg = &config.Config{DatabaseFile: path}
	db, err := openDatabase(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())
}
