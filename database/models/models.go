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

package models

import "github.com/blinklabs-io/snapcat/database/types"

// MigrateModels contains a list of model objects that should have DB migrations applied
var MigrateModels = []any{
	&ConfigEntry{},
	&CoinSpend{},
	&Coin{},
}

// ConfigKeyLastBlockHeight holds the sync watermark
const ConfigKeyLastBlockHeight = "last_block_height"

// ConfigEntry is a row of the key/value config table
type ConfigEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (ConfigEntry) TableName() string {
	return "config"
}

// CoinSpend records a spend of a token coin. CoinName is the hex coin ID of
// the spent coin
type CoinSpend struct {
	CoinName     string `gorm:"primaryKey"`
	Height       uint64 `gorm:"index;not null"`
	CreatedCount uint64 `gorm:"not null"`
}

func (CoinSpend) TableName() string {
	return "coin_spends"
}

// Coin records a coin created by a token spend. CoinName is the on-chain
// coin ID and PuzzleHash the inner (owner) puzzle hash, both hex encoded
type Coin struct {
	CoinName   string       `gorm:"primaryKey"`
	PuzzleHash string       `gorm:"index;not null"`
	Amount     types.Uint64 `gorm:"type:text;not null"`
	Height     uint64       `gorm:"index;not null"`
}

func (Coin) TableName() string {
	return "coins"
}
