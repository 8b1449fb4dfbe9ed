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

package database

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/snapcat/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// GetWatermark returns the last fully processed height. ok is false when no
// height has been committed yet
func (d *Database) GetWatermark(txn *Txn) (height uint64, ok bool, err error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, false, err
	}
	var entry models.ConfigEntry
	result := db.Where("key = ?", models.ConfigKeyLastBlockHeight).
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return 0, false, persistenceErr("get watermark", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	height, err = strconv.ParseUint(entry.Value, 10, 64)
	if err != nil {
		return 0, false, persistenceErr(
			"get watermark",
			fmt.Errorf("invalid stored value %q: %w", entry.Value, err),
		)
	}
	return height, true, nil
}

// SetWatermark records height as the last processed height. The stored
// value never decreases: a lower height leaves it unchanged
func (d *Database) SetWatermark(height uint64, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.SetWatermark(height, txn)
		})
	}
	db, err := txn.writeTx()
	if err != nil {
		return err
	}
	current, ok, err := d.GetWatermark(txn)
	if err != nil {
		return err
	}
	if ok && current >= height {
		return nil
	}
	entry := models.ConfigEntry{
		Key:   models.ConfigKeyLastBlockHeight,
		Value: strconv.FormatUint(height, 10),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry)
	if result.Error != nil {
		return persistenceErr("set watermark", result.Error)
	}
	return nil
}

// AddCoinSpends inserts spend records, ignoring any that already exist
func (d *Database) AddCoinSpends(spends []models.CoinSpend, txn *Txn) error {
	if len(spends) == 0 {
		return nil
	}
	return d.insertIfAbsent("add coin spends", &spends, txn)
}

// AddCoins inserts created coin records, ignoring any that already exist
func (d *Database) AddCoins(coins []models.Coin, txn *Txn) error {
	if len(coins) == 0 {
		return nil
	}
	return d.insertIfAbsent("add coins", &coins, txn)
}

func (d *Database) insertIfAbsent(op string, rows any, txn *Txn) error {
	var db *gorm.DB
	var err error
	if txn == nil {
		db = d.db
	} else {
		db, err = txn.writeTx()
		if err != nil {
			return err
		}
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, insertBatchSize)
	if result.Error != nil {
		return persistenceErr(op, result.Error)
	}
	return nil
}

// GetCoinSpend returns the spend record for a coin, or nil if the coin has
// not been spent
func (d *Database) GetCoinSpend(coinName string, txn *Txn) (*models.CoinSpend, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.CoinSpend
	result := db.First(&ret, "coin_name = ?", coinName)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, persistenceErr("get coin spend", result.Error)
	}
	return &ret, nil
}

// GetCoin returns a created coin record, or nil if it is unknown
func (d *Database) GetCoin(coinName string, txn *Txn) (*models.Coin, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Coin
	result := db.First(&ret, "coin_name = ?", coinName)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, persistenceErr("get coin", result.Error)
	}
	return &ret, nil
}
