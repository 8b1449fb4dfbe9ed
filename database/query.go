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
	"math/big"
	"sort"

	"github.com/blinklabs-io/snapcat/database/models"
	"github.com/blinklabs-io/snapcat/database/types"
)

// ErrStopIteration may be returned from an IterateCoins callback to stop
// early without an error
var ErrStopIteration = errors.New("stop iteration")

// CoinRecord is a created coin joined with its spend status
type CoinRecord struct {
	CoinName   string       `json:"coin_name"`
	PuzzleHash string       `json:"puzzle_hash"`
	Amount     types.Uint64 `json:"amount"`
	Height     uint64       `json:"height"`
	Spent      bool         `json:"spent"`
}

// HolderBalance is the unspent balance held under one inner puzzle hash
type HolderBalance struct {
	PuzzleHash string
	Balance    *big.Int
	Coins      int
}

// Summary describes the ledger as a whole
type Summary struct {
	LastHeight    uint64
	HasWatermark  bool
	SpendCount    int64
	CoinCount     int64
	UnspentCount  int64
	TotalCreated  *big.Int
	UnspentSupply *big.Int
	Holders       int
}

// CountSpends returns the number of recorded token spends
func (d *Database) CountSpends(txn *Txn) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.CoinSpend{}).Count(&count); result.Error != nil {
		return 0, persistenceErr("count spends", result.Error)
	}
	return count, nil
}

// CountCoins returns the number of recorded created coins
func (d *Database) CountCoins(txn *Txn) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Coin{}).Count(&count); result.Error != nil {
		return 0, persistenceErr("count coins", result.Error)
	}
	return count, nil
}

// IterateCoins calls fn for each created coin in height order. When
// unspentOnly is set, coins that have a spend record are skipped. fn must
// not use the database, since the store runs on a single connection
func (d *Database) IterateCoins(
	unspentOnly bool,
	fn func(CoinRecord) error,
	txn *Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	query := db.Table("coins").
		Select("coins.coin_name, coins.puzzle_hash, coins.amount, coins.height, coin_spends.coin_name IS NOT NULL AS spent").
		Joins("LEFT JOIN coin_spends ON coin_spends.coin_name = coins.coin_name").
		Order("coins.height, coins.coin_name")
	if unspentOnly {
		query = query.Where("coin_spends.coin_name IS NULL")
	}
	rows, err := query.Rows()
	if err != nil {
		return persistenceErr("iterate coins", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec CoinRecord
		if err := db.ScanRows(rows, &rec); err != nil {
			return persistenceErr("iterate coins", err)
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStopIteration) {
				return nil
			}
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return persistenceErr("iterate coins", err)
	}
	return nil
}

// HolderBalances aggregates unspent coins by inner puzzle hash, largest
// balance first. A limit of zero returns every holder
func (d *Database) HolderBalances(limit int, txn *Txn) ([]HolderBalance, error) {
	holders := make(map[string]*HolderBalance)
	err := d.IterateCoins(true, func(rec CoinRecord) error {
		h, ok := holders[rec.PuzzleHash]
		if !ok {
			h = &HolderBalance{PuzzleHash: rec.PuzzleHash, Balance: new(big.Int)}
			holders[rec.PuzzleHash] = h
		}
		h.Balance.Add(h.Balance, new(big.Int).SetUint64(uint64(rec.Amount)))
		h.Coins++
		return nil
	}, txn)
	if err != nil {
		return nil, err
	}
	ret := make([]HolderBalance, 0, len(holders))
	for _, h := range holders {
		ret = append(ret, *h)
	}
	sort.Slice(ret, func(i, j int) bool {
		if c := ret[i].Balance.Cmp(ret[j].Balance); c != 0 {
			return c > 0
		}
		return ret[i].PuzzleHash < ret[j].PuzzleHash
	})
	if limit > 0 && len(ret) > limit {
		ret = ret[:limit]
	}
	return ret, nil
}

// Summary computes ledger totals
func (d *Database) Summary(txn *Txn) (*Summary, error) {
	ret := &Summary{
		TotalCreated:  new(big.Int),
		UnspentSupply: new(big.Int),
	}
	var err error
	ret.LastHeight, ret.HasWatermark, err = d.GetWatermark(txn)
	if err != nil {
		return nil, err
	}
	if ret.SpendCount, err = d.CountSpends(txn); err != nil {
		return nil, err
	}
	holders := make(map[string]struct{})
	err = d.IterateCoins(false, func(rec CoinRecord) error {
		amount := new(big.Int).SetUint64(uint64(rec.Amount))
		ret.CoinCount++
		ret.TotalCreated.Add(ret.TotalCreated, amount)
		if !rec.Spent {
			ret.UnspentCount++
			ret.UnspentSupply.Add(ret.UnspentSupply, amount)
			holders[rec.PuzzleHash] = struct{}{}
		}
		return nil
	}, txn)
	if err != nil {
		return nil, err
	}
	ret.Holders = len(holders)
	return ret, nil
}
