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

package database

import (
	"fmt"
	"sync"

	"github.com/blinklabs-io/snapcat/database/types"
	"gorm.io/gorm"
)

// Txn wraps a single sqlite transaction. All writes for one block height go
// through one Txn so that they commit or roll back together
type Txn struct {
	db        *Database
	gormTxn   *gorm.DB
	beginErr  error
	lock      sync.Mutex
	finished  bool
	readWrite bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	t.gormTxn = db.DB().Begin()
	if t.gormTxn.Error != nil {
		t.beginErr = t.gormTxn.Error
		t.finished = true
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// tx returns the GORM handle bound to this transaction
func (t *Txn) tx() (*gorm.DB, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.beginErr != nil {
		return nil, persistenceErr("begin transaction", t.beginErr)
	}
	if t.finished {
		return nil, types.ErrTxnFinished
	}
	return t.gormTxn, nil
}

// writeTx is like tx, but fails for read-only transactions
func (t *Txn) writeTx() (*gorm.DB, error) {
	if !t.readWrite {
		return nil, types.ErrReadOnlyTxn
	}
	return t.tx()
}

// Do executes the specified function in the context of the transaction. Any errors returned will result
// in the transaction being rolled back
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if err2 := t.Rollback(); err2 != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				err2,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.beginErr != nil {
		return persistenceErr("begin transaction", t.beginErr)
	}
	if t.finished {
		return nil
	}
	// No need to commit for read-only, but we do want to free up resources
	if !t.readWrite {
		return t.rollback()
	}
	t.finished = true
	if err := t.gormTxn.Commit().Error; err != nil {
		return persistenceErr("commit", err)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.gormTxn.Rollback().Error; err != nil {
		return persistenceErr("rollback", err)
	}
	return nil
}

// Release releases transaction resources. For read-write transactions that
// were not committed this is equivalent to Rollback. Use this in defer
// statements for clean resource cleanup. Errors are logged but not returned,
// making this safe for deferred calls.
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
