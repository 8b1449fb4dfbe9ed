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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/snapcat/database/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// ErrPersistence wraps every failure to read or write the ledger store
var ErrPersistence = errors.New("persistence error")

type Database struct {
	logger *slog.Logger
	db     *gorm.DB
	path   string
}

// New opens the ledger store. An empty path opens a private in-memory
// database, useful for testing
func New(opts ...DatabaseOptionFunc) (*Database, error) {
	d := &Database{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var dsn string
	if d.path == "" {
		dsn = "file::memory:"
	} else {
		// Make sure the parent directory exists
		dir := filepath.Dir(d.path)
		if _, err := os.Stat(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		// WAL journal mode, full sync so a committed height survives a crash
		connOpts := "_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
		dsn = fmt.Sprintf("file:%s?%s", d.path, connOpts)
	}
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrPersistence, d.path, err)
	}
	d.db = db
	if err := d.init(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) init() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("%w: get database handle: %w", ErrPersistence, err)
	}
	// A single writer. This also keeps an in-memory database on one
	// connection, since each connection would otherwise get its own
	sqlDB.SetMaxOpenConns(1)
	// Configure tracing for GORM
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	for _, model := range models.MigrateModels {
		d.logger.Debug(
			fmt.Sprintf("creating table: %#v", model),
			"component", "database",
		)
		if err := d.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("%w: migrate: %w", ErrPersistence, err)
		}
	}
	return nil
}

// DB returns the underlying GORM database handle
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Path returns the database file path, or an empty string for in-memory
func (d *Database) Path() string {
	return d.path
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	db, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// resolveDB returns the handle to run a statement on: the transaction when
// one is given, otherwise the database itself
func (d *Database) resolveDB(txn *Txn) (*gorm.DB, error) {
	if txn == nil {
		return d.db, nil
	}
	return txn.tx()
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
