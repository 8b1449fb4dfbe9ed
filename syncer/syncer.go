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

// Package syncer drives the token ledger forward one block height at a
// time against a full node.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/blinklabs-io/snapcat/cat"
	"github.com/blinklabs-io/snapcat/database"
	"github.com/blinklabs-io/snapcat/database/models"
	dbtypes "github.com/blinklabs-io/snapcat/database/types"
	"github.com/blinklabs-io/snapcat/rpc"
	"github.com/blinklabs-io/snapcat/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/snapcat/syncer"

var (
	// ErrBlockNotFound is returned when the node has no block record for the
	// requested height. The watermark is left untouched
	ErrBlockNotFound = errors.New("block not found")
	// ErrNodeUnsynced is returned when the full node has not caught up with
	// the network
	ErrNodeUnsynced = errors.New("full node is not synced")
)

// FullNode is the subset of the full node RPC API used for syncing
type FullNode interface {
	GetBlockchainState(ctx context.Context) (*rpc.BlockchainState, error)
	GetBlockRecordByHeight(ctx context.Context, height uint64) (*rpc.BlockRecord, error)
	GetBlockSpends(ctx context.Context, headerHash types.Bytes32) ([]types.CoinSpend, error)
}

// State is the position of the syncer in the per-height state machine
type State int

const (
	StateIdle State = iota
	StateFetchingBlock
	StateProcessingSpends
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFetchingBlock:
		return "FetchingBlock"
	case StateProcessingSpends:
		return "ProcessingSpends"
	case StateCommitted:
		return "Committed"
	default:
		return "Unknown"
	}
}

type SyncerConfig struct {
	Logger       *slog.Logger
	Node         FullNode
	Database     *database.Database
	Identity     cat.TokenIdentity
	Templates    cat.Templates
	PromRegistry prometheus.Registerer
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
	// MaxCost caps the cost of running a single inner puzzle. Zero uses the
	// engine default
	MaxCost uint64
	// StartHeight is the first height processed when no watermark exists
	StartHeight uint64
}

// BlockResult describes one committed height
type BlockResult struct {
	Height           uint64
	HeaderHash       types.Bytes32
	TransactionBlock bool
	Spends           int
	Matched          int
	CoinsCreated     int
}

type Syncer struct {
	sync.Mutex
	config  SyncerConfig
	matcher *cat.Matcher
	deriver *cat.Deriver
	tracer  trace.Tracer
	metrics SyncMetrics
	state   State
	height  uint64
}

func New(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Node == nil {
		return nil, errors.New("no full node client provided")
	}
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if err := cfg.Templates.Check(cfg.Identity); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	s := &Syncer{
		config:  cfg,
		matcher: cat.NewMatcher(cfg.Identity, cfg.Templates),
		deriver: cat.NewDeriver(cfg.Identity, cfg.Templates, cfg.MaxCost),
		tracer:  cfg.TracerProvider.Tracer(tracerName),
		state:   StateIdle,
	}
	s.metrics.Register(cfg.PromRegistry)
	return s, nil
}

// Metrics returns the sync counters
func (s *Syncer) Metrics() *SyncMetrics {
	return &s.metrics
}

// State returns the current state and the height it applies to
func (s *Syncer) State() (State, uint64) {
	s.Lock()
	defer s.Unlock()
	return s.state, s.height
}

func (s *Syncer) setState(state State, height uint64) {
	s.Lock()
	defer s.Unlock()
	s.state = state
	s.height = height
}

// NextHeight returns the height following the watermark, or the configured
// start height when nothing has been committed yet
func (s *Syncer) NextHeight() (uint64, error) {
	height, ok, err := s.config.Database.GetWatermark(nil)
	if err != nil {
		return 0, err
	}
	if !ok || height+1 < s.config.StartHeight {
		return s.config.StartHeight, nil
	}
	return height + 1, nil
}

// ProcessBlock fetches a single height from the node and records every
// spend of the tracked token in it. All rows and the watermark for the
// height are written in one transaction
func (s *Syncer) ProcessBlock(ctx context.Context, height uint64) (*BlockResult, error) {
	// Heights are strictly sequential
	s.Lock()
	if s.state != StateIdle && s.state != StateCommitted {
		s.Unlock()
		return nil, fmt.Errorf("height %d is already being processed", s.height)
	}
	s.state = StateFetchingBlock
	s.height = height
	s.Unlock()

	ctx, span := s.tracer.Start(
		ctx,
		"ProcessBlock",
		trace.WithAttributes(attribute.Int64("height", int64(height))), //nolint:gosec // heights fit in int64
	)
	defer span.End()

	start := time.Now()
	result, err := s.processBlock(ctx, height, span)
	if err != nil {
		s.setState(StateIdle, height)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.setState(StateCommitted, height)
	s.metrics.observeCommit(
		height,
		result.TransactionBlock,
		result.Matched,
		result.CoinsCreated,
		time.Since(start),
	)
	return result, nil
}

func (s *Syncer) processBlock(
	ctx context.Context,
	height uint64,
	span trace.Span,
) (*BlockResult, error) {
	record, err := s.config.Node.GetBlockRecordByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("get block record %d: %w", height, err)
	}
	if record == nil {
		s.metrics.incBlockNotFound()
		s.config.Logger.Error(
			"failed to get block record",
			"component", "syncer",
			"height", height,
		)
		return nil, fmt.Errorf("%w: height %d", ErrBlockNotFound, height)
	}
	span.SetAttributes(attribute.String("header_hash", record.HeaderHash.String()))
	result := &BlockResult{
		Height:           height,
		HeaderHash:       record.HeaderHash,
		TransactionBlock: record.IsTransactionBlock(),
	}
	var spendRows []models.CoinSpend
	var coinRows []models.Coin
	if result.TransactionBlock {
		spends, err := s.config.Node.GetBlockSpends(ctx, record.HeaderHash)
		if err != nil {
			return nil, fmt.Errorf("get block spends %d: %w", height, err)
		}
		s.setState(StateProcessingSpends, height)
		result.Spends = len(spends)
		if len(spends) > 0 {
			s.config.Logger.Debug(
				fmt.Sprintf("processing %d coin spends for block %d", len(spends), height),
				"component", "syncer",
			)
		}
		spendRows, coinRows, err = s.processSpends(height, spends)
		if err != nil {
			return nil, err
		}
		result.Matched = len(spendRows)
		result.CoinsCreated = len(coinRows)
	}
	span.SetAttributes(
		attribute.Int("spends", result.Spends),
		attribute.Int("matched", result.Matched),
	)
	txn := s.config.Database.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if err := s.config.Database.AddCoinSpends(spendRows, txn); err != nil {
			return err
		}
		if err := s.config.Database.AddCoins(coinRows, txn); err != nil {
			return err
		}
		return s.config.Database.SetWatermark(height, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("commit height %d: %w", height, err)
	}
	if result.Matched > 0 {
		s.config.Logger.Info(
			"recorded token spends",
			"component", "syncer",
			"height", height,
			"spends", result.Matched,
			"coins", result.CoinsCreated,
		)
	}
	return result, nil
}

// processSpends matches spends in node order and builds the rows to persist
func (s *Syncer) processSpends(
	height uint64,
	spends []types.CoinSpend,
) ([]models.CoinSpend, []models.Coin, error) {
	var spendRows []models.CoinSpend
	var coinRows []models.Coin
	for _, spend := range spends {
		res := s.matcher.Match(spend)
		if !res.Matched {
			continue
		}
		spendName := spend.Coin.Name()
		derived, err := s.deriver.Derive(spendName, res.Match)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"derive coins for spend %s at height %d: %w",
				spendName.String(),
				height,
				err,
			)
		}
		spendRows = append(spendRows, models.CoinSpend{
			CoinName:     spendName.String(),
			Height:       height,
			CreatedCount: uint64(len(derived)),
		})
		for _, coin := range derived {
			coinRows = append(coinRows, models.Coin{
				CoinName:   coin.Name.String(),
				PuzzleHash: coin.Coin.PuzzleHash.String(),
				Amount:     dbtypes.Uint64(coin.Coin.Amount),
				Height:     height,
			})
		}
	}
	return spendRows, coinRows, nil
}

// SyncToTip processes heights from NextHeight through the node tip and
// returns the number of heights committed. It stops at the first error
func (s *Syncer) SyncToTip(ctx context.Context) (int, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return 0, err
	}
	if !status.Synced {
		return 0, fmt.Errorf(
			"%w: tip %d, progress %s",
			ErrNodeUnsynced,
			status.TipHeight,
			status.progressString(),
		)
	}
	next, err := s.NextHeight()
	if err != nil {
		return 0, err
	}
	count := 0
	for height := next; height <= status.TipHeight; height++ {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := s.ProcessBlock(ctx, height); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (st *Status) progressString() string {
	if st.ProgressHeight == nil {
		return "unknown"
	}
	return strconv.FormatUint(*st.ProgressHeight, 10)
}
