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

package syncer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics tracks sync progress. The atomic counters are always
// maintained, while the Prometheus collectors are only populated once
// Register is called
type SyncMetrics struct {
	BlocksProcessed   atomic.Uint64
	TransactionBlocks atomic.Uint64
	CatSpends         atomic.Uint64
	CoinsCreated      atomic.Uint64
	BlocksNotFound    atomic.Uint64

	// Prometheus metrics (nil until Register is called)
	blocksProcessedCounter   prometheus.Counter
	transactionBlocksCounter prometheus.Counter
	catSpendsCounter         prometheus.Counter
	coinsCreatedCounter      prometheus.Counter
	blockNotFoundCounter     prometheus.Counter
	heightGauge              prometheus.Gauge
	blockDuration            prometheus.Histogram

	// registerOnce ensures Prometheus metrics are only registered once
	registerOnce sync.Once
}

// Register registers Prometheus metrics with the given registry.
// If registry is nil, this is a no-op. This method is idempotent;
// subsequent calls after the first successful registration are no-ops.
func (m *SyncMetrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.blocksProcessedCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "snapcat_sync_blocks_processed_total",
			Help: "Total number of block heights committed",
		})

		m.transactionBlocksCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "snapcat_sync_transaction_blocks_total",
			Help: "Total number of committed transaction blocks",
		})

		m.catSpendsCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "snapcat_sync_cat_spends_total",
			Help: "Total number of token spends recorded",
		})

		m.coinsCreatedCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "snapcat_sync_coins_created_total",
			Help: "Total number of token coins recorded",
		})

		m.blockNotFoundCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "snapcat_sync_block_not_found_total",
			Help: "Total number of heights the node had no block record for",
		})

		m.heightGauge = factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapcat_sync_height",
			Help: "Last committed block height",
		})

		m.blockDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "snapcat_sync_block_duration_seconds",
			Help:    "Time taken to fetch, match and commit one block height",
			Buckets: prometheus.DefBuckets,
		})
	})
}

func (m *SyncMetrics) observeCommit(
	height uint64,
	transactionBlock bool,
	spends int,
	coins int,
	elapsed time.Duration,
) {
	m.BlocksProcessed.Add(1)
	m.CatSpends.Add(uint64(spends))
	m.CoinsCreated.Add(uint64(coins))
	if transactionBlock {
		m.TransactionBlocks.Add(1)
	}
	if m.blocksProcessedCounter == nil {
		return
	}
	m.blocksProcessedCounter.Inc()
	if transactionBlock {
		m.transactionBlocksCounter.Inc()
	}
	m.catSpendsCounter.Add(float64(spends))
	m.coinsCreatedCounter.Add(float64(coins))
	m.heightGauge.Set(float64(height))
	m.blockDuration.Observe(elapsed.Seconds())
}

func (m *SyncMetrics) incBlockNotFound() {
	m.BlocksNotFound.Add(1)
	if m.blockNotFoundCounter != nil {
		m.blockNotFoundCounter.Inc()
	}
}
