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

package rpc

import "github.com/blinklabs-io/snapcat/types"

// BlockRecord is the subset of a full node block record used for syncing.
// Timestamp is only set for transaction blocks
type BlockRecord struct {
	HeaderHash types.Bytes32 `json:"header_hash"`
	Height     uint64        `json:"height"`
	Timestamp  *uint64       `json:"timestamp"`
}

// IsTransactionBlock reports whether the block carries spends
func (b *BlockRecord) IsTransactionBlock() bool {
	return b.Timestamp != nil
}

// Peak is the node's current peak block
type Peak struct {
	HeaderHash types.Bytes32 `json:"header_hash"`
	Height     uint64        `json:"height"`
}

// SyncState is the node's view of its own sync progress
type SyncState struct {
	Synced             bool   `json:"synced"`
	SyncMode           bool   `json:"sync_mode"`
	SyncTipHeight      uint64 `json:"sync_tip_height"`
	SyncProgressHeight uint64 `json:"sync_progress_height"`
}

// BlockchainState is the response body of get_blockchain_state
type BlockchainState struct {
	Peak *Peak     `json:"peak"`
	Sync SyncState `json:"sync"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type blockchainStateResponse struct {
	BlockchainState BlockchainState `json:"blockchain_state"`
}

type blockRecordRequest struct {
	Height uint64 `json:"height"`
}

type blockRecordResponse struct {
	BlockRecord *BlockRecord `json:"block_record"`
}

type blockSpendsRequest struct {
	HeaderHash string `json:"header_hash"`
}

type blockSpendsResponse struct {
	BlockSpends []types.CoinSpend `json:"block_spends"`
}
