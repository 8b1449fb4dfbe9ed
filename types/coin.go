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

package types

import (
	"crypto/sha256"
	"encoding/binary"
)

// Coin is a ledger entry. Its identity is derived from its fields and is
// never stored on the struct itself
type Coin struct {
	ParentCoinInfo Bytes32 `json:"parent_coin_info"`
	PuzzleHash     Bytes32 `json:"puzzle_hash"`
	Amount         uint64  `json:"amount"`
}

// Name returns the coin ID
func (c Coin) Name() Bytes32 {
	return CoinName(c.ParentCoinInfo, c.PuzzleHash, c.Amount)
}

// CoinSpend is a single spend as returned in a block
type CoinSpend struct {
	Coin         Coin     `json:"coin"`
	PuzzleReveal HexBytes `json:"puzzle_reveal"`
	Solution     HexBytes `json:"solution"`
}

// CoinName computes sha256(parent || puzzleHash || amount) where the amount
// uses the minimal signed big-endian encoding
func CoinName(parent Bytes32, puzzleHash Bytes32, amount uint64) Bytes32 {
	h := sha256.New()
	h.Write(parent[:])
	h.Write(puzzleHash[:])
	h.Write(AmountBytes(amount))
	var ret Bytes32
	copy(ret[:], h.Sum(nil))
	return ret
}

// AmountBytes returns the minimal two's complement big-endian encoding of
// an unsigned amount. Zero encodes as an empty slice, and a leading zero
// byte is added when the high bit would otherwise be set
func AmountBytes(amount uint64) []byte {
	if amount == 0 {
		return []byte{}
	}
	var buf [9]byte
	binary.BigEndian.PutUint64(buf[1:], amount)
	start := 1
	for start < len(buf)-1 && buf[start] == 0 {
		start++
	}
	if buf[start]&0x80 != 0 {
		start--
	}
	ret := make([]byte, len(buf)-start)
	copy(ret, buf[start:])
	return ret
}
