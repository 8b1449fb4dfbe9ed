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
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBytes32 is returned when a value cannot be decoded as a 32-byte hash
var ErrInvalidBytes32 = errors.New("invalid bytes32")

// Bytes32 is a 32-byte hash value, as used for coin names, puzzle hashes and
// block header hashes
type Bytes32 [32]byte

// Bytes32FromHex decodes a hex string, with or without a 0x prefix
func Bytes32FromHex(s string) (Bytes32, error) {
	var ret Bytes32
	buf, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidBytes32, err)
	}
	if len(buf) != len(ret) {
		return ret, fmt.Errorf(
			"%w: expected 32 bytes, got %d",
			ErrInvalidBytes32,
			len(buf),
		)
	}
	copy(ret[:], buf)
	return ret, nil
}

// MustBytes32FromHex is like Bytes32FromHex but panics on error. It is
// intended for package-level constants
func MustBytes32FromHex(s string) Bytes32 {
	ret, err := Bytes32FromHex(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// Bytes32FromBytes copies a 32-byte slice
func Bytes32FromBytes(buf []byte) (Bytes32, error) {
	var ret Bytes32
	if len(buf) != len(ret) {
		return ret, fmt.Errorf(
			"%w: expected 32 bytes, got %d",
			ErrInvalidBytes32,
			len(buf),
		)
	}
	copy(ret[:], buf)
	return ret, nil
}

// Bytes returns a copy of the hash as a slice
func (b Bytes32) Bytes() []byte {
	ret := make([]byte, len(b))
	copy(ret, b[:])
	return ret
}

// String returns the hex encoding without a prefix. This is the form used
// in the ledger tables
func (b Bytes32) String() string {
	return hex.EncodeToString(b[:])
}

// Hex returns the 0x-prefixed hex encoding used by the full node RPC
func (b Bytes32) Hex() string {
	return "0x" + hex.EncodeToString(b[:])
}

func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

func (b Bytes32) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Hex())
}

func (b *Bytes32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tmp, err := Bytes32FromHex(s)
	if err != nil {
		return err
	}
	*b = tmp
	return nil
}

// HexBytes is a byte slice that is hex encoded (0x-prefixed) in JSON, as used
// for serialized programs
type HexBytes []byte

func (h HexBytes) String() string {
	return "0x" + hex.EncodeToString(h)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	buf, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return fmt.Errorf("invalid hex bytes: %w", err)
	}
	*h = buf
	return nil
}

func trimHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
