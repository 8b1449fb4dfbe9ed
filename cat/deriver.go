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

package cat

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/snapcat/clvm"
	"github.com/blinklabs-io/snapcat/types"
)

var ErrNoRevocationTemplate = errors.New(
	"revocation layer template hash is unknown",
)

// DerivedCoin is a coin created by a token spend. Coin carries the logical
// puzzle hash declared by the inner puzzle, while Name is the coin ID on
// chain, computed from the token wrapped puzzle hash
type DerivedCoin struct {
	Coin            types.Coin
	OuterPuzzleHash types.Bytes32
	Name            types.Bytes32
}

// Deriver computes the coins created by matched token spends
type Deriver struct {
	identity  TokenIdentity
	templates Templates
	maxCost   uint64
}

// NewDeriver creates a Deriver. A maxCost of zero selects clvm.DefaultMaxCost
func NewDeriver(identity TokenIdentity, templates Templates, maxCost uint64) *Deriver {
	return &Deriver{
		identity:  identity,
		templates: templates,
		maxCost:   maxCost,
	}
}

// Derive runs the inner puzzle of match and returns the coins it creates,
// in condition order. CREATE_COIN conditions with a non-positive amount are
// dropped
func (d *Deriver) Derive(spendCoinName types.Bytes32, match *Match) ([]DerivedCoin, error) {
	conditions, _, err := clvm.Conditions(
		match.InnerPuzzle,
		match.InnerSolution,
		d.maxCost,
	)
	if err != nil {
		return nil, fmt.Errorf("run inner puzzle: %w", err)
	}
	var ret []DerivedCoin
	for _, cc := range clvm.CreateCoins(conditions) {
		if cc.Amount.Sign() <= 0 || !cc.Amount.IsUint64() {
			continue
		}
		puzzleHash, err := types.Bytes32FromBytes(cc.PuzzleHash)
		if err != nil {
			continue
		}
		coin := types.Coin{
			ParentCoinInfo: spendCoinName,
			PuzzleHash:     puzzleHash,
			Amount:         cc.Amount.Uint64(),
		}
		outer, err := d.OuterPuzzleHash(coin.PuzzleHash)
		if err != nil {
			return nil, err
		}
		ret = append(ret, DerivedCoin{
			Coin:            coin,
			OuterPuzzleHash: outer,
			Name:            types.CoinName(spendCoinName, outer, coin.Amount),
		})
	}
	return ret, nil
}

// OuterPuzzleHash wraps an inner puzzle hash in the token layers. A
// revocable token is always wrapped with the pinned revocation layer
// template
func (d *Deriver) OuterPuzzleHash(innerPuzzleHash types.Bytes32) (types.Bytes32, error) {
	effective := clvm.Hash(innerPuzzleHash)
	if d.identity.Revocable() {
		revHash := d.templates.RevocationLayerModHash
		if revHash == nil {
			return types.Bytes32{}, ErrNoRevocationTemplate
		}
		effective = clvm.CurryTreeHash(
			clvm.Hash(*revHash),
			clvm.AtomHash(revHash[:]),
			clvm.AtomHash(d.identity.HiddenPuzzleHash[:]),
			clvm.AtomHash(innerPuzzleHash[:]),
		)
	}
	catModHash := d.templates.CatModHash
	outer := clvm.CurryTreeHash(
		clvm.Hash(catModHash),
		clvm.AtomHash(catModHash[:]),
		clvm.AtomHash(d.identity.TailHash[:]),
		effective,
	)
	return types.Bytes32(outer), nil
}
