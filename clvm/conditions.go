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

package clvm

import (
	"fmt"
	"math/big"
)

// ConditionCreateCoin is the opcode of the CREATE_COIN condition
const ConditionCreateCoin = 51

// Condition is a single entry of the list a puzzle evaluates to
type Condition struct {
	Opcode *big.Int
	Args   []*Program
}

// CreateCoin is a decoded CREATE_COIN condition
type CreateCoin struct {
	PuzzleHash []byte
	Amount     *big.Int
}

// Conditions runs puzzle against solution and decodes the resulting list
// of conditions
func Conditions(puzzle, solution *Program, maxCost uint64) ([]Condition, uint64, error) {
	out, cost, err := Run(puzzle, solution, maxCost)
	if err != nil {
		return nil, cost, err
	}
	items, err := out.ListItems()
	if err != nil {
		return nil, cost, fmt.Errorf("conditions: %w", err)
	}
	ret := make([]Condition, 0, len(items))
	for _, item := range items {
		op, rest, ok := item.Pair()
		if !ok {
			return nil, cost, fmt.Errorf("conditions: condition is not a pair: %s", item)
		}
		opcode, err := op.AsInt()
		if err != nil {
			return nil, cost, fmt.Errorf("conditions: opcode: %w", err)
		}
		// Conditions may carry an improper tail of extra data
		var args []*Program
		for rest.IsPair() {
			args = append(args, rest.first)
			rest = rest.rest
		}
		ret = append(ret, Condition{Opcode: opcode, Args: args})
	}
	return ret, cost, nil
}

// CreateCoins filters conditions down to well-formed CREATE_COIN entries.
// Entries whose puzzle hash is not a 32-byte atom or whose amount is not an
// atom are skipped
func CreateCoins(conditions []Condition) []CreateCoin {
	var ret []CreateCoin
	for _, cond := range conditions {
		if !cond.Opcode.IsInt64() || cond.Opcode.Int64() != ConditionCreateCoin {
			continue
		}
		if len(cond.Args) < 2 {
			continue
		}
		ph, ok := cond.Args[0].AtomOk()
		if !ok || len(ph) != 32 {
			continue
		}
		amount, err := cond.Args[1].AsInt()
		if err != nil {
			continue
		}
		ret = append(ret, CreateCoin{PuzzleHash: ph, Amount: amount})
	}
	return ret
}
