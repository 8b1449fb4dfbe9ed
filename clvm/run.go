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
	"errors"
	"fmt"
)

// Opcodes with special evaluation rules
const (
	opQuote byte = 1
	opApply byte = 2
	opCons  byte = 4
)

// DefaultMaxCost is the cost limit used when callers pass zero
const DefaultMaxCost uint64 = 11_000_000_000

var ErrCostExceeded = errors.New("cost exceeded")

// EvalError is returned when a program raises or is malformed at runtime
type EvalError struct {
	Message string
	Value   *Program
}

func (e *EvalError) Error() string {
	if e.Value == nil {
		return "clvm: " + e.Message
	}
	return fmt.Sprintf("clvm: %s: %s", e.Message, e.Value)
}

func evalErr(msg string, value *Program) error {
	return &EvalError{Message: msg, Value: value}
}

type evaluator struct {
	cost    uint64
	maxCost uint64
}

func (e *evaluator) charge(cost uint64) error {
	e.cost += cost
	if e.cost > e.maxCost {
		return ErrCostExceeded
	}
	return nil
}

// Run evaluates program with env as its argument. It returns the result and
// the cost consumed. A maxCost of zero selects DefaultMaxCost
func Run(program *Program, env *Program, maxCost uint64) (*Program, uint64, error) {
	if maxCost == 0 {
		maxCost = DefaultMaxCost
	}
	e := &evaluator{maxCost: maxCost}
	ret, err := e.eval(program, env)
	if err != nil {
		return nil, e.cost, err
	}
	return ret, e.cost, nil
}

func (e *evaluator) eval(program *Program, env *Program) (*Program, error) {
	if program.IsAtom() {
		return e.traversePath(program.atom, env)
	}
	op, operands := program.first, program.rest
	if op.IsPair() {
		return nil, evalErr("in ((X)...) syntax X must be lone atom", program)
	}
	if len(op.atom) == 1 && op.atom[0] == opQuote {
		if err := e.charge(costQuote); err != nil {
			return nil, err
		}
		return operands, nil
	}
	var args []*Program
	cur := operands
	for cur.IsPair() {
		arg, err := e.eval(cur.first, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		cur = cur.rest
	}
	if len(cur.atom) != 0 {
		return nil, evalErr("bad operand list", operands)
	}
	if len(op.atom) == 1 && op.atom[0] == opApply {
		if len(args) != 2 {
			return nil, evalErr("apply requires exactly 2 parameters", List(args...))
		}
		if err := e.charge(costApply); err != nil {
			return nil, err
		}
		return e.eval(args[0], args[1])
	}
	fn, ok := lookupOperator(op.atom)
	if !ok {
		cost, err := unknownOperatorCost(op.atom, args, e.maxCost-e.cost)
		if err != nil {
			return nil, err
		}
		if err := e.charge(cost); err != nil {
			return nil, err
		}
		return nilProgram, nil
	}
	ret, cost, err := fn(args)
	if err != nil {
		return nil, err
	}
	if err := e.charge(cost); err != nil {
		return nil, err
	}
	return ret, nil
}

// traversePath looks up a node in env. The path is read from the least
// significant bit upwards: 0 selects first, 1 selects rest, and the highest
// set bit terminates the path
func (e *evaluator) traversePath(path []byte, env *Program) (*Program, error) {
	cost := uint64(costPathLookupBase + costPathLookupPerLeg)
	start := 0
	for start < len(path) && path[start] == 0 {
		start++
	}
	cost += uint64(start) * costPathLookupPerZeroByte
	if start == len(path) {
		if err := e.charge(cost); err != nil {
			return nil, err
		}
		return nilProgram, nil
	}
	path = path[start:]
	// Find the terminating bit in the most significant byte
	endMask := byte(0x80)
	for path[0]&endMask == 0 {
		endMask >>= 1
	}
	cur := env
	byteIdx := len(path) - 1
	mask := byte(1)
	for byteIdx > 0 || mask < endMask {
		if !cur.IsPair() {
			return nil, evalErr("path into atom", cur)
		}
		if path[byteIdx]&mask == 0 {
			cur = cur.first
		} else {
			cur = cur.rest
		}
		cost += costPathLookupPerLeg
		if mask == 0x80 {
			mask = 1
			byteIdx--
		} else {
			mask <<= 1
		}
	}
	if err := e.charge(cost); err != nil {
		return nil, err
	}
	return cur, nil
}
