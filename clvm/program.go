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

// Package clvm implements the program model used by coin puzzles: an
// immutable binary tree of atoms and pairs, its serialization, content
// addressed tree hashing, currying, and an evaluator.
package clvm

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
)

var (
	ErrNotPair = errors.New("expected pair, got atom")
	ErrNotAtom = errors.New("expected atom, got pair")
	ErrNotList = errors.New("expected proper list")
)

// Program is an immutable CLVM value. A Program is either an atom (a byte
// string, possibly empty) or a pair of two Programs
type Program struct {
	atom  []byte
	first *Program
	rest  *Program
}

var (
	nilProgram = &Program{atom: []byte{}}
	oneProgram = &Program{atom: []byte{1}}
)

// Nil returns the empty atom
func Nil() *Program {
	return nilProgram
}

// Atom returns an atom holding a copy of buf
func Atom(buf []byte) *Program {
	if len(buf) == 0 {
		return nilProgram
	}
	tmp := make([]byte, len(buf))
	copy(tmp, buf)
	return &Program{atom: tmp}
}

// atomNoCopy wraps buf without copying. Callers must not modify buf afterwards
func atomNoCopy(buf []byte) *Program {
	if len(buf) == 0 {
		return nilProgram
	}
	return &Program{atom: buf}
}

// Cons returns the pair (first . rest)
func Cons(first, rest *Program) *Program {
	return &Program{first: first, rest: rest}
}

// List builds a nil-terminated list from items
func List(items ...*Program) *Program {
	ret := nilProgram
	for i := len(items) - 1; i >= 0; i-- {
		ret = Cons(items[i], ret)
	}
	return ret
}

// Int returns an atom holding the minimal encoding of v
func Int(v int64) *Program {
	return atomNoCopy(IntToBytes(big.NewInt(v)))
}

// BigInt returns an atom holding the minimal encoding of v
func BigInt(v *big.Int) *Program {
	return atomNoCopy(IntToBytes(v))
}

func (p *Program) IsPair() bool {
	return p.first != nil
}

func (p *Program) IsAtom() bool {
	return p.first == nil
}

// IsNil returns true for the empty atom
func (p *Program) IsNil() bool {
	return p.first == nil && len(p.atom) == 0
}

// Atom returns the atom bytes, or nil when p is a pair. The returned slice
// must not be modified
func (p *Program) Atom() []byte {
	if p.IsPair() {
		return nil
	}
	return p.atom
}

// AtomOk returns the atom bytes and whether p was an atom
func (p *Program) AtomOk() ([]byte, bool) {
	if p.IsPair() {
		return nil, false
	}
	return p.atom, true
}

// First returns the left side of a pair
func (p *Program) First() (*Program, error) {
	if !p.IsPair() {
		return nil, ErrNotPair
	}
	return p.first, nil
}

// Rest returns the right side of a pair
func (p *Program) Rest() (*Program, error) {
	if !p.IsPair() {
		return nil, ErrNotPair
	}
	return p.rest, nil
}

// Pair returns both sides of a pair
func (p *Program) Pair() (*Program, *Program, bool) {
	if !p.IsPair() {
		return nil, nil, false
	}
	return p.first, p.rest, true
}

// AsInt interprets an atom as a signed big-endian integer
func (p *Program) AsInt() (*big.Int, error) {
	if p.IsPair() {
		return nil, ErrNotAtom
	}
	return IntFromBytes(p.atom), nil
}

// ListItems returns the elements of a nil-terminated list
func (p *Program) ListItems() ([]*Program, error) {
	var ret []*Program
	cur := p
	for cur.IsPair() {
		ret = append(ret, cur.first)
		cur = cur.rest
	}
	if len(cur.atom) != 0 {
		return nil, ErrNotList
	}
	return ret, nil
}

// Equal performs a structural comparison
func (p *Program) Equal(other *Program) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	if p.IsPair() != other.IsPair() {
		return false
	}
	if !p.IsPair() {
		return bytes.Equal(p.atom, other.atom)
	}
	return p.first.Equal(other.first) && p.rest.Equal(other.rest)
}

func (p *Program) String() string {
	return hex.EncodeToString(Serialize(p))
}
