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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	serialPair    byte = 0xff
	serialBackref byte = 0xfe
	serialNil     byte = 0x80

	// Largest atom size that can be encoded with a length prefix
	maxAtomSize = 0x400000000
)

var (
	ErrUnexpectedEOF     = errors.New("unexpected end of serialized program")
	ErrTrailingBytes     = errors.New("trailing bytes after serialized program")
	ErrBackrefNotAllowed = errors.New("serialized back references are not supported")
	ErrAtomTooLarge      = errors.New("atom too large")
)

// Deserialize parses a complete serialized program
func Deserialize(buf []byte) (*Program, error) {
	r := &reader{buf: buf}
	ret, err := r.readProgram()
	if err != nil {
		return nil, err
	}
	if r.pos != len(buf) {
		return nil, fmt.Errorf(
			"%w: %d bytes remaining",
			ErrTrailingBytes,
			len(buf)-r.pos,
		)
	}
	return ret, nil
}

// DeserializeHex parses a hex serialized program, with or without 0x prefix
func DeserializeHex(s string) (*Program, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode program hex: %w", err)
	}
	return Deserialize(buf)
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readN(n uint64) ([]byte, error) {
	if n > uint64(len(r.buf)-r.pos) {
		return nil, ErrUnexpectedEOF
	}
	ret := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return ret, nil
}

// readProgram uses an explicit stack so that deeply nested input cannot
// exhaust the goroutine stack
func (r *reader) readProgram() (*Program, error) {
	const (
		opParse = iota
		opCons
	)
	ops := []int{opParse}
	var values []*Program
	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		switch op {
		case opParse:
			b, err := r.readByte()
			if err != nil {
				return nil, err
			}
			switch {
			case b == serialPair:
				// first is parsed before rest, then both are combined
				ops = append(ops, opCons, opParse, opParse)
			case b == serialBackref:
				return nil, ErrBackrefNotAllowed
			default:
				atom, err := r.readAtom(b)
				if err != nil {
					return nil, err
				}
				values = append(values, atom)
			}
		case opCons:
			rest := values[len(values)-1]
			first := values[len(values)-2]
			values = values[:len(values)-2]
			values = append(values, Cons(first, rest))
		}
	}
	return values[0], nil
}

func (r *reader) readAtom(b byte) (*Program, error) {
	if b == serialNil {
		return nilProgram, nil
	}
	if b < 0x80 {
		return atomNoCopy([]byte{b}), nil
	}
	// Count the leading one bits to find the size of the length prefix
	var prefixLen int
	mask := byte(0x80)
	for b&mask != 0 {
		prefixLen++
		b &^= mask
		mask >>= 1
	}
	size := uint64(b)
	if prefixLen > 1 {
		extra, err := r.readN(uint64(prefixLen - 1))
		if err != nil {
			return nil, err
		}
		for _, e := range extra {
			size = size<<8 | uint64(e)
		}
	}
	if size >= maxAtomSize {
		return nil, ErrAtomTooLarge
	}
	data, err := r.readN(size)
	if err != nil {
		return nil, err
	}
	return Atom(data), nil
}

// Serialize encodes a program in the standard binary form
func Serialize(p *Program) []byte {
	var out []byte
	stack := []*Program{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.IsPair() {
			out = append(out, serialPair)
			stack = append(stack, cur.rest, cur.first)
			continue
		}
		out = appendAtom(out, cur.atom)
	}
	return out
}

func appendAtom(out []byte, atom []byte) []byte {
	size := len(atom)
	switch {
	case size == 0:
		return append(out, serialNil)
	case size == 1 && atom[0] < 0x80:
		return append(out, atom[0])
	case size < 0x40:
		out = append(out, 0x80|byte(size))
	case size < 0x2000:
		out = append(out, 0xc0|byte(size>>8), byte(size))
	case size < 0x100000:
		out = append(out, 0xe0|byte(size>>16), byte(size>>8), byte(size))
	case size < 0x8000000:
		out = append(
			out,
			0xf0|byte(size>>24),
			byte(size>>16),
			byte(size>>8),
			byte(size),
		)
	default:
		out = append(
			out,
			0xf8|byte(size>>32),
			byte(size>>24),
			byte(size>>16),
			byte(size>>8),
			byte(size),
		)
	}
	return append(out, atom...)
}
