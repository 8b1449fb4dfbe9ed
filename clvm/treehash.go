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
	"bytes"
	"crypto/sha256"
)

// Hash is a 32-byte tree hash
type Hash = [32]byte

// TreeHash returns the content-addressed hash of a program:
// sha256(0x01 || atom) for atoms and sha256(0x02 || first || rest) for pairs
func TreeHash(p *Program) Hash {
	return TreeHashWithPrecalc(p)
}

// TreeHashWithPrecalc is like TreeHash, but any atom equal to one of the
// precalculated hashes is taken to already be the hash of the subtree it
// stands for
func TreeHashWithPrecalc(p *Program, precalc ...Hash) Hash {
	if p.IsPair() {
		return pairHash(
			TreeHashWithPrecalc(p.first, precalc...),
			TreeHashWithPrecalc(p.rest, precalc...),
		)
	}
	for _, h := range precalc {
		if bytes.Equal(p.atom, h[:]) {
			return h
		}
	}
	return AtomHash(p.atom)
}

// AtomHash returns the tree hash of an atom
func AtomHash(atom []byte) Hash {
	h := sha256.New()
	h.Write([]byte{1})
	h.Write(atom)
	var ret Hash
	copy(ret[:], h.Sum(nil))
	return ret
}

func pairHash(first, rest Hash) Hash {
	h := sha256.New()
	h.Write([]byte{2})
	h.Write(first[:])
	h.Write(rest[:])
	var ret Hash
	copy(ret[:], h.Sum(nil))
	return ret
}
