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

import "bytes"

var (
	opQuoteAtom = []byte{opQuote}
	opApplyAtom = []byte{opApply}
	opConsAtom  = []byte{opCons}
)

// Curry binds args into mod, producing
// (a (q . mod) (c (q . arg1) (c (q . arg2) ... 1)))
func Curry(mod *Program, args ...*Program) *Program {
	env := oneProgram
	for i := len(args) - 1; i >= 0; i-- {
		env = List(
			atomNoCopy(opConsAtom),
			Cons(atomNoCopy(opQuoteAtom), args[i]),
			env,
		)
	}
	return List(
		atomNoCopy(opApplyAtom),
		Cons(atomNoCopy(opQuoteAtom), mod),
		env,
	)
}

// Uncurry reverses Curry. ok is false when p does not have the curried shape
func Uncurry(p *Program) (mod *Program, args []*Program, ok bool) {
	items, err := p.ListItems()
	if err != nil || len(items) != 3 {
		return nil, nil, false
	}
	if !isAtomValue(items[0], opApplyAtom) {
		return nil, nil, false
	}
	quoted, inner, isPair := items[1].Pair()
	if !isPair || !isAtomValue(quoted, opQuoteAtom) {
		return nil, nil, false
	}
	mod = inner
	env := items[2]
	for {
		if isAtomValue(env, oneProgram.atom) {
			break
		}
		envItems, err := env.ListItems()
		if err != nil || len(envItems) != 3 {
			return nil, nil, false
		}
		if !isAtomValue(envItems[0], opConsAtom) {
			return nil, nil, false
		}
		q, arg, isPair := envItems[1].Pair()
		if !isPair || !isAtomValue(q, opQuoteAtom) {
			return nil, nil, false
		}
		args = append(args, arg)
		env = envItems[2]
	}
	return mod, args, true
}

// CurryTreeHash computes TreeHash(Curry(mod, args...)) from the tree hashes
// of mod and each argument, without building the program
func CurryTreeHash(modHash Hash, argHashes ...Hash) Hash {
	quoteHash := AtomHash(opQuoteAtom)
	consHash := AtomHash(opConsAtom)
	applyHash := AtomHash(opApplyAtom)
	nilHash := AtomHash(nil)
	envHash := AtomHash(oneProgram.atom)
	for i := len(argHashes) - 1; i >= 0; i-- {
		quotedArg := pairHash(quoteHash, argHashes[i])
		envHash = pairHash(
			consHash,
			pairHash(quotedArg, pairHash(envHash, nilHash)),
		)
	}
	quotedMod := pairHash(quoteHash, modHash)
	return pairHash(
		applyHash,
		pairHash(quotedMod, pairHash(envHash, nilHash)),
	)
}

func isAtomValue(p *Program, value []byte) bool {
	atom, ok := p.AtomOk()
	return ok && bytes.Equal(atom, value)
}
