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
	"bytes"

	"github.com/blinklabs-io/snapcat/clvm"
	"github.com/blinklabs-io/snapcat/types"
)

// Match holds the layers of a recognized token spend
type Match struct {
	TailHash      types.Bytes32
	OuterPuzzle   *clvm.Program
	OuterSolution *clvm.Program
	// InnerPuzzle is the ownership puzzle that was actually run. For a
	// revocable token this is the puzzle revealed in the interim solution
	InnerPuzzle   *clvm.Program
	InnerSolution *clvm.Program
	// RevocationModHash is the pinned revocation layer template hash the
	// spend was matched against. It is nil for non-revocable tokens
	RevocationModHash *types.Bytes32
	// Hidden is true when the spend was authorized by the hidden puzzle
	Hidden bool
}

// MatchResult is the outcome of matching a single coin spend. A spend that
// does not belong to the token is not an error
type MatchResult struct {
	Matched bool
	Match   *Match
}

// NoMatch is the result for spends that are not of the tracked token
var NoMatch = MatchResult{}

// Matcher decides whether coin spends belong to a token
type Matcher struct {
	identity  TokenIdentity
	templates Templates
}

func NewMatcher(identity TokenIdentity, templates Templates) *Matcher {
	return &Matcher{
		identity:  identity,
		templates: templates,
	}
}

// Match decodes the spend's puzzle reveal and solution and matches them
func (m *Matcher) Match(spend types.CoinSpend) MatchResult {
	puzzle, err := clvm.Deserialize(spend.PuzzleReveal)
	if err != nil {
		return NoMatch
	}
	solution, err := clvm.Deserialize(spend.Solution)
	if err != nil {
		return NoMatch
	}
	return m.MatchProgram(puzzle, solution)
}

// MatchProgram matches an already decoded puzzle and solution
func (m *Matcher) MatchProgram(outerPuzzle, outerSolution *clvm.Program) MatchResult {
	mod, args, ok := clvm.Uncurry(outerPuzzle)
	if !ok || len(args) != 3 {
		return NoMatch
	}
	// Compare the curried atoms before hashing the whole template
	if !atomEquals(args[0], m.templates.CatModHash) {
		return NoMatch
	}
	if !atomEquals(args[1], m.identity.TailHash) {
		return NoMatch
	}
	if types.Bytes32(clvm.TreeHash(mod)) != m.templates.CatModHash {
		return NoMatch
	}
	innerPuzzle := args[2]
	interim, err := outerSolution.First()
	if err != nil {
		return NoMatch
	}
	match := &Match{
		TailHash:      m.identity.TailHash,
		OuterPuzzle:   outerPuzzle,
		OuterSolution: outerSolution,
		InnerPuzzle:   innerPuzzle,
		InnerSolution: interim,
	}
	if !m.identity.Revocable() {
		return MatchResult{Matched: true, Match: match}
	}
	if !m.matchRevocable(match, innerPuzzle, interim) {
		return NoMatch
	}
	return MatchResult{Matched: true, Match: match}
}

// matchRevocable checks the revocation layer around innerPuzzle against the
// interim solution and fills in the actual inner puzzle and solution
func (m *Matcher) matchRevocable(match *Match, innerPuzzle, interim *clvm.Program) bool {
	hidden := *m.identity.HiddenPuzzleHash
	if m.templates.RevocationLayerModHash == nil {
		return false
	}
	pinned := *m.templates.RevocationLayerModHash
	revMod, revArgs, ok := clvm.Uncurry(innerPuzzle)
	if !ok || len(revArgs) != 3 {
		return false
	}
	// The layer curries its own template hash first
	if !atomEquals(revArgs[0], pinned) {
		return false
	}
	if !atomEquals(revArgs[1], hidden) {
		return false
	}
	recordedInnerPuzzleHash, ok := atomBytes32(revArgs[2])
	if !ok {
		return false
	}
	if types.Bytes32(clvm.TreeHash(revMod)) != pinned {
		return false
	}

	r := listReader{cur: interim}
	hiddenFlag, ok := r.next()
	if !ok {
		return false
	}
	actualInner, ok := r.next()
	if !ok {
		return false
	}
	innerSolution, ok := r.next()
	if !ok {
		return false
	}
	isHidden := len(hiddenFlag.Atom()) > 0
	actualHash := types.Bytes32(clvm.TreeHash(actualInner))
	if isHidden && actualHash != hidden {
		return false
	}
	if !isHidden && actualHash != recordedInnerPuzzleHash {
		return false
	}
	match.InnerPuzzle = actualInner
	match.InnerSolution = innerSolution
	match.RevocationModHash = &pinned
	match.Hidden = isHidden
	return true
}

// listReader walks the elements of a list through first/rest, without
// requiring it to be nil terminated
type listReader struct {
	cur *clvm.Program
}

func (r *listReader) next() (*clvm.Program, bool) {
	first, rest, ok := r.cur.Pair()
	if !ok {
		return nil, false
	}
	r.cur = rest
	return first, true
}

func atomEquals(p *clvm.Program, want types.Bytes32) bool {
	atom, ok := p.AtomOk()
	return ok && bytes.Equal(atom, want[:])
}

func atomBytes32(p *clvm.Program) (types.Bytes32, bool) {
	atom, ok := p.AtomOk()
	if !ok {
		return types.Bytes32{}, false
	}
	ret, err := types.Bytes32FromBytes(atom)
	if err != nil {
		return types.Bytes32{}, false
	}
	return ret, true
}
