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
	"testing"

	"github.com/blinklabs-io/snapcat/clvm"
	"github.com/blinklabs-io/snapcat/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stand-in templates. Only their shape and tree hash matter to matching
var (
	testCatMod = clvm.List(clvm.Int(1), clvm.Atom([]byte("test cat mod")))
	testRevMod = clvm.List(clvm.Int(1), clvm.Atom([]byte("test revocation mod")))

	testCatModHash = types.Bytes32(clvm.TreeHash(testCatMod))
	testRevModHash = types.Bytes32(clvm.TreeHash(testRevMod))

	testTail = fill(0x11)
	testX    = fill(0x22)
	testY    = fill(0x33)
	spendID  = fill(0x44)
)

func fill(b byte) types.Bytes32 {
	var ret types.Bytes32
	copy(ret[:], bytes.Repeat([]byte{b}, 32))
	return ret
}

func quote(p *clvm.Program) *clvm.Program {
	return clvm.Cons(clvm.Int(1), p)
}

func atom(b types.Bytes32) *clvm.Program {
	return clvm.Atom(b[:])
}

func createCoin(ph types.Bytes32, amount int64) *clvm.Program {
	return clvm.List(clvm.Int(clvm.ConditionCreateCoin), atom(ph), clvm.Int(amount))
}

// innerPuzzle returns a puzzle that ignores its solution and emits conditions
func innerPuzzle(conditions ...*clvm.Program) *clvm.Program {
	return quote(clvm.List(conditions...))
}

func catPuzzle(tail types.Bytes32, inner *clvm.Program) *clvm.Program {
	return clvm.Curry(testCatMod, atom(testCatModHash), atom(tail), inner)
}

func testTemplates() Templates {
	return Templates{CatModHash: testCatModHash}
}

func revTemplates() Templates {
	ret := testTemplates()
	ret.RevocationLayerModHash = &testRevModHash
	return ret
}

func revocable(hidden types.Bytes32) TokenIdentity {
	return TokenIdentity{TailHash: testTail, HiddenPuzzleHash: &hidden}
}

func TestMatchPlain(t *testing.T) {
	inner := innerPuzzle(createCoin(testX, 1000))
	innerSolution := clvm.List(clvm.Int(7))
	outer := catPuzzle(testTail, inner)
	solution := clvm.List(innerSolution, clvm.Nil())

	m := NewMatcher(TokenIdentity{TailHash: testTail}, testTemplates())
	res := m.MatchProgram(outer, solution)
	require.True(t, res.Matched)
	assert.Equal(t, testTail, res.Match.TailHash)
	assert.True(t, res.Match.InnerPuzzle.Equal(inner))
	assert.True(t, res.Match.InnerSolution.Equal(innerSolution))
	assert.True(t, res.Match.OuterPuzzle.Equal(outer))
	assert.Nil(t, res.Match.RevocationModHash)
}

func TestMatchSerializedSpend(t *testing.T) {
	outer := catPuzzle(testTail, innerPuzzle(createCoin(testX, 1000)))
	spend := types.CoinSpend{
		PuzzleReveal: clvm.Serialize(outer),
		Solution:     clvm.Serialize(clvm.List(clvm.Nil())),
	}
	m := NewMatcher(TokenIdentity{TailHash: testTail}, testTemplates())
	assert.True(t, m.Match(spend).Matched)

	spend.PuzzleReveal = types.HexBytes{0xff}
	assert.Equal(t, NoMatch, m.Match(spend))
}

func TestMatchTemplateRejection(t *testing.T) {
	inner := innerPuzzle(createCoin(testX, 1000))
	otherMod := clvm.List(clvm.Int(1), clvm.Atom([]byte("other")))
	testCases := []struct {
		name   string
		puzzle *clvm.Program
	}{
		{"plain puzzle", inner},
		{"atom", clvm.Int(5)},
		{"two args", clvm.Curry(testCatMod, atom(testCatModHash), atom(testTail))},
		{"four args", clvm.Curry(testCatMod, atom(testCatModHash), atom(testTail), inner, clvm.Nil())},
		{"other template", clvm.Curry(otherMod, atom(testCatModHash), atom(testTail), inner)},
		{"wrong mod hash arg", clvm.Curry(testCatMod, atom(fill(0x99)), atom(testTail), inner)},
		{"pair mod hash arg", clvm.Curry(testCatMod, clvm.List(atom(testCatModHash)), atom(testTail), inner)},
	}
	m := NewMatcher(TokenIdentity{TailHash: testTail}, testTemplates())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := m.MatchProgram(tc.puzzle, clvm.List(clvm.Nil()))
			assert.False(t, res.Matched)
			assert.Nil(t, res.Match)
		})
	}
}

func TestMatchIdentitySpecificity(t *testing.T) {
	outer := catPuzzle(testTail, innerPuzzle(createCoin(testX, 1000)))
	solution := clvm.List(clvm.Nil())

	other := NewMatcher(TokenIdentity{TailHash: fill(0x55)}, testTemplates())
	assert.False(t, other.MatchProgram(outer, solution).Matched)

	// The same spend is not a revocable token spend
	rev := NewMatcher(revocable(testY), revTemplates())
	assert.False(t, rev.MatchProgram(outer, solution).Matched)

	// An atom solution has no inner solution
	plain := NewMatcher(TokenIdentity{TailHash: testTail}, testTemplates())
	assert.False(t, plain.MatchProgram(outer, clvm.Int(1)).Matched)
}

type revocableFixture struct {
	ownerPuzzle  *clvm.Program
	hiddenPuzzle *clvm.Program
	hiddenHash   types.Bytes32
	layer        *clvm.Program
	outer        *clvm.Program
}

func newRevocableFixture() revocableFixture {
	owner := innerPuzzle(createCoin(testX, 1000))
	hiddenPuzzle := innerPuzzle(createCoin(testY, 1000))
	hiddenHash := types.Bytes32(clvm.TreeHash(hiddenPuzzle))
	ownerHash := types.Bytes32(clvm.TreeHash(owner))
	layer := clvm.Curry(testRevMod, atom(testRevModHash), atom(hiddenHash), atom(ownerHash))
	return revocableFixture{
		ownerPuzzle:  owner,
		hiddenPuzzle: hiddenPuzzle,
		hiddenHash:   hiddenHash,
		layer:        layer,
		outer:        catPuzzle(testTail, layer),
	}
}

func interimSolution(hidden bool, puzzle *clvm.Program) *clvm.Program {
	flag := clvm.Nil()
	if hidden {
		flag = clvm.Int(1)
	}
	return clvm.List(clvm.List(flag, puzzle, clvm.List(clvm.Int(9))))
}

func TestMatchRevocable(t *testing.T) {
	f := newRevocableFixture()
	m := NewMatcher(revocable(f.hiddenHash), revTemplates())

	res := m.MatchProgram(f.outer, interimSolution(false, f.ownerPuzzle))
	require.True(t, res.Matched)
	assert.True(t, res.Match.InnerPuzzle.Equal(f.ownerPuzzle))
	assert.True(t, res.Match.InnerSolution.Equal(clvm.List(clvm.Int(9))))
	require.NotNil(t, res.Match.RevocationModHash)
	assert.Equal(t, testRevModHash, *res.Match.RevocationModHash)
	assert.False(t, res.Match.Hidden)

	res = m.MatchProgram(f.outer, interimSolution(true, f.hiddenPuzzle))
	require.True(t, res.Matched)
	assert.True(t, res.Match.InnerPuzzle.Equal(f.hiddenPuzzle))
	assert.True(t, res.Match.Hidden)
}

func TestMatchRevocableConsistency(t *testing.T) {
	f := newRevocableFixture()
	m := NewMatcher(revocable(f.hiddenHash), revTemplates())

	// Hidden flag set while revealing the owner puzzle
	assert.False(t, m.MatchProgram(f.outer, interimSolution(true, f.ownerPuzzle)).Matched)
	// Hidden flag clear while revealing the hidden puzzle
	assert.False(t, m.MatchProgram(f.outer, interimSolution(false, f.hiddenPuzzle)).Matched)
	// Unrelated puzzle
	stranger := innerPuzzle(createCoin(testY, 1))
	assert.False(t, m.MatchProgram(f.outer, interimSolution(false, stranger)).Matched)
	// A pair flag is read as false
	pairFlag := clvm.List(clvm.List(clvm.List(clvm.Int(1)), f.hiddenPuzzle, clvm.Nil()))
	assert.False(t, m.MatchProgram(f.outer, pairFlag).Matched)
	// Truncated interim solution
	short := clvm.List(clvm.List(clvm.Nil(), f.ownerPuzzle))
	assert.False(t, m.MatchProgram(f.outer, short).Matched)

	// Configured hidden puzzle differs from the curried one
	other := NewMatcher(revocable(fill(0x66)), revTemplates())
	assert.False(t, other.MatchProgram(f.outer, interimSolution(false, f.ownerPuzzle)).Matched)
}

func TestMatchRevocationTemplate(t *testing.T) {
	f := newRevocableFixture()
	solution := interimSolution(false, f.ownerPuzzle)
	ownerHash := types.Bytes32(clvm.TreeHash(f.ownerPuzzle))
	m := NewMatcher(revocable(f.hiddenHash), revTemplates())
	assert.True(t, m.MatchProgram(f.outer, solution).Matched)

	wrong := fill(0x77)
	pinned := testTemplates()
	pinned.RevocationLayerModHash = &wrong
	assert.False(t, NewMatcher(revocable(f.hiddenHash), pinned).MatchProgram(f.outer, solution).Matched)

	// Without a pinned template no revocation layer is accepted
	assert.False(t, NewMatcher(revocable(f.hiddenHash), testTemplates()).MatchProgram(f.outer, solution).Matched)

	// Any program curried with its own tree hash is not the revocation layer
	forgedMod := clvm.List(clvm.Int(1), clvm.Atom([]byte("anything at all")))
	forgedHash := types.Bytes32(clvm.TreeHash(forgedMod))
	forged := clvm.Curry(forgedMod, atom(forgedHash), atom(f.hiddenHash), atom(ownerHash))
	assert.False(t, m.MatchProgram(catPuzzle(testTail, forged), solution).Matched)
	selfPinned := testTemplates()
	selfPinned.RevocationLayerModHash = &forgedHash
	assert.True(
		t,
		NewMatcher(revocable(f.hiddenHash), selfPinned).MatchProgram(catPuzzle(testTail, forged), solution).Matched,
	)

	// The pinned template curried with a different first argument
	mismatched := clvm.Curry(testRevMod, atom(fill(0x88)), atom(f.hiddenHash), atom(ownerHash))
	assert.False(t, m.MatchProgram(catPuzzle(testTail, mismatched), solution).Matched)

	// Two curried arguments
	short := clvm.Curry(testRevMod, atom(f.hiddenHash), atom(ownerHash))
	assert.False(t, m.MatchProgram(catPuzzle(testTail, short), solution).Matched)
}

func expectedOuterHash(effective types.Bytes32) types.Bytes32 {
	p := clvm.Curry(testCatMod, atom(testCatModHash), atom(testTail), atom(effective))
	return types.Bytes32(clvm.TreeHashWithPrecalc(p, clvm.Hash(effective)))
}

func TestDerivePlain(t *testing.T) {
	inner := innerPuzzle(
		createCoin(testX, 1000),
		createCoin(testY, 0),
		createCoin(testY, -5),
		clvm.List(clvm.Int(73), clvm.Int(1000)),
		createCoin(testY, 25),
	)
	identity := TokenIdentity{TailHash: testTail}
	m := NewMatcher(identity, testTemplates())
	res := m.MatchProgram(catPuzzle(testTail, inner), clvm.List(clvm.Nil()))
	require.True(t, res.Matched)

	d := NewDeriver(identity, testTemplates(), 0)
	coins, err := d.Derive(spendID, res.Match)
	require.NoError(t, err)
	require.Len(t, coins, 2)

	assert.Equal(t, types.Coin{ParentCoinInfo: spendID, PuzzleHash: testX, Amount: 1000}, coins[0].Coin)
	outer := expectedOuterHash(testX)
	assert.Equal(t, outer, coins[0].OuterPuzzleHash)
	assert.Equal(t, types.CoinName(spendID, outer, 1000), coins[0].Name)
	assert.Equal(t, uint64(25), coins[1].Coin.Amount)

	again, err := d.Derive(spendID, res.Match)
	require.NoError(t, err)
	assert.Equal(t, coins, again)
}

func TestDeriveRevocable(t *testing.T) {
	f := newRevocableFixture()
	identity := revocable(f.hiddenHash)
	res := NewMatcher(identity, revTemplates()).MatchProgram(
		f.outer,
		interimSolution(false, f.ownerPuzzle),
	)
	require.True(t, res.Matched)

	coins, err := NewDeriver(identity, revTemplates(), 0).Derive(spendID, res.Match)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, testX, coins[0].Coin.PuzzleHash)

	layer := clvm.Curry(testRevMod, atom(testRevModHash), atom(f.hiddenHash), atom(testX))
	effective := types.Bytes32(clvm.TreeHash(layer))
	outer := expectedOuterHash(effective)
	assert.Equal(t, outer, coins[0].OuterPuzzleHash)
	assert.Equal(t, types.CoinName(spendID, outer, 1000), coins[0].Name)

	// Created coins are wrapped with the pinned template only
	other := fill(0x99)
	res.Match.RevocationModHash = &other
	again, err := NewDeriver(identity, revTemplates(), 0).Derive(spendID, res.Match)
	require.NoError(t, err)
	assert.Equal(t, coins, again)
}

func TestDeriveErrors(t *testing.T) {
	identity := TokenIdentity{TailHash: testTail}
	d := NewDeriver(identity, testTemplates(), 0)

	raise := clvm.List(clvm.Int(8))
	_, err := d.Derive(spendID, &Match{InnerPuzzle: raise, InnerSolution: clvm.Nil()})
	var evalErr *clvm.EvalError
	assert.ErrorAs(t, err, &evalErr)

	_, err = NewDeriver(identity, testTemplates(), 10).Derive(
		spendID,
		&Match{InnerPuzzle: innerPuzzle(createCoin(testX, 1)), InnerSolution: clvm.Nil()},
	)
	assert.ErrorIs(t, err, clvm.ErrCostExceeded)

	rev := NewDeriver(revocable(testY), testTemplates(), 0)
	_, err = rev.Derive(
		spendID,
		&Match{InnerPuzzle: innerPuzzle(createCoin(testX, 1)), InnerSolution: clvm.Nil()},
	)
	assert.ErrorIs(t, err, ErrNoRevocationTemplate)
	assert.ErrorIs(t, testTemplates().Check(revocable(testY)), ErrNoRevocationTemplate)
	assert.NoError(t, revTemplates().Check(revocable(testY)))
	assert.NoError(t, testTemplates().Check(identity))
}

func TestDeriveOversizedAmount(t *testing.T) {
	huge := clvm.List(
		clvm.Int(clvm.ConditionCreateCoin),
		atom(testX),
		clvm.Atom([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0}),
	)
	d := NewDeriver(TokenIdentity{TailHash: testTail}, testTemplates(), 0)
	coins, err := d.Derive(spendID, &Match{InnerPuzzle: innerPuzzle(huge), InnerSolution: clvm.Nil()})
	require.NoError(t, err)
	assert.Empty(t, coins)
}

// Reference values computed with chia's curry_and_treehash and coin ID
// construction for the mainnet CAT2 module
func TestOuterPuzzleHashReference(t *testing.T) {
	parent := fill(0x44)
	d := NewDeriver(TokenIdentity{TailHash: fill(0x11)}, DefaultTemplates(), 0)
	outer, err := d.OuterPuzzleHash(fill(0x22))
	require.NoError(t, err)
	assert.Equal(
		t,
		types.MustBytes32FromHex("0f884be813ca2cdf1eca2aa91ddaca96d354ca4f250143b1780d71111963c328"),
		outer,
	)
	assert.Equal(
		t,
		types.MustBytes32FromHex("2f89d8e5bbd3f87c8d7765b88984f9ea717504346e1219f5e347bec5de866a86"),
		types.CoinName(parent, outer, 1000),
	)

	hidden := fill(0x55)
	templates := DefaultTemplates()
	revHash := fill(0x33)
	templates.RevocationLayerModHash = &revHash
	rev := NewDeriver(TokenIdentity{TailHash: fill(0x11), HiddenPuzzleHash: &hidden}, templates, 0)
	outer, err = rev.OuterPuzzleHash(fill(0x22))
	require.NoError(t, err)
	assert.Equal(
		t,
		types.MustBytes32FromHex("aef22df52a4553b34ae26f617dd99adf356adf084e0720fb9f6d6a755dd3280a"),
		outer,
	)
	assert.Equal(
		t,
		types.MustBytes32FromHex("1025f858f6b0c4aa4b8c4ef4ac13f9f0443dffaba2905dffcac8d94968b09c26"),
		types.CoinName(parent, outer, 1000),
	)
}
