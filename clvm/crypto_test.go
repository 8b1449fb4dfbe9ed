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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func g2Infinity() []byte {
	ret := make([]byte, g2PointSize)
	ret[0] = 0xc0
	return ret
}

func g2Generator() *Program {
	_, _, _, g2 := bls12381.Generators()
	return g2Program(&g2)
}

func mustRun(t *testing.T, program *Program) *Program {
	t.Helper()
	out, _, err := Run(program, Nil(), 0)
	require.NoError(t, err)
	return out
}

func TestG2Operators(t *testing.T) {
	gen := g2Generator()
	double := mustRun(t, op(52, quote(gen), quote(gen)))
	assert.True(t, double.Equal(mustRun(t, op(54, quote(gen), quote(Int(2))))))

	back := mustRun(t, op(53, quote(double), quote(gen)))
	assert.True(t, back.Equal(gen))

	neg := mustRun(t, op(55, quote(gen)))
	assert.Equal(t, g2Infinity(), mustRun(t, op(52, quote(gen), quote(neg))).Atom())

	var evalErr *EvalError
	_, _, err := Run(op(52, quote(Atom(bytes.Repeat([]byte{0x01}, g2PointSize)))), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func TestMapOperators(t *testing.T) {
	msg := []byte("snapcat")
	expectedG1, err := bls12381.HashToG1(msg, dstG1)
	require.NoError(t, err)
	assert.True(t, mustRun(t, op(56, quote(Atom(msg)))).Equal(g1Program(&expectedG1)))

	expectedG2, err := bls12381.HashToG2(msg, dstG2)
	require.NoError(t, err)
	assert.True(t, mustRun(t, op(57, quote(Atom(msg)))).Equal(g2Program(&expectedG2)))

	dst := []byte("CUSTOM_DST")
	custom, err := bls12381.HashToG2(msg, dst)
	require.NoError(t, err)
	assert.True(t, mustRun(t, op(57, quote(Atom(msg)), quote(Atom(dst)))).Equal(g2Program(&custom)))

	var evalErr *EvalError
	_, _, err = Run(op(56, quote(Atom(msg)), quote(Atom(bytes.Repeat([]byte{'x'}, 256)))), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func TestBLSPairingIdentity(t *testing.T) {
	g1 := mustRun(t, op(30, quote(Int(1))))
	negG1 := mustRun(t, op(51, quote(g1)))
	g2 := g2Generator()

	out := mustRun(t, op(58, quote(g1), quote(g2), quote(negG1), quote(g2)))
	assert.True(t, out.IsNil())

	var evalErr *EvalError
	_, _, err := Run(op(58, quote(g1), quote(g2)), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(op(58, quote(g1)), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func TestBLSVerify(t *testing.T) {
	// A lone identity signature over no messages is valid
	program := op(5, op(4,
		quote(List(List(Int(51), Atom(bytes.Repeat([]byte{0xaa}, 32)), Int(1000)))),
		op(59, quote(Atom(g2Infinity()))),
	))
	conds := mustRun(t, program)
	items, err := conds.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 1)

	sk := big.NewInt(7)
	pk := mustRun(t, op(30, quote(BigInt(sk))))
	msg := []byte("token transfer")
	hm, err := bls12381.HashToG2(append(append([]byte{}, pk.Atom()...), msg...), dstG2)
	require.NoError(t, err)
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&hm, sk)

	out := mustRun(t, op(59, quote(g2Program(&sig)), quote(pk), quote(Atom(msg))))
	assert.True(t, out.IsNil())

	var evalErr *EvalError
	_, _, err = Run(op(59, quote(g2Program(&sig)), quote(pk), quote(Atom([]byte("other")))), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(op(59, quote(g2Generator())), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(op(59, quote(g2Program(&sig)), quote(pk)), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func secpCall(opcode string, pubkey, digest, sig []byte) *Program {
	return Cons(
		Atom([]byte(opcode)),
		List(quote(Atom(pubkey)), quote(Atom(digest)), quote(Atom(sig))),
	)
}

func TestSecp256k1Verify(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))
	pubkey := priv.PubKey().SerializeCompressed()
	digest := sha256.Sum256([]byte("snapcat"))
	sig := secpecdsa.SignCompact(priv, digest[:], true)[1:]

	out := mustRun(t, secpCall(opSecp256k1Verify, pubkey, digest[:], sig))
	assert.True(t, out.IsNil())

	var evalErr *EvalError
	other := sha256.Sum256([]byte("other"))
	_, _, err := Run(secpCall(opSecp256k1Verify, pubkey, other[:], sig), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)

	// The same signature with a high S value
	var s secp256k1.ModNScalar
	s.SetByteSlice(sig[32:])
	s.Negate()
	highS := s.Bytes()
	malleated := append(append([]byte{}, sig[:32]...), highS[:]...)
	_, _, err = Run(secpCall(opSecp256k1Verify, pubkey, digest[:], malleated), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)

	_, _, err = Run(secpCall(opSecp256k1Verify, pubkey[1:], digest[:], sig), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func TestSecp256r1Verify(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	pubkey := elliptic.MarshalCompressed(elliptic.P256(), key.X, key.Y)
	digest := sha256.Sum256([]byte("snapcat"))
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	require.NoError(t, err)
	sig := make([]byte, secpSignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])

	out := mustRun(t, secpCall(opSecp256r1Verify, pubkey, digest[:], sig))
	assert.True(t, out.IsNil())

	var evalErr *EvalError
	other := sha256.Sum256([]byte("other"))
	_, _, err = Run(secpCall(opSecp256r1Verify, pubkey, other[:], sig), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(secpCall(opSecp256r1Verify, pubkey, digest[:], sig[:63]), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
}

func TestUnknownOperators(t *testing.T) {
	testCases := []struct {
		name   string
		opcode []byte
		args   []*Program
		cost   uint64
	}{
		{"constant cost", []byte{0x3f}, nil, 1},
		{"arithmetic cost", []byte{0x7e}, nil, costArithBase},
		{"arithmetic cost with args", []byte{0x7e}, []*Program{Atom([]byte{1, 2})}, costArithBase + costArithPerArg + 2*costArithPerByte},
		{"multiplier", []byte{0x01, 0x00}, nil, 2},
		{"concat cost", []byte{0xc0}, []*Program{Atom([]byte{1})}, costConcatBase + costConcatPerArg + costConcatPerByte},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			quoted := make([]*Program, 0, len(tc.args))
			for _, arg := range tc.args {
				quoted = append(quoted, quote(arg))
			}
			program := Cons(Atom(tc.opcode), List(quoted...))
			out, cost, err := Run(program, Nil(), 0)
			require.NoError(t, err)
			assert.True(t, out.IsNil())
			assert.Equal(t, tc.cost+uint64(len(tc.args))*costQuote, cost)
		})
	}

	var evalErr *EvalError
	_, _, err := Run(Cons(Atom([]byte{0xff, 0xff, 0x00}), Nil()), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(Cons(Atom([]byte{1, 2, 3, 4, 5, 0}), Nil()), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(Cons(Atom([]byte{0xff, 0xfe, 0xff, 0xff, 0x40}), Nil()), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(op(0x7e, quote(List(Int(1)))), Nil(), 0)
	assert.ErrorAs(t, err, &evalErr)
	_, _, err = Run(Cons(Atom([]byte{0x01, 0x00}), Nil()), Nil(), 1)
	assert.ErrorIs(t, err, ErrCostExceeded)
}
