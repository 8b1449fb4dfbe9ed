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
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Multi-byte opcodes of the secp signature checks
var (
	opSecp256k1Verify = string([]byte{0x13, 0xd6, 0x1f, 0x00})
	opSecp256r1Verify = string([]byte{0x1c, 0x3a, 0x8f, 0x00})
)

const (
	secpPubkeySize    = 33
	secpDigestSize    = 32
	secpSignatureSize = 64
)

// secpArgs reads the compressed public key, the message digest and the
// r||s signature
func secpArgs(name string, args []*Program) (pubkey, digest, sig []byte, err error) {
	if err := checkArgCount(name, args, 3); err != nil {
		return nil, nil, nil, err
	}
	if pubkey, err = atomArg(name, args[0]); err != nil {
		return nil, nil, nil, err
	}
	if len(pubkey) != secpPubkeySize {
		return nil, nil, nil, evalErr(name+": pubkey is not valid", args[0])
	}
	if digest, err = atomArg(name, args[1]); err != nil {
		return nil, nil, nil, err
	}
	if len(digest) != secpDigestSize {
		return nil, nil, nil, evalErr(name+": message digest is not 32 bytes", args[1])
	}
	if sig, err = atomArg(name, args[2]); err != nil {
		return nil, nil, nil, err
	}
	if len(sig) != secpSignatureSize {
		return nil, nil, nil, evalErr(name+": signature is not valid", args[2])
	}
	return pubkey, digest, sig, nil
}

// opK1Verify rejects high-S signatures
func opK1Verify(args []*Program) (*Program, uint64, error) {
	pubkey, digest, sig, err := secpArgs("secp256k1_verify", args)
	if err != nil {
		return nil, 0, err
	}
	pub, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return nil, 0, evalErr("secp256k1_verify: pubkey is not valid", args[0])
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) ||
		r.IsZero() || s.IsZero() || s.IsOverHalfOrder() {
		return nil, 0, evalErr("secp256k1_verify: signature is not valid", args[2])
	}
	if !secpecdsa.NewSignature(&r, &s).Verify(digest, pub) {
		return nil, 0, evalErr("secp256k1_verify failed", List(args...))
	}
	return nilProgram, costSecp256k1Verify, nil
}

func opR1Verify(args []*Program) (*Program, uint64, error) {
	pubkey, digest, sig, err := secpArgs("secp256r1_verify", args)
	if err != nil {
		return nil, 0, err
	}
	curve := elliptic.P256()
	x, y := elliptic.UnmarshalCompressed(curve, pubkey)
	if x == nil {
		return nil, 0, evalErr("secp256r1_verify: pubkey is not valid", args[0])
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if !ecdsa.Verify(pub, digest, r, s) {
		return nil, 0, evalErr("secp256r1_verify failed", List(args...))
	}
	return nilProgram, costSecp256r1Verify, nil
}
