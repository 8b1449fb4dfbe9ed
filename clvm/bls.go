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
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const g1PointSize = 48

func g1Arg(name string, arg *Program) (*bls12381.G1Affine, error) {
	atom, err := atomArg(name, arg)
	if err != nil {
		return nil, err
	}
	if len(atom) != g1PointSize {
		return nil, evalErr(name+": atom is not a G1 point", arg)
	}
	var p bls12381.G1Affine
	if _, err := p.SetBytes(atom); err != nil {
		return nil, evalErr(name+": atom is not a valid G1 point", arg)
	}
	return &p, nil
}

func g1Program(p *bls12381.G1Affine) *Program {
	buf := p.Bytes()
	return atomNoCopy(buf[:])
}

// scalarArg reduces an integer argument into the scalar field
func scalarArg(name string, arg *Program) (*big.Int, int, error) {
	v, size, err := intArg(name, arg)
	if err != nil {
		return nil, 0, err
	}
	_, r := floorDivMod(v, fr.Modulus())
	return r, size, nil
}

func pointSum(name string, args []*Program, subtract bool) (*Program, uint64, error) {
	cost := uint64(costPointAddBase)
	var acc bls12381.G1Jac
	acc.FromAffine(&bls12381.G1Affine{})
	for i, arg := range args {
		p, err := g1Arg(name, arg)
		if err != nil {
			return nil, 0, err
		}
		var pj bls12381.G1Jac
		pj.FromAffine(p)
		if subtract && i > 0 {
			acc.SubAssign(&pj)
		} else {
			acc.AddAssign(&pj)
		}
		cost += costPointAddPerArg
	}
	var ret bls12381.G1Affine
	ret.FromJacobian(&acc)
	out := g1Program(&ret)
	return out, mallocCost(cost, out), nil
}

func opPointAdd(args []*Program) (*Program, uint64, error) {
	return pointSum("point_add", args, false)
}

func opG1Subtract(args []*Program) (*Program, uint64, error) {
	return pointSum("g1_subtract", args, true)
}

func opPubkeyForExp(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("pubkey_for_exp", args, 1); err != nil {
		return nil, 0, err
	}
	s, size, err := scalarArg("pubkey_for_exp", args[0])
	if err != nil {
		return nil, 0, err
	}
	var p bls12381.G1Affine
	p.ScalarMultiplicationBase(s)
	out := g1Program(&p)
	cost := uint64(costPubkeyBase + size*costPubkeyPerByte)
	return out, mallocCost(cost, out), nil
}

func opG1Multiply(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("g1_multiply", args, 2); err != nil {
		return nil, 0, err
	}
	p, err := g1Arg("g1_multiply", args[0])
	if err != nil {
		return nil, 0, err
	}
	s, size, err := scalarArg("g1_multiply", args[1])
	if err != nil {
		return nil, 0, err
	}
	var ret bls12381.G1Affine
	ret.ScalarMultiplication(p, s)
	out := g1Program(&ret)
	cost := uint64(costG1MultiplyBase + size*costG1MultiplyPerByte)
	return out, mallocCost(cost, out), nil
}

func opG1Negate(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("g1_negate", args, 1); err != nil {
		return nil, 0, err
	}
	p, err := g1Arg("g1_negate", args[0])
	if err != nil {
		return nil, 0, err
	}
	var ret bls12381.G1Affine
	ret.Neg(p)
	out := g1Program(&ret)
	return out, mallocCost(costG1Negate, out), nil
}

const g2PointSize = 96

// Domain separation tags of the augmented signature scheme
var (
	dstG1 = []byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_AUG_")
	dstG2 = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_AUG_")
)

const maxDSTSize = 255

func g2Arg(name string, arg *Program) (*bls12381.G2Affine, error) {
	atom, err := atomArg(name, arg)
	if err != nil {
		return nil, err
	}
	if len(atom) != g2PointSize {
		return nil, evalErr(name+": atom is not a G2 point", arg)
	}
	var p bls12381.G2Affine
	if _, err := p.SetBytes(atom); err != nil {
		return nil, evalErr(name+": atom is not a valid G2 point", arg)
	}
	return &p, nil
}

func g2Program(p *bls12381.G2Affine) *Program {
	buf := p.Bytes()
	return atomNoCopy(buf[:])
}

func g2Sum(name string, args []*Program, subtract bool) (*Program, uint64, error) {
	cost := uint64(costG2AddBase)
	var acc bls12381.G2Jac
	acc.FromAffine(&bls12381.G2Affine{})
	for i, arg := range args {
		p, err := g2Arg(name, arg)
		if err != nil {
			return nil, 0, err
		}
		var pj bls12381.G2Jac
		pj.FromAffine(p)
		if subtract && i > 0 {
			acc.SubAssign(&pj)
		} else {
			acc.AddAssign(&pj)
		}
		cost += costG2AddPerArg
	}
	var ret bls12381.G2Affine
	ret.FromJacobian(&acc)
	out := g2Program(&ret)
	return out, mallocCost(cost, out), nil
}

func opG2Add(args []*Program) (*Program, uint64, error) {
	return g2Sum("g2_add", args, false)
}

func opG2Subtract(args []*Program) (*Program, uint64, error) {
	return g2Sum("g2_subtract", args, true)
}

func opG2Multiply(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("g2_multiply", args, 2); err != nil {
		return nil, 0, err
	}
	p, err := g2Arg("g2_multiply", args[0])
	if err != nil {
		return nil, 0, err
	}
	s, size, err := scalarArg("g2_multiply", args[1])
	if err != nil {
		return nil, 0, err
	}
	var ret bls12381.G2Affine
	ret.ScalarMultiplication(p, s)
	out := g2Program(&ret)
	cost := uint64(costG2MultiplyBase + size*costG2MultiplyPerByte)
	return out, mallocCost(cost, out), nil
}

func opG2Negate(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("g2_negate", args, 1); err != nil {
		return nil, 0, err
	}
	p, err := g2Arg("g2_negate", args[0])
	if err != nil {
		return nil, 0, err
	}
	var ret bls12381.G2Affine
	ret.Neg(p)
	out := g2Program(&ret)
	return out, mallocCost(costG2Negate, out), nil
}

// mapArgs reads the message and optional domain separation tag of g1_map
// and g2_map
func mapArgs(name string, args []*Program, defaultDST []byte) ([]byte, []byte, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, nil, evalErr(name+" takes exactly 1 or 2 arguments", List(args...))
	}
	msg, err := atomArg(name, args[0])
	if err != nil {
		return nil, nil, err
	}
	dst := defaultDST
	if len(args) == 2 {
		if dst, err = atomArg(name, args[1]); err != nil {
			return nil, nil, err
		}
		if len(dst) > maxDSTSize {
			return nil, nil, evalErr(name+": dst is too long", args[1])
		}
	}
	return msg, dst, nil
}

func opG1Map(args []*Program) (*Program, uint64, error) {
	msg, dst, err := mapArgs("g1_map", args, dstG1)
	if err != nil {
		return nil, 0, err
	}
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return nil, 0, evalErr("g1_map: "+err.Error(), args[0])
	}
	out := g1Program(&p)
	cost := uint64(costG1MapBase + len(msg)*costG1MapPerByte + len(dst)*costG1MapPerDSTByte)
	return out, mallocCost(cost, out), nil
}

func opG2Map(args []*Program) (*Program, uint64, error) {
	msg, dst, err := mapArgs("g2_map", args, dstG2)
	if err != nil {
		return nil, 0, err
	}
	p, err := bls12381.HashToG2(msg, dst)
	if err != nil {
		return nil, 0, evalErr("g2_map: "+err.Error(), args[0])
	}
	out := g2Program(&p)
	cost := uint64(costG2MapBase + len(msg)*costG2MapPerByte + len(dst)*costG2MapPerDSTByte)
	return out, mallocCost(cost, out), nil
}

// pairingIdentity reports whether the product of e(P[i], Q[i]) is one. An
// empty product is one
func pairingIdentity(p []bls12381.G1Affine, q []bls12381.G2Affine) (bool, error) {
	if len(p) == 0 {
		return true, nil
	}
	return bls12381.PairingCheck(p, q)
}

func opBLSPairingIdentity(args []*Program) (*Program, uint64, error) {
	if len(args)%2 != 0 {
		return nil, 0, evalErr("bls_pairing_identity takes an even number of arguments", List(args...))
	}
	cost := uint64(costPairingBase)
	p := make([]bls12381.G1Affine, 0, len(args)/2)
	q := make([]bls12381.G2Affine, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		g1, err := g1Arg("bls_pairing_identity", args[i])
		if err != nil {
			return nil, 0, err
		}
		g2, err := g2Arg("bls_pairing_identity", args[i+1])
		if err != nil {
			return nil, 0, err
		}
		p = append(p, *g1)
		q = append(q, *g2)
		cost += costPairingPerPair
	}
	ok, err := pairingIdentity(p, q)
	if err != nil || !ok {
		return nil, 0, evalErr("bls_pairing_identity failed", List(args...))
	}
	return nilProgram, cost, nil
}

// opBLSVerify checks an aggregate signature in the augmented scheme. The
// arguments are the signature followed by public key and message pairs
func opBLSVerify(args []*Program) (*Program, uint64, error) {
	if len(args) == 0 || len(args)%2 != 1 {
		return nil, 0, evalErr("bls_verify takes a signature and key/message pairs", List(args...))
	}
	cost := uint64(costPairingBase)
	sig, err := g2Arg("bls_verify", args[0])
	if err != nil {
		return nil, 0, err
	}
	_, _, g1Gen, _ := bls12381.Generators()
	var negGen bls12381.G1Affine
	negGen.Neg(&g1Gen)
	p := []bls12381.G1Affine{negGen}
	q := []bls12381.G2Affine{*sig}
	for i := 1; i < len(args); i += 2 {
		pk, err := g1Arg("bls_verify", args[i])
		if err != nil {
			return nil, 0, err
		}
		msg, err := atomArg("bls_verify", args[i+1])
		if err != nil {
			return nil, 0, err
		}
		pkBytes := pk.Bytes()
		augmented := append(pkBytes[:], msg...)
		hm, err := bls12381.HashToG2(augmented, dstG2)
		if err != nil {
			return nil, 0, evalErr("bls_verify: "+err.Error(), args[i+1])
		}
		p = append(p, *pk)
		q = append(q, hm)
		cost += costPairingPerPair + uint64(len(msg))*costG2MapPerByte
	}
	ok, err := pairingIdentity(p, q)
	if err != nil || !ok {
		return nil, 0, evalErr("bls_verify failed", List(args...))
	}
	return nilProgram, cost, nil
}
