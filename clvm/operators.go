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
	"math"
	"math/big"

	"golang.org/x/crypto/sha3"
)

type operatorFunc func(args []*Program) (*Program, uint64, error)

var (
	operators         map[byte]operatorFunc
	extendedOperators map[string]operatorFunc
)

func init() {
	operators = map[byte]operatorFunc{
		3:  opIf,
		4:  opConsFn,
		5:  opFirst,
		6:  opRest,
		7:  opListp,
		8:  opRaise,
		9:  opEq,
		10: opGrBytes,
		11: opSha256,
		12: opSubstr,
		13: opStrlen,
		14: opConcat,
		16: opAdd,
		17: opSubtract,
		18: opMultiply,
		19: opDiv,
		20: opDivmod,
		21: opGr,
		22: opAsh,
		23: opLsh,
		24: opLogand,
		25: opLogior,
		26: opLogxor,
		27: opLognot,
		29: opPointAdd,
		30: opPubkeyForExp,
		32: opNot,
		33: opAny,
		34: opAll,
		36: opSoftfork,
		48: opCoinID,
		49: opG1Subtract,
		50: opG1Multiply,
		51: opG1Negate,
		52: opG2Add,
		53: opG2Subtract,
		54: opG2Multiply,
		55: opG2Negate,
		56: opG1Map,
		57: opG2Map,
		58: opBLSPairingIdentity,
		59: opBLSVerify,
		60: opModpow,
		61: opMod,
		62: opKeccak256,
	}
	extendedOperators = map[string]operatorFunc{
		opSecp256k1Verify: opK1Verify,
		opSecp256r1Verify: opR1Verify,
	}
}

func lookupOperator(atom []byte) (operatorFunc, bool) {
	if len(atom) == 1 {
		fn, ok := operators[atom[0]]
		return fn, ok
	}
	fn, ok := extendedOperators[string(atom)]
	return fn, ok
}

// unknownOperatorCost prices an operator outside the operator table. Block
// spends run without strict checking, so such operators return nil at a
// cost encoded in the opcode: the top two bits of the last byte select the
// cost function and the preceding bytes, plus one, multiply it. Opcodes
// starting with 0xffff are reserved
func unknownOperatorCost(op []byte, args []*Program, budget uint64) (uint64, error) {
	if len(op) == 0 || (len(op) >= 2 && op[0] == 0xff && op[1] == 0xff) {
		return 0, evalErr("reserved operator", atomNoCopy(op))
	}
	if len(op) > 5 {
		return 0, evalErr("invalid operator", atomNoCopy(op))
	}
	var multiplier uint64
	for _, b := range op[:len(op)-1] {
		multiplier = multiplier<<8 | uint64(b)
	}
	var cost uint64
	switch (op[len(op)-1] & 0xc0) >> 6 {
	case 0:
		cost = 1
	case 1:
		cost = costArithBase
		var size uint64
		for _, arg := range args {
			atom, err := atomArg("unknown op", arg)
			if err != nil {
				return 0, err
			}
			cost += costArithPerArg
			size += uint64(len(atom))
		}
		cost += size * costArithPerByte
	case 2:
		cost = costMulBase
		var l0 uint64
		for i, arg := range args {
			atom, err := atomArg("unknown op", arg)
			if err != nil {
				return 0, err
			}
			l1 := uint64(len(atom))
			if i == 0 {
				l0 = l1
				continue
			}
			cost += costMulPerOp
			cost += (l0 + l1) * costMulLinearPerByte
			cost += (l0 * l1) / costMulSquarePerByteDiv
			l0 += l1
		}
	case 3:
		cost = costConcatBase
		var size uint64
		for _, arg := range args {
			atom, err := atomArg("unknown op", arg)
			if err != nil {
				return 0, err
			}
			cost += costConcatPerArg
			size += uint64(len(atom))
		}
		cost += size * costConcatPerByte
	}
	if cost > budget {
		return 0, ErrCostExceeded
	}
	cost *= multiplier + 1
	if cost > math.MaxUint32 {
		return 0, evalErr("invalid operator", atomNoCopy(op))
	}
	return cost, nil
}

var (
	trueProgram  = oneProgram
	falseProgram = nilProgram
)

func boolProgram(v bool) *Program {
	if v {
		return trueProgram
	}
	return falseProgram
}

func checkArgCount(name string, args []*Program, count int) error {
	if len(args) != count {
		return evalErr(name+" takes exactly "+itoa(count)+" argument(s)", List(args...))
	}
	return nil
}

func itoa(v int) string {
	return big.NewInt(int64(v)).String()
}

func atomArg(name string, arg *Program) ([]byte, error) {
	atom, ok := arg.AtomOk()
	if !ok {
		return nil, evalErr(name+" requires atom argument", arg)
	}
	return atom, nil
}

func intArg(name string, arg *Program) (*big.Int, int, error) {
	atom, err := atomArg(name, arg)
	if err != nil {
		return nil, 0, err
	}
	return IntFromBytes(atom), len(atom), nil
}

// smallIntArg decodes an integer that must fit in 32 signed bits
func smallIntArg(name string, arg *Program) (int64, error) {
	atom, err := atomArg(name, arg)
	if err != nil {
		return 0, err
	}
	if len(atom) > 4 {
		return 0, evalErr(name+" requires int32 argument", arg)
	}
	return IntFromBytes(atom).Int64(), nil
}

func mallocCost(cost uint64, ret *Program) uint64 {
	return cost + uint64(len(ret.atom))*costMallocPerByte
}

func opIf(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("i", args, 3); err != nil {
		return nil, 0, err
	}
	if args[0].IsNil() {
		return args[2], costIf, nil
	}
	return args[1], costIf, nil
}

func opConsFn(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("c", args, 2); err != nil {
		return nil, 0, err
	}
	return Cons(args[0], args[1]), costCons, nil
}

func opFirst(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("f", args, 1); err != nil {
		return nil, 0, err
	}
	if !args[0].IsPair() {
		return nil, 0, evalErr("first of non-cons", args[0])
	}
	return args[0].first, costFirst, nil
}

func opRest(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("r", args, 1); err != nil {
		return nil, 0, err
	}
	if !args[0].IsPair() {
		return nil, 0, evalErr("rest of non-cons", args[0])
	}
	return args[0].rest, costRest, nil
}

func opListp(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("l", args, 1); err != nil {
		return nil, 0, err
	}
	return boolProgram(args[0].IsPair()), costListp, nil
}

func opRaise(args []*Program) (*Program, uint64, error) {
	if len(args) == 1 && args[0].IsAtom() {
		return nil, 0, evalErr("clvm raise", args[0])
	}
	return nil, 0, evalErr("clvm raise", List(args...))
}

func opEq(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("=", args, 2); err != nil {
		return nil, 0, err
	}
	a, err := atomArg("=", args[0])
	if err != nil {
		return nil, 0, err
	}
	b, err := atomArg("=", args[1])
	if err != nil {
		return nil, 0, err
	}
	cost := uint64(costEqBase + (len(a)+len(b))*costEqPerByte)
	return boolProgram(bytes.Equal(a, b)), cost, nil
}

func opGrBytes(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount(">s", args, 2); err != nil {
		return nil, 0, err
	}
	a, err := atomArg(">s", args[0])
	if err != nil {
		return nil, 0, err
	}
	b, err := atomArg(">s", args[1])
	if err != nil {
		return nil, 0, err
	}
	cost := uint64(costGrsBase + (len(a)+len(b))*costGrsPerByte)
	return boolProgram(bytes.Compare(a, b) > 0), cost, nil
}

func opSha256(args []*Program) (*Program, uint64, error) {
	cost := uint64(costSha256Base)
	h := sha256.New()
	for _, arg := range args {
		atom, err := atomArg("sha256", arg)
		if err != nil {
			return nil, 0, err
		}
		h.Write(atom)
		cost += costSha256PerArg + uint64(len(atom))*costSha256PerByte
	}
	ret := atomNoCopy(h.Sum(nil))
	return ret, mallocCost(cost, ret), nil
}

func opKeccak256(args []*Program) (*Program, uint64, error) {
	cost := uint64(costKeccakBase)
	h := sha3.NewLegacyKeccak256()
	for _, arg := range args {
		atom, err := atomArg("keccak256", arg)
		if err != nil {
			return nil, 0, err
		}
		h.Write(atom)
		cost += costKeccakPerArg + uint64(len(atom))*costKeccakPerByte
	}
	ret := atomNoCopy(h.Sum(nil))
	return ret, mallocCost(cost, ret), nil
}

func opSubstr(args []*Program) (*Program, uint64, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, 0, evalErr("substr takes exactly 2 or 3 arguments", List(args...))
	}
	atom, err := atomArg("substr", args[0])
	if err != nil {
		return nil, 0, err
	}
	start, err := smallIntArg("substr", args[1])
	if err != nil {
		return nil, 0, err
	}
	end := int64(len(atom))
	if len(args) == 3 {
		end, err = smallIntArg("substr", args[2])
		if err != nil {
			return nil, 0, err
		}
	}
	if end > int64(len(atom)) || end < start || start < 0 {
		return nil, 0, evalErr("invalid indices for substr", List(args...))
	}
	return Atom(atom[start:end]), costSubstr, nil
}

func opStrlen(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("strlen", args, 1); err != nil {
		return nil, 0, err
	}
	atom, err := atomArg("strlen", args[0])
	if err != nil {
		return nil, 0, err
	}
	ret := Int(int64(len(atom)))
	cost := uint64(costStrlenBase + len(atom)*costStrlenPerByte)
	return ret, mallocCost(cost, ret), nil
}

func opConcat(args []*Program) (*Program, uint64, error) {
	cost := uint64(costConcatBase)
	var buf []byte
	for _, arg := range args {
		atom, err := atomArg("concat", arg)
		if err != nil {
			return nil, 0, err
		}
		buf = append(buf, atom...)
		cost += costConcatPerArg
	}
	cost += uint64(len(buf)) * costConcatPerByte
	ret := atomNoCopy(buf)
	return ret, mallocCost(cost, ret), nil
}

func opAdd(args []*Program) (*Program, uint64, error) {
	cost := uint64(costArithBase)
	total := new(big.Int)
	for _, arg := range args {
		v, size, err := intArg("+", arg)
		if err != nil {
			return nil, 0, err
		}
		total.Add(total, v)
		cost += costArithPerArg + uint64(size)*costArithPerByte
	}
	ret := BigInt(total)
	return ret, mallocCost(cost, ret), nil
}

func opSubtract(args []*Program) (*Program, uint64, error) {
	cost := uint64(costArithBase)
	total := new(big.Int)
	for i, arg := range args {
		v, size, err := intArg("-", arg)
		if err != nil {
			return nil, 0, err
		}
		if i == 0 {
			total.Set(v)
		} else {
			total.Sub(total, v)
		}
		cost += costArithPerArg + uint64(size)*costArithPerByte
	}
	ret := BigInt(total)
	return ret, mallocCost(cost, ret), nil
}

func opMultiply(args []*Program) (*Program, uint64, error) {
	cost := uint64(costMulBase)
	if len(args) == 0 {
		return Int(1), cost, nil
	}
	total, size0, err := intArg("*", args[0])
	if err != nil {
		return nil, 0, err
	}
	for _, arg := range args[1:] {
		v, size1, err := intArg("*", arg)
		if err != nil {
			return nil, 0, err
		}
		cost += costMulPerOp
		cost += uint64(size0+size1) * costMulLinearPerByte
		cost += uint64(size0*size1) / costMulSquarePerByteDiv
		total = new(big.Int).Mul(total, v)
		size0 = len(IntToBytes(total))
	}
	ret := BigInt(total)
	return ret, mallocCost(cost, ret), nil
}

func twoIntArgs(name string, args []*Program) (*big.Int, *big.Int, int, error) {
	if err := checkArgCount(name, args, 2); err != nil {
		return nil, nil, 0, err
	}
	a, sizeA, err := intArg(name, args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	b, sizeB, err := intArg(name, args[1])
	if err != nil {
		return nil, nil, 0, err
	}
	return a, b, sizeA + sizeB, nil
}

func opDiv(args []*Program) (*Program, uint64, error) {
	a, b, size, err := twoIntArgs("/", args)
	if err != nil {
		return nil, 0, err
	}
	if b.Sign() == 0 {
		return nil, 0, evalErr("div with 0", args[0])
	}
	q, _ := floorDivMod(a, b)
	ret := BigInt(q)
	cost := uint64(costDivBase + size*costDivPerByte)
	return ret, mallocCost(cost, ret), nil
}

func opDivmod(args []*Program) (*Program, uint64, error) {
	a, b, size, err := twoIntArgs("divmod", args)
	if err != nil {
		return nil, 0, err
	}
	if b.Sign() == 0 {
		return nil, 0, evalErr("divmod with 0", args[0])
	}
	q, r := floorDivMod(a, b)
	qAtom, rAtom := BigInt(q), BigInt(r)
	cost := uint64(costDivmodBase+size*costDivmodPerByte) +
		uint64(len(qAtom.atom)+len(rAtom.atom))*costMallocPerByte
	return Cons(qAtom, rAtom), cost, nil
}

func opMod(args []*Program) (*Program, uint64, error) {
	a, b, size, err := twoIntArgs("%", args)
	if err != nil {
		return nil, 0, err
	}
	if b.Sign() == 0 {
		return nil, 0, evalErr("mod with 0", args[0])
	}
	_, r := floorDivMod(a, b)
	ret := BigInt(r)
	cost := uint64(costDivBase + size*costDivPerByte)
	return ret, mallocCost(cost, ret), nil
}

func opGr(args []*Program) (*Program, uint64, error) {
	a, b, size, err := twoIntArgs(">", args)
	if err != nil {
		return nil, 0, err
	}
	cost := uint64(costGrBase + size*costGrPerByte)
	return boolProgram(a.Cmp(b) > 0), cost, nil
}

func shiftArgs(name string, args []*Program) ([]byte, int64, error) {
	if err := checkArgCount(name, args, 2); err != nil {
		return nil, 0, err
	}
	atom, err := atomArg(name, args[0])
	if err != nil {
		return nil, 0, err
	}
	shift, err := smallIntArg(name, args[1])
	if err != nil {
		return nil, 0, err
	}
	if shift > 65535 || shift < -65535 {
		return nil, 0, evalErr("shift too large", args[1])
	}
	return atom, shift, nil
}

func opAsh(args []*Program) (*Program, uint64, error) {
	atom, shift, err := shiftArgs("ash", args)
	if err != nil {
		return nil, 0, err
	}
	v := IntFromBytes(atom)
	if shift >= 0 {
		v.Lsh(v, uint(shift))
	} else {
		// Rsh on a negative big.Int rounds towards negative infinity
		v.Rsh(v, uint(-shift))
	}
	ret := BigInt(v)
	cost := uint64(costAshiftBase + (len(atom)+len(ret.atom))*costAshiftPerByte)
	return ret, mallocCost(cost, ret), nil
}

func opLsh(args []*Program) (*Program, uint64, error) {
	atom, shift, err := shiftArgs("lsh", args)
	if err != nil {
		return nil, 0, err
	}
	v := unsignedFromBytes(atom)
	if shift >= 0 {
		v.Lsh(v, uint(shift))
	} else {
		v.Rsh(v, uint(-shift))
	}
	ret := BigInt(v)
	cost := uint64(costLshiftBase + (len(atom)+len(ret.atom))*costLshiftPerByte)
	return ret, mallocCost(cost, ret), nil
}

func logicalOp(
	name string,
	args []*Program,
	initial int64,
	fn func(z, x, y *big.Int) *big.Int,
) (*Program, uint64, error) {
	cost := uint64(costLogBase)
	total := big.NewInt(initial)
	for _, arg := range args {
		v, size, err := intArg(name, arg)
		if err != nil {
			return nil, 0, err
		}
		fn(total, total, v)
		cost += costLogPerArg + uint64(size)*costLogPerByte
	}
	ret := BigInt(total)
	return ret, mallocCost(cost, ret), nil
}

func opLogand(args []*Program) (*Program, uint64, error) {
	return logicalOp("logand", args, -1, (*big.Int).And)
}

func opLogior(args []*Program) (*Program, uint64, error) {
	return logicalOp("logior", args, 0, (*big.Int).Or)
}

func opLogxor(args []*Program) (*Program, uint64, error) {
	return logicalOp("logxor", args, 0, (*big.Int).Xor)
}

func opLognot(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("lognot", args, 1); err != nil {
		return nil, 0, err
	}
	v, size, err := intArg("lognot", args[0])
	if err != nil {
		return nil, 0, err
	}
	ret := BigInt(new(big.Int).Not(v))
	cost := uint64(costLognotBase + size*costLognotPerByte)
	return ret, mallocCost(cost, ret), nil
}

func opNot(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("not", args, 1); err != nil {
		return nil, 0, err
	}
	return boolProgram(args[0].IsNil()), costBoolBase, nil
}

func opAny(args []*Program) (*Program, uint64, error) {
	cost := uint64(costBoolBase + len(args)*costBoolPerArg)
	for _, arg := range args {
		if !arg.IsNil() {
			return trueProgram, cost, nil
		}
	}
	return falseProgram, cost, nil
}

func opAll(args []*Program) (*Program, uint64, error) {
	cost := uint64(costBoolBase + len(args)*costBoolPerArg)
	for _, arg := range args {
		if arg.IsNil() {
			return falseProgram, cost, nil
		}
	}
	return trueProgram, cost, nil
}

// opSoftfork charges the declared cost and evaluates to nil
func opSoftfork(args []*Program) (*Program, uint64, error) {
	if len(args) < 1 {
		return nil, 0, evalErr("softfork takes at least 1 argument", List(args...))
	}
	v, _, err := intArg("softfork", args[0])
	if err != nil {
		return nil, 0, err
	}
	if v.Sign() <= 0 || !v.IsUint64() {
		return nil, 0, evalErr("cost must be > 0", args[0])
	}
	return nilProgram, v.Uint64(), nil
}

func opCoinID(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("coinid", args, 3); err != nil {
		return nil, 0, err
	}
	parent, err := atomArg("coinid", args[0])
	if err != nil {
		return nil, 0, err
	}
	puzzleHash, err := atomArg("coinid", args[1])
	if err != nil {
		return nil, 0, err
	}
	amount, err := atomArg("coinid", args[2])
	if err != nil {
		return nil, 0, err
	}
	if len(parent) != 32 || len(puzzleHash) != 32 {
		return nil, 0, evalErr("coinid: invalid hash length", List(args...))
	}
	if !canonicalAmount(amount) {
		return nil, 0, evalErr("coinid: invalid amount", args[2])
	}
	h := sha256.New()
	h.Write(parent)
	h.Write(puzzleHash)
	h.Write(amount)
	ret := atomNoCopy(h.Sum(nil))
	return ret, mallocCost(costCoinID, ret), nil
}

// canonicalAmount reports whether buf is the minimal encoding of a
// non-negative integer that fits in 64 bits
func canonicalAmount(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	if buf[0]&0x80 != 0 {
		return false
	}
	if buf[0] == 0 && (len(buf) == 1 || buf[1]&0x80 == 0) {
		return false
	}
	if len(buf) > 9 || (len(buf) == 9 && buf[0] != 0) {
		return false
	}
	return true
}

func opModpow(args []*Program) (*Program, uint64, error) {
	if err := checkArgCount("modpow", args, 3); err != nil {
		return nil, 0, err
	}
	base, baseSize, err := intArg("modpow", args[0])
	if err != nil {
		return nil, 0, err
	}
	exp, expSize, err := intArg("modpow", args[1])
	if err != nil {
		return nil, 0, err
	}
	mod, modSize, err := intArg("modpow", args[2])
	if err != nil {
		return nil, 0, err
	}
	if exp.Sign() < 0 {
		return nil, 0, evalErr("modpow with negative exponent", args[1])
	}
	if mod.Sign() == 0 {
		return nil, 0, evalErr("modpow with 0 modulus", args[2])
	}
	cost := uint64(costModpowBase) +
		uint64(baseSize)*costModpowPerByteBase +
		uint64(expSize*expSize)*costModpowPerByteExp +
		uint64(modSize*modSize)*costModpowPerByteModulo
	absMod := new(big.Int).Abs(mod)
	_, b := floorDivMod(base, absMod)
	r := new(big.Int).Exp(b, exp, absMod)
	// Result takes the sign of the modulus
	if mod.Sign() < 0 && r.Sign() != 0 {
		r.Add(r, mod)
	}
	ret := BigInt(r)
	return ret, mallocCost(cost, ret), nil
}
