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

import "math/big"

// IntFromBytes decodes a two's complement big-endian integer. The empty
// slice is zero
func IntFromBytes(buf []byte) *big.Int {
	ret := new(big.Int).SetBytes(buf)
	if len(buf) > 0 && buf[0]&0x80 != 0 {
		ret.Sub(ret, new(big.Int).Lsh(big.NewInt(1), uint(len(buf))*8))
	}
	return ret
}

// IntToBytes returns the minimal two's complement big-endian encoding of v.
// Zero encodes as the empty slice
func IntToBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{}
	}
	var size int
	if v.Sign() > 0 {
		size = v.BitLen()/8 + 1
	} else {
		// -v-1 has the same magnitude as the bits needed below the sign bit
		tmp := new(big.Int).Neg(v)
		tmp.Sub(tmp, big.NewInt(1))
		size = tmp.BitLen()/8 + 1
	}
	tmp := new(big.Int).Set(v)
	if v.Sign() < 0 {
		tmp.Add(tmp, new(big.Int).Lsh(big.NewInt(1), uint(size)*8))
	}
	ret := make([]byte, size)
	tmp.FillBytes(ret)
	return ret
}

// unsignedFromBytes decodes buf as an unsigned big-endian integer
func unsignedFromBytes(buf []byte) *big.Int {
	return new(big.Int).SetBytes(buf)
}

// floorDivMod returns floor(a / b) and a - b*floor(a / b). b must be non-zero
func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		r.Add(r, b)
	}
	return q, r
}
