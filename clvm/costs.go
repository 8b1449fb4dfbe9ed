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

// Operator costs
const (
	costQuote = 20
	costApply = 90
	costIf    = 33
	costCons  = 50
	costFirst = 30
	costRest  = 30
	costListp = 19

	costMallocPerByte = 10

	costPathLookupBase        = 40
	costPathLookupPerLeg      = 4
	costPathLookupPerZeroByte = 4

	costArithBase    = 99
	costArithPerArg  = 320
	costArithPerByte = 3

	costLogBase    = 100
	costLogPerArg  = 264
	costLogPerByte = 3

	costLognotBase    = 331
	costLognotPerByte = 3

	costMulBase             = 92
	costMulPerOp            = 885
	costMulLinearPerByte    = 6
	costMulSquarePerByteDiv = 128

	costGrBase    = 498
	costGrPerByte = 2

	costEqBase    = 117
	costEqPerByte = 1

	costGrsBase    = 117
	costGrsPerByte = 1

	costDivmodBase    = 1116
	costDivmodPerByte = 6

	costDivBase    = 988
	costDivPerByte = 4

	costSha256Base    = 87
	costSha256PerArg  = 134
	costSha256PerByte = 2

	costKeccakBase    = 50
	costKeccakPerArg  = 160
	costKeccakPerByte = 2

	costPointAddBase   = 101094
	costPointAddPerArg = 1343980

	costPubkeyBase    = 1325730
	costPubkeyPerByte = 38

	costG1MultiplyBase    = 705500
	costG1MultiplyPerByte = 10
	costG1Negate          = 1396

	costG2AddBase   = 80000
	costG2AddPerArg = 1950000

	costG2MultiplyBase    = 2100000
	costG2MultiplyPerByte = 5
	costG2Negate          = 2164

	costG1MapBase       = 195000
	costG1MapPerByte    = 4
	costG1MapPerDSTByte = 4

	costG2MapBase       = 815000
	costG2MapPerByte    = 4
	costG2MapPerDSTByte = 4

	costPairingBase    = 3000000
	costPairingPerPair = 1200000

	costSecp256k1Verify = 1300000
	costSecp256r1Verify = 1850000

	costStrlenBase    = 173
	costStrlenPerByte = 1

	costConcatBase    = 142
	costConcatPerArg  = 135
	costConcatPerByte = 3

	costSubstr = 1

	costBoolBase   = 200
	costBoolPerArg = 300

	costAshiftBase    = 596
	costAshiftPerByte = 3

	costLshiftBase    = 277
	costLshiftPerByte = 3

	costCoinID = 800

	costModpowBase          = 17000
	costModpowPerByteBase   = 38
	costModpowPerByteExp    = 3
	costModpowPerByteModulo = 21
)
