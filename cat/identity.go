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

// Package cat recognizes spends of a single fungible token (CAT2) and
// derives the coins those spends create.
package cat

import (
	"github.com/blinklabs-io/snapcat/types"
)

// Cat2ModHash is the tree hash of the CAT2 outer puzzle
var Cat2ModHash = types.MustBytes32FromHex(
	"37bef360ee858133b69d595a906dc45d01af50379dad515eb9518abb7c1d2a7a",
)

// TokenIdentity names the token being tracked. HiddenPuzzleHash is set for
// revocable tokens
type TokenIdentity struct {
	TailHash         types.Bytes32
	HiddenPuzzleHash *types.Bytes32
}

// Revocable reports whether the token is wrapped in the revocation layer
func (t TokenIdentity) Revocable() bool {
	return t.HiddenPuzzleHash != nil
}

// Templates holds the tree hashes of the puzzle templates a token spend is
// built from
type Templates struct {
	CatModHash types.Bytes32
	// RevocationLayerModHash pins the revocation layer template. Revocable
	// tokens cannot be matched without it
	RevocationLayerModHash *types.Bytes32
}

// Check reports whether the templates can match spends of identity
func (t Templates) Check(identity TokenIdentity) error {
	if identity.Revocable() && t.RevocationLayerModHash == nil {
		return ErrNoRevocationTemplate
	}
	return nil
}

// DefaultTemplates returns the mainnet CAT2 templates
func DefaultTemplates() Templates {
	return Templates{
		CatModHash: Cat2ModHash,
	}
}
