/*
 * Cadence - The resource-oriented smart contract programming language
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sema

import (
	"github.com/fxamacker/cbor/v2"
)

// encodedSignature is the CBOR representation of a canonical signature.
// Types are encoded by their IDs, which identify declarations by location.
type encodedSignature struct {
	_            struct{} `cbor:",toarray"`
	Params       []string
	Requirements []encodedRequirement
}

type encodedRequirement struct {
	_          struct{} `cbor:",toarray"`
	Subject    string
	Constraint string
	Kind       uint8
	Layout     uint8
	LayoutSize uint64
}

var signatureEncMode = func() cbor.EncMode {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

func encodeSignature(params []*GenericParamType, requirements []Requirement) ([]byte, error) {
	encoded := encodedSignature{
		Params:       make([]string, len(params)),
		Requirements: make([]encodedRequirement, len(requirements)),
	}

	for i, param := range params {
		encoded.Params[i] = string(param.ID())
	}

	for i, requirement := range requirements {
		encodedRequirement := encodedRequirement{
			Kind:    uint8(requirement.Kind),
			Subject: string(requirement.Subject.ID()),
		}
		if requirement.Kind == RequirementKindLayout {
			encodedRequirement.Layout = uint8(requirement.Layout.Kind)
			encodedRequirement.LayoutSize = requirement.Layout.SizeInBits
		} else {
			encodedRequirement.Constraint = string(requirement.Constraint.ID())
		}
		encoded.Requirements[i] = encodedRequirement
	}

	return signatureEncMode.Marshal(encoded)
}

// Encode returns the canonical CBOR encoding of the signature.
// Structurally identical signatures have identical encodings.
func (s *GenericSignature) Encode() ([]byte, error) {
	return encodeSignature(s.canonical.params, s.canonical.requirements)
}
