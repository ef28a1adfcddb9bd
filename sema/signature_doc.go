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
	"strings"

	"github.com/turbolent/prettier"
)

const signatureDocMaxLineWidth = 80

var signatureSeparatorDoc prettier.Doc = prettier.Concat{
	prettier.Text(","),
	prettier.Line{},
}

var signatureWhereDoc prettier.Doc = prettier.Concat{
	prettier.Line{},
	prettier.Text("where "),
}

// Doc renders the signature as `<T, U where T: P, U == T.A>`.
func (s *GenericSignature) Doc() prettier.Doc {
	params := s.canonical.params
	requirements := s.canonical.requirements

	paramDocs := make([]prettier.Doc, len(params))
	for i, param := range params {
		paramDocs[i] = prettier.Text(param.String())
	}

	doc := prettier.Concat{
		prettier.Join(signatureSeparatorDoc, paramDocs...),
	}

	if len(requirements) > 0 {
		requirementDocs := make([]prettier.Doc, len(requirements))
		for i, requirement := range requirements {
			requirementDocs[i] = requirement.Doc()
		}

		doc = append(
			doc,
			prettier.Indent{
				Doc: prettier.Concat{
					signatureWhereDoc,
					prettier.Join(signatureSeparatorDoc, requirementDocs...),
				},
			},
		)
	}

	return prettier.Wrap(
		prettier.Text("<"),
		doc,
		prettier.Text(">"),
		prettier.SoftLine{},
	)
}

func (s *GenericSignature) String() string {
	var sb strings.Builder
	prettier.Prettier(&sb, s.Doc(), signatureDocMaxLineWidth, "    ")
	return sb.String()
}
