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

// InferRequirements adds the requirements implied by the well-formedness of the given type:
// the requirements of every generic nominal type it mentions, applied to its type arguments.
func (b *GenericSignatureBuilder) InferRequirements(ty Type) ConstraintResult {
	b.checkNotFinalized()

	result := ConstraintResultResolved

	walkType(ty, func(component Type) bool {
		nominal, ok := component.(*NominalType)
		if !ok {
			return true
		}

		decl := nominal.Decl
		if len(decl.Requirements) == 0 || !nominal.HasTypeParameter() {
			return true
		}

		substitutions := nominal.substitutions().WithConformanceLookup(b.lookup)

		for _, requirement := range decl.Requirements {
			inferred := requirement.Subst(substitutions)
			source := b.sources.forInferred(inferred.Subject)
			result = combineConstraintResults(
				result,
				b.addRequirement(inferred, source, ResolutionKindWellFormed),
			)
		}

		return true
	})

	return result
}
