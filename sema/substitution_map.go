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
)

// SubstitutionMap replaces generic parameters with types.
//
// Members of replaced parameters are projected through conformances:
// if `T` is replaced by a nominal type, `T.Element` becomes the type witness
// for `Element`.
type SubstitutionMap struct {
	lookup       ConformanceLookup
	params       []*GenericParamType
	replacements []Type
}

func NewSubstitutionMap(params []*GenericParamType, replacements []Type) *SubstitutionMap {
	return &SubstitutionMap{
		params:       params,
		replacements: replacements,
		lookup:       DefaultConformanceLookup,
	}
}

// WithConformanceLookup returns a copy of the map which projects members
// through the given conformance lookup.
func (m *SubstitutionMap) WithConformanceLookup(lookup ConformanceLookup) *SubstitutionMap {
	result := *m
	result.lookup = lookup
	return &result
}

func (m *SubstitutionMap) IsEmpty() bool {
	return m == nil || len(m.params) == 0
}

func (m *SubstitutionMap) Params() []*GenericParamType {
	return m.params
}

// Replacement returns the replacement for the given parameter, or nil.
func (m *SubstitutionMap) Replacement(param *GenericParamType) Type {
	if m == nil {
		return nil
	}
	for i, candidate := range m.params {
		if !candidate.Equal(param) {
			continue
		}
		if i < len(m.replacements) {
			return m.replacements[i]
		}
		return nil
	}
	return nil
}

// Subst applies the substitutions to the given type.
// Parameters without a replacement are left unchanged.
func (m *SubstitutionMap) Subst(ty Type) Type {
	if m.IsEmpty() || ty == nil || !ty.HasTypeParameter() {
		return ty
	}
	return transformType(ty, m.substDependent)
}

func (m *SubstitutionMap) substDependent(ty Type) Type {
	switch ty := ty.(type) {
	case *GenericParamType:
		replacement := m.Replacement(ty)
		if replacement == nil {
			return ty
		}
		return replacement

	case *DependentMemberType:
		base := m.substDependent(ty.Base)
		if base == ty.Base {
			return ty
		}

		if IsDependentType(base) {
			return &DependentMemberType{
				Base:           base,
				AssociatedType: ty.AssociatedType,
				Name:           ty.Name,
			}
		}

		if witness := m.projectMember(base, ty); witness != nil {
			return witness
		}

		return &DependentMemberType{
			Base:           base,
			AssociatedType: ty.AssociatedType,
			Name:           ty.Name,
		}

	default:
		return ty
	}
}

func (m *SubstitutionMap) projectMember(base Type, member *DependentMemberType) Type {
	if archetype, ok := base.(*ArchetypeType); ok {
		return archetype.NestedType(member.Name)
	}

	if member.AssociatedType != nil {
		conformance := m.lookup.LookupConformance(base, member.AssociatedType.Protocol)
		if conformance == nil {
			return nil
		}
		return conformance.TypeWitness(member.Name)
	}

	if nominal, ok := base.(*NominalType); ok {
		return nominalTypeWitness(nominal, member.Name)
	}

	return nil
}

func (m *SubstitutionMap) String() string {
	if m.IsEmpty() {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, param := range m.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.String())
		sb.WriteString(" -> ")
		replacement := m.Replacement(param)
		if replacement == nil {
			sb.WriteString("?")
		} else {
			sb.WriteString(replacement.String())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
