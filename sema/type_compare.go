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

func typeRank(ty Type) int {
	switch ty.(type) {
	case *GenericParamType, *DependentMemberType:
		return 0
	case *NominalType:
		return 1
	case *TupleType:
		return 2
	case *FunctionType:
		return 3
	case *ProtocolType:
		return 4
	case *ArchetypeType:
		return 5
	default:
		return 6
	}
}

// CompareTypes is a total order on types.
// Dependent types come first, ordered by compareDependentTypes.
func CompareTypes(a, b Type) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	rankA, rankB := typeRank(a), typeRank(b)
	switch {
	case rankA < rankB:
		return -1
	case rankA > rankB:
		return 1
	}

	switch a := a.(type) {
	case *GenericParamType, *DependentMemberType:
		return compareDependentTypes(a, b, true)

	case *NominalType:
		b := b.(*NominalType)
		if result := strings.Compare(string(a.Decl.ID()), string(b.Decl.ID())); result != 0 {
			return result
		}
		return compareTypeLists(a.TypeArguments, b.TypeArguments)

	case *TupleType:
		return compareTypeLists(a.Elements, b.(*TupleType).Elements)

	case *FunctionType:
		b := b.(*FunctionType)
		if result := compareTypeLists(a.Parameters, b.Parameters); result != 0 {
			return result
		}
		return CompareTypes(a.Result, b.Result)

	case *ProtocolType:
		return compareProtocols(a, b.(*ProtocolType))

	case *ArchetypeType:
		return CompareTypes(a.InterfaceType, b.(*ArchetypeType).InterfaceType)
	}

	return strings.Compare(string(a.ID()), string(b.ID()))
}

func compareTypeLists(a, b []Type) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if result := CompareTypes(a[i], b[i]); result != 0 {
			return result
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareGenericParams(a, b *GenericParamType) int {
	switch {
	case a.Depth < b.Depth:
		return -1
	case a.Depth > b.Depth:
		return 1
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}

// compareDependentTypes orders dependent types by nesting depth,
// then by root generic parameter, then by member names from the root outwards.
// If withAssociatedTypes is set, members with the same name are
// further ordered by their associated type declarations.
func compareDependentTypes(a, b Type, withAssociatedTypes bool) int {
	depthA, depthB := nestingDepth(a), nestingDepth(b)
	switch {
	case depthA < depthB:
		return -1
	case depthA > depthB:
		return 1
	}

	rootA, pathA := memberPath(a)
	rootB, pathB := memberPath(b)

	paramA, okA := rootA.(*GenericParamType)
	paramB, okB := rootB.(*GenericParamType)
	if okA && okB {
		if result := compareGenericParams(paramA, paramB); result != 0 {
			return result
		}
	} else if result := CompareTypes(rootA, rootB); result != 0 {
		return result
	}

	for i, memberA := range pathA {
		memberB := pathB[i]
		if result := strings.Compare(memberA.Name, memberB.Name); result != 0 {
			return result
		}
	}

	if withAssociatedTypes {
		for i, memberA := range pathA {
			memberB := pathB[i]
			if result := compareAssociatedTypes(memberA.AssociatedType, memberB.AssociatedType); result != 0 {
				return result
			}
		}
	}

	return 0
}
