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
	"github.com/onflow/generics/common"
	"github.com/onflow/generics/common/orderedmap"
)

type archetypeID int

const noArchetype archetypeID = -1

// ResolutionKind determines whether resolving a dependent type
// may create new potential archetypes.
type ResolutionKind uint8

const (
	// ResolutionKindAlreadyKnown only finds existing potential archetypes
	ResolutionKindAlreadyKnown ResolutionKind = iota
	// ResolutionKindWellFormed creates potential archetypes for well-formed types
	ResolutionKindWellFormed
	// ResolutionKindCompleteWellFormed is like ResolutionKindWellFormed,
	// but a type which still cannot be resolved is reported as an error instead of being delayed
	ResolutionKindCompleteWellFormed
)

func (k ResolutionKind) allowsCreation() bool {
	return k != ResolutionKindAlreadyKnown
}

// potentialArchetype is a generic parameter, or a nested type of another potential archetype.
type potentialArchetype struct {
	// genericParam is set for a root
	genericParam *GenericParamType
	// associatedType is set for a nested type
	associatedType *AssociatedTypeDecl
	// nestedTypes maps associated type names to the nested types of this archetype,
	// one per associated type declaration
	nestedTypes *nestedTypeMap
	// class is only set for a representative
	class          *EquivalenceClass
	parent         archetypeID
	representative archetypeID
	depth          int
}

func (pa *potentialArchetype) isGenericParam() bool {
	return pa.parent == noArchetype
}

// archetypeArena owns the potential archetypes of one builder.
// Parent and representative links are indices into the arena.
type archetypeArena struct {
	memoryGauge common.MemoryGauge
	archetypes  []*potentialArchetype
	limit       int
}

func (a *archetypeArena) get(id archetypeID) *potentialArchetype {
	return a.archetypes[id]
}

func (a *archetypeArena) len() int {
	return len(a.archetypes)
}

func (a *archetypeArena) add(pa *potentialArchetype) archetypeID {
	if len(a.archetypes) >= a.limit {
		panic(PotentialArchetypeLimitError{Limit: a.limit})
	}

	common.UseMemory(a.memoryGauge, common.PotentialArchetypeMemoryUsage)

	id := archetypeID(len(a.archetypes))
	pa.representative = id
	a.archetypes = append(a.archetypes, pa)
	return id
}

func (a *archetypeArena) newGenericParam(param *GenericParamType) archetypeID {
	return a.add(&potentialArchetype{
		parent:       noArchetype,
		genericParam: param,
	})
}

func (a *archetypeArena) newNestedType(parent archetypeID, associatedType *AssociatedTypeDecl) archetypeID {
	parentArchetype := a.get(parent)

	id := a.add(&potentialArchetype{
		parent:         parent,
		associatedType: associatedType,
		depth:          parentArchetype.depth + 1,
	})

	if parentArchetype.nestedTypes == nil {
		parentArchetype.nestedTypes = orderedmap.New[nestedTypeMap](1)
	}
	siblings, _ := parentArchetype.nestedTypes.Get(associatedType.Name)
	parentArchetype.nestedTypes.Set(associatedType.Name, append(siblings, id))

	return id
}

// representative returns the representative of the archetype's equivalence class,
// compressing the path to it.
func (a *archetypeArena) representative(id archetypeID) archetypeID {
	root := id
	for {
		next := a.archetypes[root].representative
		if next == root {
			break
		}
		root = next
	}

	for id != root {
		pa := a.archetypes[id]
		next := pa.representative
		pa.representative = root
		id = next
	}

	return root
}

// nestedType returns the nested type of the archetype for the given associated type,
// if it was created.
func (a *archetypeArena) nestedType(id archetypeID, associatedType *AssociatedTypeDecl) archetypeID {
	pa := a.get(id)
	if pa.nestedTypes == nil {
		return noArchetype
	}
	siblings, _ := pa.nestedTypes.Get(associatedType.Name)
	for _, sibling := range siblings {
		if a.get(sibling).associatedType == associatedType {
			return sibling
		}
	}
	return noArchetype
}

// dependentType reconstructs the dependent type of the archetype from its parents.
func (a *archetypeArena) dependentType(id archetypeID) Type {
	var path []*AssociatedTypeDecl
	for {
		pa := a.get(id)
		if pa.isGenericParam() {
			var result Type = pa.genericParam
			for i := len(path) - 1; i >= 0; i-- {
				result = NewDependentMemberType(result, path[i])
			}
			return result
		}
		path = append(path, pa.associatedType)
		id = pa.parent
	}
}
