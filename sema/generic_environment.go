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
	"sync"

	"github.com/onflow/generics/common"
)

// ArchetypeType is a dependent type in the context of a generic signature:
// an opaque type with the conformances, superclass bound and layout the signature requires.
type ArchetypeType struct {
	// InterfaceType is the canonical dependent type of the archetype
	InterfaceType Type
	Superclass    Type
	environment   *GenericEnvironment
	protocols     []*ProtocolType
	Layout        LayoutConstraint
}

var _ Type = &ArchetypeType{}

func (*ArchetypeType) isType() {}

func (t *ArchetypeType) ID() TypeID {
	return "archetype(" + t.InterfaceType.ID() + ")"
}

func (t *ArchetypeType) String() string {
	return t.InterfaceType.String()
}

func (t *ArchetypeType) Equal(other Type) bool {
	otherArchetype, ok := other.(*ArchetypeType)
	if !ok {
		return false
	}
	return t.environment == otherArchetype.environment &&
		t.InterfaceType.Equal(otherArchetype.InterfaceType)
}

func (*ArchetypeType) HasTypeParameter() bool {
	return false
}

// ConformsToProtocols returns the protocols the archetype conforms to, in protocol order.
func (t *ArchetypeType) ConformsToProtocols() []*ProtocolType {
	return t.protocols
}

// ConformsTo returns true if the archetype conforms to the protocol,
// or to a protocol refining it.
func (t *ArchetypeType) ConformsTo(protocol *ProtocolType) bool {
	for _, conformed := range t.protocols {
		if conformed.InheritsFrom(protocol) {
			return true
		}
	}
	return false
}

// NestedType returns the nested type with the given name, in the same context.
// If the archetype has no such nested type, nil is returned.
func (t *ArchetypeType) NestedType(name string) Type {
	member := NewUnresolvedDependentMemberType(t.InterfaceType, name)
	if !t.environment.signature.IsValidTypeInContext(member) {
		return nil
	}
	return t.environment.MapTypeIntoContext(member)
}

// GenericEnvironment maps the dependent types of a generic signature to archetypes.
// It is safe for concurrent use.
type GenericEnvironment struct {
	signature  *GenericSignature
	archetypes map[TypeID]*ArchetypeType
	mu         sync.Mutex
}

func newGenericEnvironment(signature *GenericSignature) *GenericEnvironment {
	common.UseMemory(signature.canonical.config.MemoryGauge, common.GenericEnvironmentMemoryUsage)

	return &GenericEnvironment{
		signature:  signature,
		archetypes: map[TypeID]*ArchetypeType{},
	}
}

func (e *GenericEnvironment) Signature() *GenericSignature {
	return e.signature
}

// MapTypeIntoContext replaces the dependent types in the type with their archetypes,
// or with their concrete types.
func (e *GenericEnvironment) MapTypeIntoContext(ty Type) Type {
	canonicalType := e.signature.GetCanonicalTypeInContext(ty)
	return transformType(canonicalType, func(dependent Type) Type {
		return e.archetype(dependent)
	})
}

// GenericParamArchetypes returns the types the generic parameters are mapped to, in order.
func (e *GenericEnvironment) GenericParamArchetypes() []Type {
	params := e.signature.Params()
	result := make([]Type, len(params))
	for i, param := range params {
		result[i] = e.MapTypeIntoContext(param)
	}
	return result
}

func (e *GenericEnvironment) archetype(anchor Type) Type {
	key := anchor.ID()

	e.mu.Lock()
	archetype, ok := e.archetypes[key]
	e.mu.Unlock()
	if ok {
		return archetype
	}

	// the archetype is computed without holding the lock, as it queries the signature
	archetype = &ArchetypeType{
		InterfaceType: anchor,
		environment:   e,
		protocols:     e.signature.GetConformsTo(anchor),
		Superclass:    e.signature.GetSuperclassBound(anchor),
		Layout:        e.signature.GetLayoutConstraint(anchor),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.archetypes[key]; ok {
		return existing
	}
	e.archetypes[key] = archetype
	return archetype
}
