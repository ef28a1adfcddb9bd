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
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/onflow/generics/common"
	"github.com/onflow/generics/errors"
)

type RequirementSourceKind uint8

const (
	// RequirementSourceKindExplicit is a requirement written by the user,
	// or re-injected from an existing generic signature.
	RequirementSourceKindExplicit RequirementSourceKind = iota
	// RequirementSourceKindInferred is a requirement inferred from the structure of a type.
	RequirementSourceKindInferred
	// RequirementSourceKindRequirementSignatureSelf is the `Self: P` requirement
	// of the requirement signature of protocol P.
	RequirementSourceKindRequirementSignatureSelf
	// RequirementSourceKindNestedTypeNameMatch equates two nested types
	// with the same name on the same equivalence class.
	RequirementSourceKindNestedTypeNameMatch
	// RequirementSourceKindProtocolRequirement is a requirement of a protocol,
	// applied to a type conforming to it.
	RequirementSourceKindProtocolRequirement
	// RequirementSourceKindInferredProtocolRequirement is like RequirementSourceKindProtocolRequirement,
	// but the conformance was inferred.
	RequirementSourceKindInferredProtocolRequirement
	// RequirementSourceKindSuperclass is a conformance implied by the superclass bound.
	RequirementSourceKindSuperclass
	// RequirementSourceKindParent is the step from a type to one of its nested types.
	RequirementSourceKindParent
	// RequirementSourceKindConcrete is a requirement implied by a concrete type binding.
	RequirementSourceKindConcrete
	// RequirementSourceKindLayout is a layout implied by the superclass bound.
	RequirementSourceKindLayout
	// RequirementSourceKindEquivalentType re-roots a source at an equivalent type.
	RequirementSourceKindEquivalentType
)

func (k RequirementSourceKind) String() string {
	switch k {
	case RequirementSourceKindExplicit:
		return "Explicit"
	case RequirementSourceKindInferred:
		return "Inferred"
	case RequirementSourceKindRequirementSignatureSelf:
		return "RequirementSignatureSelf"
	case RequirementSourceKindNestedTypeNameMatch:
		return "NestedTypeNameMatch"
	case RequirementSourceKindProtocolRequirement:
		return "ProtocolRequirement"
	case RequirementSourceKindInferredProtocolRequirement:
		return "InferredProtocolRequirement"
	case RequirementSourceKindSuperclass:
		return "Superclass"
	case RequirementSourceKindParent:
		return "Parent"
	case RequirementSourceKindConcrete:
		return "Concrete"
	case RequirementSourceKindLayout:
		return "Layout"
	case RequirementSourceKindEquivalentType:
		return "EquivalentType"
	}

	panic(errors.NewUnreachableError())
}

// IsRoot returns true for the kinds of sources which start a derivation.
func (k RequirementSourceKind) IsRoot() bool {
	switch k {
	case RequirementSourceKindExplicit,
		RequirementSourceKindInferred,
		RequirementSourceKindRequirementSignatureSelf,
		RequirementSourceKindNestedTypeNameMatch:
		return true
	}
	return false
}

type sourceID uint

// RequirementSource records why a requirement holds.
//
// Sources form a DAG through their parents. They are interned by their builder,
// so two structurally identical sources are the same pointer, and never mutated.
type RequirementSource struct {
	Parent *RequirementSource
	// rootType is the subject of a root source
	rootType Type
	// storedType is the subject of a protocol requirement, in terms of the protocol's Self,
	// or the new root of an equivalent type source
	storedType     Type
	affectedType   Type
	protocol       *ProtocolType
	associatedType *AssociatedTypeDecl
	conformance    *ProtocolConformance
	layout         LayoutConstraint
	// writtenIndex is the index of an explicit requirement in the order the requirements were added.
	// Abstract explicit requirements, e.g. of an outer generic signature, have index -1.
	writtenIndex int
	id           sourceID
	length       int
	Kind         RequirementSourceKind
	// usesRequirementSignature is true if a protocol requirement
	// was taken from the protocol's computed requirement signature
	usesRequirementSignature bool
}

// Protocol returns the protocol of a requirement signature or protocol requirement source.
func (s *RequirementSource) Protocol() *ProtocolType {
	return s.protocol
}

func (s *RequirementSource) StoredType() Type {
	return s.storedType
}

func (s *RequirementSource) AssociatedType() *AssociatedTypeDecl {
	return s.associatedType
}

func (s *RequirementSource) Conformance() *ProtocolConformance {
	return s.conformance
}

func (s *RequirementSource) UsesRequirementSignature() bool {
	return s.usesRequirementSignature
}

// IsWritten returns true if the source is an explicit requirement written by the user.
func (s *RequirementSource) IsWritten() bool {
	return s.Kind == RequirementSourceKindExplicit &&
		s.writtenIndex >= 0
}

func (s *RequirementSource) IsProtocolRequirement() bool {
	return s.Kind == RequirementSourceKindProtocolRequirement ||
		s.Kind == RequirementSourceKindInferredProtocolRequirement
}

// RootType returns the subject of the root of the derivation.
func (s *RequirementSource) RootType() Type {
	root := s
	for root.Parent != nil {
		root = root.Parent
	}
	return root.rootType
}

// AffectedType returns the type the requirement applies to.
func (s *RequirementSource) AffectedType() Type {
	return s.affectedType
}

// IsDerivedRequirement returns true if the requirement is implied by other requirements.
// Requirements of a protocol directly below its requirement signature source are explicit
// in the protocol's requirement signature.
func (s *RequirementSource) IsDerivedRequirement() bool {
	switch s.Kind {
	case RequirementSourceKindExplicit,
		RequirementSourceKindInferred:
		return false

	case RequirementSourceKindProtocolRequirement,
		RequirementSourceKindInferredProtocolRequirement:
		return s.Parent.Kind != RequirementSourceKindRequirementSignatureSelf

	default:
		return true
	}
}

// isDerivedViaSuperclass returns true if the derivation passes through a superclass bound.
func (s *RequirementSource) isDerivedViaSuperclass() bool {
	for current := s; current != nil; current = current.Parent {
		if current.Kind == RequirementSourceKindSuperclass {
			return true
		}
	}
	return false
}

// VisitAffectedTypesAlongPath calls the visitor for every step of the derivation,
// from the root to this source, with the type affected by that step.
// The visitor can stop the walk by returning false,
// in which case false is returned.
func (s *RequirementSource) VisitAffectedTypesAlongPath(visit func(ty Type, source *RequirementSource) bool) bool {
	path := make([]*RequirementSource, 0, s.length)
	for current := s; current != nil; current = current.Parent {
		path = append(path, current)
	}
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		if !visit(step.affectedType, step) {
			return false
		}
	}
	return true
}

// isSelfDerivedConformance returns true if the derivation uses the conformance
// of the given equivalence class to the given protocol, i.e. it could not hold
// without the very conformance it is supposed to justify.
func (s *RequirementSource) isSelfDerivedConformance(
	class *EquivalenceClass,
	protocol *ProtocolType,
	classOf func(Type) *EquivalenceClass,
) bool {
	var visited bitset.BitSet

	for current := s; current != nil && current.Parent != nil; current = current.Parent {
		if visited.Test(uint(current.id)) {
			break
		}
		visited.Set(uint(current.id))

		var usedProtocol *ProtocolType
		switch current.Kind {
		case RequirementSourceKindProtocolRequirement,
			RequirementSourceKindInferredProtocolRequirement:
			usedProtocol = current.protocol
		case RequirementSourceKindParent:
			usedProtocol = current.associatedType.Protocol
		default:
			continue
		}

		if usedProtocol != protocol {
			continue
		}

		if classOf(current.Parent.affectedType) == class {
			return true
		}
	}

	return false
}

func (s *RequirementSource) Compare(other *RequirementSource) int {
	if s == other {
		return 0
	}

	derived, otherDerived := s.IsDerivedRequirement(), other.IsDerivedRequirement()
	if derived != otherDerived {
		if derived {
			return -1
		}
		return 1
	}

	switch {
	case s.length < other.length:
		return -1
	case s.length > other.length:
		return 1
	}

	for a, b := s, other; a != nil && b != nil; a, b = a.Parent, b.Parent {
		if result := a.compareStep(b); result != 0 {
			return result
		}
	}

	return 0
}

func (s *RequirementSource) compareStep(other *RequirementSource) int {
	switch {
	case s.Kind < other.Kind:
		return -1
	case s.Kind > other.Kind:
		return 1
	}

	if result := CompareTypes(s.rootType, other.rootType); result != 0 {
		return result
	}
	if result := compareOptionalProtocols(s.protocol, other.protocol); result != 0 {
		return result
	}
	if result := CompareTypes(s.storedType, other.storedType); result != 0 {
		return result
	}
	if result := compareAssociatedTypes(s.associatedType, other.associatedType); result != 0 {
		return result
	}
	if result := compareConformances(s.conformance, other.conformance); result != 0 {
		return result
	}
	if result := compareLayoutConstraints(s.layout, other.layout); result != 0 {
		return result
	}

	switch {
	case s.writtenIndex < other.writtenIndex:
		return -1
	case s.writtenIndex > other.writtenIndex:
		return 1
	}

	if s.usesRequirementSignature != other.usesRequirementSignature {
		if s.usesRequirementSignature {
			return -1
		}
		return 1
	}

	return CompareTypes(s.affectedType, other.affectedType)
}

func compareOptionalProtocols(a, b *ProtocolType) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareProtocols(a, b)
}

func compareConformances(a, b *ProtocolConformance) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if result := CompareTypes(a.Type, b.Type); result != 0 {
		return result
	}
	return compareProtocols(a.Protocol, b.Protocol)
}

func (s *RequirementSource) String() string {
	var sb strings.Builder
	s.VisitAffectedTypesAlongPath(func(_ Type, step *RequirementSource) bool {
		if step.Parent != nil {
			sb.WriteString(" -> ")
		}
		sb.WriteString(step.Kind.String())
		sb.WriteByte('(')
		sb.WriteString(step.payloadString())
		sb.WriteByte(')')
		return true
	})
	return sb.String()
}

func (s *RequirementSource) payloadString() string {
	switch s.Kind {
	case RequirementSourceKindRequirementSignatureSelf:
		return fmt.Sprintf("%s: %s", s.rootType, s.protocol)
	case RequirementSourceKindProtocolRequirement,
		RequirementSourceKindInferredProtocolRequirement:
		return fmt.Sprintf("%s in %s", s.storedType, s.protocol)
	case RequirementSourceKindParent:
		return s.associatedType.String()
	case RequirementSourceKindSuperclass,
		RequirementSourceKindConcrete:
		return s.conformance.String()
	case RequirementSourceKindLayout:
		return s.layout.String()
	case RequirementSourceKindEquivalentType:
		return s.storedType.String()
	default:
		return s.rootType.String()
	}
}

// requirementSourceArena creates and interns the requirement sources of one builder.
type requirementSourceArena struct {
	memoryGauge common.MemoryGauge
	interned    map[requirementSourceKey]*RequirementSource
	sources     []*RequirementSource
}

type requirementSourceKey struct {
	parent                   *RequirementSource
	protocol                 *ProtocolType
	associatedType           *AssociatedTypeDecl
	conformanceProtocol      *ProtocolType
	rootType                 TypeID
	storedType               TypeID
	conformanceType          TypeID
	layout                   LayoutConstraint
	writtenIndex             int
	kind                     RequirementSourceKind
	usesRequirementSignature bool
}

func newRequirementSourceArena(memoryGauge common.MemoryGauge) *requirementSourceArena {
	return &requirementSourceArena{
		memoryGauge: memoryGauge,
		interned:    map[requirementSourceKey]*RequirementSource{},
	}
}

func typeIDOrEmpty(ty Type) TypeID {
	if ty == nil {
		return ""
	}
	return ty.ID()
}

func (a *requirementSourceArena) intern(source RequirementSource) *RequirementSource {
	if !source.Kind.IsRoot() && source.Parent == nil {
		panic(errors.NewUnexpectedError(
			"requirement source of kind %s requires a parent",
			source.Kind,
		))
	}

	key := requirementSourceKey{
		kind:                     source.Kind,
		parent:                   source.Parent,
		rootType:                 typeIDOrEmpty(source.rootType),
		storedType:               typeIDOrEmpty(source.storedType),
		protocol:                 source.protocol,
		associatedType:           source.associatedType,
		layout:                   source.layout,
		writtenIndex:             source.writtenIndex,
		usesRequirementSignature: source.usesRequirementSignature,
	}
	if source.conformance != nil {
		key.conformanceType = source.conformance.Type.ID()
		key.conformanceProtocol = source.conformance.Protocol
	}

	if existing, ok := a.interned[key]; ok {
		return existing
	}

	common.UseMemory(a.memoryGauge, common.RequirementSourceMemoryUsage)

	result := &RequirementSource{}
	*result = source
	result.id = sourceID(len(a.sources))

	if source.Parent == nil {
		result.length = 1
		result.affectedType = source.rootType
	} else {
		result.length = source.Parent.length + 1
		result.affectedType = result.computeAffectedType()
	}

	a.sources = append(a.sources, result)
	a.interned[key] = result
	return result
}

func (s *RequirementSource) computeAffectedType() Type {
	parentType := s.Parent.affectedType

	switch s.Kind {
	case RequirementSourceKindProtocolRequirement,
		RequirementSourceKindInferredProtocolRequirement:
		return replaceProtocolSelf(s.storedType, parentType)

	case RequirementSourceKindParent:
		return NewDependentMemberType(parentType, s.associatedType)

	case RequirementSourceKindEquivalentType:
		return s.storedType

	default:
		return parentType
	}
}

// replaceProtocolSelf replaces the protocol's Self in a type of a protocol requirement.
func replaceProtocolSelf(ty Type, self Type) Type {
	return NewSubstitutionMap(
		[]*GenericParamType{ProtocolSelfType},
		[]Type{self},
	).Subst(ty)
}

func (a *requirementSourceArena) forExplicit(rootType Type, writtenIndex int) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:         RequirementSourceKindExplicit,
		rootType:     rootType,
		writtenIndex: writtenIndex,
	})
}

// forAbstract is an explicit source which was not written by the user,
// e.g. a requirement of an outer generic signature.
func (a *requirementSourceArena) forAbstract(rootType Type) *RequirementSource {
	return a.forExplicit(rootType, -1)
}

func (a *requirementSourceArena) forInferred(rootType Type) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:     RequirementSourceKindInferred,
		rootType: rootType,
	})
}

func (a *requirementSourceArena) forRequirementSignature(rootType Type, protocol *ProtocolType) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:     RequirementSourceKindRequirementSignatureSelf,
		rootType: rootType,
		protocol: protocol,
	})
}

func (a *requirementSourceArena) forNestedTypeNameMatch(rootType Type) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:     RequirementSourceKindNestedTypeNameMatch,
		rootType: rootType,
	})
}

func (a *requirementSourceArena) viaProtocolRequirement(
	parent *RequirementSource,
	storedType Type,
	protocol *ProtocolType,
	inferred bool,
	usesRequirementSignature bool,
) *RequirementSource {
	kind := RequirementSourceKindProtocolRequirement
	if inferred {
		kind = RequirementSourceKindInferredProtocolRequirement
	}
	return a.intern(RequirementSource{
		Kind:                     kind,
		Parent:                   parent,
		storedType:               storedType,
		protocol:                 protocol,
		usesRequirementSignature: usesRequirementSignature,
	})
}

func (a *requirementSourceArena) viaSuperclass(
	parent *RequirementSource,
	conformance *ProtocolConformance,
) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:        RequirementSourceKindSuperclass,
		Parent:      parent,
		conformance: conformance,
	})
}

func (a *requirementSourceArena) viaConcrete(
	parent *RequirementSource,
	conformance *ProtocolConformance,
) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:        RequirementSourceKindConcrete,
		Parent:      parent,
		conformance: conformance,
	})
}

func (a *requirementSourceArena) viaLayout(
	parent *RequirementSource,
	layout LayoutConstraint,
) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:   RequirementSourceKindLayout,
		Parent: parent,
		layout: layout,
	})
}

func (a *requirementSourceArena) viaParent(
	parent *RequirementSource,
	associatedType *AssociatedTypeDecl,
) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:           RequirementSourceKindParent,
		Parent:         parent,
		associatedType: associatedType,
	})
}

func (a *requirementSourceArena) viaEquivalentType(
	parent *RequirementSource,
	newType Type,
) *RequirementSource {
	return a.intern(RequirementSource{
		Kind:       RequirementSourceKindEquivalentType,
		Parent:     parent,
		storedType: newType,
	})
}

// isInferred returns true if the derivation starts at an inferred requirement.
func (s *RequirementSource) isInferred() bool {
	root := s
	for root.Parent != nil {
		root = root.Parent
	}
	return root.Kind == RequirementSourceKindInferred
}
