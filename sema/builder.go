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
	"sort"

	"github.com/rs/zerolog"

	"github.com/onflow/generics/common"
	"github.com/onflow/generics/errors"
)

// GenericSignatureBuilder collects the generic parameters and requirements of a generic context,
// and computes its canonical generic signature.
//
// A builder is owned by a single goroutine.
// It is consumed by ComputeGenericSignature and must not be used afterwards.
type GenericSignatureBuilder struct {
	config                 *Config
	lookup                 ConformanceLookup
	sources                *requirementSourceArena
	archetypes             *archetypeArena
	genericParamArchetypes map[genericParamKey]archetypeID
	reportedErrors         map[string]struct{}
	// requirementSignatureProtocol is set when the builder computes
	// the requirement signature of a protocol
	requirementSignatureProtocol *ProtocolType
	logger                       zerolog.Logger
	genericParams                []*GenericParamType
	delayedRequirements          []delayedRequirement
	writtenRequirements          []Requirement
	errors                       []error
	generation                   uint64
	finalized                    bool
}

type genericParamKey struct {
	depth uint
	index uint
}

func NewGenericSignatureBuilder(config *Config) *GenericSignatureBuilder {
	if config == nil {
		config = &Config{}
	}

	return &GenericSignatureBuilder{
		config: config,
		lookup: config.conformanceLookup(),
		logger: config.logger(),
		sources: newRequirementSourceArena(
			config.MemoryGauge,
		),
		archetypes: &archetypeArena{
			memoryGauge: config.MemoryGauge,
			limit:       config.maxPotentialArchetypes(),
		},
		genericParamArchetypes: map[genericParamKey]archetypeID{},
		reportedErrors:         map[string]struct{}{},
	}
}

func (b *GenericSignatureBuilder) checkNotFinalized() {
	if b.finalized {
		panic(errors.NewUnexpectedError("generic signature builder used after computing its signature"))
	}
}

// AddGenericParameter adds a generic parameter to the context.
// Adding the same parameter twice has no effect.
func (b *GenericSignatureBuilder) AddGenericParameter(param *GenericParamType) {
	b.checkNotFinalized()

	key := genericParamKey{depth: param.Depth, index: param.Index}
	if _, ok := b.genericParamArchetypes[key]; ok {
		return
	}

	id := b.archetypes.newGenericParam(param)
	b.newEquivalenceClass(id)
	b.genericParams = append(b.genericParams, param)
	b.genericParamArchetypes[key] = id
}

// AddGenericSignature adds the parameters and requirements of an existing signature,
// e.g. of an outer generic context.
// Its requirements are never reported as redundant.
func (b *GenericSignatureBuilder) AddGenericSignature(signature *GenericSignature) {
	b.checkNotFinalized()

	b.addSignatureRequirements(signature.Params(), signature.Requirements())
}

// AddRequirement adds a requirement written by the user.
// If inferRequirements is set, requirements implied by the types
// mentioned in the requirement are inferred as well.
func (b *GenericSignatureBuilder) AddRequirement(requirement Requirement, inferRequirements bool) ConstraintResult {
	b.checkNotFinalized()

	writtenIndex := len(b.writtenRequirements)
	b.writtenRequirements = append(b.writtenRequirements, requirement)

	source := b.sources.forExplicit(requirement.Subject, writtenIndex)
	result := b.addRequirement(requirement, source, ResolutionKindWellFormed)

	if inferRequirements {
		b.InferRequirements(requirement.Subject)
		if requirement.Constraint != nil {
			if _, ok := requirement.Constraint.(*ProtocolType); !ok {
				b.InferRequirements(requirement.Constraint)
			}
		}
	}

	return result
}

// WrittenRequirements returns the requirements added by AddRequirement, in order.
func (b *GenericSignatureBuilder) WrittenRequirements() []Requirement {
	return b.writtenRequirements
}

func (b *GenericSignatureBuilder) addRequirement(
	requirement Requirement,
	source *RequirementSource,
	kind ResolutionKind,
) ConstraintResult {

	if requirement.Kind == RequirementKindSameType {
		return b.addSameTypeRequirementUnresolved(requirement, source, kind)
	}

	subject, unresolved := b.resolve(requirement.Subject, kind)
	if unresolved != nil {
		return b.handleUnresolvedRequirement(requirement, source, kind, unresolved)
	}

	switch requirement.Kind {
	case RequirementKindConformance:
		protocol := requirement.Protocol()
		if subject.isConcrete() {
			return b.checkConcreteConformance(subject.concrete, protocol)
		}
		return b.addConformanceRequirement(subject.archetype, protocol, source)

	case RequirementKindSuperclass:
		if subject.isConcrete() {
			return b.checkConcreteSuperclass(subject.concrete, requirement.Constraint)
		}
		return b.addSuperclassRequirement(subject.archetype, requirement.Constraint, source)

	case RequirementKindLayout:
		if subject.isConcrete() {
			return b.checkConcreteLayout(subject.concrete, requirement.Layout)
		}
		return b.addLayoutRequirement(subject.archetype, requirement.Layout, source)

	}

	panic(errors.NewUnreachableError())
}

// addSameTypeRequirementUnresolved resolves both sides of a same-type requirement.
//
// A missing side is created once the other side exists, if it is not nested deeper
// than the other side. Otherwise the requirement is parked on the missing sides.
// This keeps the nested types of recursive protocols finite.
func (b *GenericSignatureBuilder) addSameTypeRequirementUnresolved(
	requirement Requirement,
	source *RequirementSource,
	kind ResolutionKind,
) ConstraintResult {

	subject, subjectUnresolved := b.resolve(requirement.Subject, kind)
	other, otherUnresolved := b.resolve(requirement.Constraint, kind)

	switch {
	case subjectUnresolved == nil && otherUnresolved == nil:
		return b.addSameTypeRequirement(subject, other, source)

	case subjectUnresolved != nil && otherUnresolved != nil:
		if subjectUnresolved.parkable && otherUnresolved.parkable {
			b.handleUnresolvedRequirement(requirement, source, kind, otherUnresolved)
		}
		return b.handleUnresolvedRequirement(requirement, source, kind, subjectUnresolved)

	case subjectUnresolved != nil:
		if !canRealizeSameTypeSide(subjectUnresolved, requirement.Subject, other, requirement.Constraint) {
			return b.handleUnresolvedRequirement(requirement, source, kind, subjectUnresolved)
		}
		subject, subjectUnresolved = b.resolve(requirement.Subject, ResolutionKindWellFormed)
		if subjectUnresolved != nil {
			return b.handleUnresolvedRequirement(requirement, source, kind, subjectUnresolved)
		}

	default:
		if !canRealizeSameTypeSide(otherUnresolved, requirement.Constraint, subject, requirement.Subject) {
			return b.handleUnresolvedRequirement(requirement, source, kind, otherUnresolved)
		}
		other, otherUnresolved = b.resolve(requirement.Constraint, ResolutionKindWellFormed)
		if otherUnresolved != nil {
			return b.handleUnresolvedRequirement(requirement, source, kind, otherUnresolved)
		}
	}

	return b.addSameTypeRequirement(subject, other, source)
}

func canRealizeSameTypeSide(
	unresolved *unresolvedType,
	missingType Type,
	existing resolvedType,
	existingType Type,
) bool {
	return unresolved.parkable &&
		!existing.isConcrete() &&
		nestingDepth(missingType) <= nestingDepth(existingType)
}

// resolvedType is either a potential archetype, or a concrete type
type resolvedType struct {
	concrete  Type
	archetype archetypeID
}

func (r resolvedType) isConcrete() bool {
	return r.archetype == noArchetype
}

// unresolvedType describes why a dependent type could not be resolved
type unresolvedType struct {
	name string
	// base is the potential archetype of the base of the unresolved member, if any
	base archetypeID
	// parkable is true if the member is known, but its potential archetype was not created yet
	parkable bool
}

func (b *GenericSignatureBuilder) resolve(ty Type, kind ResolutionKind) (resolvedType, *unresolvedType) {
	switch ty := ty.(type) {
	case *GenericParamType:
		id, ok := b.genericParamArchetypes[genericParamKey{depth: ty.Depth, index: ty.Index}]
		if !ok {
			return resolvedType{}, &unresolvedType{base: noArchetype}
		}
		return resolvedType{archetype: id}, nil

	case *DependentMemberType:
		if !IsDependentType(ty) {
			return resolvedType{archetype: noArchetype, concrete: ty}, nil
		}

		base, unresolved := b.resolve(ty.Base, kind)
		if unresolved != nil {
			return resolvedType{}, unresolved
		}

		if base.isConcrete() {
			if witness := b.projectConcreteMember(base.concrete, ty); witness != nil {
				return b.resolve(witness, kind)
			}
			return resolvedType{}, &unresolvedType{
				base: noArchetype,
				name: ty.Name,
			}
		}

		nested, parkable := b.resolveNestedType(base.archetype, ty.Name, ty.AssociatedType, kind)
		if nested == noArchetype {
			// members of a class bound to a concrete type are its type witnesses
			class := b.class(base.archetype)
			if class.concreteType != nil && !class.recursiveConcreteType {
				if witness := b.projectConcreteMember(class.concreteType, ty); witness != nil {
					return b.resolve(witness, kind)
				}
			}
			return resolvedType{}, &unresolvedType{
				base:     base.archetype,
				name:     ty.Name,
				parkable: parkable,
			}
		}
		return resolvedType{archetype: nested}, nil

	default:
		return resolvedType{archetype: noArchetype, concrete: ty}, nil
	}
}

// projectConcreteMember returns the type witness of a concrete type for the member, or nil.
func (b *GenericSignatureBuilder) projectConcreteMember(concreteType Type, member *DependentMemberType) Type {
	if member.AssociatedType != nil {
		conformance := b.lookup.LookupConformance(concreteType, member.AssociatedType.Protocol)
		if conformance == nil {
			return nil
		}
		return conformance.TypeWitness(member.Name)
	}

	nominal, ok := concreteType.(*NominalType)
	if !ok {
		return nil
	}
	return nominalTypeWitness(nominal, member.Name)
}

// resolveArchetype resolves a dependent type to its potential archetype,
// or returns noArchetype.
func (b *GenericSignatureBuilder) resolveArchetype(ty Type, kind ResolutionKind) archetypeID {
	resolved, unresolved := b.resolve(ty, kind)
	if unresolved != nil || resolved.isConcrete() {
		return noArchetype
	}
	return resolved.archetype
}

// resolveEquivalenceClass resolves a dependent type to its equivalence class, or returns nil.
func (b *GenericSignatureBuilder) resolveEquivalenceClass(ty Type, kind ResolutionKind) *EquivalenceClass {
	id := b.resolveArchetype(ty, kind)
	if id == noArchetype {
		return nil
	}
	return b.class(id)
}

// classOfKnownType returns the equivalence class of a dependent type,
// without creating potential archetypes.
func (b *GenericSignatureBuilder) classOfKnownType(ty Type) *EquivalenceClass {
	return b.resolveEquivalenceClass(ty, ResolutionKindAlreadyKnown)
}

// resolveNestedType finds or creates the nested type with the given name of a potential archetype.
//
// If the associated type is not given, the best associated type with the name
// among the class' conformances is used.
// The second result is true if the nested type could be created, but the resolution kind did not allow it.
func (b *GenericSignatureBuilder) resolveNestedType(
	base archetypeID,
	name string,
	associatedType *AssociatedTypeDecl,
	kind ResolutionKind,
) (archetypeID, bool) {

	if associatedType != nil {
		if nested := b.archetypes.nestedType(base, associatedType); nested != noArchetype {
			return nested, false
		}
	}

	class := b.class(base)
	existing, _ := class.nestedTypes.Get(name)

	if associatedType == nil {
		if len(existing) > 0 {
			return existing[0], false
		}
		associatedType = b.bestAssociatedType(class, name)
		if associatedType == nil {
			return noArchetype, false
		}
	} else {
		for _, id := range existing {
			if b.archetypes.get(id).associatedType == associatedType {
				return id, false
			}
		}
		if !class.conformsToAnyRefining(associatedType.Protocol) {
			return noArchetype, false
		}
		if len(existing) > 0 && !kind.allowsCreation() {
			return existing[0], false
		}
	}

	if !kind.allowsCreation() {
		return noArchetype, true
	}

	return b.createNestedArchetype(base, associatedType), false
}

// bestAssociatedType returns the associated type with the given name
// declared in the protocols the class conforms to, preferring the first in protocol order.
func (b *GenericSignatureBuilder) bestAssociatedType(class *EquivalenceClass, name string) *AssociatedTypeDecl {
	var best *AssociatedTypeDecl
	class.conformsTo.Foreach(func(protocol *ProtocolType, _ []Constraint[*ProtocolType]) {
		for _, associatedType := range protocol.LookupAssociatedTypes(name) {
			if best == nil || compareAssociatedTypes(associatedType, best) < 0 {
				best = associatedType
			}
		}
	})
	return best
}

// associatedTypeNames returns the names of all associated types known to the class.
func (b *GenericSignatureBuilder) associatedTypeNames(class *EquivalenceClass) []string {
	seen := map[string]struct{}{}
	var names []string
	class.conformsTo.Foreach(func(protocol *ProtocolType, _ []Constraint[*ProtocolType]) {
		for _, inherited := range protocol.AllInheritedProtocols() {
			for _, associatedType := range inherited.AssociatedTypes {
				if _, ok := seen[associatedType.Name]; ok {
					continue
				}
				seen[associatedType.Name] = struct{}{}
				names = append(names, associatedType.Name)
			}
		}
	})
	sort.Strings(names)
	return names
}

func (b *GenericSignatureBuilder) createNestedArchetype(base archetypeID, associatedType *AssociatedTypeDecl) archetypeID {
	id := b.archetypes.newNestedType(base, associatedType)
	b.newEquivalenceClass(id)

	name := associatedType.Name
	class := b.class(base)
	siblings, _ := class.nestedTypes.Get(name)
	class.nestedTypes.Set(name, append(siblings, id))
	b.modified(class)

	if len(siblings) > 0 {
		source := b.sources.forNestedTypeNameMatch(b.dependentType(id))
		b.addSameTypeArchetypes(id, siblings[0], source)
		return id
	}

	b.bindNestedTypeToWitnesses(base, id)
	b.applyPendingNestedRequirements(base, name)

	return id
}

func (b *GenericSignatureBuilder) applyPendingNestedRequirements(member archetypeID, name string) {
	class := b.class(member)
	pending, present := class.pendingNestedRequirements.Delete(name)
	if !present {
		return
	}

	for _, delayed := range pending {
		b.addRequirement(delayed.requirement, delayed.source, delayed.kind)
	}
}

func (b *GenericSignatureBuilder) handleUnresolvedRequirement(
	requirement Requirement,
	source *RequirementSource,
	kind ResolutionKind,
	unresolved *unresolvedType,
) ConstraintResult {

	if kind == ResolutionKindCompleteWellFormed {
		err := &UnresolvedRequirementError{
			Requirement: requirement,
			MemberName:  unresolved.name,
		}
		if unresolved.base != noArchetype {
			err.Candidates = b.associatedTypeNames(b.class(unresolved.base))
		}
		b.recordError(err)
		return ConstraintResultUnresolved
	}

	common.UseMemory(b.config.MemoryGauge, common.DelayedRequirementMemoryUsage)

	delayed := delayedRequirement{
		requirement: requirement,
		source:      source,
		kind:        kind,
	}

	switch {
	case unresolved.parkable:
		class := b.class(unresolved.base)
		pending, _ := class.pendingNestedRequirements.Get(unresolved.name)
		class.pendingNestedRequirements.Set(unresolved.name, append(pending, delayed))

	case unresolved.base != noArchetype:
		class := b.class(unresolved.base)
		class.delayedRequirements = append(class.delayedRequirements, delayed)

	default:
		b.delayedRequirements = append(b.delayedRequirements, delayed)
	}

	return ConstraintResultUnresolved
}

func (b *GenericSignatureBuilder) newEquivalenceClass(id archetypeID) *EquivalenceClass {
	common.UseMemory(b.config.MemoryGauge, common.EquivalenceClassMemoryUsage)

	class := newEquivalenceClass(id)
	b.archetypes.get(id).class = class
	return class
}

// class returns the equivalence class of the potential archetype.
func (b *GenericSignatureBuilder) class(id archetypeID) *EquivalenceClass {
	return b.archetypes.get(b.archetypes.representative(id)).class
}

func (b *GenericSignatureBuilder) representative(id archetypeID) archetypeID {
	return b.archetypes.representative(id)
}

func (b *GenericSignatureBuilder) dependentType(id archetypeID) Type {
	return b.archetypes.dependentType(id)
}

// modified invalidates the cached anchors,
// which depend on the anchors of the parents of nested types.
func (b *GenericSignatureBuilder) modified(class *EquivalenceClass) {
	class.anchor = nil
	b.generation++
}

func (b *GenericSignatureBuilder) recordError(err error) {
	key := fmt.Sprintf("%T: %s", err, err.Error())
	if _, ok := b.reportedErrors[key]; ok {
		return
	}
	b.reportedErrors[key] = struct{}{}

	b.logger.Debug().
		Str("error", err.Error()).
		Msg("requirement conflict")

	b.errors = append(b.errors, err)
}

// equivalenceClasses returns all equivalence classes, ordered by their anchors.
func (b *GenericSignatureBuilder) equivalenceClasses() []*EquivalenceClass {
	var classes []*EquivalenceClass
	for id := 0; id < b.archetypes.len(); id++ {
		pa := b.archetypes.get(archetypeID(id))
		if pa.representative != archetypeID(id) || pa.class == nil {
			continue
		}
		classes = append(classes, pa.class)
	}

	anchors := make(map[*EquivalenceClass]Type, len(classes))
	for _, class := range classes {
		anchors[class] = b.anchor(class)
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return compareDependentTypes(anchors[classes[i]], anchors[classes[j]], true) < 0
	})

	return classes
}
