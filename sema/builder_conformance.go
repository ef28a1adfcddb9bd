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
)

func (b *GenericSignatureBuilder) addConformanceRequirement(
	id archetypeID,
	protocol *ProtocolType,
	source *RequirementSource,
) ConstraintResult {

	class := b.class(id)

	isNew := b.recordConformanceConstraint(id, protocol, source)
	if !isNew {
		return ConstraintResultResolved
	}

	if class.concreteType != nil {
		conformance := b.lookup.LookupConformance(class.concreteType, protocol)
		if conformance == nil {
			b.recordError(&ConcreteTypeConformanceError{
				Subject:      b.dependentType(id),
				ConcreteType: class.concreteType,
				Protocol:     protocol,
			})
			return ConstraintResultConflicting
		}

		concreteSource := b.sources.viaConcrete(b.concreteTypeSource(class), conformance)
		b.recordConformanceConstraint(id, protocol, concreteSource)

		// the conformance of the concrete type provides the nested types,
		// only its same-type requirements need to be checked
		b.expandConformanceRequirement(id, protocol, source, true)
		return ConstraintResultResolved
	}

	if class.superclass != nil && source.Kind != RequirementSourceKindSuperclass {
		conformance := b.lookup.LookupConformance(class.superclass, protocol)
		if conformance != nil {
			superclassSource := b.sources.viaSuperclass(b.superclassSource(class), conformance)
			b.recordConformanceConstraint(id, protocol, superclassSource)
		}
	}

	b.expandConformanceRequirement(id, protocol, source, false)

	return ConstraintResultResolved
}

func (b *GenericSignatureBuilder) recordConformanceConstraint(
	id archetypeID,
	protocol *ProtocolType,
	source *RequirementSource,
) bool {
	common.UseMemory(b.config.MemoryGauge, common.ConstraintMemoryUsage)

	class := b.class(id)
	isNew := class.recordConformanceConstraint(Constraint[*ProtocolType]{
		Subject:   b.dependentType(id),
		Value:     protocol,
		Source:    source,
		archetype: id,
	})
	if isNew {
		b.modified(class)
	}
	return isNew
}

// expandConformanceRequirement adds the requirements of the protocol to the conforming type.
//
// Requirements on nested types which do not exist yet are parked on the class
// until the nested type is created, which keeps recursive protocols finite.
// Requirements which are explicit in a requirement signature are resolved eagerly.
func (b *GenericSignatureBuilder) expandConformanceRequirement(
	id archetypeID,
	protocol *ProtocolType,
	source *RequirementSource,
	onlySameType bool,
) {
	requirements, usesRequirementSignature := b.protocolRequirements(protocol)
	if len(requirements) == 0 {
		return
	}

	selfType := source.AffectedType()
	if selfType == nil || !IsDependentType(selfType) {
		selfType = b.dependentType(id)
	}

	substitutions := NewSubstitutionMap(
		[]*GenericParamType{ProtocolSelfType},
		[]Type{selfType},
	).WithConformanceLookup(b.lookup)

	inferred := source.isInferred()

	for _, requirement := range requirements {
		if onlySameType && requirement.Kind != RequirementKindSameType {
			continue
		}

		innerSource := b.sources.viaProtocolRequirement(
			source,
			requirement.Subject,
			protocol,
			inferred,
			usesRequirementSignature,
		)

		kind := ResolutionKindAlreadyKnown
		if !innerSource.IsDerivedRequirement() {
			kind = ResolutionKindWellFormed
		}

		b.addRequirement(requirement.Subst(substitutions), innerSource, kind)
	}
}

// protocolRequirements returns the requirements of the protocol in terms of its Self,
// and whether they are the protocol's computed requirement signature.
func (b *GenericSignatureBuilder) protocolRequirements(protocol *ProtocolType) ([]Requirement, bool) {
	cache := b.config.ProtocolSignatures
	if cache == nil {
		return protocol.writtenRequirements(), false
	}

	if b.requirementSignatureProtocol != nil {
		requirements, ok := cache.peekRequirementSignature(protocol)
		if ok {
			return requirements, true
		}
		return protocol.writtenRequirements(), false
	}

	requirements, err := cache.RequirementSignature(protocol)
	if err != nil {
		b.recordError(err)
		return protocol.writtenRequirements(), false
	}
	return requirements, true
}

func (b *GenericSignatureBuilder) checkConcreteConformance(ty Type, protocol *ProtocolType) ConstraintResult {
	if b.lookup.LookupConformance(ty, protocol) == nil {
		b.recordError(&ConcreteTypeConformanceError{
			Subject:      ty,
			ConcreteType: ty,
			Protocol:     protocol,
		})
		return ConstraintResultConflicting
	}
	return ConstraintResultConcrete
}

func (b *GenericSignatureBuilder) checkConcreteSuperclass(ty Type, superclass Type) ConstraintResult {
	nominal, ok := ty.(*NominalType)
	superclassNominal, superclassOK := superclass.(*NominalType)
	if !ok || !superclassOK || !nominal.IsSubclassOf(superclassNominal) {
		b.recordError(&ConcreteTypeSuperclassError{
			Subject:      ty,
			ConcreteType: ty,
			Superclass:   superclass,
		})
		return ConstraintResultConflicting
	}
	return ConstraintResultConcrete
}

func (b *GenericSignatureBuilder) checkConcreteLayout(ty Type, layout LayoutConstraint) ConstraintResult {
	if !layout.SatisfiedBy(ty) {
		b.recordError(&ConcreteTypeLayoutError{
			Subject:      ty,
			ConcreteType: ty,
			Layout:       layout,
		})
		return ConstraintResultConflicting
	}
	return ConstraintResultConcrete
}

// Superclass

func (b *GenericSignatureBuilder) addSuperclassRequirement(
	id archetypeID,
	superclass Type,
	source *RequirementSource,
) ConstraintResult {

	subject := b.dependentType(id)

	nominal, ok := superclass.(*NominalType)
	if !ok || !nominal.IsClass() {
		b.recordError(&InvalidSuperclassRequirementError{
			Subject: subject,
			Type:    superclass,
		})
		return ConstraintResultConflicting
	}

	common.UseMemory(b.config.MemoryGauge, common.ConstraintMemoryUsage)

	class := b.class(id)
	class.superclassConstraints = append(class.superclassConstraints, Constraint[Type]{
		Subject:   subject,
		Value:     nominal,
		Source:    source,
		archetype: id,
	})

	updated := false
	switch current, _ := class.superclass.(*NominalType); {
	case current == nil:
		updated = true

	case nominal.Equal(current):
		// already known

	case nominal.IsSubclassOf(current):
		updated = true

	case current.IsSubclassOf(nominal):
		// the existing bound is more derived

	default:
		var firstSource *RequirementSource
		previous := class.superclassConstraints[:len(class.superclassConstraints)-1]
		if written := findAnyConstraintAsWritten(previous, subject); written != nil {
			firstSource = written.Source
		}
		b.recordError(&ConflictingSuperclassRequirementsError{
			Subject:          subject,
			FirstSuperclass:  current,
			SecondSuperclass: nominal,
			FirstSource:      firstSource,
			SecondSource:     source,
		})
		return ConstraintResultConflicting
	}

	if updated {
		class.superclass = nominal
		b.modified(class)
		b.superclassUpdated(id, source)
	}

	if class.concreteType != nil {
		return b.checkConcreteTypeAgainstSuperclass(id, class)
	}

	return ConstraintResultResolved
}

// superclassUpdated propagates a new superclass bound:
// the class layout, the conformances of the superclass, and its type witnesses.
func (b *GenericSignatureBuilder) superclassUpdated(id archetypeID, source *RequirementSource) {
	class := b.class(id)
	superclass := class.superclass

	layout := layoutOfConcreteType(superclass)
	b.addLayoutRequirement(id, layout, b.sources.viaLayout(source, layout))

	class = b.class(id)
	protocols := class.conformsTo.Keys()
	// the class inherits every conformance of its superclass,
	// unless a concrete type provides the conformances
	if nominal, ok := superclass.(*NominalType); ok && class.concreteType == nil {
		for _, protocol := range declaredProtocols(nominal) {
			if !class.conformsToProtocol(protocol) {
				protocols = append(protocols, protocol)
			}
		}
	}

	for _, protocol := range protocols {
		conformance := b.lookup.LookupConformance(superclass, protocol)
		if conformance == nil {
			continue
		}
		superclassSource := b.sources.viaSuperclass(source, conformance)
		if b.class(id).conformsToProtocol(protocol) {
			b.recordConformanceConstraint(id, protocol, superclassSource)
			continue
		}
		b.addConformanceRequirement(id, protocol, superclassSource)
	}

	b.bindNestedTypesToWitnesses(id)
}

func (b *GenericSignatureBuilder) checkConcreteTypeAgainstSuperclass(id archetypeID, class *EquivalenceClass) ConstraintResult {
	concrete, ok := class.concreteType.(*NominalType)
	superclass := class.superclass.(*NominalType)
	if !ok || !concrete.IsSubclassOf(superclass) {
		b.recordError(&ConcreteTypeSuperclassError{
			Subject:      b.dependentType(id),
			ConcreteType: class.concreteType,
			Superclass:   superclass,
		})
		return ConstraintResultConflicting
	}
	return ConstraintResultResolved
}

// superclassSource returns the best source of the class' superclass bound.
func (b *GenericSignatureBuilder) superclassSource(class *EquivalenceClass) *RequirementSource {
	var result *RequirementSource
	for _, constraint := range class.superclassConstraints {
		if !constraint.Value.Equal(class.superclass) {
			continue
		}
		if result == nil || constraint.Source.Compare(result) < 0 {
			result = constraint.Source
		}
	}
	return result
}

// Layout

func (b *GenericSignatureBuilder) addLayoutRequirement(
	id archetypeID,
	layout LayoutConstraint,
	source *RequirementSource,
) ConstraintResult {

	common.UseMemory(b.config.MemoryGauge, common.ConstraintMemoryUsage)

	class := b.class(id)
	class.layoutConstraints = append(class.layoutConstraints, Constraint[LayoutConstraint]{
		Subject:   b.dependentType(id),
		Value:     layout,
		Source:    source,
		archetype: id,
	})

	if class.layout.IsUnknown() {
		class.layout = layout
	} else {
		merged, ok := class.layout.Merge(layout)
		if !ok {
			b.recordError(&ConflictingLayoutRequirementsError{
				Subject:      b.dependentType(id),
				FirstLayout:  class.layout,
				SecondLayout: layout,
				SecondSource: source,
			})
			return ConstraintResultConflicting
		}
		class.layout = merged
	}
	b.modified(class)

	if class.concreteType != nil && !class.layout.SatisfiedBy(class.concreteType) {
		b.recordError(&ConcreteTypeLayoutError{
			Subject:      b.dependentType(id),
			ConcreteType: class.concreteType,
			Layout:       class.layout,
		})
		return ConstraintResultConflicting
	}

	return ConstraintResultResolved
}
