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

func (b *GenericSignatureBuilder) addSameTypeRequirement(
	subject resolvedType,
	other resolvedType,
	source *RequirementSource,
) ConstraintResult {

	switch {
	case !subject.isConcrete() && !other.isConcrete():
		return b.addSameTypeArchetypes(subject.archetype, other.archetype, source)

	case !subject.isConcrete():
		return b.addConcreteBinding(subject.archetype, other.concrete, source)

	case !other.isConcrete():
		return b.addConcreteBinding(other.archetype, subject.concrete, source)

	default:
		return b.addSameTypeConcrete(subject.concrete, subject.concrete, other.concrete, nil, source)
	}
}

// addSameTypeArchetypes equates two potential archetypes,
// merging their equivalence classes if necessary.
func (b *GenericSignatureBuilder) addSameTypeArchetypes(
	first archetypeID,
	second archetypeID,
	source *RequirementSource,
) ConstraintResult {

	if first == second {
		return ConstraintResultResolved
	}

	common.UseMemory(b.config.MemoryGauge, common.ConstraintMemoryUsage)

	constraint := Constraint[archetypeID]{
		Subject:   b.dependentType(first),
		Value:     second,
		Source:    source,
		archetype: first,
	}

	firstRepresentative := b.representative(first)
	secondRepresentative := b.representative(second)

	if firstRepresentative == secondRepresentative {
		class := b.class(first)
		class.sameTypeConstraints = append(class.sameTypeConstraints, constraint)
		return ConstraintResultResolved
	}

	survivor, absorbed := firstRepresentative, secondRepresentative
	if len(b.archetypes.get(absorbed).class.members) > len(b.archetypes.get(survivor).class.members) {
		survivor, absorbed = absorbed, survivor
	}

	return b.mergeEquivalenceClasses(survivor, absorbed, constraint)
}

type sameTypeFollowUp struct {
	first  archetypeID
	second archetypeID
}

// mergeEquivalenceClasses merges the class of the absorbed representative into the class of the survivor.
//
// The state of the merged class is made consistent first.
// Requirements implied by the merge, like equating nested types with the same name,
// are added afterwards.
func (b *GenericSignatureBuilder) mergeEquivalenceClasses(
	survivor archetypeID,
	absorbed archetypeID,
	constraint Constraint[archetypeID],
) ConstraintResult {

	survivorArchetype := b.archetypes.get(survivor)
	absorbedArchetype := b.archetypes.get(absorbed)

	survivorClass := survivorArchetype.class
	absorbedClass := absorbedArchetype.class

	b.logger.Debug().
		Str("survivor", b.dependentType(survivor).String()).
		Str("absorbed", b.dependentType(absorbed).String()).
		Msg("merging equivalence classes")

	absorbedArchetype.representative = survivor
	absorbedArchetype.class = nil

	survivorClass.addMembers(b.archetypes, absorbedClass.members...)

	survivorClass.sameTypeConstraints = append(
		survivorClass.sameTypeConstraints,
		absorbedClass.sameTypeConstraints...,
	)

	// Conformances

	var newProtocols []*ProtocolType
	absorbedClass.conformsTo.Foreach(func(protocol *ProtocolType, constraints []Constraint[*ProtocolType]) {
		existing, present := survivorClass.conformsTo.Get(protocol)
		if !present {
			newProtocols = append(newProtocols, protocol)
		}
		survivorClass.conformsTo.Set(protocol, append(existing, constraints...))
	})

	survivorClass.delayedRequirements = append(
		survivorClass.delayedRequirements,
		absorbedClass.delayedRequirements...,
	)

	// Nested types

	var followUps []sameTypeFollowUp
	var absorbedOnlyNestedTypes []archetypeID

	absorbedClass.nestedTypes.Foreach(func(name string, nested []archetypeID) {
		existing, _ := survivorClass.nestedTypes.Get(name)
		if len(existing) > 0 && len(nested) > 0 {
			followUps = append(followUps, sameTypeFollowUp{
				first:  nested[0],
				second: existing[0],
			})
		} else {
			absorbedOnlyNestedTypes = append(absorbedOnlyNestedTypes, nested...)
		}
		survivorClass.nestedTypes.Set(name, append(existing, nested...))
	})

	var pendingToApply []delayedRequirement

	absorbedClass.pendingNestedRequirements.Foreach(func(name string, pending []delayedRequirement) {
		if survivorClass.nestedTypes.Contains(name) {
			pendingToApply = append(pendingToApply, pending...)
			return
		}
		existing, _ := survivorClass.pendingNestedRequirements.Get(name)
		survivorClass.pendingNestedRequirements.Set(name, append(existing, pending...))
	})

	for _, name := range survivorClass.pendingNestedRequirements.Keys() {
		if !survivorClass.nestedTypes.Contains(name) {
			continue
		}
		pending, _ := survivorClass.pendingNestedRequirements.Delete(name)
		pendingToApply = append(pendingToApply, pending...)
	}

	survivorClass.sameTypeConstraints = append(survivorClass.sameTypeConstraints, constraint)

	b.modified(survivorClass)

	// Follow-ups, now that the merged class is consistent

	result := ConstraintResultResolved

	if survivorClass.concreteType != nil {
		concreteSource := b.concreteTypeSource(survivorClass)
		for _, protocol := range newProtocols {
			conformance := b.lookup.LookupConformance(survivorClass.concreteType, protocol)
			if conformance == nil {
				if survivorClass.conformsOnlyViaSuperclass(protocol) {
					continue
				}
				b.recordError(&ConcreteTypeConformanceError{
					Subject:      b.dependentType(survivor),
					ConcreteType: survivorClass.concreteType,
					Protocol:     protocol,
				})
				result = ConstraintResultConflicting
				continue
			}
			b.recordConformanceConstraint(survivor, protocol, b.sources.viaConcrete(concreteSource, conformance))
		}

		for _, nested := range absorbedOnlyNestedTypes {
			b.bindNestedTypeToWitnesses(survivor, nested)
		}

	} else if survivorClass.superclass != nil {
		superclassSource := b.superclassSource(survivorClass)
		for _, protocol := range newProtocols {
			conformance := b.lookup.LookupConformance(survivorClass.superclass, protocol)
			if conformance == nil {
				continue
			}
			b.recordConformanceConstraint(survivor, protocol, b.sources.viaSuperclass(superclassSource, conformance))
		}

		for _, nested := range absorbedOnlyNestedTypes {
			b.bindNestedTypeToWitnesses(survivor, nested)
		}
	}

	for _, superclass := range absorbedClass.superclassConstraints {
		result = combineConstraintResults(
			result,
			b.addSuperclassRequirement(superclass.archetype, superclass.Value, superclass.Source),
		)
	}

	for _, layout := range absorbedClass.layoutConstraints {
		result = combineConstraintResults(
			result,
			b.addLayoutRequirement(layout.archetype, layout.Value, layout.Source),
		)
	}

	for _, concrete := range absorbedClass.concreteTypeConstraints {
		result = combineConstraintResults(
			result,
			b.addConcreteBinding(concrete.archetype, concrete.Value, concrete.Source),
		)
	}

	for _, followUp := range followUps {
		source := b.sources.forNestedTypeNameMatch(b.dependentType(followUp.first))
		b.addSameTypeArchetypes(followUp.first, followUp.second, source)
	}

	for _, pending := range pendingToApply {
		b.addRequirement(pending.requirement, pending.source, pending.kind)
	}

	return result
}

// addConcreteBinding binds the equivalence class of the archetype to a concrete type.
func (b *GenericSignatureBuilder) addConcreteBinding(
	id archetypeID,
	concreteType Type,
	source *RequirementSource,
) ConstraintResult {

	common.UseMemory(b.config.MemoryGauge, common.ConstraintMemoryUsage)

	subject := b.dependentType(id)

	class := b.class(id)
	class.concreteTypeConstraints = append(class.concreteTypeConstraints, Constraint[Type]{
		Subject:   subject,
		Value:     concreteType,
		Source:    source,
		archetype: id,
	})

	if class.concreteType != nil {
		var firstSource *RequirementSource
		previous := class.concreteTypeConstraints[:len(class.concreteTypeConstraints)-1]
		if written := findAnyConstraintAsWritten(previous, subject); written != nil {
			firstSource = written.Source
		}
		return b.addSameTypeConcrete(subject, class.concreteType, concreteType, firstSource, source)
	}

	if b.isRecursiveConcreteType(class, concreteType) {
		class.recursiveConcreteType = true
		b.recordError(&RecursiveConcreteTypeError{
			Subject:      subject,
			ConcreteType: concreteType,
		})
		return ConstraintResultConflicting
	}

	class.concreteType = concreteType
	b.modified(class)

	b.logger.Debug().
		Str("subject", subject.String()).
		Str("concreteType", concreteType.String()).
		Msg("binding equivalence class to concrete type")

	result := ConstraintResultResolved

	for _, protocol := range class.conformsTo.Keys() {
		conformance := b.lookup.LookupConformance(concreteType, protocol)
		if conformance == nil {
			if class.conformsOnlyViaSuperclass(protocol) {
				continue
			}
			b.recordError(&ConcreteTypeConformanceError{
				Subject:      subject,
				ConcreteType: concreteType,
				Protocol:     protocol,
			})
			result = ConstraintResultConflicting
			continue
		}
		b.recordConformanceConstraint(id, protocol, b.sources.viaConcrete(source, conformance))
	}

	if class.superclass != nil {
		result = combineConstraintResults(
			result,
			b.checkConcreteTypeAgainstSuperclass(id, class),
		)
	}

	if !class.layout.IsUnknown() && !class.layout.SatisfiedBy(concreteType) {
		b.recordError(&ConcreteTypeLayoutError{
			Subject:      subject,
			ConcreteType: concreteType,
			Layout:       class.layout,
		})
		result = ConstraintResultConflicting
	}

	b.bindNestedTypesToWitnesses(id)

	return result
}

// isRecursiveConcreteType returns true if the concrete type mentions a member of the class.
func (b *GenericSignatureBuilder) isRecursiveConcreteType(class *EquivalenceClass, concreteType Type) bool {
	recursive := false
	walkType(concreteType, func(ty Type) bool {
		if recursive {
			return false
		}
		if !IsDependentType(ty) {
			return true
		}
		if b.classOfKnownType(ty) == class {
			recursive = true
		}
		return false
	})
	return recursive
}

// addSameTypeConcrete equates two concrete types,
// by equating their corresponding components.
// Components which are both concrete are matched structurally,
// so a mismatch is reported for the written types.
func (b *GenericSignatureBuilder) addSameTypeConcrete(
	subject Type,
	first Type,
	second Type,
	firstSource *RequirementSource,
	source *RequirementSource,
) ConstraintResult {

	if first.Equal(second) {
		return ConstraintResultConcrete
	}

	var bindings [][2]Type
	mismatch := matchConcreteTypes(first, second, &bindings)
	if mismatch != nil {
		err := &ConflictingConcreteTypeRequirementsError{
			Subject:      subject,
			FirstType:    first,
			SecondType:   second,
			FirstSource:  firstSource,
			SecondSource: source,
		}
		if !mismatch[0].Equal(first) || !mismatch[1].Equal(second) {
			err.FirstComponent = mismatch[0]
			err.SecondComponent = mismatch[1]
		}
		b.recordError(err)
		return ConstraintResultConflicting
	}

	result := ConstraintResultConcrete
	for _, binding := range bindings {
		result = combineConstraintResults(
			result,
			b.addRequirement(
				NewSameTypeRequirement(binding[0], binding[1]),
				source,
				ResolutionKindWellFormed,
			),
		)
	}

	return result
}

// matchConcreteTypes matches the structure of the two types.
// Pairs of components of which at least one is a dependent type are added to bindings.
// The first pair of mismatching components is returned, if any.
func matchConcreteTypes(first, second Type, bindings *[][2]Type) *[2]Type {
	if IsDependentType(first) || IsDependentType(second) {
		*bindings = append(*bindings, [2]Type{first, second})
		return nil
	}

	if first.Equal(second) {
		return nil
	}

	var firstComponents, secondComponents []Type
	matches := false

	switch first := first.(type) {
	case *NominalType:
		if second, ok := second.(*NominalType); ok &&
			first.Decl == second.Decl &&
			len(first.TypeArguments) == len(second.TypeArguments) {

			matches = true
			firstComponents = first.TypeArguments
			secondComponents = second.TypeArguments
		}

	case *TupleType:
		if second, ok := second.(*TupleType); ok &&
			len(first.Elements) == len(second.Elements) {

			matches = true
			firstComponents = first.Elements
			secondComponents = second.Elements
		}

	case *FunctionType:
		if second, ok := second.(*FunctionType); ok &&
			len(first.Parameters) == len(second.Parameters) {

			matches = true
			firstComponents = append(append(firstComponents, first.Parameters...), first.Result)
			secondComponents = append(append(secondComponents, second.Parameters...), second.Result)
		}
	}

	if !matches {
		return &[2]Type{first, second}
	}

	for i, component := range firstComponents {
		if mismatch := matchConcreteTypes(component, secondComponents[i], bindings); mismatch != nil {
			return mismatch
		}
	}

	return nil
}

// concreteTypeSource returns the best source of the class' concrete type binding.
func (b *GenericSignatureBuilder) concreteTypeSource(class *EquivalenceClass) *RequirementSource {
	return bestSource(class.concreteTypeConstraints)
}

func (b *GenericSignatureBuilder) bindNestedTypesToWitnesses(id archetypeID) {
	class := b.class(id)
	var nestedTypes []archetypeID
	class.nestedTypes.Foreach(func(_ string, nested []archetypeID) {
		nestedTypes = append(nestedTypes, nested...)
	})
	for _, nested := range nestedTypes {
		b.bindNestedTypeToWitnesses(id, nested)
	}
}

// bindNestedTypeToWitnesses equates a nested type of a class with a concrete type or superclass bound
// to the type witness of the corresponding conformance.
func (b *GenericSignatureBuilder) bindNestedTypeToWitnesses(base archetypeID, nested archetypeID) {
	associatedType := b.archetypes.get(nested).associatedType
	protocol := associatedType.Protocol

	class := b.class(base)

	var parentSource *RequirementSource
	var conformance *ProtocolConformance

	switch {
	case class.concreteType != nil:
		conformance = b.lookup.LookupConformance(class.concreteType, protocol)
		if conformance == nil {
			return
		}
		parentSource = b.sources.viaConcrete(b.concreteTypeSource(class), conformance)

	case class.superclass != nil:
		conformance = b.lookup.LookupConformance(class.superclass, protocol)
		if conformance == nil {
			return
		}
		parentSource = b.sources.viaSuperclass(b.superclassSource(class), conformance)

	default:
		return
	}

	witness := conformance.TypeWitness(associatedType.Name)
	if witness == nil {
		return
	}

	// the binding may be written on another member of the class
	baseType := b.dependentType(b.archetypes.get(nested).parent)
	if !parentSource.AffectedType().Equal(baseType) {
		parentSource = b.sources.viaEquivalentType(parentSource, baseType)
	}

	source := b.sources.viaParent(parentSource, associatedType)
	b.addRequirement(
		NewSameTypeRequirement(b.dependentType(nested), witness),
		source,
		ResolutionKindWellFormed,
	)
}
