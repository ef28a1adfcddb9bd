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
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// ComputeGenericSignature computes the canonical generic signature
// of the generic parameters and requirements added to the builder.
//
// If allowConcreteGenericParams is false, generic parameters bound to concrete types are reported.
// If selfProtocol is given, the conformance requirement `Self: selfProtocol` is omitted,
// as in a protocol's requirement signature.
//
// The builder is consumed and must not be used afterwards.
func (b *GenericSignatureBuilder) ComputeGenericSignature(
	allowConcreteGenericParams bool,
	selfProtocol *ProtocolType,
) *GenericSignature {

	b.checkNotFinalized()

	var start time.Time
	if b.tracingEnabled() {
		start = time.Now()
	}

	b.finalize(allowConcreteGenericParams)

	requirements, redundant := b.collectRequirements(selfProtocol)

	params := make([]*GenericParamType, len(b.genericParams))
	copy(params, b.genericParams)
	sort.SliceStable(params, func(i, j int) bool {
		return compareGenericParams(params[i], params[j]) < 0
	})

	sort.SliceStable(requirements, func(i, j int) bool {
		return CompareRequirements(requirements[i], requirements[j]) < 0
	})

	var redundantRequirements []Requirement
	var warnings []error
	for index, ok := redundant.NextSet(0); ok; index, ok = redundant.NextSet(index + 1) {
		requirement := b.writtenRequirements[index]
		redundantRequirements = append(redundantRequirements, requirement)

		b.logger.Debug().
			Str("requirement", requirement.String()).
			Msg("redundant requirement")

		if b.config.RedundancyWarningsEnabled {
			warnings = append(warnings, &RedundantRequirementError{
				Requirement: requirement,
			})
		}
	}

	b.finalized = true

	if b.tracingEnabled() {
		b.reportComputeGenericSignatureTrace(
			len(params),
			len(requirements),
			len(b.errors),
			time.Since(start),
		)
	}

	return newGenericSignature(
		b.config,
		params,
		requirements,
		b.errors,
		warnings,
		redundantRequirements,
	)
}

// finalize resolves the delayed requirements, reporting those which cannot be resolved,
// and checks the equivalence classes.
func (b *GenericSignatureBuilder) finalize(allowConcreteGenericParams bool) {
	b.processDelayedRequirements()
	b.reportUnresolvedRequirements()
	b.processDelayedRequirements()
	b.reportUnresolvedRequirements()

	b.realizeConcreteTypeComponents()

	b.checkRecursiveConcreteTypes()

	if !allowConcreteGenericParams {
		for _, param := range b.genericParams {
			id := b.genericParamArchetypes[genericParamKey{depth: param.Depth, index: param.Index}]
			class := b.class(id)
			if class.concreteType == nil || class.recursiveConcreteType {
				continue
			}
			err := &ConcreteGenericParameterError{
				Param:        param,
				ConcreteType: b.canonicalType(class.concreteType),
			}
			if written := class.findAnyConcreteConstraintAsWritten(param); written != nil {
				err.Source = written.Source
			}
			b.recordError(err)
		}
	}
}

// realizeConcreteTypeComponents creates the potential archetypes of the dependent types
// mentioned in concrete types and superclass bounds, so they can be canonicalized.
func (b *GenericSignatureBuilder) realizeConcreteTypeComponents() {
	var types []Type
	for _, class := range b.equivalenceClasses() {
		if class.concreteType != nil {
			types = append(types, class.concreteType)
		}
		if class.superclass != nil {
			types = append(types, class.superclass)
		}
	}

	realized := false
	for _, ty := range types {
		walkType(ty, func(component Type) bool {
			if !IsDependentType(component) {
				return true
			}
			b.resolveArchetype(component, ResolutionKindWellFormed)
			realized = true
			return false
		})
	}

	if realized {
		b.processDelayedRequirements()
	}
}

// checkRecursiveConcreteTypes reports equivalence classes whose concrete types
// refer to themselves through other concrete equivalence classes.
func (b *GenericSignatureBuilder) checkRecursiveConcreteTypes() {
	for id := 0; id < b.archetypes.len(); id++ {
		class := b.archetypes.get(archetypeID(id)).class
		if class == nil || class.concreteType == nil || class.recursiveConcreteType {
			continue
		}

		var visiting bitset.BitSet
		if b.concreteTypeReaches(archetypeID(id), class.concreteType, &visiting) {
			class.recursiveConcreteType = true
			b.recordError(&RecursiveConcreteTypeError{
				Subject:      b.anchor(class),
				ConcreteType: class.concreteType,
			})
		}
	}
}

// concreteTypeReaches returns true if the concrete type refers to the class of the target representative,
// directly or through the concrete types of other classes.
func (b *GenericSignatureBuilder) concreteTypeReaches(target archetypeID, concreteType Type, visiting *bitset.BitSet) bool {
	reaches := false
	walkType(concreteType, func(component Type) bool {
		if reaches {
			return false
		}
		if !IsDependentType(component) {
			return true
		}

		id := b.resolveArchetype(component, ResolutionKindAlreadyKnown)
		if id == noArchetype {
			return false
		}

		representative := b.representative(id)
		if representative == target {
			reaches = true
			return false
		}

		if visiting.Test(uint(representative)) {
			return false
		}
		visiting.Set(uint(representative))

		class := b.class(representative)
		if class.concreteType != nil &&
			!class.recursiveConcreteType &&
			b.concreteTypeReaches(target, class.concreteType, visiting) {

			reaches = true
		}
		return false
	})
	return reaches
}

// Anchors

// anchor returns the canonical type of the equivalence class.
//
// The anchor is the least member of the smallest nesting depth,
// with each member projected from the anchor of its parent's class
// through the best associated type of that class.
func (b *GenericSignatureBuilder) anchor(class *EquivalenceClass) Type {
	if class.anchor != nil && class.anchorGeneration == b.generation {
		return class.anchor
	}

	minDepth := -1
	for _, member := range class.members {
		depth := b.archetypes.get(member).depth
		if minDepth < 0 || depth < minDepth {
			minDepth = depth
		}
	}

	var anchor Type
	for _, member := range class.members {
		if b.archetypes.get(member).depth != minDepth {
			continue
		}
		candidate := b.canonicalMemberType(member)
		if anchor == nil || compareDependentTypes(candidate, anchor, true) < 0 {
			anchor = candidate
		}
	}

	class.anchor = anchor
	class.anchorGeneration = b.generation

	return anchor
}

// canonicalMemberType returns the type of the potential archetype,
// projected from the anchor of its parent's equivalence class.
func (b *GenericSignatureBuilder) canonicalMemberType(id archetypeID) Type {
	pa := b.archetypes.get(id)
	if pa.isGenericParam() {
		return pa.genericParam
	}

	parentClass := b.class(pa.parent)
	associatedType := b.bestAssociatedType(parentClass, pa.associatedType.Name)
	if associatedType == nil {
		associatedType = pa.associatedType
	}

	return NewDependentMemberType(b.anchor(parentClass), associatedType)
}

// canonicalType replaces the dependent types in the given type with their anchors,
// or with the canonical form of their concrete types.
func (b *GenericSignatureBuilder) canonicalType(ty Type) Type {
	var visiting bitset.BitSet
	return b.canonicalTypeVisiting(ty, &visiting)
}

func (b *GenericSignatureBuilder) canonicalTypeVisiting(ty Type, visiting *bitset.BitSet) Type {
	if ty == nil || !ty.HasTypeParameter() {
		return ty
	}

	return transformType(ty, func(dependent Type) Type {
		resolved, unresolved := b.resolve(dependent, ResolutionKindAlreadyKnown)
		if unresolved != nil {
			return dependent
		}
		if resolved.isConcrete() {
			return b.canonicalTypeVisiting(resolved.concrete, visiting)
		}

		representative := b.representative(resolved.archetype)
		class := b.class(representative)

		if class.concreteType != nil &&
			!class.recursiveConcreteType &&
			!visiting.Test(uint(representative)) {

			visiting.Set(uint(representative))
			result := b.canonicalTypeVisiting(class.concreteType, visiting)
			visiting.Clear(uint(representative))
			return result
		}

		return b.anchor(class)
	})
}

// Emission

// sameTypeComponents partitions the members of the class into the components
// connected by derived same-type constraints.
type sameTypeComponents struct {
	// component maps each member to its component index
	component map[archetypeID]int
	// anchors are the canonical types of the components, in order
	anchors []Type
}

func (b *GenericSignatureBuilder) computeSameTypeComponents(class *EquivalenceClass) *sameTypeComponents {
	index := make(map[archetypeID]int, len(class.members))
	for i, member := range class.members {
		index[member] = i
	}

	parents := newUnionFind(len(class.members))
	for _, constraint := range class.sameTypeConstraints {
		if !constraint.Source.IsDerivedRequirement() {
			continue
		}
		first, firstOK := index[constraint.archetype]
		second, secondOK := index[constraint.Value]
		if !firstOK || !secondOK {
			continue
		}
		parents.union(first, second)
	}

	componentAnchors := map[int]Type{}
	for i, member := range class.members {
		root := parents.find(i)
		memberType := b.canonicalMemberType(member)
		existing, ok := componentAnchors[root]
		if !ok || compareDependentTypes(memberType, existing, true) < 0 {
			componentAnchors[root] = memberType
		}
	}

	roots := make([]int, 0, len(componentAnchors))
	for root := range componentAnchors {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		return compareDependentTypes(componentAnchors[roots[i]], componentAnchors[roots[j]], true) < 0
	})

	rootComponents := make(map[int]int, len(roots))
	anchors := make([]Type, len(roots))
	for i, root := range roots {
		rootComponents[root] = i
		anchors[i] = componentAnchors[root]
	}

	components := make(map[archetypeID]int, len(class.members))
	for i, member := range class.members {
		components[member] = rootComponents[parents.find(i)]
	}

	return &sameTypeComponents{
		component: components,
		anchors:   anchors,
	}
}

// collectRequirements emits the minimal requirements of all equivalence classes,
// and returns the indices of the redundant written requirements.
func (b *GenericSignatureBuilder) collectRequirements(selfProtocol *ProtocolType) ([]Requirement, *bitset.BitSet) {
	var requirements []Requirement
	redundancy := &writtenRedundancy{}

	for _, class := range b.equivalenceClasses() {
		anchor := b.anchor(class)
		components := b.computeSameTypeComponents(class)

		if class.concreteType != nil {
			requirements = b.collectConcreteTypeRequirements(class, components, requirements, redundancy)

			// the concrete type implies the superclass and layout
			for _, constraint := range class.superclassConstraints {
				redundancy.markRedundant(constraint.Source)
			}
			for _, constraint := range class.layoutConstraints {
				redundancy.markRedundant(constraint.Source)
			}

		} else {
			requirements = b.collectSameTypeRequirements(class, components, requirements, redundancy)

			if class.superclass != nil {
				superclass := b.canonicalType(class.superclass)
				requirements = collectBoundRequirements(
					class.superclassConstraints,
					func(value Type) bool {
						return value.Equal(class.superclass)
					},
					func() Requirement {
						return NewSuperclassRequirement(anchor, superclass)
					},
					requirements,
					redundancy,
				)
			}

			if !class.layout.IsUnknown() {
				requirements = collectBoundRequirements(
					class.layoutConstraints,
					func(value LayoutConstraint) bool {
						return value == class.layout
					},
					func() Requirement {
						return NewLayoutRequirement(anchor, class.layout)
					},
					requirements,
					redundancy,
				)
			}
		}

		for _, protocol := range class.ConformsTo() {
			if selfProtocol != nil &&
				protocol == selfProtocol &&
				anchor.Equal(ProtocolSelfType) {

				continue
			}

			constraints, _ := class.conformsTo.Get(protocol)
			requirements = b.collectConformanceRequirement(
				class,
				anchor,
				protocol,
				constraints,
				requirements,
				redundancy,
			)
		}
	}

	return requirements, redundancy.result()
}

func (b *GenericSignatureBuilder) collectConformanceRequirement(
	class *EquivalenceClass,
	anchor Type,
	protocol *ProtocolType,
	constraints []Constraint[*ProtocolType],
	requirements []Requirement,
	redundancy *writtenRedundancy,
) []Requirement {

	derived := false
	var explicit []Constraint[*ProtocolType]

	for _, constraint := range constraints {
		source := constraint.Source
		if !source.IsDerivedRequirement() {
			explicit = append(explicit, constraint)
			continue
		}
		if !source.isSelfDerivedConformance(class, protocol, b.classOfKnownType) {
			derived = true
		}
	}

	if len(explicit) == 0 {
		return requirements
	}

	sortConstraints(explicit)

	if derived {
		for _, constraint := range explicit {
			redundancy.markRedundant(constraint.Source)
		}
		return requirements
	}

	redundancy.markNeeded(explicit[0].Source)
	for _, constraint := range explicit[1:] {
		redundancy.markRedundant(constraint.Source)
	}

	return append(requirements, NewConformanceRequirement(anchor, protocol))
}

// collectBoundRequirements emits the requirement for a superclass or layout bound of a class.
// Constraints which do not match the final bound are subsumed by it.
func collectBoundRequirements[T any](
	constraints []Constraint[T],
	matches func(T) bool,
	requirement func() Requirement,
	requirements []Requirement,
	redundancy *writtenRedundancy,
) []Requirement {

	derived := false
	var explicit []Constraint[T]
	anyMatch := false

	for _, constraint := range constraints {
		matching := matches(constraint.Value)
		if matching {
			anyMatch = true
		}

		if constraint.Source.IsDerivedRequirement() {
			if matching {
				derived = true
			}
			continue
		}

		if !matching {
			redundancy.markRedundant(constraint.Source)
			continue
		}

		explicit = append(explicit, constraint)
	}

	if derived {
		for _, constraint := range explicit {
			redundancy.markRedundant(constraint.Source)
		}
		return requirements
	}

	// the bound is the combination of several constraints
	if !anyMatch {
		return append(requirements, requirement())
	}

	if len(explicit) == 0 {
		return requirements
	}

	sortConstraints(explicit)
	redundancy.markNeeded(explicit[0].Source)
	for _, constraint := range explicit[1:] {
		redundancy.markRedundant(constraint.Source)
	}

	return append(requirements, requirement())
}

func (b *GenericSignatureBuilder) collectSameTypeRequirements(
	class *EquivalenceClass,
	components *sameTypeComponents,
	requirements []Requirement,
	redundancy *writtenRedundancy,
) []Requirement {

	if len(components.anchors) < 2 {
		for _, constraint := range class.sameTypeConstraints {
			if !constraint.Source.IsDerivedRequirement() {
				redundancy.markRedundant(constraint.Source)
			}
		}
		return requirements
	}

	var explicit []Constraint[archetypeID]
	for _, constraint := range class.sameTypeConstraints {
		if !constraint.Source.IsDerivedRequirement() {
			explicit = append(explicit, constraint)
		}
	}
	// earlier written requirements span the components,
	// later ones connecting already connected components are redundant
	sortConstraintsAsWritten(explicit)

	connected := newUnionFind(len(components.anchors))
	for _, constraint := range explicit {
		first := components.component[constraint.archetype]
		second := components.component[constraint.Value]
		if connected.union(first, second) {
			redundancy.markNeeded(constraint.Source)
		} else {
			redundancy.markRedundant(constraint.Source)
		}
	}

	for i := 1; i < len(components.anchors); i++ {
		requirements = append(
			requirements,
			NewSameTypeRequirement(components.anchors[i-1], components.anchors[i]),
		)
	}

	return requirements
}

func (b *GenericSignatureBuilder) collectConcreteTypeRequirements(
	class *EquivalenceClass,
	components *sameTypeComponents,
	requirements []Requirement,
	redundancy *writtenRedundancy,
) []Requirement {

	derived := make([]bool, len(components.anchors))
	explicit := make([][]Constraint[Type], len(components.anchors))

	for _, constraint := range class.concreteTypeConstraints {
		component, ok := components.component[constraint.archetype]
		if !ok {
			continue
		}
		if constraint.Source.IsDerivedRequirement() {
			derived[component] = true
			continue
		}
		explicit[component] = append(explicit[component], constraint)
	}

	if class.recursiveConcreteType {
		return requirements
	}

	concreteType := b.canonicalType(class.concreteType)

	for component, anchor := range components.anchors {
		constraints := explicit[component]
		sortConstraintsAsWritten(constraints)

		if derived[component] {
			for _, constraint := range constraints {
				redundancy.markRedundant(constraint.Source)
			}
			continue
		}

		if len(constraints) > 0 {
			redundancy.markNeeded(constraints[0].Source)
			for _, constraint := range constraints[1:] {
				redundancy.markRedundant(constraint.Source)
			}
		}

		requirements = append(requirements, NewSameTypeRequirement(anchor, concreteType))
	}

	return requirements
}

// writtenRedundancy tracks the redundancy of written requirements.
// A written requirement may be recorded as several constraints,
// e.g. when concrete types are decomposed into their components.
// It is redundant only if none of its constraints is needed.
type writtenRedundancy struct {
	redundant bitset.BitSet
	needed    bitset.BitSet
}

func (r *writtenRedundancy) markRedundant(source *RequirementSource) {
	if source.IsWritten() {
		r.redundant.Set(uint(source.writtenIndex))
	}
}

func (r *writtenRedundancy) markNeeded(source *RequirementSource) {
	if source.IsWritten() {
		r.needed.Set(uint(source.writtenIndex))
	}
}

// result returns the indices of the redundant written requirements.
func (r *writtenRedundancy) result() *bitset.BitSet {
	return r.redundant.Difference(&r.needed)
}

// unionFind is a disjoint-set forest over the indices 0..n-1.
type unionFind []int

func newUnionFind(n int) unionFind {
	parents := make(unionFind, n)
	for i := range parents {
		parents[i] = i
	}
	return parents
}

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

// union joins the sets of i and j, and returns false if they were already joined.
func (u unionFind) union(i, j int) bool {
	rootI, rootJ := u.find(i), u.find(j)
	if rootI == rootJ {
		return false
	}
	if rootI < rootJ {
		u[rootJ] = rootI
	} else {
		u[rootI] = rootJ
	}
	return true
}
