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
	"math"
	"sort"

	"github.com/onflow/generics/common/orderedmap"
)

// Constraint is a requirement recorded on an equivalence class,
// together with the source that justifies it.
type Constraint[T any] struct {
	Subject Type
	Value   T
	Source  *RequirementSource
	// archetype is the potential archetype of the subject
	archetype archetypeID
}

// ConstraintResult is the outcome of adding a requirement.
type ConstraintResult uint8

const (
	// ConstraintResultResolved means the requirement was recorded
	ConstraintResultResolved ConstraintResult = iota
	// ConstraintResultConcrete means the requirement was about concrete types,
	// and it was checked immediately
	ConstraintResultConcrete
	// ConstraintResultConflicting means the requirement conflicts with other requirements
	ConstraintResultConflicting
	// ConstraintResultUnresolved means the requirement could not be resolved yet,
	// and it was delayed
	ConstraintResultUnresolved
)

func (r ConstraintResult) String() string {
	switch r {
	case ConstraintResultResolved:
		return "resolved"
	case ConstraintResultConcrete:
		return "concrete"
	case ConstraintResultConflicting:
		return "conflicting"
	case ConstraintResultUnresolved:
		return "unresolved"
	}
	return "unknown"
}

func combineConstraintResults(a, b ConstraintResult) ConstraintResult {
	if a == ConstraintResultConflicting || b == ConstraintResultConflicting {
		return ConstraintResultConflicting
	}
	if a == ConstraintResultUnresolved || b == ConstraintResultUnresolved {
		return ConstraintResultUnresolved
	}
	if a == ConstraintResultConcrete && b == ConstraintResultConcrete {
		return ConstraintResultConcrete
	}
	return ConstraintResultResolved
}

type delayedRequirement struct {
	requirement Requirement
	source      *RequirementSource
	kind        ResolutionKind
}

type conformanceConstraints = orderedmap.OrderedMap[*ProtocolType, []Constraint[*ProtocolType]]

type nestedTypeMap = orderedmap.OrderedMap[string, []archetypeID]

type pendingRequirementMap = orderedmap.OrderedMap[string, []delayedRequirement]

// EquivalenceClass is the set of potential archetypes proven to be the same type,
// and everything known about that type.
type EquivalenceClass struct {
	concreteType Type
	superclass   Type
	// anchor is the cached anchor, valid for anchorGeneration
	anchor Type
	// conformsTo maps each protocol the class conforms to
	// to the constraints which justify the conformance
	conformsTo *conformanceConstraints
	// nestedTypes maps associated type names to the nested types of all members
	nestedTypes *nestedTypeMap
	// pendingNestedRequirements are requirements on nested types which were not created yet.
	// They are added when the nested type with the name is created.
	pendingNestedRequirements *pendingRequirementMap
	members                   []archetypeID
	sameTypeConstraints       []Constraint[archetypeID]
	concreteTypeConstraints   []Constraint[Type]
	superclassConstraints     []Constraint[Type]
	layoutConstraints         []Constraint[LayoutConstraint]
	delayedRequirements       []delayedRequirement
	layout                    LayoutConstraint
	anchorGeneration          uint64
	recursiveConcreteType     bool
}

func newEquivalenceClass(member archetypeID) *EquivalenceClass {
	return &EquivalenceClass{
		members:                   []archetypeID{member},
		conformsTo:                orderedmap.New[conformanceConstraints](0),
		nestedTypes:               orderedmap.New[nestedTypeMap](0),
		pendingNestedRequirements: orderedmap.New[pendingRequirementMap](0),
	}
}

func (c *EquivalenceClass) ConcreteType() Type {
	return c.concreteType
}

func (c *EquivalenceClass) Superclass() Type {
	return c.superclass
}

func (c *EquivalenceClass) Layout() LayoutConstraint {
	return c.layout
}

// ConformsTo returns the protocols the class conforms to, in protocol order.
func (c *EquivalenceClass) ConformsTo() []*ProtocolType {
	protocols := c.conformsTo.Keys()
	sort.Slice(protocols, func(i, j int) bool {
		return compareProtocols(protocols[i], protocols[j]) < 0
	})
	return protocols
}

func (c *EquivalenceClass) conformsToProtocol(protocol *ProtocolType) bool {
	return c.conformsTo.Contains(protocol)
}

// conformsToAnyRefining returns true if the class conforms to the protocol
// or a protocol which refines it.
func (c *EquivalenceClass) conformsToAnyRefining(protocol *ProtocolType) bool {
	return c.conformsTo.ForAnyKey(func(conformed *ProtocolType) bool {
		return conformed.InheritsFrom(protocol)
	})
}

// conformsOnlyViaSuperclass returns true if the conformance to the protocol
// is only known through the superclass bound.
// A concrete type which does not provide it violates the bound,
// which is reported as a superclass error instead.
func (c *EquivalenceClass) conformsOnlyViaSuperclass(protocol *ProtocolType) bool {
	constraints, ok := c.conformsTo.Get(protocol)
	if !ok {
		return false
	}
	for _, constraint := range constraints {
		if !constraint.Source.isDerivedViaSuperclass() {
			return false
		}
	}
	return true
}

// recordConformanceConstraint adds a constraint to the class' conformances,
// and returns true if the protocol is new for the class.
func (c *EquivalenceClass) recordConformanceConstraint(constraint Constraint[*ProtocolType]) bool {
	existing, present := c.conformsTo.Get(constraint.Value)
	c.conformsTo.Set(constraint.Value, append(existing, constraint))
	return !present
}

// addMembers adds the archetypes to the member list,
// which is ordered by non-decreasing nesting depth.
func (c *EquivalenceClass) addMembers(arena *archetypeArena, members ...archetypeID) {
	c.members = append(c.members, members...)
	sort.SliceStable(c.members, func(i, j int) bool {
		return arena.get(c.members[i]).depth < arena.get(c.members[j]).depth
	})
}

// findAnyConcreteConstraintAsWritten finds a concrete type constraint with a non-derived source,
// preferring one on the given type, otherwise the one with the best source.
func (c *EquivalenceClass) findAnyConcreteConstraintAsWritten(preferredType Type) *Constraint[Type] {
	return findAnyConstraintAsWritten(c.concreteTypeConstraints, preferredType)
}

func findAnyConstraintAsWritten[T any](constraints []Constraint[T], preferredType Type) *Constraint[T] {
	var result *Constraint[T]
	for i := range constraints {
		constraint := &constraints[i]
		if constraint.Source.IsDerivedRequirement() {
			continue
		}
		if preferredType != nil && constraint.Subject.Equal(preferredType) {
			return constraint
		}
		if result == nil || constraint.Source.Compare(result.Source) < 0 {
			result = constraint
		}
	}
	return result
}

// bestSource returns the best source of the given constraints.
func bestSource[T any](constraints []Constraint[T]) *RequirementSource {
	var result *RequirementSource
	for _, constraint := range constraints {
		if result == nil || constraint.Source.Compare(result) < 0 {
			result = constraint.Source
		}
	}
	return result
}

// sortConstraints orders constraints by their sources, then by their subjects.
func sortConstraints[T any](constraints []Constraint[T]) {
	sort.SliceStable(constraints, func(i, j int) bool {
		if result := constraints[i].Source.Compare(constraints[j].Source); result != 0 {
			return result < 0
		}
		return CompareTypes(constraints[i].Subject, constraints[j].Subject) < 0
	})
}

// sortConstraintsAsWritten orders constraints of written requirements first,
// in the order the requirements were written, followed by the others in source order.
func sortConstraintsAsWritten[T any](constraints []Constraint[T]) {
	sortConstraints(constraints)
	sort.SliceStable(constraints, func(i, j int) bool {
		return writtenPosition(constraints[i].Source) < writtenPosition(constraints[j].Source)
	})
}

func writtenPosition(source *RequirementSource) int {
	if !source.IsWritten() {
		return math.MaxInt
	}
	return source.writtenIndex
}
