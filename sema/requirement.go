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

	"github.com/turbolent/prettier"
)

// RequirementKind is the kind of a requirement.
// The order of the constants is the order of requirements
// with the same subject in a canonical signature.
type RequirementKind uint8

const (
	RequirementKindSuperclass RequirementKind = iota
	RequirementKindLayout
	RequirementKindConformance
	RequirementKindSameType
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementKindSuperclass:
		return "superclass"
	case RequirementKindLayout:
		return "layout"
	case RequirementKindConformance:
		return "conformance"
	case RequirementKindSameType:
		return "same-type"
	}

	panic(fmt.Errorf("unknown requirement kind: %d", k))
}

// Requirement is a constraint on a subject type.
//
// For conformance requirements, Constraint is a *ProtocolType.
// For superclass requirements, Constraint is the class type.
// For same-type requirements, Constraint is the other type.
// For layout requirements, Layout is set and Constraint is nil.
type Requirement struct {
	Subject    Type
	Constraint Type
	Layout     LayoutConstraint
	Kind       RequirementKind
}

func NewConformanceRequirement(subject Type, protocol *ProtocolType) Requirement {
	return Requirement{
		Kind:       RequirementKindConformance,
		Subject:    subject,
		Constraint: protocol,
	}
}

func NewSuperclassRequirement(subject Type, superclass Type) Requirement {
	return Requirement{
		Kind:       RequirementKindSuperclass,
		Subject:    subject,
		Constraint: superclass,
	}
}

func NewSameTypeRequirement(subject Type, other Type) Requirement {
	return Requirement{
		Kind:       RequirementKindSameType,
		Subject:    subject,
		Constraint: other,
	}
}

func NewLayoutRequirement(subject Type, layout LayoutConstraint) Requirement {
	return Requirement{
		Kind:    RequirementKindLayout,
		Subject: subject,
		Layout:  layout,
	}
}

// Protocol returns the protocol of a conformance requirement.
func (r Requirement) Protocol() *ProtocolType {
	protocol, _ := r.Constraint.(*ProtocolType)
	return protocol
}

func (r Requirement) Equal(other Requirement) bool {
	if r.Kind != other.Kind ||
		!r.Subject.Equal(other.Subject) {

		return false
	}
	if r.Kind == RequirementKindLayout {
		return r.Layout == other.Layout
	}
	return r.Constraint.Equal(other.Constraint)
}

// Subst applies the substitution map to both sides of the requirement.
func (r Requirement) Subst(substitutions *SubstitutionMap) Requirement {
	result := r
	result.Subject = substitutions.Subst(r.Subject)
	if r.Kind != RequirementKindLayout && r.Kind != RequirementKindConformance {
		result.Constraint = substitutions.Subst(r.Constraint)
	}
	return result
}

func (r Requirement) String() string {
	switch r.Kind {
	case RequirementKindSameType:
		return fmt.Sprintf("%s == %s", r.Subject, r.Constraint)
	case RequirementKindLayout:
		return fmt.Sprintf("%s: %s", r.Subject, r.Layout)
	default:
		return fmt.Sprintf("%s: %s", r.Subject, r.Constraint)
	}
}

var sameTypeRequirementSeparatorDoc prettier.Doc = prettier.Text(" == ")
var conformanceRequirementSeparatorDoc prettier.Doc = prettier.Text(": ")

func (r Requirement) Doc() prettier.Doc {
	var rhs string
	separator := conformanceRequirementSeparatorDoc
	switch r.Kind {
	case RequirementKindSameType:
		separator = sameTypeRequirementSeparatorDoc
		rhs = r.Constraint.String()
	case RequirementKindLayout:
		rhs = r.Layout.String()
	default:
		rhs = r.Constraint.String()
	}

	return prettier.Concat{
		prettier.Text(r.Subject.String()),
		separator,
		prettier.Text(rhs),
	}
}

// CompareRequirements is the total order of requirements in a canonical signature:
// subjects by dependent type order, then kinds, then protocols or constraint types.
func CompareRequirements(a, b Requirement) int {
	if result := CompareTypes(a.Subject, b.Subject); result != 0 {
		return result
	}

	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	}

	switch a.Kind {
	case RequirementKindConformance:
		return compareProtocols(a.Protocol(), b.Protocol())
	case RequirementKindLayout:
		return compareLayoutConstraints(a.Layout, b.Layout)
	default:
		return CompareTypes(a.Constraint, b.Constraint)
	}
}
