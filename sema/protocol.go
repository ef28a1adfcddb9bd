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
)

// ProtocolType is a protocol declaration.
//
// Requirements are the where clauses written on the protocol,
// expressed in terms of ProtocolSelfType.
type ProtocolType struct {
	Location           string
	Identifier         string
	InheritedProtocols []*ProtocolType
	AssociatedTypes    []*AssociatedTypeDecl
	Requirements       []Requirement
	// ClassBound is true for protocols which can only be adopted by classes
	ClassBound bool
}

var _ Type = &ProtocolType{}

func NewProtocolType(location, identifier string, inherited ...*ProtocolType) *ProtocolType {
	return &ProtocolType{
		Location:           location,
		Identifier:         identifier,
		InheritedProtocols: inherited,
	}
}

func (*ProtocolType) isType() {}

func (t *ProtocolType) ID() TypeID {
	if t.Location == "" {
		return TypeID(t.Identifier)
	}
	return TypeID(fmt.Sprintf("%s.%s", t.Location, t.Identifier))
}

func (t *ProtocolType) String() string {
	return t.Identifier
}

func (t *ProtocolType) Equal(other Type) bool {
	otherProtocol, ok := other.(*ProtocolType)
	if !ok {
		return false
	}
	return t == otherProtocol ||
		t.ID() == otherProtocol.ID()
}

func (*ProtocolType) HasTypeParameter() bool {
	return false
}

// AddAssociatedType declares a new associated type in the protocol.
func (t *ProtocolType) AddAssociatedType(name string, inherited ...*ProtocolType) *AssociatedTypeDecl {
	associatedType := &AssociatedTypeDecl{
		Name:               name,
		Protocol:           t,
		InheritedProtocols: inherited,
	}
	t.AssociatedTypes = append(t.AssociatedTypes, associatedType)
	return associatedType
}

// AddRequirement adds a where clause requirement to the protocol.
func (t *ProtocolType) AddRequirement(requirement Requirement) {
	t.Requirements = append(t.Requirements, requirement)
}

// AssociatedType returns the associated type with the given name
// declared directly in this protocol, if any.
func (t *ProtocolType) AssociatedType(name string) *AssociatedTypeDecl {
	for _, associatedType := range t.AssociatedTypes {
		if associatedType.Name == name {
			return associatedType
		}
	}
	return nil
}

// AllInheritedProtocols returns the protocol and all protocols it refines,
// transitively, in breadth-first order without duplicates.
func (t *ProtocolType) AllInheritedProtocols() []*ProtocolType {
	result := []*ProtocolType{t}
	seen := map[*ProtocolType]struct{}{t: {}}
	for i := 0; i < len(result); i++ {
		for _, inherited := range result[i].InheritedProtocols {
			if _, ok := seen[inherited]; ok {
				continue
			}
			seen[inherited] = struct{}{}
			result = append(result, inherited)
		}
	}
	return result
}

// InheritsFrom returns true if the protocol refines the other protocol,
// directly or indirectly, or is the other protocol.
func (t *ProtocolType) InheritsFrom(other *ProtocolType) bool {
	for _, protocol := range t.AllInheritedProtocols() {
		if protocol == other {
			return true
		}
	}
	return false
}

// LookupAssociatedTypes returns all associated types with the given name
// declared in the protocol or any of the protocols it refines.
func (t *ProtocolType) LookupAssociatedTypes(name string) []*AssociatedTypeDecl {
	var result []*AssociatedTypeDecl
	for _, protocol := range t.AllInheritedProtocols() {
		if associatedType := protocol.AssociatedType(name); associatedType != nil {
			result = append(result, associatedType)
		}
	}
	return result
}

// writtenRequirements returns the requirements as written on the protocol:
// the inheritance clause, associated type bounds, and where clauses.
// They are used when the requirement signature is not available (yet).
func (t *ProtocolType) writtenRequirements() []Requirement {
	var requirements []Requirement

	for _, inherited := range t.InheritedProtocols {
		requirements = append(requirements, NewConformanceRequirement(ProtocolSelfType, inherited))
	}

	if t.ClassBound {
		requirements = append(requirements, NewLayoutRequirement(ProtocolSelfType, ClassLayoutConstraint))
	}

	for _, associatedType := range t.AssociatedTypes {
		subject := NewDependentMemberType(ProtocolSelfType, associatedType)

		for _, inherited := range associatedType.InheritedProtocols {
			requirements = append(requirements, NewConformanceRequirement(subject, inherited))
		}

		if associatedType.Superclass != nil {
			requirements = append(requirements, NewSuperclassRequirement(subject, associatedType.Superclass))
		}

		if !associatedType.Layout.IsUnknown() {
			requirements = append(requirements, NewLayoutRequirement(subject, associatedType.Layout))
		}
	}

	requirements = append(requirements, t.Requirements...)

	return requirements
}

// compareProtocols orders protocols by identifier, then by location.
func compareProtocols(a, b *ProtocolType) int {
	if a == b {
		return 0
	}
	if result := strings.Compare(a.Identifier, b.Identifier); result != 0 {
		return result
	}
	return strings.Compare(a.Location, b.Location)
}

// AssociatedTypeDecl

type AssociatedTypeDecl struct {
	Protocol           *ProtocolType
	Superclass         Type
	Name               string
	InheritedProtocols []*ProtocolType
	Layout             LayoutConstraint
}

func (d *AssociatedTypeDecl) String() string {
	return fmt.Sprintf("%s.%s", d.Protocol, d.Name)
}

// compareAssociatedTypes orders associated types by name,
// then by their protocol. Unresolved (nil) associated types come last.
func compareAssociatedTypes(a, b *AssociatedTypeDecl) int {
	if a == b {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if result := strings.Compare(a.Name, b.Name); result != 0 {
		return result
	}
	return compareProtocols(a.Protocol, b.Protocol)
}
