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

// ConformanceLookup finds the conformance of a concrete type to a protocol.
//
// The builder consults it whenever an equivalence class with a concrete type
// or a superclass bound is required to conform to a protocol,
// and to bind nested types of concrete types to their type witnesses.
type ConformanceLookup interface {
	// LookupConformance returns the conformance of the given type to the protocol,
	// or nil if the type does not conform
	LookupConformance(ty Type, protocol *ProtocolType) *ProtocolConformance
}

// ProtocolConformance is the conformance of a type to a protocol.
type ProtocolConformance struct {
	Type     Type
	Protocol *ProtocolType
	// declared is the conformance as written on the declaration of conformingType
	declared       *NominalConformance
	conformingType *NominalType
	// archetype is set for the abstract conformance of an archetype
	archetype *ArchetypeType
}

func NewProtocolConformance(
	ty Type,
	protocol *ProtocolType,
	declared *NominalConformance,
	conformingType *NominalType,
) *ProtocolConformance {
	return &ProtocolConformance{
		Type:           ty,
		Protocol:       protocol,
		declared:       declared,
		conformingType: conformingType,
	}
}

// IsAbstract returns true if the conformance is not backed by a declaration,
// i.e. it is the conformance of an archetype.
func (c *ProtocolConformance) IsAbstract() bool {
	return c.declared == nil
}

// TypeWitness returns the type that witnesses the associated type with the given name,
// or nil if the conformance does not provide one.
func (c *ProtocolConformance) TypeWitness(name string) Type {
	if c.archetype != nil {
		return c.archetype.NestedType(name)
	}

	if c.declared == nil {
		return nil
	}

	witness, ok := c.declared.TypeWitnesses[name]
	if !ok {
		return nil
	}

	return c.conformingType.substitutions().Subst(witness)
}

func (c *ProtocolConformance) String() string {
	return string(c.Type.ID()) + ": " + c.Protocol.Identifier
}

// ModuleConformanceLookup finds conformances declared on nominal types,
// including those inherited from superclasses, and the abstract
// conformances of archetypes.
type ModuleConformanceLookup struct{}

var _ ConformanceLookup = ModuleConformanceLookup{}

var DefaultConformanceLookup ConformanceLookup = ModuleConformanceLookup{}

func (ModuleConformanceLookup) LookupConformance(ty Type, protocol *ProtocolType) *ProtocolConformance {
	switch ty := ty.(type) {
	case *NominalType:
		for current := ty; current != nil; current = current.SuperclassType() {
			for _, conformance := range current.Decl.Conformances {
				if !conformance.Protocol.InheritsFrom(protocol) {
					continue
				}
				return NewProtocolConformance(ty, protocol, conformance, current)
			}
		}

	case *ArchetypeType:
		if ty.ConformsTo(protocol) {
			return &ProtocolConformance{
				Type:      ty,
				Protocol:  protocol,
				archetype: ty,
			}
		}
		if ty.Superclass != nil {
			return ModuleConformanceLookup{}.LookupConformance(ty.Superclass, protocol)
		}
	}

	return nil
}

// declaredProtocols returns the protocols the nominal type declares conformances to,
// including those declared by its superclasses, and the protocols they refine.
func declaredProtocols(ty *NominalType) []*ProtocolType {
	var result []*ProtocolType
	seen := map[*ProtocolType]struct{}{}
	for current := ty; current != nil; current = current.SuperclassType() {
		for _, conformance := range current.Decl.Conformances {
			for _, protocol := range conformance.Protocol.AllInheritedProtocols() {
				if _, ok := seen[protocol]; ok {
					continue
				}
				seen[protocol] = struct{}{}
				result = append(result, protocol)
			}
		}
	}
	return result
}

// nominalTypeWitness finds a type witness by name in any conformance of the nominal type.
// It is used for members which are only known by name.
func nominalTypeWitness(ty *NominalType, name string) Type {
	for current := ty; current != nil; current = current.SuperclassType() {
		for _, conformance := range current.Decl.Conformances {
			witness, ok := conformance.TypeWitnesses[name]
			if !ok {
				continue
			}
			return current.substitutions().Subst(witness)
		}
	}
	return nil
}
