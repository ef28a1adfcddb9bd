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

type NominalKind uint8

const (
	NominalKindStruct NominalKind = iota
	NominalKindClass
	NominalKindEnum
)

func (k NominalKind) Keyword() string {
	switch k {
	case NominalKindStruct:
		return "struct"
	case NominalKindClass:
		return "class"
	case NominalKindEnum:
		return "enum"
	}

	panic(fmt.Errorf("unknown nominal kind: %d", k))
}

// NominalDecl is the declaration of a struct, class, or enum.
//
// Requirements, Superclass and type witnesses are expressed
// in terms of the declaration's own generic parameters.
type NominalDecl struct {
	Superclass    Type
	Location      string
	Identifier    string
	GenericParams []*GenericParamType
	Requirements  []Requirement
	Conformances  []*NominalConformance
	Layout        LayoutConstraint
	Kind          NominalKind
}

// NominalConformance is the declared conformance of a nominal type to a protocol.
type NominalConformance struct {
	Protocol      *ProtocolType
	TypeWitnesses map[string]Type
}

func (d *NominalDecl) ID() TypeID {
	if d.Location == "" {
		return TypeID(d.Identifier)
	}
	return TypeID(fmt.Sprintf("%s.%s", d.Location, d.Identifier))
}

// NominalType

type NominalType struct {
	Decl          *NominalDecl
	TypeArguments []Type
}

var _ Type = &NominalType{}

func NewNominalType(decl *NominalDecl, typeArguments ...Type) *NominalType {
	return &NominalType{
		Decl:          decl,
		TypeArguments: typeArguments,
	}
}

func (*NominalType) isType() {}

func (t *NominalType) ID() TypeID {
	if len(t.TypeArguments) == 0 {
		return t.Decl.ID()
	}
	return TypeID(fmt.Sprintf("%s<%s>", t.Decl.ID(), joinTypeIDs(t.TypeArguments)))
}

func (t *NominalType) String() string {
	if len(t.TypeArguments) == 0 {
		return t.Decl.Identifier
	}
	var sb strings.Builder
	sb.WriteString(t.Decl.Identifier)
	sb.WriteByte('<')
	sb.WriteString(joinTypeStrings(t.TypeArguments))
	sb.WriteByte('>')
	return sb.String()
}

func (t *NominalType) Equal(other Type) bool {
	otherNominal, ok := other.(*NominalType)
	if !ok {
		return false
	}
	return t.Decl == otherNominal.Decl &&
		typesEqual(t.TypeArguments, otherNominal.TypeArguments)
}

func (t *NominalType) HasTypeParameter() bool {
	return anyHasTypeParameter(t.TypeArguments)
}

func (t *NominalType) IsClass() bool {
	return t.Decl.Kind == NominalKindClass
}

// substitutions returns the substitution map from the declaration's
// generic parameters to the type arguments.
func (t *NominalType) substitutions() *SubstitutionMap {
	return NewSubstitutionMap(t.Decl.GenericParams, t.TypeArguments)
}

// SuperclassType returns the superclass of a class type,
// with the type arguments applied, or nil.
func (t *NominalType) SuperclassType() *NominalType {
	if t.Decl.Superclass == nil {
		return nil
	}
	superclass, ok := t.substitutions().Subst(t.Decl.Superclass).(*NominalType)
	if !ok {
		return nil
	}
	return superclass
}

// IsSubclassOf returns true if the type is the given class,
// or one of its subclasses.
func (t *NominalType) IsSubclassOf(other *NominalType) bool {
	for current := t; current != nil; current = current.SuperclassType() {
		if current.Equal(other) {
			return true
		}
	}
	return false
}
