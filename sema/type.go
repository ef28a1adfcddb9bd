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

type TypeID string

type Type interface {
	isType()
	// ID returns a unique identifier for the type,
	// which includes declaration locations and associated type protocols.
	ID() TypeID
	String() string
	Equal(other Type) bool
	// HasTypeParameter returns true if the type mentions
	// a generic parameter or a dependent member of one.
	HasTypeParameter() bool
}

// IsDependentType returns true if the given type is a generic parameter,
// or a (possibly nested) member of one.
func IsDependentType(ty Type) bool {
	switch ty := ty.(type) {
	case *GenericParamType:
		return true
	case *DependentMemberType:
		return IsDependentType(ty.Base)
	default:
		return false
	}
}

// GenericParamType

// GenericParamType is a generic parameter, identified by its depth
// (the nesting level of the declaring generic context) and its index.
type GenericParamType struct {
	Name  string
	Depth uint
	Index uint
}

var _ Type = &GenericParamType{}

func NewGenericParamType(name string, depth, index uint) *GenericParamType {
	return &GenericParamType{
		Name:  name,
		Depth: depth,
		Index: index,
	}
}

func (*GenericParamType) isType() {}

func (t *GenericParamType) ID() TypeID {
	return TypeID(fmt.Sprintf("τ_%d_%d", t.Depth, t.Index))
}

func (t *GenericParamType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return string(t.ID())
}

func (t *GenericParamType) Equal(other Type) bool {
	otherParam, ok := other.(*GenericParamType)
	if !ok {
		return false
	}
	return t.Depth == otherParam.Depth &&
		t.Index == otherParam.Index
}

func (*GenericParamType) HasTypeParameter() bool {
	return true
}

// ProtocolSelfType is the generic parameter `Self`
// of a protocol's requirement signature.
var ProtocolSelfType = NewGenericParamType("Self", 0, 0)

// DependentMemberType

// DependentMemberType is a named projection `Base.Name` of a dependent type.
//
// AssociatedType is the associated type declaration the member refers to,
// or nil if the member is only known by name.
type DependentMemberType struct {
	Base           Type
	AssociatedType *AssociatedTypeDecl
	Name           string
}

var _ Type = &DependentMemberType{}

func NewDependentMemberType(base Type, associatedType *AssociatedTypeDecl) *DependentMemberType {
	return &DependentMemberType{
		Base:           base,
		AssociatedType: associatedType,
		Name:           associatedType.Name,
	}
}

func NewUnresolvedDependentMemberType(base Type, name string) *DependentMemberType {
	return &DependentMemberType{
		Base: base,
		Name: name,
	}
}

func (*DependentMemberType) isType() {}

func (t *DependentMemberType) ID() TypeID {
	var sb strings.Builder
	sb.WriteString(string(t.Base.ID()))
	sb.WriteByte('.')
	if t.AssociatedType != nil {
		sb.WriteByte('[')
		sb.WriteString(string(t.AssociatedType.Protocol.ID()))
		sb.WriteByte(']')
	}
	sb.WriteString(t.Name)
	return TypeID(sb.String())
}

func (t *DependentMemberType) String() string {
	return fmt.Sprintf("%s.%s", t.Base, t.Name)
}

func (t *DependentMemberType) Equal(other Type) bool {
	otherMember, ok := other.(*DependentMemberType)
	if !ok {
		return false
	}
	return t.Name == otherMember.Name &&
		t.AssociatedType == otherMember.AssociatedType &&
		t.Base.Equal(otherMember.Base)
}

func (t *DependentMemberType) HasTypeParameter() bool {
	return t.Base.HasTypeParameter()
}

// RootGenericParam returns the generic parameter the member is projected from,
// or nil if the root is not a generic parameter.
func (t *DependentMemberType) RootGenericParam() *GenericParamType {
	var current Type = t
	for {
		switch ty := current.(type) {
		case *DependentMemberType:
			current = ty.Base
		case *GenericParamType:
			return ty
		default:
			return nil
		}
	}
}

// nestingDepth returns the number of member projections in a dependent type.
func nestingDepth(ty Type) int {
	depth := 0
	for {
		member, ok := ty.(*DependentMemberType)
		if !ok {
			return depth
		}
		depth++
		ty = member.Base
	}
}

// memberPath returns the members of a dependent type, outermost last.
func memberPath(ty Type) (Type, []*DependentMemberType) {
	var path []*DependentMemberType
	for {
		member, ok := ty.(*DependentMemberType)
		if !ok {
			break
		}
		path = append(path, member)
		ty = member.Base
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return ty, path
}

// TupleType

type TupleType struct {
	Elements []Type
}

var _ Type = &TupleType{}

func NewTupleType(elements ...Type) *TupleType {
	return &TupleType{
		Elements: elements,
	}
}

func (*TupleType) isType() {}

func (t *TupleType) ID() TypeID {
	return TypeID(fmt.Sprintf("(%s)", joinTypeIDs(t.Elements)))
}

func (t *TupleType) String() string {
	return fmt.Sprintf("(%s)", joinTypeStrings(t.Elements))
}

func (t *TupleType) Equal(other Type) bool {
	otherTuple, ok := other.(*TupleType)
	if !ok {
		return false
	}
	return typesEqual(t.Elements, otherTuple.Elements)
}

func (t *TupleType) HasTypeParameter() bool {
	return anyHasTypeParameter(t.Elements)
}

// FunctionType

type FunctionType struct {
	Result     Type
	Parameters []Type
}

var _ Type = &FunctionType{}

func NewFunctionType(result Type, parameters ...Type) *FunctionType {
	return &FunctionType{
		Parameters: parameters,
		Result:     result,
	}
}

func (*FunctionType) isType() {}

func (t *FunctionType) ID() TypeID {
	return TypeID(fmt.Sprintf("fun(%s): %s", joinTypeIDs(t.Parameters), t.Result.ID()))
}

func (t *FunctionType) String() string {
	return fmt.Sprintf("fun(%s): %s", joinTypeStrings(t.Parameters), t.Result)
}

func (t *FunctionType) Equal(other Type) bool {
	otherFunction, ok := other.(*FunctionType)
	if !ok {
		return false
	}
	return typesEqual(t.Parameters, otherFunction.Parameters) &&
		t.Result.Equal(otherFunction.Result)
}

func (t *FunctionType) HasTypeParameter() bool {
	return anyHasTypeParameter(t.Parameters) ||
		t.Result.HasTypeParameter()
}

func joinTypeIDs(types []Type) string {
	var sb strings.Builder
	for i, ty := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(ty.ID()))
	}
	return sb.String()
}

func joinTypeStrings(types []Type) string {
	var sb strings.Builder
	for i, ty := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ty.String())
	}
	return sb.String()
}

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i, ty := range a {
		if !ty.Equal(b[i]) {
			return false
		}
	}
	return true
}

func anyHasTypeParameter(types []Type) bool {
	for _, ty := range types {
		if ty.HasTypeParameter() {
			return true
		}
	}
	return false
}

// walkType invokes the visitor for the type and all its component types,
// outermost first. Returning false from the visitor skips the components.
func walkType(ty Type, visit func(Type) bool) {
	stack := []Type{ty}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(current) {
			continue
		}

		switch current := current.(type) {
		case *NominalType:
			for i := len(current.TypeArguments) - 1; i >= 0; i-- {
				stack = append(stack, current.TypeArguments[i])
			}
		case *TupleType:
			for i := len(current.Elements) - 1; i >= 0; i-- {
				stack = append(stack, current.Elements[i])
			}
		case *FunctionType:
			stack = append(stack, current.Result)
			for i := len(current.Parameters) - 1; i >= 0; i-- {
				stack = append(stack, current.Parameters[i])
			}
		}
	}
}

// transformType rebuilds the type bottom-up, replacing each dependent type
// with the result of the given function.
func transformType(ty Type, transformDependent func(Type) Type) Type {
	switch ty := ty.(type) {
	case *GenericParamType, *DependentMemberType:
		return transformDependent(ty)

	case *NominalType:
		if !ty.HasTypeParameter() {
			return ty
		}
		arguments := make([]Type, len(ty.TypeArguments))
		for i, argument := range ty.TypeArguments {
			arguments[i] = transformType(argument, transformDependent)
		}
		return NewNominalType(ty.Decl, arguments...)

	case *TupleType:
		if !ty.HasTypeParameter() {
			return ty
		}
		elements := make([]Type, len(ty.Elements))
		for i, element := range ty.Elements {
			elements[i] = transformType(element, transformDependent)
		}
		return NewTupleType(elements...)

	case *FunctionType:
		if !ty.HasTypeParameter() {
			return ty
		}
		parameters := make([]Type, len(ty.Parameters))
		for i, parameter := range ty.Parameters {
			parameters[i] = transformType(parameter, transformDependent)
		}
		return NewFunctionType(
			transformType(ty.Result, transformDependent),
			parameters...,
		)

	default:
		return ty
	}
}
