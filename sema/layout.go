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
)

type LayoutConstraintKind uint8

const (
	LayoutConstraintKindUnknown LayoutConstraintKind = iota
	LayoutConstraintKindRefCountedObject
	LayoutConstraintKindNativeRefCountedObject
	LayoutConstraintKindClass
	LayoutConstraintKindNativeClass
	LayoutConstraintKindTrivial
	LayoutConstraintKindTrivialOfAtMostSize
	LayoutConstraintKindTrivialOfExactSize
)

// LayoutConstraint restricts the memory layout of the types
// which may be bound to a generic parameter.
//
// The zero value is the unknown (unconstrained) layout.
type LayoutConstraint struct {
	Kind       LayoutConstraintKind
	SizeInBits uint64
}

var (
	ClassLayoutConstraint            = LayoutConstraint{Kind: LayoutConstraintKindClass}
	NativeClassLayoutConstraint      = LayoutConstraint{Kind: LayoutConstraintKindNativeClass}
	RefCountedObjectLayoutConstraint = LayoutConstraint{Kind: LayoutConstraintKindRefCountedObject}
	TrivialLayoutConstraint          = LayoutConstraint{Kind: LayoutConstraintKindTrivial}
)

func NewTrivialOfExactSizeLayoutConstraint(sizeInBits uint64) LayoutConstraint {
	return LayoutConstraint{
		Kind:       LayoutConstraintKindTrivialOfExactSize,
		SizeInBits: sizeInBits,
	}
}

func NewTrivialOfAtMostSizeLayoutConstraint(sizeInBits uint64) LayoutConstraint {
	return LayoutConstraint{
		Kind:       LayoutConstraintKindTrivialOfAtMostSize,
		SizeInBits: sizeInBits,
	}
}

func (l LayoutConstraint) IsUnknown() bool {
	return l.Kind == LayoutConstraintKindUnknown
}

func (l LayoutConstraint) IsRefCounted() bool {
	switch l.Kind {
	case LayoutConstraintKindRefCountedObject,
		LayoutConstraintKindNativeRefCountedObject,
		LayoutConstraintKindClass,
		LayoutConstraintKindNativeClass:
		return true
	}
	return false
}

func (l LayoutConstraint) IsClass() bool {
	return l.Kind == LayoutConstraintKindClass ||
		l.Kind == LayoutConstraintKindNativeClass
}

func (l LayoutConstraint) IsNative() bool {
	return l.Kind == LayoutConstraintKindNativeClass ||
		l.Kind == LayoutConstraintKindNativeRefCountedObject
}

func (l LayoutConstraint) IsTrivial() bool {
	switch l.Kind {
	case LayoutConstraintKindTrivial,
		LayoutConstraintKindTrivialOfAtMostSize,
		LayoutConstraintKindTrivialOfExactSize:
		return true
	}
	return false
}

func (l LayoutConstraint) String() string {
	switch l.Kind {
	case LayoutConstraintKindUnknown:
		return "_UnknownLayout"
	case LayoutConstraintKindRefCountedObject:
		return "_RefCountedObject"
	case LayoutConstraintKindNativeRefCountedObject:
		return "_NativeRefCountedObject"
	case LayoutConstraintKindClass:
		return "AnyObject"
	case LayoutConstraintKindNativeClass:
		return "_NativeClass"
	case LayoutConstraintKindTrivial:
		return "_Trivial"
	case LayoutConstraintKindTrivialOfAtMostSize:
		return fmt.Sprintf("_TrivialAtMost(%d)", l.SizeInBits)
	case LayoutConstraintKindTrivialOfExactSize:
		return fmt.Sprintf("_Trivial(%d)", l.SizeInBits)
	}

	panic(fmt.Errorf("unknown layout constraint kind: %d", l.Kind))
}

// Merge returns the conjunction of the two layout constraints,
// i.e. the most specific layout satisfying both.
// The second result is false if the constraints are incompatible.
func (l LayoutConstraint) Merge(other LayoutConstraint) (LayoutConstraint, bool) {
	if l == other || other.IsUnknown() {
		return l, true
	}
	if l.IsUnknown() {
		return other, true
	}

	if l.IsRefCounted() && other.IsRefCounted() {
		class := l.IsClass() || other.IsClass()
		native := l.IsNative() || other.IsNative()
		switch {
		case class && native:
			return NativeClassLayoutConstraint, true
		case class:
			return ClassLayoutConstraint, true
		case native:
			return LayoutConstraint{Kind: LayoutConstraintKindNativeRefCountedObject}, true
		default:
			return RefCountedObjectLayoutConstraint, true
		}
	}

	if l.IsTrivial() && other.IsTrivial() {
		return mergeTrivialLayouts(l, other)
	}

	return LayoutConstraint{}, false
}

func mergeTrivialLayouts(a, b LayoutConstraint) (LayoutConstraint, bool) {
	// Order by specificity: Trivial < AtMost < Exact
	if a.Kind > b.Kind {
		a, b = b, a
	}

	switch a.Kind {
	case LayoutConstraintKindTrivial:
		return b, true

	case LayoutConstraintKindTrivialOfAtMostSize:
		switch b.Kind {
		case LayoutConstraintKindTrivialOfAtMostSize:
			return NewTrivialOfAtMostSizeLayoutConstraint(min(a.SizeInBits, b.SizeInBits)), true
		case LayoutConstraintKindTrivialOfExactSize:
			if b.SizeInBits <= a.SizeInBits {
				return b, true
			}
		}

	case LayoutConstraintKindTrivialOfExactSize:
		if a.SizeInBits == b.SizeInBits {
			return a, true
		}
	}

	return LayoutConstraint{}, false
}

// compareLayoutConstraints orders layout constraints by kind, then size.
func compareLayoutConstraints(a, b LayoutConstraint) int {
	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	case a.SizeInBits < b.SizeInBits:
		return -1
	case a.SizeInBits > b.SizeInBits:
		return 1
	}
	return 0
}

// layoutOfConcreteType returns the layout a concrete type provides.
func layoutOfConcreteType(ty Type) LayoutConstraint {
	switch ty := ty.(type) {
	case *NominalType:
		if ty.IsClass() {
			if ty.Decl.Layout.IsUnknown() {
				return NativeClassLayoutConstraint
			}
			return ty.Decl.Layout
		}
		return ty.Decl.Layout

	case *TupleType:
		var size uint64
		for _, element := range ty.Elements {
			elementLayout := layoutOfConcreteType(element)
			if elementLayout.Kind != LayoutConstraintKindTrivialOfExactSize {
				return LayoutConstraint{}
			}
			size += elementLayout.SizeInBits
		}
		return NewTrivialOfExactSizeLayoutConstraint(size)

	case *FunctionType:
		return LayoutConstraint{}
	}

	return LayoutConstraint{}
}

// SatisfiedBy returns true if the given concrete type has a layout
// which meets this layout constraint.
func (l LayoutConstraint) SatisfiedBy(ty Type) bool {
	if l.IsUnknown() {
		return true
	}
	provided := layoutOfConcreteType(ty)
	if provided.IsUnknown() {
		return false
	}
	merged, ok := provided.Merge(l)
	return ok && merged == provided
}
