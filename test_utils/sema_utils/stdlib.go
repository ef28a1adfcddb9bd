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

package sema_utils

import (
	"github.com/onflow/generics/sema"
)

const StandardLibraryLocation = "std"

// StandardLibrary is a small set of protocols and nominal types
// resembling a standard library, used as fixtures in tests.
type StandardLibrary struct {
	Equatable        *sema.ProtocolType
	Comparable       *sema.ProtocolType
	Hashable         *sema.ProtocolType
	IteratorProtocol *sema.ProtocolType
	Sequence         *sema.ProtocolType
	Collection       *sema.ProtocolType
	// Object is a class-bound protocol
	Object *sema.ProtocolType

	IteratorElement       *sema.AssociatedTypeDecl
	SequenceElement       *sema.AssociatedTypeDecl
	SequenceIterator      *sema.AssociatedTypeDecl
	CollectionSubSequence *sema.AssociatedTypeDecl

	IntDecl           *sema.NominalDecl
	BoolDecl          *sema.NominalDecl
	StringDecl        *sema.NominalDecl
	ArrayDecl         *sema.NominalDecl
	ArrayIteratorDecl *sema.NominalDecl
	ArraySliceDecl    *sema.NominalDecl
	SetDecl           *sema.NominalDecl
	DictionaryDecl    *sema.NominalDecl
	BaseDecl          *sema.NominalDecl
	DerivedDecl       *sema.NominalDecl
	OtherDecl         *sema.NominalDecl

	Int     *sema.NominalType
	Bool    *sema.NominalType
	String  *sema.NominalType
	Base    *sema.NominalType
	Derived *sema.NominalType
	Other   *sema.NominalType
}

// NewStandardLibrary declares the fixtures. Each call returns new declarations.
func NewStandardLibrary() *StandardLibrary {
	l := &StandardLibrary{}

	l.declareProtocols()
	l.declareValueTypes()
	l.declareCollections()
	l.declareClasses()

	return l
}

func (l *StandardLibrary) declareProtocols() {
	l.Equatable = sema.NewProtocolType(StandardLibraryLocation, "Equatable")
	l.Comparable = sema.NewProtocolType(StandardLibraryLocation, "Comparable", l.Equatable)
	l.Hashable = sema.NewProtocolType(StandardLibraryLocation, "Hashable", l.Equatable)

	l.IteratorProtocol = sema.NewProtocolType(StandardLibraryLocation, "IteratorProtocol")
	l.IteratorElement = l.IteratorProtocol.AddAssociatedType("Element")

	// protocol Sequence {
	//     associatedtype Element
	//     associatedtype Iterator: IteratorProtocol
	//         where Iterator.Element == Element
	// }
	l.Sequence = sema.NewProtocolType(StandardLibraryLocation, "Sequence")
	l.SequenceElement = l.Sequence.AddAssociatedType("Element")
	l.SequenceIterator = l.Sequence.AddAssociatedType("Iterator", l.IteratorProtocol)
	l.Sequence.AddRequirement(
		sema.NewSameTypeRequirement(
			sema.NewDependentMemberType(
				sema.NewDependentMemberType(sema.ProtocolSelfType, l.SequenceIterator),
				l.IteratorElement,
			),
			sema.NewDependentMemberType(sema.ProtocolSelfType, l.SequenceElement),
		),
	)

	// protocol Collection: Sequence {
	//     associatedtype SubSequence: Collection
	//         where SubSequence.Element == Element,
	//               SubSequence.SubSequence == SubSequence
	// }
	l.Collection = sema.NewProtocolType(StandardLibraryLocation, "Collection", l.Sequence)
	l.CollectionSubSequence = l.Collection.AddAssociatedType("SubSequence", l.Collection)
	subSequence := sema.NewDependentMemberType(sema.ProtocolSelfType, l.CollectionSubSequence)
	l.Collection.AddRequirement(
		sema.NewSameTypeRequirement(
			sema.NewDependentMemberType(subSequence, l.SequenceElement),
			sema.NewDependentMemberType(sema.ProtocolSelfType, l.SequenceElement),
		),
	)
	l.Collection.AddRequirement(
		sema.NewSameTypeRequirement(
			sema.NewDependentMemberType(subSequence, l.CollectionSubSequence),
			subSequence,
		),
	)

	l.Object = sema.NewProtocolType(StandardLibraryLocation, "Object")
	l.Object.ClassBound = true
}

func (l *StandardLibrary) declareValueTypes() {
	l.IntDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "Int",
		Kind:       sema.NominalKindStruct,
		Layout:     sema.NewTrivialOfExactSizeLayoutConstraint(64),
		Conformances: []*sema.NominalConformance{
			{Protocol: l.Comparable},
			{Protocol: l.Hashable},
		},
	}
	l.Int = sema.NewNominalType(l.IntDecl)

	l.BoolDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "Bool",
		Kind:       sema.NominalKindStruct,
		Layout:     sema.NewTrivialOfExactSizeLayoutConstraint(8),
		Conformances: []*sema.NominalConformance{
			{Protocol: l.Hashable},
		},
	}
	l.Bool = sema.NewNominalType(l.BoolDecl)

	l.StringDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "String",
		Kind:       sema.NominalKindStruct,
		Conformances: []*sema.NominalConformance{
			{Protocol: l.Comparable},
			{Protocol: l.Hashable},
		},
	}
	l.String = sema.NewNominalType(l.StringDecl)
}

func (l *StandardLibrary) declareCollections() {
	element := sema.NewGenericParamType("Element", 0, 0)

	l.ArrayIteratorDecl = &sema.NominalDecl{
		Location:      StandardLibraryLocation,
		Identifier:    "ArrayIterator",
		Kind:          sema.NominalKindStruct,
		GenericParams: []*sema.GenericParamType{element},
	}
	l.ArrayIteratorDecl.Conformances = []*sema.NominalConformance{
		{
			Protocol: l.IteratorProtocol,
			TypeWitnesses: map[string]sema.Type{
				"Element": element,
			},
		},
	}

	l.ArraySliceDecl = &sema.NominalDecl{
		Location:      StandardLibraryLocation,
		Identifier:    "ArraySlice",
		Kind:          sema.NominalKindStruct,
		GenericParams: []*sema.GenericParamType{element},
	}
	l.ArraySliceDecl.Conformances = []*sema.NominalConformance{
		{
			Protocol: l.Collection,
			TypeWitnesses: map[string]sema.Type{
				"Element":     element,
				"Iterator":    sema.NewNominalType(l.ArrayIteratorDecl, element),
				"SubSequence": sema.NewNominalType(l.ArraySliceDecl, element),
			},
		},
	}

	l.ArrayDecl = &sema.NominalDecl{
		Location:      StandardLibraryLocation,
		Identifier:    "Array",
		Kind:          sema.NominalKindStruct,
		GenericParams: []*sema.GenericParamType{element},
	}
	l.ArrayDecl.Conformances = []*sema.NominalConformance{
		{
			Protocol: l.Collection,
			TypeWitnesses: map[string]sema.Type{
				"Element":     element,
				"Iterator":    sema.NewNominalType(l.ArrayIteratorDecl, element),
				"SubSequence": sema.NewNominalType(l.ArraySliceDecl, element),
			},
		},
	}

	// struct Set<Element: Hashable>: Sequence
	l.SetDecl = &sema.NominalDecl{
		Location:      StandardLibraryLocation,
		Identifier:    "Set",
		Kind:          sema.NominalKindStruct,
		GenericParams: []*sema.GenericParamType{element},
		Requirements: []sema.Requirement{
			sema.NewConformanceRequirement(element, l.Hashable),
		},
	}
	l.SetDecl.Conformances = []*sema.NominalConformance{
		{
			Protocol: l.Sequence,
			TypeWitnesses: map[string]sema.Type{
				"Element":  element,
				"Iterator": sema.NewNominalType(l.ArrayIteratorDecl, element),
			},
		},
	}

	// struct Dictionary<Key: Hashable, Value>
	key := sema.NewGenericParamType("Key", 0, 0)
	value := sema.NewGenericParamType("Value", 0, 1)
	l.DictionaryDecl = &sema.NominalDecl{
		Location:      StandardLibraryLocation,
		Identifier:    "Dictionary",
		Kind:          sema.NominalKindStruct,
		GenericParams: []*sema.GenericParamType{key, value},
		Requirements: []sema.Requirement{
			sema.NewConformanceRequirement(key, l.Hashable),
		},
	}
}

func (l *StandardLibrary) declareClasses() {
	l.BaseDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "Base",
		Kind:       sema.NominalKindClass,
		Conformances: []*sema.NominalConformance{
			{Protocol: l.Equatable},
			{Protocol: l.Object},
		},
	}
	l.Base = sema.NewNominalType(l.BaseDecl)

	l.DerivedDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "Derived",
		Kind:       sema.NominalKindClass,
		Superclass: l.Base,
		Conformances: []*sema.NominalConformance{
			{Protocol: l.Hashable},
		},
	}
	l.Derived = sema.NewNominalType(l.DerivedDecl)

	l.OtherDecl = &sema.NominalDecl{
		Location:   StandardLibraryLocation,
		Identifier: "Other",
		Kind:       sema.NominalKindClass,
	}
	l.Other = sema.NewNominalType(l.OtherDecl)
}

func (l *StandardLibrary) Array(element sema.Type) *sema.NominalType {
	return sema.NewNominalType(l.ArrayDecl, element)
}

func (l *StandardLibrary) Set(element sema.Type) *sema.NominalType {
	return sema.NewNominalType(l.SetDecl, element)
}

func (l *StandardLibrary) Dictionary(key, value sema.Type) *sema.NominalType {
	return sema.NewNominalType(l.DictionaryDecl, key, value)
}

// Member returns the dependent member type `base.name`,
// referring to the associated type declared in the given protocol.
func Member(base sema.Type, protocol *sema.ProtocolType, name string) *sema.DependentMemberType {
	return sema.NewDependentMemberType(base, protocol.AssociatedType(name))
}

// GenericParams returns generic parameters at depth 0, with the given names.
func GenericParams(names ...string) []*sema.GenericParamType {
	params := make([]*sema.GenericParamType, len(names))
	for i, name := range names {
		params[i] = sema.NewGenericParamType(name, 0, uint(i))
	}
	return params
}
