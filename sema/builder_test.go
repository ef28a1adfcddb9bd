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

package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/generics/sema"
	. "github.com/onflow/generics/test_utils/common_utils"
	. "github.com/onflow/generics/test_utils/sema_utils"
)

func TestBuilderConformanceRequirements(t *testing.T) {

	t.Parallel()

	t.Run("single", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Equatable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Equatable"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Empty(t, signature.RedundantRequirements())
	})

	t.Run("inherited protocol is redundant", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Comparable),
			sema.NewConformanceRequirement(T, std.Equatable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Comparable"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Equatable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("inherited protocol first", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Equatable),
			sema.NewConformanceRequirement(T, std.Comparable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Comparable"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Equatable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Hashable),
			sema.NewConformanceRequirement(T, std.Hashable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Hashable"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Hashable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("sorted by protocol", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Sequence),
			sema.NewConformanceRequirement(T, std.Hashable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Hashable", "T: Sequence"},
			RequirementStrings(signature.Requirements()),
		)
	})
}

func TestBuilderTransitiveExpansion(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	signature := ComputeSignature(nil, params,
		sema.NewConformanceRequirement(T, std.Collection),
	)

	RequireValidSignature(t, signature)
	assert.Equal(t,
		[]string{"T: Collection"},
		RequirementStrings(signature.Requirements()),
	)

	element := Member(T, std.Sequence, "Element")
	iterator := Member(T, std.Sequence, "Iterator")
	iteratorElement := Member(iterator, std.IteratorProtocol, "Element")
	subSequence := Member(T, std.Collection, "SubSequence")
	subSequenceElement := Member(subSequence, std.Sequence, "Element")

	t.Run("inherited protocols", func(t *testing.T) {
		t.Parallel()

		assert.True(t, signature.ConformsToProtocol(T, std.Collection))
		assert.True(t, signature.ConformsToProtocol(T, std.Sequence))
		assert.False(t, signature.ConformsToProtocol(T, std.Equatable))

		assert.Equal(t,
			[]*sema.ProtocolType{std.Collection, std.Sequence},
			signature.GetConformsTo(T),
		)
	})

	t.Run("associated type bounds", func(t *testing.T) {
		t.Parallel()

		assert.True(t, signature.ConformsToProtocol(iterator, std.IteratorProtocol))
		assert.True(t, signature.ConformsToProtocol(subSequence, std.Collection))
		assert.True(t, signature.ConformsToProtocol(subSequence, std.Sequence))
	})

	t.Run("same-type requirements of protocols", func(t *testing.T) {
		t.Parallel()

		assert.True(t, signature.AreSameTypeParametersInContext(iteratorElement, element))
		assert.True(t, signature.AreSameTypeParametersInContext(subSequenceElement, element))
		assert.False(t, signature.AreSameTypeParametersInContext(iterator, element))

		canonical := signature.GetCanonicalTypeInContext(subSequenceElement)
		assert.True(t, canonical.Equal(element), "%s", canonical)
		assert.True(t, signature.IsCanonicalTypeInContext(element))
		assert.False(t, signature.IsCanonicalTypeInContext(iteratorElement))
	})

	t.Run("recursive associated types", func(t *testing.T) {
		t.Parallel()

		nested := Member(subSequence, std.Collection, "SubSequence")
		assert.True(t, signature.AreSameTypeParametersInContext(nested, subSequence))
		assert.True(t, signature.IsValidTypeInContext(Member(nested, std.Collection, "SubSequence")))
	})

	t.Run("unknown member", func(t *testing.T) {
		t.Parallel()

		assert.False(t, signature.IsValidTypeInContext(sema.NewUnresolvedDependentMemberType(T, "Index")))
	})
}

func TestBuilderSameTypeRequirements(t *testing.T) {

	t.Parallel()

	t.Run("nested types", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Sequence),
			sema.NewConformanceRequirement(U, std.Sequence),
			sema.NewSameTypeRequirement(
				Member(T, std.Sequence, "Element"),
				Member(U, std.Sequence, "Element"),
			),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T: Sequence",
				"U: Sequence",
				"T.Element == U.Element",
			},
			RequirementStrings(signature.Requirements()),
		)

		assert.True(t,
			signature.AreSameTypeParametersInContext(
				Member(Member(U, std.Sequence, "Iterator"), std.IteratorProtocol, "Element"),
				Member(T, std.Sequence, "Element"),
			),
		)
	})

	t.Run("generic parameters", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(U, T),
			sema.NewConformanceRequirement(U, std.Hashable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T: Hashable",
				"T == U",
			},
			RequirementStrings(signature.Requirements()),
		)

		assert.True(t, signature.ConformsToProtocol(T, std.Hashable))
		assert.True(t, signature.GetCanonicalTypeInContext(U).Equal(T))
	})

	t.Run("redundant same-type requirement", func(t *testing.T) {
		t.Parallel()

		params := GenericParams("T", "U", "V")
		T, U, V := params[0], params[1], params[2]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, U),
			sema.NewSameTypeRequirement(U, V),
			sema.NewSameTypeRequirement(T, V),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T == U",
				"U == V",
			},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T == V"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("redundant same-type requirement, written first", func(t *testing.T) {
		t.Parallel()

		params := GenericParams("T", "U", "V")
		T, U, V := params[0], params[1], params[2]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, V),
			sema.NewSameTypeRequirement(U, V),
			sema.NewSameTypeRequirement(T, U),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T == U",
				"U == V",
			},
			RequirementStrings(signature.Requirements()),
		)
		// later requirements connecting already connected types are redundant
		assert.Equal(t,
			[]string{"T == U"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("nested type name match", func(t *testing.T) {
		t.Parallel()

		P := sema.NewProtocolType(TestLocation, "P")
		P.AddAssociatedType("A")
		Q := sema.NewProtocolType(TestLocation, "Q")
		Q.AddAssociatedType("A")

		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, P),
			sema.NewConformanceRequirement(T, Q),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: P", "T: Q"},
			RequirementStrings(signature.Requirements()),
		)

		assert.True(t,
			signature.AreSameTypeParametersInContext(
				Member(T, P, "A"),
				Member(T, Q, "A"),
			),
		)

		canonical := signature.GetCanonicalTypeInContext(Member(T, Q, "A"))
		require.IsType(t, &sema.DependentMemberType{}, canonical)
		assert.Equal(t, P, canonical.(*sema.DependentMemberType).AssociatedType.Protocol)
	})
}

func TestBuilderConcreteTypes(t *testing.T) {

	t.Parallel()

	t.Run("binding", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(U, std.Array(T)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"U == Array<T>"},
			RequirementStrings(signature.Requirements()),
		)

		concreteType := signature.GetConcreteType(U)
		require.NotNil(t, concreteType)
		assert.True(t, concreteType.Equal(std.Array(T)))
		assert.Nil(t, signature.GetConcreteType(T))
	})

	t.Run("conformance of concrete type is redundant", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Int),
			sema.NewConformanceRequirement(T, std.Comparable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T == Int"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Comparable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("type witnesses", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("C")
		C := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(C, std.Collection),
			sema.NewSameTypeRequirement(C, std.Array(std.Int)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"C == Array<Int>"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"C: Collection"},
			RequirementStrings(signature.RedundantRequirements()),
		)

		element := signature.GetCanonicalTypeInContext(Member(C, std.Sequence, "Element"))
		assert.True(t, element.Equal(std.Int), "%s", element)
	})

	t.Run("nested type bound before concrete type", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("C")
		C := params[0]

		element := Member(C, std.Sequence, "Element")

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(C, std.Sequence),
			sema.NewConformanceRequirement(element, std.Hashable),
			sema.NewSameTypeRequirement(C, std.Array(std.Int)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"C == Array<Int>"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"C: Sequence", "C.Element: Hashable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})

	t.Run("structural decomposition", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U", "V")
		T, U, V := params[0], params[1], params[2]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(V, std.Dictionary(T, std.Int)),
			sema.NewSameTypeRequirement(V, std.Dictionary(std.String, U)),
		)

		RequireValidSignature(t, signature)
		assert.True(t, signature.GetCanonicalTypeInContext(T).Equal(std.String))
		assert.True(t, signature.GetCanonicalTypeInContext(U).Equal(std.Int))
		assert.Empty(t, signature.RedundantRequirements())
	})

	t.Run("decomposed concrete type", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Array(U)),
			sema.NewSameTypeRequirement(T, std.Array(std.Int)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T == Array<Int>",
				"U == Int",
			},
			RequirementStrings(signature.Requirements()),
		)
		// the second requirement is the only source of `U == Int`
		assert.Empty(t, signature.RedundantRequirements())
	})

	t.Run("decomposed concrete type, components written", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Array(U)),
			sema.NewSameTypeRequirement(U, std.Int),
			sema.NewSameTypeRequirement(T, std.Array(std.Int)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{
				"T == Array<Int>",
				"U == Int",
			},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T == Array<Int>"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})
}

func TestBuilderSuperclassRequirements(t *testing.T) {

	t.Parallel()

	t.Run("more derived superclass", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Derived),
			sema.NewSuperclassRequirement(T, std.Base),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Derived"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Base"},
			RequirementStrings(signature.RedundantRequirements()),
		)

		superclass := signature.GetSuperclassBound(T)
		require.NotNil(t, superclass)
		assert.True(t, superclass.Equal(std.Derived))
		assert.Equal(t, sema.NativeClassLayoutConstraint, signature.GetLayoutConstraint(T))
	})

	t.Run("conformance of superclass", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Base),
			sema.NewConformanceRequirement(T, std.Equatable),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Base"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Equatable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
		assert.True(t, signature.ConformsToProtocol(T, std.Equatable))
	})

	t.Run("conformance of superclass, written first", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Equatable),
			sema.NewSuperclassRequirement(T, std.Base),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Base"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: Equatable"},
			RequirementStrings(signature.RedundantRequirements()),
		)
		assert.True(t, signature.ConformsToProtocol(T, std.Equatable))
	})

	t.Run("conformances inherited from superclass", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Derived),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Derived"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Empty(t, signature.RedundantRequirements())

		// declared by Derived, refined by Hashable, and declared by Base
		assert.True(t, signature.ConformsToProtocol(T, std.Hashable))
		assert.True(t, signature.ConformsToProtocol(T, std.Equatable))
		assert.True(t, signature.ConformsToProtocol(T, std.Object))
		assert.False(t, signature.ConformsToProtocol(T, std.Sequence))

		assert.ElementsMatch(t,
			[]*sema.ProtocolType{std.Equatable, std.Hashable, std.Object},
			signature.GetConformsTo(T),
		)

		path, err := signature.GetConformanceAccessPath(T, std.Equatable)
		require.NoError(t, err)
		assert.Equal(t, "(T: Equatable)", path.String())
	})
}

func TestBuilderLayoutRequirements(t *testing.T) {

	t.Parallel()

	t.Run("class-bound protocol", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Object),
			sema.NewLayoutRequirement(T, sema.ClassLayoutConstraint),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: Object"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: AnyObject"},
			RequirementStrings(signature.RedundantRequirements()),
		)
		assert.Equal(t, sema.ClassLayoutConstraint, signature.GetLayoutConstraint(T))
	})

	t.Run("merged trivial layouts", func(t *testing.T) {
		t.Parallel()

		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewLayoutRequirement(T, sema.NewTrivialOfAtMostSizeLayoutConstraint(64)),
			sema.NewLayoutRequirement(T, sema.NewTrivialOfExactSizeLayoutConstraint(32)),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T: _Trivial(32)"},
			RequirementStrings(signature.Requirements()),
		)
		assert.Equal(t,
			[]string{"T: _TrivialAtMost(64)"},
			RequirementStrings(signature.RedundantRequirements()),
		)
	})
}

func TestBuilderInferredRequirements(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T", "U")
	T, U := params[0], params[1]

	builder := sema.NewGenericSignatureBuilder(nil)
	builder.AddGenericParameter(T)
	builder.AddGenericParameter(U)
	result := builder.AddRequirement(sema.NewSameTypeRequirement(U, std.Set(T)), true)
	assert.Equal(t, sema.ConstraintResultResolved, result)

	signature := builder.ComputeGenericSignature(true, nil)

	RequireValidSignature(t, signature)
	assert.Equal(t,
		[]string{
			"T: Hashable",
			"U == Set<T>",
		},
		RequirementStrings(signature.Requirements()),
	)
}

func TestBuilderInferRequirementsOfType(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("K", "V")
	K, V := params[0], params[1]

	builder := sema.NewGenericSignatureBuilder(nil)
	builder.AddGenericParameter(K)
	builder.AddGenericParameter(V)

	result := builder.InferRequirements(std.Array(std.Dictionary(K, V)))
	assert.Equal(t, sema.ConstraintResultResolved, result)
	assert.Empty(t, builder.WrittenRequirements())

	signature := builder.ComputeGenericSignature(false, nil)

	RequireValidSignature(t, signature)
	assert.Equal(t,
		[]string{"K: Hashable"},
		RequirementStrings(signature.Requirements()),
	)
	assert.Empty(t, signature.RedundantRequirements())
}

func TestBuilderOuterSignature(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()

	outer := ComputeSignature(nil, GenericParams("T"),
		sema.NewConformanceRequirement(GenericParams("T")[0], std.Hashable),
	)
	RequireValidSignature(t, outer)

	T := outer.Params()[0]
	U := sema.NewGenericParamType("U", 1, 0)

	builder := sema.NewGenericSignatureBuilder(nil)
	builder.AddGenericSignature(outer)
	builder.AddGenericParameter(U)
	builder.AddRequirement(sema.NewConformanceRequirement(U, std.Sequence), false)
	builder.AddRequirement(sema.NewSameTypeRequirement(Member(U, std.Sequence, "Element"), T), false)
	builder.AddRequirement(sema.NewConformanceRequirement(T, std.Equatable), false)

	signature := builder.ComputeGenericSignature(false, nil)

	RequireValidSignature(t, signature)
	assert.Equal(t,
		[]string{
			"T: Hashable",
			"T == U.Element",
			"U: Sequence",
		},
		RequirementStrings(signature.Requirements()),
	)
	assert.Equal(t,
		[]string{"T: Equatable"},
		RequirementStrings(signature.RedundantRequirements()),
	)
}

func TestBuilderUsedAfterComputingSignature(t *testing.T) {

	t.Parallel()

	params := GenericParams("T")

	builder := sema.NewGenericSignatureBuilder(nil)
	builder.AddGenericParameter(params[0])
	_ = builder.ComputeGenericSignature(false, nil)

	assert.Panics(t, func() {
		builder.AddGenericParameter(sema.NewGenericParamType("U", 0, 1))
	})
}
