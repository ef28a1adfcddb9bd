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

	"github.com/onflow/generics/errors"
	"github.com/onflow/generics/sema"
	. "github.com/onflow/generics/test_utils/common_utils"
	. "github.com/onflow/generics/test_utils/sema_utils"
)

func TestConflictingRequirements(t *testing.T) {

	t.Parallel()

	t.Run("concrete types", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Int),
			sema.NewSameTypeRequirement(T, std.String),
			sema.NewSameTypeRequirement(T, std.String),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var conflictErr *sema.ConflictingConcreteTypeRequirementsError
		require.ErrorAs(t, errs[0], &conflictErr)
		assert.True(t, conflictErr.FirstType.Equal(std.Int))
		assert.True(t, conflictErr.SecondType.Equal(std.String))
		assert.True(t, signature.IsInvalid())
	})

	t.Run("decomposed concrete types", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Array(std.String)),
			sema.NewSameTypeRequirement(T, std.Array(std.Int)),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var conflictErr *sema.ConflictingConcreteTypeRequirementsError
		require.ErrorAs(t, errs[0], &conflictErr)
		assert.Equal(t,
			"`T` cannot be equal to both `Array<String>` and `Array<Int>`",
			conflictErr.Error(),
		)
		assert.Equal(t,
			"`String` and `Int` differ",
			conflictErr.SecondaryError(),
		)
		require.NotNil(t, conflictErr.SecondSource)
		assert.True(t, conflictErr.SecondSource.IsWritten())
	})

	t.Run("unequal concrete types", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(std.Int, std.String),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var conflictErr *sema.ConflictingConcreteTypeRequirementsError
		require.ErrorAs(t, errs[0], &conflictErr)
		assert.Equal(t, "`Int` cannot be equal to `String`", conflictErr.Error())
		assert.Empty(t, conflictErr.SecondaryError())
	})

	t.Run("superclasses", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Base),
			sema.NewSuperclassRequirement(T, std.Other),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.ConflictingSuperclassRequirementsError{}, errs[0])
	})

	t.Run("layouts", func(t *testing.T) {
		t.Parallel()

		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewLayoutRequirement(T, sema.NewTrivialOfExactSizeLayoutConstraint(64)),
			sema.NewLayoutRequirement(T, sema.ClassLayoutConstraint),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var layoutErr *sema.ConflictingLayoutRequirementsError
		require.ErrorAs(t, errs[0], &layoutErr)
		assert.Equal(t, sema.NewTrivialOfExactSizeLayoutConstraint(64), layoutErr.FirstLayout)
		assert.Equal(t, sema.ClassLayoutConstraint, layoutErr.SecondLayout)
	})
}

func TestConcreteTypeMismatch(t *testing.T) {

	t.Parallel()

	t.Run("conformance", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Int),
			sema.NewConformanceRequirement(T, std.Sequence),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var conformanceErr *sema.ConcreteTypeConformanceError
		require.ErrorAs(t, errs[0], &conformanceErr)
		assert.Equal(t, std.Sequence, conformanceErr.Protocol)
		assert.True(t, conformanceErr.ConcreteType.Equal(std.Int))
	})

	t.Run("superclass", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Base),
			sema.NewSuperclassRequirement(T, std.Derived),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.ConcreteTypeSuperclassError{}, errs[0])
	})

	t.Run("layout", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewLayoutRequirement(T, sema.ClassLayoutConstraint),
			sema.NewSameTypeRequirement(T, std.Int),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.ConcreteTypeLayoutError{}, errs[0])
	})

	t.Run("superclass before concrete type", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		// Base lacks the Hashable conformance inherited from Derived,
		// only the superclass mismatch is reported
		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Derived),
			sema.NewSameTypeRequirement(T, std.Base),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.ConcreteTypeSuperclassError{}, errs[0])
	})

	t.Run("subclass satisfies superclass", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Derived),
			sema.NewSuperclassRequirement(T, std.Base),
		)

		RequireValidSignature(t, signature)
		assert.Equal(t,
			[]string{"T == Derived"},
			RequirementStrings(signature.Requirements()),
		)
	})
}

func TestInvalidRequirements(t *testing.T) {

	t.Parallel()

	t.Run("recursive concrete type", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSameTypeRequirement(T, std.Array(T)),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.RecursiveConcreteTypeError{}, errs[0])
		assert.Empty(t, signature.Requirements())
	})

	t.Run("superclass is not a class", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewSuperclassRequirement(T, std.Int),
		)

		errs := RequireSignatureErrors(t, signature, 1)
		require.IsType(t, &sema.InvalidSuperclassRequirementError{}, errs[0])
	})

	t.Run("unknown associated type", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		signature := ComputeSignature(nil, params,
			sema.NewConformanceRequirement(T, std.Sequence),
			sema.NewConformanceRequirement(
				sema.NewUnresolvedDependentMemberType(T, "Elemnt"),
				std.Hashable,
			),
		)

		errs := RequireSignatureErrors(t, signature, 1)

		var unresolvedErr *sema.UnresolvedRequirementError
		require.ErrorAs(t, errs[0], &unresolvedErr)
		assert.Equal(t, "Elemnt", unresolvedErr.MemberName)
		assert.ElementsMatch(t, []string{"Element", "Iterator"}, unresolvedErr.Candidates)
		assert.Equal(t,
			"unknown associated type `Elemnt`, did you mean `Element`?",
			unresolvedErr.SecondaryError(),
		)

		assert.Equal(t,
			[]string{"T: Sequence"},
			RequirementStrings(signature.Requirements()),
		)
	})

	t.Run("concrete generic parameter", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		builder := sema.NewGenericSignatureBuilder(nil)
		builder.AddGenericParameter(T)
		builder.AddRequirement(sema.NewSameTypeRequirement(T, std.Int), false)

		signature := builder.ComputeGenericSignature(false, nil)

		errs := RequireSignatureErrors(t, signature, 1)

		var concreteErr *sema.ConcreteGenericParameterError
		require.ErrorAs(t, errs[0], &concreteErr)
		assert.Equal(t, T, concreteErr.Param)
		assert.Len(t, concreteErr.ErrorNotes(), 1)
	})
}

func TestBuilderErrorsAreUserErrors(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	signature := ComputeSignature(nil, params,
		sema.NewSameTypeRequirement(T, std.Int),
		sema.NewSameTypeRequirement(T, std.Bool),
	)

	err := signature.Err()
	require.Error(t, err)

	var builderErr sema.BuilderError
	require.ErrorAs(t, err, &builderErr)
	require.Len(t, builderErr.ChildErrors(), 1)

	assert.True(t, errors.IsUserError(builderErr.ChildErrors()[0]))
	assert.ErrorAs(t, err, new(*sema.ConflictingConcreteTypeRequirementsError))
}

func TestRedundancyWarnings(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	config := &sema.Config{
		RedundancyWarningsEnabled: true,
	}

	signature := ComputeSignature(config, params,
		sema.NewConformanceRequirement(T, std.Hashable),
		sema.NewConformanceRequirement(T, std.Equatable),
	)

	RequireValidSignature(t, signature)

	warnings := signature.Warnings()
	require.Len(t, warnings, 1)

	var redundantErr *sema.RedundantRequirementError
	require.ErrorAs(t, warnings[0], &redundantErr)
	assert.Equal(t, "T: Equatable", redundantErr.Requirement.String())
	assert.Equal(t, "redundant requirement `T: Equatable`", redundantErr.Error())
}

func TestBuilderLimits(t *testing.T) {

	t.Parallel()

	P := sema.NewProtocolType(TestLocation, "P")
	P.AddAssociatedType("A", P)
	P.AddAssociatedType("B", P)

	params := GenericParams("T")
	T := params[0]

	config := &sema.Config{
		MaxPotentialArchetypes: 2,
	}

	builder := sema.NewGenericSignatureBuilder(config)
	builder.AddGenericParameter(T)

	assert.PanicsWithValue(t,
		sema.PotentialArchetypeLimitError{Limit: 2},
		func() {
			A := sema.NewUnresolvedDependentMemberType(T, "A")
			B := sema.NewUnresolvedDependentMemberType(T, "B")
			builder.AddRequirement(sema.NewConformanceRequirement(T, P), false)
			builder.AddRequirement(sema.NewSameTypeRequirement(
				sema.NewUnresolvedDependentMemberType(A, "B"),
				sema.NewUnresolvedDependentMemberType(B, "A"),
			), false)
		},
	)
}

func TestDelayedRequirementLimit(t *testing.T) {

	t.Parallel()

	newBuilder := func(config *sema.Config) *sema.GenericSignatureBuilder {
		P := sema.NewProtocolType(TestLocation, "P")
		P.AddAssociatedType("A", P)
		Q := sema.NewProtocolType(TestLocation, "Q")

		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		builder := sema.NewGenericSignatureBuilder(config)
		builder.AddGenericParameter(T)
		builder.AddGenericParameter(U)

		// `T.A` only resolves once `T == U.A` is resolved,
		// which in turn needs `U: P`
		builder.AddRequirement(sema.NewConformanceRequirement(
			sema.NewUnresolvedDependentMemberType(T, "A"),
			Q,
		), false)
		builder.AddRequirement(sema.NewSameTypeRequirement(
			T,
			sema.NewUnresolvedDependentMemberType(U, "A"),
		), false)
		builder.AddRequirement(sema.NewConformanceRequirement(U, P), false)

		return builder
	}

	t.Run("limit exceeded", func(t *testing.T) {
		t.Parallel()

		builder := newBuilder(&sema.Config{
			MaxDelayedRequirementIterations: 1,
		})

		require.PanicsWithValue(t,
			sema.DelayedRequirementLimitError{
				Iterations: 1,
				Remaining:  1,
			},
			func() {
				builder.ComputeGenericSignature(false, nil)
			},
		)
	})

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()

		builder := newBuilder(&sema.Config{
			MaxDelayedRequirementIterations: 2,
		})

		signature := builder.ComputeGenericSignature(false, nil)
		RequireValidSignature(t, signature)
	})
}

