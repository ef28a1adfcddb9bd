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
	. "github.com/onflow/generics/test_utils/sema_utils"
)

func TestConformanceAccessPath(t *testing.T) {

	t.Parallel()

	type testCase struct {
		name     string
		protocol func(std *StandardLibrary) *sema.ProtocolType
		subject  func(std *StandardLibrary, T sema.Type) sema.Type
		target   func(std *StandardLibrary) *sema.ProtocolType
		expected string
	}

	testCases := []testCase{
		{
			name: "explicit",
			protocol: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Hashable
			},
			subject: func(_ *StandardLibrary, T sema.Type) sema.Type {
				return T
			},
			target: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Hashable
			},
			expected: "(T: Hashable)",
		},
		{
			name: "inherited protocol",
			protocol: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Comparable
			},
			subject: func(_ *StandardLibrary, T sema.Type) sema.Type {
				return T
			},
			target: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Equatable
			},
			expected: "(T: Comparable) -> (Self: Equatable)",
		},
		{
			name: "associated type",
			protocol: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Sequence
			},
			subject: func(std *StandardLibrary, T sema.Type) sema.Type {
				return Member(T, std.Sequence, "Iterator")
			},
			target: func(std *StandardLibrary) *sema.ProtocolType {
				return std.IteratorProtocol
			},
			expected: "(T: Sequence) -> (Self.Iterator: IteratorProtocol)",
		},
		{
			name: "associated type of inherited protocol",
			protocol: func(std *StandardLibrary) *sema.ProtocolType {
				return std.Collection
			},
			subject: func(std *StandardLibrary, T sema.Type) sema.Type {
				return Member(T, std.Sequence, "Iterator")
			},
			target: func(std *StandardLibrary) *sema.ProtocolType {
				return std.IteratorProtocol
			},
			expected: "(T: Collection) -> (Self: Sequence) -> (Self.Iterator: IteratorProtocol)",
		},
	}

	test := func(t *testing.T, testCase testCase, withCache bool) {
		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		config := &sema.Config{}
		if withCache {
			config.ProtocolSignatures = sema.NewProtocolSignatureCache(config)
		}

		signature := ComputeSignature(config, params,
			sema.NewConformanceRequirement(T, testCase.protocol(std)),
		)
		RequireValidSignature(t, signature)

		path, err := signature.GetConformanceAccessPath(
			testCase.subject(std, T),
			testCase.target(std),
		)
		require.NoError(t, err)
		assert.Equal(t, testCase.expected, path.String())

		// paths are memoized
		again, err := signature.GetConformanceAccessPath(
			testCase.subject(std, T),
			testCase.target(std),
		)
		require.NoError(t, err)
		assert.Same(t, path, again)
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			t.Run("without cache", func(t *testing.T) {
				t.Parallel()
				test(t, testCase, false)
			})

			t.Run("with cache", func(t *testing.T) {
				t.Parallel()
				test(t, testCase, true)
			})
		})
	}
}

func TestConformanceAccessPathOfEquivalentTypes(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	signature := ComputeSignature(nil, params,
		sema.NewConformanceRequirement(T, std.Collection),
	)
	RequireValidSignature(t, signature)

	path, err := signature.GetConformanceAccessPath(
		Member(T, std.Collection, "SubSequence"),
		std.Sequence,
	)
	require.NoError(t, err)

	require.Equal(t, 3, path.Len())
	assert.Equal(t, "(T: Collection) -> (Self.SubSequence: Collection) -> (Self: Sequence)", path.String())
}

func TestConformanceAccessPathMissingConformance(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	signature := ComputeSignature(nil, params,
		sema.NewConformanceRequirement(T, std.Sequence),
	)
	RequireValidSignature(t, signature)

	_, err := signature.GetConformanceAccessPath(T, std.Hashable)

	var missingErr *sema.MissingConformanceError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, std.Hashable, missingErr.Protocol)
}
