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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/onflow/generics/sema"
	. "github.com/onflow/generics/test_utils/sema_utils"
)

func TestCompareTypes(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T", "U")
	T, U := params[0], params[1]

	element := Member(T, std.Sequence, "Element")
	iterator := Member(T, std.Sequence, "Iterator")
	iteratorElement := Member(iterator, std.IteratorProtocol, "Element")
	outer := sema.NewGenericParamType("V", 1, 0)

	types := []sema.Type{
		std.Array(std.Int),
		iteratorElement,
		outer,
		std.Int,
		Member(U, std.Sequence, "Element"),
		iterator,
		U,
		element,
		T,
	}

	sort.SliceStable(types, func(i, j int) bool {
		return sema.CompareTypes(types[i], types[j]) < 0
	})

	names := make([]string, len(types))
	for i, ty := range types {
		names[i] = ty.String()
	}

	assert.Equal(t,
		[]string{
			"T",
			"U",
			"V",
			"T.Element",
			"T.Iterator",
			"U.Element",
			"T.Iterator.Element",
			"Array<Int>",
			"Int",
		},
		names,
	)
}

func TestCompareRequirements(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T", "U")
	T, U := params[0], params[1]

	requirements := []sema.Requirement{
		sema.NewSameTypeRequirement(T, U),
		sema.NewConformanceRequirement(U, std.Sequence),
		sema.NewConformanceRequirement(T, std.Sequence),
		sema.NewConformanceRequirement(T, std.Hashable),
		sema.NewLayoutRequirement(T, sema.ClassLayoutConstraint),
		sema.NewSuperclassRequirement(T, std.Base),
	}

	sort.SliceStable(requirements, func(i, j int) bool {
		return sema.CompareRequirements(requirements[i], requirements[j]) < 0
	})

	assert.Equal(t,
		[]string{
			"T: Base",
			"T: AnyObject",
			"T: Hashable",
			"T: Sequence",
			"T == U",
			"U: Sequence",
		},
		RequirementStrings(requirements),
	)
}
