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

package declfile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/generics/sema"
)

func loadStandardLibrary(t *testing.T) *Declarations {
	t.Helper()

	data, err := os.ReadFile("testdata/std.yaml")
	require.NoError(t, err)

	declarations, err := Load(data)
	require.NoError(t, err)

	return declarations
}

func TestLex(t *testing.T) {

	t.Parallel()

	t.Run("tokens", func(t *testing.T) {
		t.Parallel()

		tokens, err := lex("Array<T.Element> == (Int, _Trivial(64)) -> X")
		require.NoError(t, err)

		kinds := make([]tokenKind, len(tokens))
		for i, token := range tokens {
			kinds[i] = token.kind
		}

		assert.Equal(t,
			[]tokenKind{
				tokenKindIdentifier,
				tokenKindLess,
				tokenKindIdentifier,
				tokenKindDot,
				tokenKindIdentifier,
				tokenKindGreater,
				tokenKindEqualEqual,
				tokenKindParenOpen,
				tokenKindIdentifier,
				tokenKindComma,
				tokenKindIdentifier,
				tokenKindParenOpen,
				tokenKindInteger,
				tokenKindParenClose,
				tokenKindParenClose,
				tokenKindArrow,
				tokenKindIdentifier,
				tokenKindEOF,
			},
			kinds,
		)
	})

	t.Run("invalid character", func(t *testing.T) {
		t.Parallel()

		_, err := lex("Int $")
		require.EqualError(t, err, "unexpected character '$' at offset 4")
	})
}

func TestParseType(t *testing.T) {

	t.Parallel()

	declarations := loadStandardLibrary(t)

	T := sema.NewGenericParamType("T", 0, 0)
	scope := (&scope{declarations: declarations}).withParams(T)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		for input, expected := range map[string]string{
			"Int":                            "Int",
			"Array<Int>":                     "Array<Int>",
			"Dictionary<String, Array<T>>":   "Dictionary<String, Array<T>>",
			"(Int, Bool)":                    "(Int, Bool)",
			"(Int)":                          "Int",
			"(Int, T) -> Bool":               "fun(Int, T): Bool",
			"() -> ()":                       "fun(): ()",
			"T.Element.Index":                "T.Element.Index",
			" Array < T > ":                  "Array<T>",
			"Set<Dictionary<Int, (T, Int)>>": "Set<Dictionary<Int, (T, Int)>>",
		} {
			ty, err := parseType(input, scope)
			require.NoError(t, err, input)
			assert.Equal(t, expected, ty.String(), input)
		}
	})

	t.Run("unresolved member", func(t *testing.T) {
		t.Parallel()

		ty, err := parseType("T.Element", scope)
		require.NoError(t, err)

		require.IsType(t, &sema.DependentMemberType{}, ty)
		member := ty.(*sema.DependentMemberType)
		assert.Nil(t, member.AssociatedType)
		assert.Equal(t, "Element", member.Name)
		assert.Same(t, T, member.Base)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		for input, expected := range map[string]string{
			"Foo":             "cannot find type `Foo`",
			"Array":           "type `Array` expects 1 type arguments, got 0",
			"T<Int>":          "generic parameter `T` cannot have type arguments",
			"Equatable<Int>":  "protocol `Equatable` cannot have type arguments",
			"Array<Int":       "expected comma or closing angle bracket, got end of input",
			"(Int, Bool).Foo": "type `(Int, Bool)` has no member `Foo`",
			"Int Bool":        `unexpected "Bool"`,
			"T.":              "expected member name, got end of input",
			"Self":            "cannot find type `Self`",
		} {
			_, err := parseType(input, scope)
			assert.EqualError(t, err, expected, input)
		}
	})
}

func TestParseProtocolMember(t *testing.T) {

	t.Parallel()

	declarations := loadStandardLibrary(t)

	sequence := declarations.Protocol("Sequence")
	iteratorProtocol := declarations.Protocol("IteratorProtocol")
	collection := declarations.Protocol("Collection")

	t.Run("Self member", func(t *testing.T) {
		t.Parallel()

		ty, err := parseType("Self.Iterator.Element", &scope{
			declarations: declarations,
			protocol:     sequence,
		})
		require.NoError(t, err)

		require.IsType(t, &sema.DependentMemberType{}, ty)
		member := ty.(*sema.DependentMemberType)
		assert.Same(t, iteratorProtocol.AssociatedType("Element"), member.AssociatedType)

		require.IsType(t, &sema.DependentMemberType{}, member.Base)
		base := member.Base.(*sema.DependentMemberType)
		assert.Same(t, sequence.AssociatedType("Iterator"), base.AssociatedType)
		assert.Same(t, sema.ProtocolSelfType, base.Base)
	})

	t.Run("inherited associated type", func(t *testing.T) {
		t.Parallel()

		ty, err := parseType("Self.SubSequence.Element", &scope{
			declarations: declarations,
			protocol:     collection,
		})
		require.NoError(t, err)

		require.IsType(t, &sema.DependentMemberType{}, ty)
		member := ty.(*sema.DependentMemberType)
		assert.Same(t, sequence.AssociatedType("Element"), member.AssociatedType)
	})

	t.Run("loaded requirements", func(t *testing.T) {
		t.Parallel()

		require.Len(t, sequence.Requirements, 1)
		assert.Equal(t, "Self.Iterator.Element == Self.Element", sequence.Requirements[0].String())

		require.Len(t, collection.Requirements, 2)
		assert.Equal(t, "Self.SubSequence.Element == Self.Element", collection.Requirements[0].String())
		assert.Equal(t, "Self.SubSequence.SubSequence == Self.SubSequence", collection.Requirements[1].String())
	})
}

func TestParseRequirement(t *testing.T) {

	t.Parallel()

	declarations := loadStandardLibrary(t)

	T := sema.NewGenericParamType("T", 0, 0)
	scope := (&scope{declarations: declarations}).withParams(T)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			input    string
			expected string
			kind     sema.RequirementKind
		}

		for _, testCase := range []testCase{
			{"T: Hashable", "T: Hashable", sema.RequirementKindConformance},
			{"T.Element: Comparable", "T.Element: Comparable", sema.RequirementKindConformance},
			{"T: Base", "T: Base", sema.RequirementKindSuperclass},
			{"T: AnyObject", "T: AnyObject", sema.RequirementKindLayout},
			{"T: _NativeClass", "T: _NativeClass", sema.RequirementKindLayout},
			{"T: _Trivial", "T: _Trivial", sema.RequirementKindLayout},
			{"T: _Trivial(64)", "T: _Trivial(64)", sema.RequirementKindLayout},
			{"T: _TrivialAtMost(32)", "T: _TrivialAtMost(32)", sema.RequirementKindLayout},
			{"T == Array<Int>", "T == Array<Int>", sema.RequirementKindSameType},
			{"T.Element==Int", "T.Element == Int", sema.RequirementKindSameType},
		} {
			requirement, err := parseRequirement(testCase.input, scope)
			require.NoError(t, err, testCase.input)
			assert.Equal(t, testCase.expected, requirement.String(), testCase.input)
			assert.Equal(t, testCase.kind, requirement.Kind, testCase.input)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		for input, expected := range map[string]string{
			"T":                   "expected `:` or `==`, got end of input",
			"T: (Int, Bool)":      "`(Int, Bool)` is not a protocol, class, or layout",
			"T: _TrivialAtMost":   "layout `_TrivialAtMost` requires a size",
			"T: _Trivial(x)":      `expected size in bits, got "x"`,
			"T: _Trivial(64":      "expected closing parenthesis, got end of input",
			"T: Hashable, Object": `unexpected ","`,
		} {
			_, err := parseRequirement(input, scope)
			assert.EqualError(t, err, expected, input)
		}
	})
}

func TestParseLayoutConstraint(t *testing.T) {

	t.Parallel()

	layout, err := parseLayoutConstraint("_Trivial(64)")
	require.NoError(t, err)
	assert.Equal(t, sema.NewTrivialOfExactSizeLayoutConstraint(64), layout)

	layout, err = parseLayoutConstraint("AnyObject")
	require.NoError(t, err)
	assert.Equal(t, sema.ClassLayoutConstraint, layout)

	_, err = parseLayoutConstraint("Hashable")
	assert.EqualError(t, err, "unknown layout `Hashable`")

	for _, keyword := range layoutKeywords {
		assert.True(t, isLayoutKeyword(keyword), keyword)
	}
	assert.False(t, isLayoutKeyword("Trivial"))
	assert.False(t, isLayoutKeyword("anyobject"))
}
