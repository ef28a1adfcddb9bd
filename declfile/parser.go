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
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/SaveTheRbtz/mph"

	"github.com/onflow/generics/sema"
)

type tokenKind uint8

const (
	tokenKindEOF tokenKind = iota
	tokenKindIdentifier
	tokenKindInteger
	tokenKindLess
	tokenKindGreater
	tokenKindParenOpen
	tokenKindParenClose
	tokenKindComma
	tokenKindDot
	tokenKindColon
	tokenKindEqualEqual
	tokenKindArrow
)

type token struct {
	value  string
	offset int
	kind   tokenKind
}

func (t token) String() string {
	if t.kind == tokenKindEOF {
		return "end of input"
	}
	return strconv.Quote(t.value)
}

func lex(input string) ([]token, error) {
	var tokens []token

	for offset := 0; offset < len(input); {
		r := rune(input[offset])

		switch {
		case unicode.IsSpace(r):
			offset++
			continue

		case r == '_' || unicode.IsLetter(r):
			end := offset + 1
			for end < len(input) {
				r := rune(input[end])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				end++
			}
			tokens = append(tokens, token{kind: tokenKindIdentifier, value: input[offset:end], offset: offset})
			offset = end
			continue

		case unicode.IsDigit(r):
			end := offset + 1
			for end < len(input) && unicode.IsDigit(rune(input[end])) {
				end++
			}
			tokens = append(tokens, token{kind: tokenKindInteger, value: input[offset:end], offset: offset})
			offset = end
			continue
		}

		var kind tokenKind
		length := 1

		switch {
		case strings.HasPrefix(input[offset:], "=="):
			kind, length = tokenKindEqualEqual, 2
		case strings.HasPrefix(input[offset:], "->"):
			kind, length = tokenKindArrow, 2
		case r == '<':
			kind = tokenKindLess
		case r == '>':
			kind = tokenKindGreater
		case r == '(':
			kind = tokenKindParenOpen
		case r == ')':
			kind = tokenKindParenClose
		case r == ',':
			kind = tokenKindComma
		case r == '.':
			kind = tokenKindDot
		case r == ':':
			kind = tokenKindColon
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, offset)
		}

		tokens = append(tokens, token{kind: kind, value: input[offset : offset+length], offset: offset})
		offset += length
	}

	return append(tokens, token{kind: tokenKindEOF, offset: len(input)}), nil
}

// scope resolves the names used in type expressions.
type scope struct {
	declarations *Declarations
	params       map[string]*sema.GenericParamType
	// protocol is the protocol whose Self is in scope, if any
	protocol *sema.ProtocolType
}

func (s *scope) withParams(params ...*sema.GenericParamType) *scope {
	result := &scope{
		declarations: s.declarations,
		protocol:     s.protocol,
		params:       make(map[string]*sema.GenericParamType, len(s.params)+len(params)),
	}
	for name, param := range s.params {
		result.params[name] = param
	}
	for _, param := range params {
		result.params[param.Name] = param
	}
	return result
}

type parser struct {
	scope  *scope
	tokens []token
	pos    int
}

func newParser(input string, scope *scope) (*parser, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	return &parser{
		tokens: tokens,
		scope:  scope,
	}, nil
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenKindEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if p.current().kind != kind {
		return false
	}
	p.next()
	return true
}

func (p *parser) expect(kind tokenKind, description string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s, got %s", description, t)
	}
	return t, nil
}

func (p *parser) expectEnd() error {
	if t := p.current(); t.kind != tokenKindEOF {
		return fmt.Errorf("unexpected %s", t)
	}
	return nil
}

// parseType parses a type expression:
//
//	Name
//	Name<Type, ...>
//	Type.Member
//	(Type, ...)
//	(Type, ...) -> Type
func (p *parser) parseType() (sema.Type, error) {
	var ty sema.Type
	var err error

	if p.current().kind == tokenKindParenOpen {
		ty, err = p.parseParenthesizedType()
	} else {
		ty, err = p.parseNamedType()
	}
	if err != nil {
		return nil, err
	}

	for p.accept(tokenKindDot) {
		name, err := p.expect(tokenKindIdentifier, "member name")
		if err != nil {
			return nil, err
		}
		ty, err = p.member(ty, name.value)
		if err != nil {
			return nil, err
		}
	}

	return ty, nil
}

func (p *parser) parseParenthesizedType() (sema.Type, error) {
	p.next()

	var elements []sema.Type
	if !p.accept(tokenKindParenClose) {
		for {
			element, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)

			if p.accept(tokenKindParenClose) {
				break
			}
			if _, err := p.expect(tokenKindComma, "comma or closing parenthesis"); err != nil {
				return nil, err
			}
		}
	}

	if p.accept(tokenKindArrow) {
		result, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return sema.NewFunctionType(result, elements...), nil
	}

	if len(elements) == 1 {
		return elements[0], nil
	}

	return sema.NewTupleType(elements...), nil
}

func (p *parser) parseNamedType() (sema.Type, error) {
	name, err := p.expect(tokenKindIdentifier, "type name")
	if err != nil {
		return nil, err
	}

	var arguments []sema.Type
	if p.accept(tokenKindLess) {
		for {
			argument, err := p.parseType()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, argument)

			if p.accept(tokenKindGreater) {
				break
			}
			if _, err := p.expect(tokenKindComma, "comma or closing angle bracket"); err != nil {
				return nil, err
			}
		}
	}

	return p.scope.resolve(name.value, arguments)
}

func (s *scope) resolve(name string, arguments []sema.Type) (sema.Type, error) {
	if param, ok := s.params[name]; ok {
		if len(arguments) > 0 {
			return nil, fmt.Errorf("generic parameter `%s` cannot have type arguments", name)
		}
		return param, nil
	}

	if name == sema.ProtocolSelfType.Name && s.protocol != nil {
		return sema.ProtocolSelfType, nil
	}

	if protocol, ok := s.declarations.protocols.Get(name); ok {
		if len(arguments) > 0 {
			return nil, fmt.Errorf("protocol `%s` cannot have type arguments", name)
		}
		return protocol, nil
	}

	if decl, ok := s.declarations.types.Get(name); ok {
		if len(arguments) != len(decl.GenericParams) {
			return nil, fmt.Errorf(
				"type `%s` expects %d type arguments, got %d",
				name,
				len(decl.GenericParams),
				len(arguments),
			)
		}
		return sema.NewNominalType(decl, arguments...), nil
	}

	return nil, fmt.Errorf("cannot find type `%s`", name)
}

// member returns the nested type of the base.
// Members of the protocol's Self, and of associated types with known bounds,
// refer to their associated type declarations. Other members are resolved by name.
func (p *parser) member(base sema.Type, name string) (sema.Type, error) {
	switch base.(type) {
	case *sema.GenericParamType, *sema.DependentMemberType, *sema.NominalType:
	default:
		return nil, fmt.Errorf("type `%s` has no member `%s`", base, name)
	}

	for _, protocol := range p.boundProtocols(base) {
		associatedTypes := protocol.LookupAssociatedTypes(name)
		if len(associatedTypes) > 0 {
			return sema.NewDependentMemberType(base, associatedTypes[0]), nil
		}
	}

	return sema.NewUnresolvedDependentMemberType(base, name), nil
}

func (p *parser) boundProtocols(ty sema.Type) []*sema.ProtocolType {
	switch ty := ty.(type) {
	case *sema.GenericParamType:
		if p.scope.protocol != nil && ty.Equal(sema.ProtocolSelfType) {
			return []*sema.ProtocolType{p.scope.protocol}
		}

	case *sema.DependentMemberType:
		if ty.AssociatedType != nil {
			return ty.AssociatedType.InheritedProtocols
		}
	}

	return nil
}

// parseRequirement parses a requirement:
//
//	Type: Protocol
//	Type: Class
//	Type: Layout
//	Type == Type
func (p *parser) parseRequirement() (sema.Requirement, error) {
	subject, err := p.parseType()
	if err != nil {
		return sema.Requirement{}, err
	}

	if p.accept(tokenKindEqualEqual) {
		other, err := p.parseType()
		if err != nil {
			return sema.Requirement{}, err
		}
		return sema.NewSameTypeRequirement(subject, other), nil
	}

	if _, err := p.expect(tokenKindColon, "`:` or `==`"); err != nil {
		return sema.Requirement{}, err
	}

	if layout, ok, err := p.parseLayout(); err != nil {
		return sema.Requirement{}, err
	} else if ok {
		return sema.NewLayoutRequirement(subject, layout), nil
	}

	constraint, err := p.parseType()
	if err != nil {
		return sema.Requirement{}, err
	}

	switch constraint := constraint.(type) {
	case *sema.ProtocolType:
		return sema.NewConformanceRequirement(subject, constraint), nil
	case *sema.NominalType:
		return sema.NewSuperclassRequirement(subject, constraint), nil
	}

	return sema.Requirement{}, fmt.Errorf("`%s` is not a protocol, class, or layout", constraint)
}

const (
	layoutKeywordAnyObject              = "AnyObject"
	layoutKeywordNativeClass            = "_NativeClass"
	layoutKeywordRefCountedObject       = "_RefCountedObject"
	layoutKeywordNativeRefCountedObject = "_NativeRefCountedObject"
	layoutKeywordTrivial                = "_Trivial"
	layoutKeywordTrivialAtMost          = "_TrivialAtMost"
)

// layoutKeywords cannot be used as names of declarations
var layoutKeywords = []string{
	layoutKeywordAnyObject,
	layoutKeywordNativeClass,
	layoutKeywordRefCountedObject,
	layoutKeywordNativeRefCountedObject,
	layoutKeywordTrivial,
	layoutKeywordTrivialAtMost,
}

var layoutKeywordsTable = mph.Build(layoutKeywords)

func isLayoutKeyword(name string) bool {
	_, ok := layoutKeywordsTable.Lookup(name)
	return ok
}

// parseLayout parses a layout constraint, if the current token names one.
func (p *parser) parseLayout() (sema.LayoutConstraint, bool, error) {
	name := p.current()
	if name.kind != tokenKindIdentifier || !isLayoutKeyword(name.value) {
		return sema.LayoutConstraint{}, false, nil
	}
	p.next()

	switch name.value {
	case layoutKeywordAnyObject:
		return sema.ClassLayoutConstraint, true, nil
	case layoutKeywordNativeClass:
		return sema.NativeClassLayoutConstraint, true, nil
	case layoutKeywordRefCountedObject:
		return sema.RefCountedObjectLayoutConstraint, true, nil
	case layoutKeywordNativeRefCountedObject:
		return sema.LayoutConstraint{Kind: sema.LayoutConstraintKindNativeRefCountedObject}, true, nil
	}

	if !p.accept(tokenKindParenOpen) {
		if name.value == layoutKeywordTrivialAtMost {
			return sema.LayoutConstraint{}, false, fmt.Errorf("layout `%s` requires a size", name.value)
		}
		return sema.TrivialLayoutConstraint, true, nil
	}

	sizeToken, err := p.expect(tokenKindInteger, "size in bits")
	if err != nil {
		return sema.LayoutConstraint{}, false, err
	}
	size, err := strconv.ParseUint(sizeToken.value, 10, 64)
	if err != nil {
		return sema.LayoutConstraint{}, false, err
	}
	if _, err := p.expect(tokenKindParenClose, "closing parenthesis"); err != nil {
		return sema.LayoutConstraint{}, false, err
	}

	if name.value == layoutKeywordTrivialAtMost {
		return sema.NewTrivialOfAtMostSizeLayoutConstraint(size), true, nil
	}
	return sema.NewTrivialOfExactSizeLayoutConstraint(size), true, nil
}

// parseType parses a complete type expression in the given scope.
func parseType(input string, scope *scope) (sema.Type, error) {
	p, err := newParser(input, scope)
	if err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return ty, nil
}

func parseRequirement(input string, scope *scope) (sema.Requirement, error) {
	p, err := newParser(input, scope)
	if err != nil {
		return sema.Requirement{}, err
	}
	requirement, err := p.parseRequirement()
	if err != nil {
		return sema.Requirement{}, err
	}
	if err := p.expectEnd(); err != nil {
		return sema.Requirement{}, err
	}
	return requirement, nil
}

// parseLayoutConstraint parses a complete layout constraint.
func parseLayoutConstraint(input string) (sema.LayoutConstraint, error) {
	p, err := newParser(input, nil)
	if err != nil {
		return sema.LayoutConstraint{}, err
	}
	layout, ok, err := p.parseLayout()
	if err != nil {
		return sema.LayoutConstraint{}, err
	}
	if !ok {
		return sema.LayoutConstraint{}, fmt.Errorf("unknown layout `%s`", input)
	}
	if err := p.expectEnd(); err != nil {
		return sema.LayoutConstraint{}, err
	}
	return layout, nil
}
