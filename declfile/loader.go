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
	"os"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	yamlparser "github.com/goccy/go-yaml/parser"

	"github.com/onflow/generics/common/orderedmap"
	"github.com/onflow/generics/errors"
	"github.com/onflow/generics/sema"
)

type protocolDecls = orderedmap.OrderedMap[string, *sema.ProtocolType]
type typeDecls = orderedmap.OrderedMap[string, *sema.NominalDecl]
type contextDecls = orderedmap.OrderedMap[string, *Context]

// Declarations are the protocols, types and generic contexts of a declaration file,
// in declaration order.
type Declarations struct {
	protocols *protocolDecls
	types     *typeDecls
	contexts  *contextDecls
	Location  string
}

func (d *Declarations) Protocol(name string) *sema.ProtocolType {
	protocol, _ := d.protocols.Get(name)
	return protocol
}

func (d *Declarations) Protocols() []*sema.ProtocolType {
	result := make([]*sema.ProtocolType, 0, d.protocols.Len())
	d.protocols.Foreach(func(_ string, protocol *sema.ProtocolType) {
		result = append(result, protocol)
	})
	return result
}

func (d *Declarations) TypeDecl(name string) *sema.NominalDecl {
	decl, _ := d.types.Get(name)
	return decl
}

func (d *Declarations) Context(name string) *Context {
	context, _ := d.contexts.Get(name)
	return context
}

func (d *Declarations) Contexts() []*Context {
	result := make([]*Context, 0, d.contexts.Len())
	d.contexts.Foreach(func(_ string, context *Context) {
		result = append(result, context)
	})
	return result
}

// Context is a generic context with the parameters and requirements written for it.
type Context struct {
	Outer        *Context
	Name         string
	Params       []*sema.GenericParamType
	Requirements []sema.Requirement
	// Queries are conformance requirements whose access paths are reported
	Queries             []sema.Requirement
	InferRequirements   bool
	AllowConcreteParams bool
}

// Signature computes the generic signature of the context,
// including the signatures of the enclosing contexts.
func (c *Context) Signature(config *sema.Config) *sema.GenericSignature {
	builder := sema.NewGenericSignatureBuilder(config)

	if c.Outer != nil {
		builder.AddGenericSignature(c.Outer.Signature(config))
	}

	for _, param := range c.Params {
		builder.AddGenericParameter(param)
	}

	for _, requirement := range c.Requirements {
		builder.AddRequirement(requirement, c.InferRequirements)
	}

	return builder.ComputeGenericSignature(c.AllowConcreteParams, nil)
}

func (c *Context) depth() uint {
	if c.Outer == nil {
		return 0
	}
	return c.Outer.depth() + 1
}

// LoadFile reads and loads the declaration file at the given path.
func LoadFile(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses the YAML declaration file and declares its contents.
// Declarations may refer to each other regardless of their order.
func Load(data []byte) (*Declarations, error) {
	var file File
	err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict())
	if err != nil {
		return nil, errors.NewDefaultUserError("invalid declaration file:\n%s", yaml.FormatError(err, false, true))
	}

	loader := &loader{
		file: &file,
		data: data,
		declarations: &Declarations{
			Location:  file.Location,
			protocols: orderedmap.New[protocolDecls](len(file.Protocols)),
			types:     orderedmap.New[typeDecls](len(file.Types)),
			contexts:  orderedmap.New[contextDecls](len(file.Contexts)),
		},
	}

	err = loader.load()
	if err != nil {
		return nil, err
	}

	return loader.declarations, nil
}

type loader struct {
	file         *File
	declarations *Declarations
	// ast is parsed lazily, for the positions of errors
	ast  *ast.File
	data []byte
}

func (l *loader) error(path string, err error) error {
	result := &Error{
		Err:  err,
		Path: path,
	}

	if l.ast == nil {
		file, parseErr := yamlparser.ParseBytes(l.data, 0)
		if parseErr != nil {
			return result
		}
		l.ast = file
	}

	yamlPath, pathErr := yaml.PathString(path)
	if pathErr != nil {
		return result
	}
	node, filterErr := yamlPath.FilterFile(l.ast)
	if filterErr != nil || node == nil {
		return result
	}

	position := node.GetToken().Position
	result.Line = position.Line
	result.Column = position.Column
	return result
}

func (l *loader) load() error {
	// Declare all names first, so declarations can refer to each other

	for i, decl := range l.file.Protocols {
		if decl.Name == "" {
			return l.error(fmt.Sprintf("$.protocols[%d]", i), fmt.Errorf("missing name"))
		}
		err := l.checkName(fmt.Sprintf("$.protocols[%d].name", i), decl.Name)
		if err != nil {
			return err
		}
		protocol := sema.NewProtocolType(l.file.Location, decl.Name)
		protocol.ClassBound = decl.ClassBound
		l.declarations.protocols.Set(decl.Name, protocol)
	}

	for i, decl := range l.file.Types {
		err := l.declareType(i, decl)
		if err != nil {
			return err
		}
	}

	// Inheritance and associated types, which are needed to resolve members

	for i, decl := range l.file.Protocols {
		err := l.declareProtocolMembers(i, decl)
		if err != nil {
			return err
		}
	}

	// Bounds, requirements, and conformances

	for i, decl := range l.file.Protocols {
		err := l.loadProtocolRequirements(i, decl)
		if err != nil {
			return err
		}
	}

	for i, decl := range l.file.Types {
		err := l.loadType(i, decl)
		if err != nil {
			return err
		}
	}

	for i, decl := range l.file.Contexts {
		err := l.loadContext(i, decl)
		if err != nil {
			return err
		}
	}

	return nil
}

// checkName checks that a protocol or type name is not declared yet, and is not a layout.
func (l *loader) checkName(path string, name string) error {
	if isLayoutKeyword(name) {
		return l.error(path, fmt.Errorf("`%s` is a layout and cannot be redeclared", name))
	}
	if l.declarations.protocols.Contains(name) ||
		l.declarations.types.Contains(name) {

		return l.error(path, fmt.Errorf("redeclaration of `%s`", name))
	}
	return nil
}

func (l *loader) declareType(index int, decl TypeDecl) error {
	path := fmt.Sprintf("$.types[%d]", index)

	if decl.Name == "" {
		return l.error(path, fmt.Errorf("missing name"))
	}
	err := l.checkName(path+".name", decl.Name)
	if err != nil {
		return err
	}

	var kind sema.NominalKind
	switch decl.Kind {
	case "", "struct":
		kind = sema.NominalKindStruct
	case "class":
		kind = sema.NominalKindClass
	case "enum":
		kind = sema.NominalKindEnum
	default:
		return l.error(path+".kind", fmt.Errorf("unknown kind `%s`", decl.Kind))
	}

	params := make([]*sema.GenericParamType, len(decl.Params))
	for i, name := range decl.Params {
		params[i] = sema.NewGenericParamType(name, 0, uint(i))
	}

	l.declarations.types.Set(decl.Name, &sema.NominalDecl{
		Location:      l.file.Location,
		Identifier:    decl.Name,
		Kind:          kind,
		GenericParams: params,
	})

	return nil
}

func (l *loader) declareProtocolMembers(index int, decl ProtocolDecl) error {
	path := fmt.Sprintf("$.protocols[%d]", index)
	protocol := l.declarations.Protocol(decl.Name)

	for i, name := range decl.Inherits {
		inherited := l.declarations.Protocol(name)
		if inherited == nil {
			return l.error(fmt.Sprintf("%s.inherits[%d]", path, i), fmt.Errorf("cannot find protocol `%s`", name))
		}
		protocol.InheritedProtocols = append(protocol.InheritedProtocols, inherited)
	}

	for i, associatedType := range decl.AssociatedTypes {
		if associatedType.Name == "" {
			return l.error(fmt.Sprintf("%s.associatedTypes[%d]", path, i), fmt.Errorf("missing name"))
		}
		if protocol.AssociatedType(associatedType.Name) != nil {
			return l.error(
				fmt.Sprintf("%s.associatedTypes[%d].name", path, i),
				fmt.Errorf("redeclaration of associated type `%s`", associatedType.Name),
			)
		}

		associatedTypeDecl := protocol.AddAssociatedType(associatedType.Name)
		for j, name := range associatedType.ConformsTo {
			inherited := l.declarations.Protocol(name)
			if inherited == nil {
				return l.error(
					fmt.Sprintf("%s.associatedTypes[%d].conformsTo[%d]", path, i, j),
					fmt.Errorf("cannot find protocol `%s`", name),
				)
			}
			associatedTypeDecl.InheritedProtocols = append(associatedTypeDecl.InheritedProtocols, inherited)
		}
	}

	return nil
}

func (l *loader) loadProtocolRequirements(index int, decl ProtocolDecl) error {
	path := fmt.Sprintf("$.protocols[%d]", index)
	protocol := l.declarations.Protocol(decl.Name)

	scope := &scope{
		declarations: l.declarations,
		protocol:     protocol,
	}

	for i, associatedType := range decl.AssociatedTypes {
		associatedTypePath := fmt.Sprintf("%s.associatedTypes[%d]", path, i)
		associatedTypeDecl := protocol.AssociatedType(associatedType.Name)

		if associatedType.Superclass != "" {
			superclass, err := parseType(associatedType.Superclass, scope)
			if err != nil {
				return l.error(associatedTypePath+".superclass", err)
			}
			associatedTypeDecl.Superclass = superclass
		}

		if associatedType.Layout != "" {
			layout, err := parseLayoutConstraint(associatedType.Layout)
			if err != nil {
				return l.error(associatedTypePath+".layout", err)
			}
			associatedTypeDecl.Layout = layout
		}
	}

	for i, source := range decl.Requirements {
		requirement, err := parseRequirement(source, scope)
		if err != nil {
			return l.error(fmt.Sprintf("%s.requirements[%d]", path, i), err)
		}
		protocol.AddRequirement(requirement)
	}

	return nil
}

func (l *loader) loadType(index int, decl TypeDecl) error {
	path := fmt.Sprintf("$.types[%d]", index)
	nominalDecl := l.declarations.TypeDecl(decl.Name)

	scope := (&scope{declarations: l.declarations}).withParams(nominalDecl.GenericParams...)

	if decl.Superclass != "" {
		if nominalDecl.Kind != sema.NominalKindClass {
			return l.error(path+".superclass", fmt.Errorf("only classes can have a superclass"))
		}
		superclass, err := parseType(decl.Superclass, scope)
		if err != nil {
			return l.error(path+".superclass", err)
		}
		superclassType, ok := superclass.(*sema.NominalType)
		if !ok || !superclassType.IsClass() {
			return l.error(path+".superclass", fmt.Errorf("`%s` is not a class", superclass))
		}
		nominalDecl.Superclass = superclassType
	}

	if decl.Layout != "" {
		layout, err := parseLayoutConstraint(decl.Layout)
		if err != nil {
			return l.error(path+".layout", err)
		}
		nominalDecl.Layout = layout
	}

	for i, source := range decl.Requirements {
		requirement, err := parseRequirement(source, scope)
		if err != nil {
			return l.error(fmt.Sprintf("%s.requirements[%d]", path, i), err)
		}
		nominalDecl.Requirements = append(nominalDecl.Requirements, requirement)
	}

	for i, conformance := range decl.Conformances {
		conformancePath := fmt.Sprintf("%s.conformances[%d]", path, i)

		protocol := l.declarations.Protocol(conformance.Protocol)
		if protocol == nil {
			return l.error(conformancePath+".protocol", fmt.Errorf("cannot find protocol `%s`", conformance.Protocol))
		}

		var witnesses map[string]sema.Type
		if len(conformance.Witnesses) > 0 {
			witnesses = make(map[string]sema.Type, len(conformance.Witnesses))
		}
		for name, source := range conformance.Witnesses {
			if len(protocol.LookupAssociatedTypes(name)) == 0 {
				return l.error(
					conformancePath+".witnesses."+name,
					fmt.Errorf("protocol `%s` has no associated type `%s`", protocol, name),
				)
			}
			witness, err := parseType(source, scope)
			if err != nil {
				return l.error(conformancePath+".witnesses."+name, err)
			}
			witnesses[name] = witness
		}

		nominalDecl.Conformances = append(nominalDecl.Conformances, &sema.NominalConformance{
			Protocol:      protocol,
			TypeWitnesses: witnesses,
		})
	}

	return nil
}

func (l *loader) loadContext(index int, decl ContextDecl) error {
	path := fmt.Sprintf("$.contexts[%d]", index)

	if decl.Name == "" {
		return l.error(path, fmt.Errorf("missing name"))
	}
	if l.declarations.contexts.Contains(decl.Name) {
		return l.error(path+".name", fmt.Errorf("redeclaration of context `%s`", decl.Name))
	}

	context := &Context{
		Name:                decl.Name,
		InferRequirements:   decl.InferRequirements,
		AllowConcreteParams: decl.AllowConcreteParams,
	}

	scope := &scope{declarations: l.declarations}

	if decl.Outer != "" {
		// outer contexts are declared before the contexts they enclose
		outer := l.declarations.Context(decl.Outer)
		if outer == nil {
			return l.error(path+".outer", fmt.Errorf("cannot find context `%s`", decl.Outer))
		}
		context.Outer = outer

		for current := outer; current != nil; current = current.Outer {
			scope = scope.withParams(current.Params...)
		}
	}

	depth := context.depth()
	context.Params = make([]*sema.GenericParamType, len(decl.Params))
	for i, name := range decl.Params {
		context.Params[i] = sema.NewGenericParamType(name, depth, uint(i))
	}
	scope = scope.withParams(context.Params...)

	for i, source := range decl.Requirements {
		requirement, err := parseRequirement(source, scope)
		if err != nil {
			return l.error(fmt.Sprintf("%s.requirements[%d]", path, i), err)
		}
		context.Requirements = append(context.Requirements, requirement)
	}

	for i, source := range decl.Queries {
		query, err := parseRequirement(source, scope)
		if err != nil {
			return l.error(fmt.Sprintf("%s.queries[%d]", path, i), err)
		}
		if query.Kind != sema.RequirementKindConformance {
			return l.error(fmt.Sprintf("%s.queries[%d]", path, i), fmt.Errorf("query `%s` is not a conformance", source))
		}
		context.Queries = append(context.Queries, query)
	}

	l.declarations.contexts.Set(decl.Name, context)

	return nil
}
