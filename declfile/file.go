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

// File is the YAML representation of a declaration file.
type File struct {
	// Location is the location of the declarations, e.g. a module name.
	Location  string         `yaml:"location"`
	Protocols []ProtocolDecl `yaml:"protocols"`
	Types     []TypeDecl     `yaml:"types"`
	Contexts  []ContextDecl  `yaml:"contexts"`
}

type ProtocolDecl struct {
	Name            string               `yaml:"name"`
	Inherits        []string             `yaml:"inherits"`
	AssociatedTypes []AssociatedTypeDecl `yaml:"associatedTypes"`
	// Requirements are where clauses in terms of `Self`
	Requirements []string `yaml:"requirements"`
	ClassBound   bool     `yaml:"classBound"`
}

type AssociatedTypeDecl struct {
	Name       string   `yaml:"name"`
	ConformsTo []string `yaml:"conformsTo"`
	Superclass string   `yaml:"superclass"`
	Layout     string   `yaml:"layout"`
}

type TypeDecl struct {
	Name string `yaml:"name"`
	// Kind is one of `struct` (default), `class`, or `enum`
	Kind         string            `yaml:"kind"`
	Params       []string          `yaml:"params"`
	Requirements []string          `yaml:"requirements"`
	Superclass   string            `yaml:"superclass"`
	Layout       string            `yaml:"layout"`
	Conformances []ConformanceDecl `yaml:"conformances"`
}

type ConformanceDecl struct {
	Protocol string `yaml:"protocol"`
	// Witnesses maps associated type names to types, in terms of the type's parameters
	Witnesses map[string]string `yaml:"witnesses"`
}

// ContextDecl is a generic context, e.g. of a function.
type ContextDecl struct {
	Name string `yaml:"name"`
	// Outer is the name of the enclosing context, if any
	Outer        string   `yaml:"outer"`
	Params       []string `yaml:"params"`
	Requirements []string `yaml:"requirements"`
	// Queries are conformance requirements whose access paths are reported
	Queries             []string `yaml:"queries"`
	InferRequirements   bool     `yaml:"inferRequirements"`
	AllowConcreteParams bool     `yaml:"allowConcreteParams"`
}
