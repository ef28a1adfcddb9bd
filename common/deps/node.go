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

package deps

import (
	"fmt"

	"github.com/onflow/generics/common/orderedmap"
)

// https://www.electricmonk.nl/docs/dependency_resolving_algorithm/dependency_resolving_algorithm.html

type CircularDependencyError[T any] struct {
	Dependent  *Node[T]
	Dependency *Node[T]
}

func (e CircularDependencyError[T]) Error() string {
	return fmt.Sprintf(
		"circular dependency: %v -> %v",
		e.Dependent.Value,
		e.Dependency.Value,
	)
}

type Node[T any] struct {
	Value T
	// insertion-ordered, so solutions are deterministic
	dependents   *orderedmap.OrderedMap[*Node[T], struct{}]
	dependencies *orderedmap.OrderedMap[*Node[T], struct{}]
}

func newNodeSet[T any]() *orderedmap.OrderedMap[*Node[T], struct{}] {
	return orderedmap.New[orderedmap.OrderedMap[*Node[T], struct{}]](0)
}

func NewNode[T any](value T) *Node[T] {
	return &Node[T]{
		Value:        value,
		dependents:   newNodeSet[T](),
		dependencies: newNodeSet[T](),
	}
}

func (n *Node[T]) SetDependencies(dependencies ...*Node[T]) {
	n.dependencies.Foreach(func(dependency *Node[T], _ struct{}) {
		dependency.dependents.Delete(n)
	})
	n.dependencies.Clear()

	for _, dependency := range dependencies {
		dependency.dependents.Set(n, struct{}{})
		n.dependencies.Set(dependency, struct{}{})
	}
}

// AllDependencies returns the transitive dependencies of the node,
// dependencies first, ending with the node itself.
// A cycle is reported as a CircularDependencyError.
func (n *Node[T]) AllDependencies() ([]*Node[T], error) {
	resolved := newNodeSet[T]()
	unresolved := newNodeSet[T]()
	return n.solve(nil, resolved, unresolved, func(node *Node[T]) *orderedmap.OrderedMap[*Node[T], struct{}] {
		return node.dependencies
	})
}

// AllDependents returns the transitive dependents of the node,
// dependents first, ending with the node itself.
func (n *Node[T]) AllDependents() ([]*Node[T], error) {
	resolved := newNodeSet[T]()
	unresolved := newNodeSet[T]()
	return n.solve(nil, resolved, unresolved, func(node *Node[T]) *orderedmap.OrderedMap[*Node[T], struct{}] {
		return node.dependents
	})
}

func (n *Node[T]) solve(
	solution []*Node[T],
	resolved *orderedmap.OrderedMap[*Node[T], struct{}],
	unresolved *orderedmap.OrderedMap[*Node[T], struct{}],
	edges func(*Node[T]) *orderedmap.OrderedMap[*Node[T], struct{}],
) ([]*Node[T], error) {
	unresolved.Set(n, struct{}{})
	defer unresolved.Delete(n)

	err := edges(n).ForeachWithError(func(next *Node[T], _ struct{}) error {
		if resolved.Contains(next) {
			return nil
		}

		if unresolved.Contains(next) {
			return CircularDependencyError[T]{
				Dependent:  n,
				Dependency: next,
			}
		}

		var err error
		solution, err = next.solve(solution, resolved, unresolved, edges)
		return err
	})
	if err != nil {
		return nil, err
	}

	resolved.Set(n, struct{}{})
	return append(solution, n), nil
}
