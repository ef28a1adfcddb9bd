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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(nodes []*Node[string]) []string {
	result := make([]string, len(nodes))
	for i, node := range nodes {
		result[i] = node.Value
	}
	return result
}

func TestAllDependencies(t *testing.T) {

	t.Parallel()

	t.Run("chain", func(t *testing.T) {
		t.Parallel()

		comparableNode := NewNode("Comparable")
		equatable := NewNode("Equatable")
		hashable := NewNode("Hashable")

		comparableNode.SetDependencies(equatable)
		hashable.SetDependencies(equatable)

		solution, err := comparableNode.AllDependencies()
		require.NoError(t, err)
		assert.Equal(t, []string{"Equatable", "Comparable"}, values(solution))

		solution, err = equatable.AllDependents()
		require.NoError(t, err)
		assert.Equal(t, []string{"Comparable", "Hashable", "Equatable"}, values(solution))
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()

		a := NewNode("A")
		b := NewNode("B")
		a.SetDependencies(b)
		b.SetDependencies(a)

		_, err := a.AllDependencies()
		require.Error(t, err)

		var circularErr CircularDependencyError[string]
		require.ErrorAs(t, err, &circularErr)
		assert.Equal(t, "circular dependency: B -> A", err.Error())
	})

	t.Run("reset dependencies", func(t *testing.T) {
		t.Parallel()

		a := NewNode("A")
		b := NewNode("B")
		c := NewNode("C")
		a.SetDependencies(b)
		a.SetDependencies(c)

		solution, err := b.AllDependents()
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, values(solution))
	})
}
