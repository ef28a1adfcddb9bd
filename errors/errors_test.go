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

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInternalError(t *testing.T) {

	t.Parallel()

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		err := NewUnreachableError()
		assert.True(t, IsInternalError(err))
		assert.False(t, IsUserError(err))
		require.Contains(t, err.Error(), "unreachable")
	})

	t.Run("wrapped unexpected", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("context: %w", NewUnexpectedError("bad %d", 1))
		assert.True(t, IsInternalError(err))
		assert.Equal(t, "context: bad 1", err.Error())
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()

		assert.False(t, IsInternalError(fmt.Errorf("plain")))
	})
}

func TestIsUserError(t *testing.T) {

	t.Parallel()

	err := fmt.Errorf("wrapped: %w", NewDefaultUserError("conflict on %s", "T"))
	assert.True(t, IsUserError(err))
	assert.False(t, IsInternalError(err))

	memoryErr := MemoryError{Err: fmt.Errorf("limit")}
	assert.True(t, IsUserError(memoryErr))
	assert.Equal(t, "memory error: limit", memoryErr.Error())
}
