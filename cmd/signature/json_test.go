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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/generics/declfile"
	"github.com/onflow/generics/sema"
)

func TestContextResult(t *testing.T) {

	*colorFlag = false

	declarations, err := declfile.LoadFile("../../declfile/testdata/std.yaml")
	require.NoError(t, err)

	config := &sema.Config{}
	config.ProtocolSignatures = sema.NewProtocolSignatureCache(config)

	result := newContextResult(declarations.Context("sort"), config)

	assert.Equal(t, "sort", result.Name)
	assert.True(t, result.Valid)
	assert.Equal(t,
		[]string{"C: Collection", "C.Element: Comparable"},
		result.Requirements,
	)
	assert.Empty(t, result.Errors)
	assert.Equal(t,
		"(C: Collection) -> (Self: Sequence) -> (Self.Iterator: IteratorProtocol)",
		result.AccessPaths["C.Iterator: IteratorProtocol"],
	)

	var out bytes.Buffer
	p := &printer{out: &out}
	p.writeJSON([]byte(`{"valid":true}`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, map[string]any{"valid": true}, decoded)
}
