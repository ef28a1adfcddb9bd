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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onflow/generics/common"
	"github.com/onflow/generics/errors"
	"github.com/onflow/generics/sema"
	. "github.com/onflow/generics/test_utils/sema_utils"
)

type testMemoryGauge struct {
	meter map[common.MemoryKind]uint64
	limit uint64
	total uint64
	mu    sync.Mutex
}

func newTestMemoryGauge() *testMemoryGauge {
	return &testMemoryGauge{
		meter: make(map[common.MemoryKind]uint64),
	}
}

func (g *testMemoryGauge) MeterMemory(usage common.MemoryUsage) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.meter[usage.Kind] += usage.Amount
	g.total += usage.Amount
	if g.limit > 0 && g.total > g.limit {
		return fmt.Errorf("memory limit of %d exceeded", g.limit)
	}
	return nil
}

func (g *testMemoryGauge) getMemory(kind common.MemoryKind) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.meter[kind]
}

func TestMemoryMetering(t *testing.T) {

	t.Parallel()

	t.Run("usage", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T", "U")
		T, U := params[0], params[1]

		gauge := newTestMemoryGauge()
		config := &sema.Config{
			MemoryGauge: gauge,
		}

		signature := ComputeSignature(config, params,
			sema.NewConformanceRequirement(T, std.Sequence),
			sema.NewSameTypeRequirement(U, Member(T, std.Sequence, "Element")),
		)
		RequireValidSignature(t, signature)

		assert.Equal(t, uint64(1), gauge.getMemory(common.MemoryKindGenericSignature))
		assert.Equal(t, uint64(2), gauge.getMemory(common.MemoryKindRequirement))
		assert.GreaterOrEqual(t, gauge.getMemory(common.MemoryKindPotentialArchetype), uint64(3))
		assert.Positive(t, gauge.getMemory(common.MemoryKindEquivalenceClass))
		assert.Positive(t, gauge.getMemory(common.MemoryKindRequirementSource))

		_ = signature.GenericEnvironment()
		assert.Equal(t, uint64(1), gauge.getMemory(common.MemoryKindGenericEnvironment))
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		std := NewStandardLibrary()
		params := GenericParams("T")
		T := params[0]

		gauge := newTestMemoryGauge()
		gauge.limit = 5

		config := &sema.Config{
			MemoryGauge: gauge,
		}

		defer func() {
			r := recover()
			require.NotNil(t, r)

			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorAs(t, err, &errors.MemoryError{})
		}()

		_ = ComputeSignature(config, params,
			sema.NewConformanceRequirement(T, std.Collection),
		)
	})
}

func TestTracing(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	var mu sync.Mutex
	traces := map[string][][]attribute.KeyValue{}

	config := &sema.Config{
		TracingEnabled: true,
		OnRecordTrace: func(
			_ *sema.GenericSignatureBuilder,
			operationName string,
			_ time.Duration,
			attrs []attribute.KeyValue,
		) {
			mu.Lock()
			defer mu.Unlock()

			traces[operationName] = append(traces[operationName], attrs)
		},
	}
	config.ProtocolSignatures = sema.NewProtocolSignatureCache(config)

	signature := ComputeSignature(config, params,
		sema.NewConformanceRequirement(T, std.Comparable),
	)
	RequireValidSignature(t, signature)

	_, err := signature.GetConformanceAccessPath(T, std.Equatable)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	require.Contains(t, traces, "computeGenericSignature")
	assert.Contains(t,
		traces["computeGenericSignature"],
		[]attribute.KeyValue{
			attribute.Int("Param count", 1),
			attribute.Int("Requirement count", 1),
			attribute.Int("Error count", 0),
		},
	)

	require.Contains(t, traces, "requirementSignature")
	require.Contains(t, traces, "conformanceAccessPath")
}

func TestLogging(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	var buffer bytes.Buffer
	logger := zerolog.New(&buffer).Level(zerolog.DebugLevel)

	config := &sema.Config{
		Logger: &logger,
	}

	signature := ComputeSignature(config, params,
		sema.NewConformanceRequirement(T, std.Comparable),
		sema.NewConformanceRequirement(T, std.Equatable),
	)
	RequireValidSignature(t, signature)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		if entry[zerolog.MessageFieldName] == "redundant requirement" {
			assert.Equal(t, "T: Equatable", entry["requirement"])
			found = true
		}
	}
	assert.True(t, found)
}

func TestProtocolSignatureCacheLogging(t *testing.T) {

	t.Parallel()

	std := NewStandardLibrary()
	params := GenericParams("T")
	T := params[0]

	var buffer bytes.Buffer
	logger := zerolog.New(&buffer).Level(zerolog.DebugLevel)

	config := &sema.Config{
		Logger: &logger,
	}
	config.ProtocolSignatures = sema.NewProtocolSignatureCache(config)

	signature := ComputeSignature(config, params,
		sema.NewConformanceRequirement(T, std.Comparable),
	)
	RequireValidSignature(t, signature)

	var protocols []string
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		if entry[zerolog.MessageFieldName] == "computed requirement signature" {
			protocols = append(protocols, fmt.Sprint(entry["protocol"]))
		}
	}
	assert.Contains(t, protocols, string(std.Comparable.ID()))
	assert.Contains(t, protocols, string(std.Equatable.ID()))
}
