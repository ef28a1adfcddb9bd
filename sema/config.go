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

package sema

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onflow/generics/common"
)

const (
	DefaultMaxDelayedRequirementIterations = 64
	DefaultMaxPotentialArchetypes          = 4096
)

// OnRecordTraceFunc is a function that is triggered when a trace is recorded.
type OnRecordTraceFunc func(
	builder *GenericSignatureBuilder,
	operationName string,
	duration time.Duration,
	attrs []attribute.KeyValue,
)

type Config struct {
	// ConformanceLookup is used to find conformances of concrete types.
	// If nil, DefaultConformanceLookup is used.
	ConformanceLookup ConformanceLookup
	// ProtocolSignatures memoizes the requirement signatures of protocols.
	// If nil, protocol requirements are taken as written.
	ProtocolSignatures *ProtocolSignatureCache
	// SignatureCache shares the query state of structurally identical signatures.
	SignatureCache *SignatureCache
	MemoryGauge    common.MemoryGauge
	// Logger receives debug logs of the builder. If nil, nothing is logged.
	Logger *zerolog.Logger
	// OnRecordTrace is triggered when a trace is recorded.
	OnRecordTrace OnRecordTraceFunc
	// MaxDelayedRequirementIterations is the maximum number of passes
	// over the delayed requirements before the builder gives up with an internal error.
	MaxDelayedRequirementIterations int
	// MaxPotentialArchetypes is the maximum number of potential archetypes one builder may create.
	MaxPotentialArchetypes int
	// TracingEnabled determines if tracing is enabled.
	// Tracing reports certain operations, e.g. computing a generic signature.
	TracingEnabled bool
	// RedundancyWarningsEnabled determines if redundant written requirements
	// are reported as warnings.
	RedundancyWarningsEnabled bool
}

func (c *Config) conformanceLookup() ConformanceLookup {
	if c.ConformanceLookup == nil {
		return DefaultConformanceLookup
	}
	return c.ConformanceLookup
}

func (c *Config) maxDelayedRequirementIterations() int {
	if c.MaxDelayedRequirementIterations <= 0 {
		return DefaultMaxDelayedRequirementIterations
	}
	return c.MaxDelayedRequirementIterations
}

func (c *Config) maxPotentialArchetypes() int {
	if c.MaxPotentialArchetypes <= 0 {
		return DefaultMaxPotentialArchetypes
	}
	return c.MaxPotentialArchetypes
}

func (c *Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}
