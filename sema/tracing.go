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

	"go.opentelemetry.io/otel/attribute"
)

const (
	tracingComputeGenericSignature    = "computeGenericSignature"
	tracingProcessDelayedRequirements = "processDelayedRequirements"
	tracingRequirementSignature       = "requirementSignature"
	tracingConformanceAccessPath      = "conformanceAccessPath"
)

func (b *GenericSignatureBuilder) tracingEnabled() bool {
	return b.config.TracingEnabled &&
		b.config.OnRecordTrace != nil
}

func (b *GenericSignatureBuilder) reportComputeGenericSignatureTrace(
	paramCount int,
	requirementCount int,
	errorCount int,
	duration time.Duration,
) {
	b.config.OnRecordTrace(
		b,
		tracingComputeGenericSignature,
		duration,
		[]attribute.KeyValue{
			attribute.Int("Param count", paramCount),
			attribute.Int("Requirement count", requirementCount),
			attribute.Int("Error count", errorCount),
		},
	)
}

func (b *GenericSignatureBuilder) reportProcessDelayedRequirementsTrace(
	iterations int,
	remaining int,
	duration time.Duration,
) {
	b.config.OnRecordTrace(
		b,
		tracingProcessDelayedRequirements,
		duration,
		[]attribute.KeyValue{
			attribute.Int("Iterations", iterations),
			attribute.Int("Remaining", remaining),
		},
	)
}

func reportRequirementSignatureTrace(
	config *Config,
	protocol *ProtocolType,
	requirementCount int,
	duration time.Duration,
) {
	if !config.TracingEnabled || config.OnRecordTrace == nil {
		return
	}
	config.OnRecordTrace(
		nil,
		tracingRequirementSignature,
		duration,
		[]attribute.KeyValue{
			attribute.String("Protocol", string(protocol.ID())),
			attribute.Int("Requirement count", requirementCount),
		},
	)
}

func reportConformanceAccessPathTrace(
	config *Config,
	ty Type,
	protocol *ProtocolType,
	length int,
	duration time.Duration,
) {
	if !config.TracingEnabled || config.OnRecordTrace == nil {
		return
	}
	config.OnRecordTrace(
		nil,
		tracingConformanceAccessPath,
		duration,
		[]attribute.KeyValue{
			attribute.String("Type", ty.String()),
			attribute.String("Protocol", string(protocol.ID())),
			attribute.Int("Length", length),
		},
	)
}
