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

package common

import (
	"github.com/onflow/generics/errors"
)

type MemoryUsage struct {
	Kind   MemoryKind
	Amount uint64
}

type MemoryGauge interface {
	MeterMemory(usage MemoryUsage) error
}

var (
	// Builder arena

	PotentialArchetypeMemoryUsage = NewConstantMemoryUsage(MemoryKindPotentialArchetype)
	EquivalenceClassMemoryUsage   = NewConstantMemoryUsage(MemoryKindEquivalenceClass)
	RequirementSourceMemoryUsage  = NewConstantMemoryUsage(MemoryKindRequirementSource)
	ConstraintMemoryUsage         = NewConstantMemoryUsage(MemoryKindConstraint)
	DelayedRequirementMemoryUsage = NewConstantMemoryUsage(MemoryKindDelayedRequirement)

	// Results

	GenericSignatureMemoryUsage   = NewConstantMemoryUsage(MemoryKindGenericSignature)
	GenericEnvironmentMemoryUsage = NewConstantMemoryUsage(MemoryKindGenericEnvironment)
	AccessPathEntryMemoryUsage    = NewConstantMemoryUsage(MemoryKindAccessPathEntry)
)

func UseMemory(gauge MemoryGauge, usage MemoryUsage) {
	if gauge == nil {
		return
	}

	err := gauge.MeterMemory(usage)
	if err != nil {
		panic(errors.MemoryError{Err: err})
	}
}

func NewConstantMemoryUsage(kind MemoryKind) MemoryUsage {
	return MemoryUsage{
		Kind:   kind,
		Amount: 1,
	}
}

func NewRequirementsMemoryUsage(count int) MemoryUsage {
	return MemoryUsage{
		Kind:   MemoryKindRequirement,
		Amount: uint64(count),
	}
}
