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
)

// processDelayedRequirements re-adds delayed requirements until no more progress is made.
func (b *GenericSignatureBuilder) processDelayedRequirements() {
	var start time.Time
	if b.tracingEnabled() {
		start = time.Now()
	}

	maxIterations := b.config.maxDelayedRequirementIterations()

	iterations := 0
	for {
		delayed := b.takeDelayedRequirements()
		if len(delayed) == 0 {
			break
		}

		iterations++
		if iterations > maxIterations {
			panic(DelayedRequirementLimitError{
				Iterations: maxIterations,
				Remaining:  len(delayed),
			})
		}

		b.logger.Debug().
			Int("iteration", iterations).
			Int("count", len(delayed)).
			Msg("processing delayed requirements")

		progress := false
		for _, requirement := range delayed {
			result := b.addRequirement(requirement.requirement, requirement.source, requirement.kind)
			if result != ConstraintResultUnresolved {
				progress = true
			}
		}

		if !progress {
			break
		}
	}

	if b.tracingEnabled() {
		b.reportProcessDelayedRequirementsTrace(
			iterations,
			b.delayedRequirementCount(),
			time.Since(start),
		)
	}
}

// takeDelayedRequirements removes all delayed requirements from the global queue
// and the queues of the equivalence classes, in a deterministic order.
func (b *GenericSignatureBuilder) takeDelayedRequirements() []delayedRequirement {
	delayed := b.delayedRequirements
	b.delayedRequirements = nil

	for id := 0; id < b.archetypes.len(); id++ {
		class := b.archetypes.get(archetypeID(id)).class
		if class == nil || len(class.delayedRequirements) == 0 {
			continue
		}
		delayed = append(delayed, class.delayedRequirements...)
		class.delayedRequirements = nil
	}

	return delayed
}

func (b *GenericSignatureBuilder) delayedRequirementCount() int {
	count := len(b.delayedRequirements)
	for id := 0; id < b.archetypes.len(); id++ {
		class := b.archetypes.get(archetypeID(id)).class
		if class == nil {
			continue
		}
		count += len(class.delayedRequirements)
	}
	return count
}

// reportUnresolvedRequirements adds the remaining delayed requirements one last time,
// reporting those which still cannot be resolved.
func (b *GenericSignatureBuilder) reportUnresolvedRequirements() {
	for _, delayed := range b.takeDelayedRequirements() {
		b.addRequirement(delayed.requirement, delayed.source, ResolutionKindCompleteWellFormed)
	}
}
