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
	"sync"

	"github.com/onflow/generics/common"
)

// GenericSignature is the canonical form of the generic parameters and requirements of a generic context.
//
// Generic parameters are sorted by depth and index, requirements by CompareRequirements.
// A signature is immutable, and its queries are safe for concurrent use.
type GenericSignature struct {
	canonical *canonicalSignature
	errors    []error
	warnings  []error
	redundant []Requirement
}

// canonicalSignature holds the parameters and requirements of a signature,
// and the query state shared by all structurally identical signatures.
type canonicalSignature struct {
	config       *Config
	queryBuilder *GenericSignatureBuilder
	accessPaths  map[accessPathKey]*ConformanceAccessPath
	environment  *GenericEnvironment
	params       []*GenericParamType
	requirements []Requirement
	mu           sync.Mutex
}

func newGenericSignature(
	config *Config,
	params []*GenericParamType,
	requirements []Requirement,
	errs []error,
	warnings []error,
	redundant []Requirement,
) *GenericSignature {

	common.UseMemory(config.MemoryGauge, common.GenericSignatureMemoryUsage)
	common.UseMemory(config.MemoryGauge, common.NewRequirementsMemoryUsage(len(requirements)))

	canonical := &canonicalSignature{
		config:       config,
		params:       params,
		requirements: requirements,
	}

	// invalid signatures are incomplete, and must not be shared
	if config.SignatureCache != nil && len(errs) == 0 {
		canonical = config.SignatureCache.intern(canonical)
	}

	return &GenericSignature{
		canonical: canonical,
		errors:    errs,
		warnings:  warnings,
		redundant: redundant,
	}
}

// NewGenericSignature computes the canonical signature of the given parameters and requirements.
func NewGenericSignature(
	config *Config,
	params []*GenericParamType,
	requirements []Requirement,
) *GenericSignature {
	builder := NewGenericSignatureBuilder(config)
	for _, param := range params {
		builder.AddGenericParameter(param)
	}
	for _, requirement := range requirements {
		builder.AddRequirement(requirement, false)
	}
	return builder.ComputeGenericSignature(true, nil)
}

func (s *GenericSignature) Params() []*GenericParamType {
	return s.canonical.params
}

func (s *GenericSignature) Requirements() []Requirement {
	return s.canonical.requirements
}

// IsInvalid returns true if the requirements of the signature are contradictory or malformed.
// The requirements of an invalid signature are incomplete.
func (s *GenericSignature) IsInvalid() bool {
	return len(s.errors) > 0
}

// Errors returns the semantic errors found while computing the signature.
func (s *GenericSignature) Errors() []error {
	return s.errors
}

// Warnings returns the diagnostics which do not invalidate the signature,
// e.g. redundant requirements.
func (s *GenericSignature) Warnings() []error {
	return s.warnings
}

// RedundantRequirements returns the written requirements which are implied
// by the other requirements, in the order they were written.
func (s *GenericSignature) RedundantRequirements() []Requirement {
	return s.redundant
}

// Err returns a BuilderError if the signature is invalid, or nil.
func (s *GenericSignature) Err() error {
	if len(s.errors) == 0 {
		return nil
	}
	return BuilderError{
		Errors: s.errors,
	}
}

// Equal returns true if the signatures have the same parameters and requirements.
func (s *GenericSignature) Equal(other *GenericSignature) bool {
	if s.canonical == other.canonical {
		return true
	}
	if len(s.canonical.params) != len(other.canonical.params) ||
		len(s.canonical.requirements) != len(other.canonical.requirements) {

		return false
	}
	for i, param := range s.canonical.params {
		if !param.Equal(other.canonical.params[i]) {
			return false
		}
	}
	for i, requirement := range s.canonical.requirements {
		if !requirement.Equal(other.canonical.requirements[i]) {
			return false
		}
	}
	return true
}

// Queries

// withBuilder runs the function with the query builder of the signature,
// while holding the signature's lock.
func (s *GenericSignature) withBuilder(f func(builder *GenericSignatureBuilder)) {
	canonical := s.canonical
	canonical.mu.Lock()
	defer canonical.mu.Unlock()

	f(canonical.builder())
}

// builder returns the query builder, creating it if needed.
// The lock must be held.
func (s *canonicalSignature) builder() *GenericSignatureBuilder {
	if s.queryBuilder != nil {
		return s.queryBuilder
	}

	config := *s.config
	config.RedundancyWarningsEnabled = false
	config.SignatureCache = nil

	builder := NewGenericSignatureBuilder(&config)
	builder.addSignatureRequirements(s.params, s.requirements)
	builder.processDelayedRequirements()

	s.queryBuilder = builder
	return builder
}

// resolveInContext resolves the type in the query builder, creating potential archetypes as needed.
func (b *GenericSignatureBuilder) resolveInContext(ty Type) (resolvedType, bool) {
	resolved, unresolved := b.resolve(ty, ResolutionKindWellFormed)
	if unresolved != nil {
		return resolvedType{}, false
	}
	b.processDelayedRequirements()
	return resolved, true
}

// canonicalTypeInContext creates the potential archetypes of the dependent types in the type,
// and canonicalizes it.
func (b *GenericSignatureBuilder) canonicalTypeInContext(ty Type) Type {
	if ty == nil || !ty.HasTypeParameter() {
		return ty
	}

	walkType(ty, func(component Type) bool {
		if !IsDependentType(component) {
			return true
		}
		b.resolveArchetype(component, ResolutionKindWellFormed)
		return false
	})
	b.processDelayedRequirements()

	return b.canonicalType(ty)
}

// ConformsToProtocol returns true if the type conforms to the protocol in the context of the signature.
func (s *GenericSignature) ConformsToProtocol(ty Type, protocol *ProtocolType) (result bool) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolved, ok := builder.resolveInContext(ty)
		if !ok {
			return
		}
		if resolved.isConcrete() {
			result = builder.lookup.LookupConformance(resolved.concrete, protocol) != nil
			return
		}
		result = builder.class(resolved.archetype).conformsToProtocol(protocol)
	})
	return
}

// GetConformsTo returns the protocols the dependent type conforms to, in protocol order.
func (s *GenericSignature) GetConformsTo(ty Type) (result []*ProtocolType) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolved, ok := builder.resolveInContext(ty)
		if !ok || resolved.isConcrete() {
			return
		}
		result = builder.class(resolved.archetype).ConformsTo()
	})
	return
}

// GetSuperclassBound returns the superclass bound of the dependent type, or nil.
func (s *GenericSignature) GetSuperclassBound(ty Type) (result Type) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolved, ok := builder.resolveInContext(ty)
		if !ok || resolved.isConcrete() {
			return
		}
		superclass := builder.class(resolved.archetype).superclass
		if superclass == nil {
			return
		}
		result = builder.canonicalTypeInContext(superclass)
	})
	return
}

// GetConcreteType returns the concrete type the dependent type is bound to, or nil.
func (s *GenericSignature) GetConcreteType(ty Type) (result Type) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolved, ok := builder.resolveInContext(ty)
		if !ok {
			return
		}
		if resolved.isConcrete() {
			result = builder.canonicalTypeInContext(resolved.concrete)
			return
		}
		class := builder.class(resolved.archetype)
		if class.concreteType == nil || class.recursiveConcreteType {
			return
		}
		result = builder.canonicalTypeInContext(class.concreteType)
	})
	return
}

// GetLayoutConstraint returns the layout constraint of the dependent type.
func (s *GenericSignature) GetLayoutConstraint(ty Type) (result LayoutConstraint) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolved, ok := builder.resolveInContext(ty)
		if !ok || resolved.isConcrete() {
			return
		}
		result = builder.class(resolved.archetype).layout
	})
	return
}

// IsValidTypeInContext returns true if all dependent types in the type
// name nested types known in the context.
func (s *GenericSignature) IsValidTypeInContext(ty Type) (result bool) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		result = true
		walkType(ty, func(component Type) bool {
			if !result {
				return false
			}
			if !IsDependentType(component) {
				return true
			}
			_, result = builder.resolveInContext(component)
			return false
		})
	})
	return
}

// GetCanonicalTypeInContext replaces the dependent types in the type
// with the anchors of their equivalence classes, or their concrete types.
func (s *GenericSignature) GetCanonicalTypeInContext(ty Type) (result Type) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		result = builder.canonicalTypeInContext(ty)
	})
	return
}

// IsCanonicalTypeInContext returns true if the type is its own canonical type in the context.
func (s *GenericSignature) IsCanonicalTypeInContext(ty Type) bool {
	return s.GetCanonicalTypeInContext(ty).Equal(ty)
}

// AreSameTypeParametersInContext returns true if the two dependent types
// are known to be the same type in the context.
func (s *GenericSignature) AreSameTypeParametersInContext(a, b Type) (result bool) {
	if a.Equal(b) {
		return true
	}

	s.withBuilder(func(builder *GenericSignatureBuilder) {
		resolvedA, ok := builder.resolveInContext(a)
		if !ok {
			return
		}
		resolvedB, ok := builder.resolveInContext(b)
		if !ok {
			return
		}

		if !resolvedA.isConcrete() && !resolvedB.isConcrete() &&
			builder.representative(resolvedA.archetype) == builder.representative(resolvedB.archetype) {

			result = true
			return
		}

		result = builder.canonicalTypeInContext(a).Equal(builder.canonicalTypeInContext(b))
	})
	return
}

// SubstitutionMap returns the substitution map replacing the generic parameters
// of the signature with the given types, in order.
func (s *GenericSignature) SubstitutionMap(replacements ...Type) (*SubstitutionMap, error) {
	params := s.canonical.params
	if len(replacements) != len(params) {
		return nil, &SubstitutionCountMismatchError{
			Expected: len(params),
			Actual:   len(replacements),
		}
	}

	return NewSubstitutionMap(params, replacements).
		WithConformanceLookup(s.canonical.config.conformanceLookup()), nil
}

// ApplySubstitutions returns the requirements of the signature with the substitutions applied.
func (s *GenericSignature) ApplySubstitutions(substitutions *SubstitutionMap) []Requirement {
	requirements := make([]Requirement, len(s.canonical.requirements))
	for i, requirement := range s.canonical.requirements {
		requirements[i] = requirement.Subst(substitutions)
	}
	return requirements
}

// GenericEnvironment returns the generic environment of the signature,
// which maps the generic parameters to archetypes.
func (s *GenericSignature) GenericEnvironment() (result *GenericEnvironment) {
	canonical := s.canonical
	canonical.mu.Lock()
	defer canonical.mu.Unlock()

	if canonical.environment == nil {
		canonical.environment = newGenericEnvironment(s)
	}
	return canonical.environment
}

// addSignatureRequirements adds the parameters and requirements of a signature.
// The requirements are not written, so they are never reported as redundant.
func (b *GenericSignatureBuilder) addSignatureRequirements(
	params []*GenericParamType,
	requirements []Requirement,
) {
	for _, param := range params {
		b.AddGenericParameter(param)
	}

	for _, requirement := range requirements {
		source := b.sources.forAbstract(requirement.Subject)
		b.addRequirement(requirement, source, ResolutionKindWellFormed)
	}
}
