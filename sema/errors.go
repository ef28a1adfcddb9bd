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
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/onflow/generics/errors"
)

// BuilderError

// BuilderError is returned for a generic signature whose requirements are invalid.
type BuilderError struct {
	Errors []error
}

var _ errors.UserError = BuilderError{}
var _ errors.ParentError = BuilderError{}

func (BuilderError) IsUserError() {}

func (e BuilderError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid generic signature:")
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e BuilderError) ChildErrors() []error {
	return e.Errors
}

func (e BuilderError) Unwrap() []error {
	return e.Errors
}

// SemanticError

type SemanticError interface {
	errors.UserError
	isSemanticError()
}

// RequirementSourceNote

type RequirementSourceNote struct {
	Source *RequirementSource
}

func (n RequirementSourceNote) Message() string {
	return fmt.Sprintf("requirement derived from %s", n.Source)
}

func requirementSourceNotes(sources ...*RequirementSource) []errors.ErrorNote {
	var notes []errors.ErrorNote
	for _, source := range sources {
		if source == nil {
			continue
		}
		notes = append(notes, RequirementSourceNote{Source: source})
	}
	return notes
}

// ConflictingConcreteTypeRequirementsError

type ConflictingConcreteTypeRequirementsError struct {
	Subject    Type
	FirstType  Type
	SecondType Type
	// FirstComponent and SecondComponent are the mismatching components
	// of the two types, if the types only differ in a component
	FirstComponent  Type
	SecondComponent Type
	// FirstSource is the source of a written requirement for the first type, if any
	FirstSource  *RequirementSource
	SecondSource *RequirementSource
}

var _ SemanticError = &ConflictingConcreteTypeRequirementsError{}
var _ errors.UserError = &ConflictingConcreteTypeRequirementsError{}
var _ errors.SecondaryError = &ConflictingConcreteTypeRequirementsError{}
var _ errors.ErrorNotes = &ConflictingConcreteTypeRequirementsError{}

func (*ConflictingConcreteTypeRequirementsError) isSemanticError() {}

func (*ConflictingConcreteTypeRequirementsError) IsUserError() {}

func (e *ConflictingConcreteTypeRequirementsError) Error() string {
	if e.Subject.Equal(e.FirstType) {
		return fmt.Sprintf(
			"`%s` cannot be equal to `%s`",
			e.FirstType,
			e.SecondType,
		)
	}
	return fmt.Sprintf(
		"`%s` cannot be equal to both `%s` and `%s`",
		e.Subject,
		e.FirstType,
		e.SecondType,
	)
}

func (e *ConflictingConcreteTypeRequirementsError) SecondaryError() string {
	if e.FirstComponent == nil || e.SecondComponent == nil {
		return ""
	}
	return fmt.Sprintf(
		"`%s` and `%s` differ",
		e.FirstComponent,
		e.SecondComponent,
	)
}

func (e *ConflictingConcreteTypeRequirementsError) ErrorNotes() []errors.ErrorNote {
	return requirementSourceNotes(e.FirstSource, e.SecondSource)
}

// ConflictingSuperclassRequirementsError

type ConflictingSuperclassRequirementsError struct {
	Subject          Type
	FirstSuperclass  Type
	SecondSuperclass Type
	// FirstSource is the source of a written requirement for the first superclass, if any
	FirstSource  *RequirementSource
	SecondSource *RequirementSource
}

var _ SemanticError = &ConflictingSuperclassRequirementsError{}
var _ errors.UserError = &ConflictingSuperclassRequirementsError{}
var _ errors.SecondaryError = &ConflictingSuperclassRequirementsError{}
var _ errors.ErrorNotes = &ConflictingSuperclassRequirementsError{}

func (*ConflictingSuperclassRequirementsError) isSemanticError() {}

func (*ConflictingSuperclassRequirementsError) IsUserError() {}

func (e *ConflictingSuperclassRequirementsError) Error() string {
	return fmt.Sprintf(
		"`%s` cannot be a subclass of both `%s` and `%s`",
		e.Subject,
		e.FirstSuperclass,
		e.SecondSuperclass,
	)
}

func (e *ConflictingSuperclassRequirementsError) SecondaryError() string {
	return "neither class is a subclass of the other"
}

func (e *ConflictingSuperclassRequirementsError) ErrorNotes() []errors.ErrorNote {
	return requirementSourceNotes(e.FirstSource, e.SecondSource)
}

// ConflictingLayoutRequirementsError

type ConflictingLayoutRequirementsError struct {
	Subject      Type
	FirstLayout  LayoutConstraint
	SecondLayout LayoutConstraint
	SecondSource *RequirementSource
}

var _ SemanticError = &ConflictingLayoutRequirementsError{}
var _ errors.UserError = &ConflictingLayoutRequirementsError{}
var _ errors.ErrorNotes = &ConflictingLayoutRequirementsError{}

func (*ConflictingLayoutRequirementsError) isSemanticError() {}

func (*ConflictingLayoutRequirementsError) IsUserError() {}

func (e *ConflictingLayoutRequirementsError) Error() string {
	return fmt.Sprintf(
		"`%s` has conflicting layout constraints `%s` and `%s`",
		e.Subject,
		e.FirstLayout,
		e.SecondLayout,
	)
}

func (e *ConflictingLayoutRequirementsError) ErrorNotes() []errors.ErrorNote {
	return requirementSourceNotes(e.SecondSource)
}

// ConcreteTypeConformanceError

type ConcreteTypeConformanceError struct {
	Subject      Type
	ConcreteType Type
	Protocol     *ProtocolType
}

var _ SemanticError = &ConcreteTypeConformanceError{}
var _ errors.UserError = &ConcreteTypeConformanceError{}

func (*ConcreteTypeConformanceError) isSemanticError() {}

func (*ConcreteTypeConformanceError) IsUserError() {}

func (e *ConcreteTypeConformanceError) Error() string {
	return fmt.Sprintf(
		"`%s` is required to conform to `%s`, but its concrete type `%s` does not",
		e.Subject,
		e.Protocol,
		e.ConcreteType,
	)
}

// ConcreteTypeSuperclassError

type ConcreteTypeSuperclassError struct {
	Subject      Type
	ConcreteType Type
	Superclass   Type
}

var _ SemanticError = &ConcreteTypeSuperclassError{}
var _ errors.UserError = &ConcreteTypeSuperclassError{}

func (*ConcreteTypeSuperclassError) isSemanticError() {}

func (*ConcreteTypeSuperclassError) IsUserError() {}

func (e *ConcreteTypeSuperclassError) Error() string {
	return fmt.Sprintf(
		"`%s` is required to be a subclass of `%s`, but its concrete type `%s` is not",
		e.Subject,
		e.Superclass,
		e.ConcreteType,
	)
}

// ConcreteTypeLayoutError

type ConcreteTypeLayoutError struct {
	Subject      Type
	ConcreteType Type
	Layout       LayoutConstraint
}

var _ SemanticError = &ConcreteTypeLayoutError{}
var _ errors.UserError = &ConcreteTypeLayoutError{}

func (*ConcreteTypeLayoutError) isSemanticError() {}

func (*ConcreteTypeLayoutError) IsUserError() {}

func (e *ConcreteTypeLayoutError) Error() string {
	return fmt.Sprintf(
		"`%s` is required to have layout `%s`, but its concrete type `%s` does not",
		e.Subject,
		e.Layout,
		e.ConcreteType,
	)
}

// RecursiveConcreteTypeError

type RecursiveConcreteTypeError struct {
	Subject      Type
	ConcreteType Type
}

var _ SemanticError = &RecursiveConcreteTypeError{}
var _ errors.UserError = &RecursiveConcreteTypeError{}

func (*RecursiveConcreteTypeError) isSemanticError() {}

func (*RecursiveConcreteTypeError) IsUserError() {}

func (e *RecursiveConcreteTypeError) Error() string {
	return fmt.Sprintf(
		"`%s` cannot be equal to `%s`, which contains it",
		e.Subject,
		e.ConcreteType,
	)
}

// InvalidSuperclassRequirementError

type InvalidSuperclassRequirementError struct {
	Subject Type
	Type    Type
}

var _ SemanticError = &InvalidSuperclassRequirementError{}
var _ errors.UserError = &InvalidSuperclassRequirementError{}

func (*InvalidSuperclassRequirementError) isSemanticError() {}

func (*InvalidSuperclassRequirementError) IsUserError() {}

func (e *InvalidSuperclassRequirementError) Error() string {
	return fmt.Sprintf(
		"`%s` cannot be constrained to `%s`, which is not a class",
		e.Subject,
		e.Type,
	)
}

// UnresolvedRequirementError

type UnresolvedRequirementError struct {
	Requirement Requirement
	// MemberName is the name of the nested type which could not be found, if any
	MemberName string
	// Candidates are the names of the associated types known for the base of the member
	Candidates []string
}

var _ SemanticError = &UnresolvedRequirementError{}
var _ errors.UserError = &UnresolvedRequirementError{}
var _ errors.SecondaryError = &UnresolvedRequirementError{}

func (*UnresolvedRequirementError) isSemanticError() {}

func (*UnresolvedRequirementError) IsUserError() {}

func (e *UnresolvedRequirementError) Error() string {
	return fmt.Sprintf(
		"requirement `%s` cannot be proven well-formed",
		e.Requirement,
	)
}

func (e *UnresolvedRequirementError) SecondaryError() string {
	if e.MemberName == "" {
		return "unknown generic parameter"
	}
	if closestName := e.findClosestCandidate(); closestName != "" {
		return fmt.Sprintf("unknown associated type `%s`, did you mean `%s`?", e.MemberName, closestName)
	}
	return fmt.Sprintf("unknown associated type `%s`", e.MemberName)
}

// findClosestCandidate finds the associated type name with the smallest
// edit distance from the member name. In cases of typos, this should provide a helpful hint.
func (e *UnresolvedRequirementError) findClosestCandidate() (closestName string) {
	nameRunes := []rune(e.MemberName)

	closestDistance := len(e.MemberName)

	sortedCandidates := make([]string, len(e.Candidates))
	copy(sortedCandidates, e.Candidates)
	sort.Strings(sortedCandidates)

	for _, candidate := range sortedCandidates {
		distance := levenshtein.DistanceForStrings(
			nameRunes,
			[]rune(candidate),
			levenshtein.DefaultOptions,
		)

		// Don't update the closest name if the distance is greater than one already found,
		// or if the edits required would involve a complete replacement of the name
		if distance < closestDistance && distance < len(candidate) {
			closestName = candidate
			closestDistance = distance
		}
	}

	return
}

// ConcreteGenericParameterError

type ConcreteGenericParameterError struct {
	Param        *GenericParamType
	ConcreteType Type
	// Source is the source of a written requirement binding the parameter, if any
	Source *RequirementSource
}

var _ SemanticError = &ConcreteGenericParameterError{}
var _ errors.UserError = &ConcreteGenericParameterError{}
var _ errors.SecondaryError = &ConcreteGenericParameterError{}
var _ errors.ErrorNotes = &ConcreteGenericParameterError{}

func (*ConcreteGenericParameterError) isSemanticError() {}

func (*ConcreteGenericParameterError) IsUserError() {}

func (e *ConcreteGenericParameterError) Error() string {
	return fmt.Sprintf(
		"generic parameter `%s` is bound to concrete type `%s`",
		e.Param,
		e.ConcreteType,
	)
}

func (e *ConcreteGenericParameterError) ErrorNotes() []errors.ErrorNote {
	return requirementSourceNotes(e.Source)
}

func (e *ConcreteGenericParameterError) SecondaryError() string {
	return "consider removing the generic parameter"
}

// CircularProtocolInheritanceError

type CircularProtocolInheritanceError struct {
	Protocol  *ProtocolType
	Inherited *ProtocolType
}

var _ SemanticError = &CircularProtocolInheritanceError{}
var _ errors.UserError = &CircularProtocolInheritanceError{}

func (*CircularProtocolInheritanceError) isSemanticError() {}

func (*CircularProtocolInheritanceError) IsUserError() {}

func (e *CircularProtocolInheritanceError) Error() string {
	return fmt.Sprintf(
		"protocol `%s` inherits from itself through `%s`",
		e.Protocol,
		e.Inherited,
	)
}

// MissingConformanceError

type MissingConformanceError struct {
	Type     Type
	Protocol *ProtocolType
}

var _ SemanticError = &MissingConformanceError{}
var _ errors.UserError = &MissingConformanceError{}

func (*MissingConformanceError) isSemanticError() {}

func (*MissingConformanceError) IsUserError() {}

func (e *MissingConformanceError) Error() string {
	return fmt.Sprintf(
		"`%s` does not conform to `%s`",
		e.Type,
		e.Protocol,
	)
}

// SubstitutionCountMismatchError

type SubstitutionCountMismatchError struct {
	Expected int
	Actual   int
}

var _ SemanticError = &SubstitutionCountMismatchError{}
var _ errors.UserError = &SubstitutionCountMismatchError{}

func (*SubstitutionCountMismatchError) isSemanticError() {}

func (*SubstitutionCountMismatchError) IsUserError() {}

func (e *SubstitutionCountMismatchError) Error() string {
	return fmt.Sprintf(
		"incorrect number of replacements: expected %d, got %d",
		e.Expected,
		e.Actual,
	)
}

// RedundantRequirementError is a warning

type RedundantRequirementError struct {
	Requirement Requirement
}

var _ SemanticError = &RedundantRequirementError{}
var _ errors.UserError = &RedundantRequirementError{}
var _ errors.SecondaryError = &RedundantRequirementError{}

func (*RedundantRequirementError) isSemanticError() {}

func (*RedundantRequirementError) IsUserError() {}

func (e *RedundantRequirementError) Error() string {
	return fmt.Sprintf(
		"redundant requirement `%s`",
		e.Requirement,
	)
}

func (e *RedundantRequirementError) SecondaryError() string {
	return "the requirement is implied by other requirements"
}

// DelayedRequirementLimitError

type DelayedRequirementLimitError struct {
	Iterations int
	Remaining  int
}

var _ errors.InternalError = DelayedRequirementLimitError{}

func (DelayedRequirementLimitError) IsInternalError() {}

func (e DelayedRequirementLimitError) Error() string {
	return fmt.Sprintf(
		"delayed requirements did not reach a fixpoint after %d iterations (%d remaining)",
		e.Iterations,
		e.Remaining,
	)
}

// PotentialArchetypeLimitError

type PotentialArchetypeLimitError struct {
	Limit int
}

var _ errors.InternalError = PotentialArchetypeLimitError{}

func (PotentialArchetypeLimitError) IsInternalError() {}

func (e PotentialArchetypeLimitError) Error() string {
	return fmt.Sprintf(
		"potential archetype limit of %d exceeded",
		e.Limit,
	)
}
