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

package sema_utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/generics/sema"
	"github.com/onflow/generics/test_utils/common_utils"
)

// ComputeSignature adds the parameters and requirements to a new builder
// and computes the signature. Generic parameters bound to concrete types are allowed.
func ComputeSignature(
	config *sema.Config,
	params []*sema.GenericParamType,
	requirements ...sema.Requirement,
) *sema.GenericSignature {
	builder := sema.NewGenericSignatureBuilder(config)
	for _, param := range params {
		builder.AddGenericParameter(param)
	}
	for _, requirement := range requirements {
		builder.AddRequirement(requirement, false)
	}
	return builder.ComputeGenericSignature(true, nil)
}

// RequireValidSignature requires the signature to have no errors.
func RequireValidSignature(t *testing.T, signature *sema.GenericSignature) {
	t.Helper()

	require.NoError(t, signature.Err())
}

// RequireSignatureErrors requires the signature to have the given number of errors.
func RequireSignatureErrors(t *testing.T, signature *sema.GenericSignature, count int) []error {
	t.Helper()

	if count > 0 {
		common_utils.RequireError(t, signature.Err())
	}

	return common_utils.RequireErrors(t, signature.Errors(), count)
}

// RequirementStrings returns the string representations of the requirements.
func RequirementStrings(requirements []sema.Requirement) []string {
	result := make([]string, len(requirements))
	for i, requirement := range requirements {
		result[i] = requirement.String()
	}
	return result
}
