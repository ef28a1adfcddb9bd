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
	"encoding/json"

	"github.com/itchyny/gojq"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/pretty"

	"github.com/onflow/generics/declfile"
	"github.com/onflow/generics/sema"
)

type contextResult struct {
	Name         string            `json:"name"`
	Signature    string            `json:"signature"`
	Encoded      []byte            `json:"encoded,omitempty"`
	Requirements []string          `json:"requirements"`
	Redundant    []string          `json:"redundant,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	AccessPaths  map[string]string `json:"accessPaths,omitempty"`
	Valid        bool              `json:"valid"`
}

func requirementStrings(requirements []sema.Requirement) []string {
	result := make([]string, len(requirements))
	for i, requirement := range requirements {
		result[i] = requirement.String()
	}
	return result
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	result := make([]string, len(errs))
	for i, err := range errs {
		result[i] = err.Error()
	}
	return result
}

func newContextResult(context *declfile.Context, config *sema.Config) contextResult {
	signature := context.Signature(config)

	result := contextResult{
		Name:         context.Name,
		Signature:    signature.String(),
		Requirements: requirementStrings(signature.Requirements()),
		Redundant:    requirementStrings(signature.RedundantRequirements()),
		Errors:       errorStrings(signature.Errors()),
		Warnings:     errorStrings(signature.Warnings()),
		Valid:        !signature.IsInvalid(),
	}

	if *encodeFlag && result.Valid {
		encoded, err := signature.Encode()
		if err == nil {
			result.Encoded = encoded
		}
	}

	for _, query := range context.Queries {
		if result.AccessPaths == nil {
			result.AccessPaths = make(map[string]string, len(context.Queries))
		}

		protocol := query.Constraint.(*sema.ProtocolType)
		path, err := signature.GetConformanceAccessPath(query.Subject, protocol)
		if err != nil {
			result.AccessPaths[query.String()] = err.Error()
			continue
		}
		result.AccessPaths[query.String()] = path.String()
	}

	return result
}

// printJSON prints the results of all contexts as a JSON array.
// It returns false if any signature is invalid.
func (p *printer) printJSON(contexts []*declfile.Context, config *sema.Config) bool {
	results := make([]contextResult, 0, len(contexts))
	valid := true
	for _, context := range contexts {
		result := newContextResult(context, config)
		valid = valid && result.Valid
		results = append(results, result)
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		panic(err)
	}

	if *jqFlag == "" {
		p.writeJSON(encoded)
		return valid
	}

	query, err := gojq.Parse(*jqFlag)
	if err != nil {
		log.Fatal().Err(err).Str("query", *jqFlag).Msg("invalid jq query")
	}

	// gojq operates on the generic representation of the results
	var input any
	err = json.Unmarshal(encoded, &input)
	if err != nil {
		panic(err)
	}

	iter := query.Run(input)
	for {
		value, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := value.(error); ok {
			log.Fatal().Err(err).Str("query", *jqFlag).Msg("jq query failed")
		}

		encodedValue, err := json.Marshal(value)
		if err != nil {
			panic(err)
		}
		p.writeJSON(encodedValue)
	}

	return valid
}

func (p *printer) writeJSON(encoded []byte) {
	encoded = pretty.Pretty(encoded)
	if *colorFlag {
		encoded = pretty.Color(encoded, nil)
	}

	_, err := p.out.Write(encoded)
	if err != nil {
		panic(err)
	}
}
