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
)

// SignatureCache shares the query state of structurally identical signatures.
// It is safe for concurrent use.
type SignatureCache struct {
	signatures map[string]*canonicalSignature
	mu         sync.Mutex
}

func NewSignatureCache() *SignatureCache {
	return &SignatureCache{
		signatures: map[string]*canonicalSignature{},
	}
}

// intern returns the cached signature with the same parameters and requirements,
// or caches the given one.
func (c *SignatureCache) intern(signature *canonicalSignature) *canonicalSignature {
	key, err := encodeSignature(signature.params, signature.requirements)
	if err != nil {
		return signature
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.signatures[string(key)]; ok {
		return existing
	}
	c.signatures[string(key)] = signature
	return signature
}

// Len returns the number of cached signatures.
func (c *SignatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.signatures)
}
