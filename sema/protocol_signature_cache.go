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
	"sync/atomic"
	"time"

	"github.com/onflow/generics/common/deps"
	"github.com/onflow/generics/common/orderedmap"
)

// ProtocolSignatureCache memoizes the requirement signatures of protocols,
// and their generic signatures `<Self where Self: P>`.
//
// It is safe for concurrent use: the first caller computes an entry,
// and concurrent callers for the same protocol wait for it.
// Builders computing a requirement signature only use entries which are already complete,
// so they never wait on each other.
type ProtocolSignatureCache struct {
	config  Config
	entries *protocolSignatureEntries
	nodes   map[*ProtocolType]*deps.Node[*ProtocolType]
	mu      sync.Mutex
}

type protocolSignatureEntries = orderedmap.OrderedMap[*ProtocolType, *protocolSignatureEntry]

type protocolSignatureEntry struct {
	err                  error
	signature            *GenericSignature
	requirements         []Requirement
	requirementsOnce     sync.Once
	signatureOnce        sync.Once
	requirementsComputed atomic.Bool
}

// NewProtocolSignatureCache returns a cache which computes signatures with the given configuration.
// The configuration's ProtocolSignatures is replaced by the new cache.
func NewProtocolSignatureCache(config *Config) *ProtocolSignatureCache {
	cache := &ProtocolSignatureCache{
		entries: orderedmap.New[protocolSignatureEntries](0),
		nodes:   map[*ProtocolType]*deps.Node[*ProtocolType]{},
	}
	if config != nil {
		cache.config = *config
	}
	cache.config.ProtocolSignatures = cache
	return cache
}

func (c *ProtocolSignatureCache) entry(protocol *ProtocolType) *protocolSignatureEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(protocol)
	if !ok {
		entry = &protocolSignatureEntry{}
		c.entries.Set(protocol, entry)
	}
	return entry
}

// Len returns the number of protocols with entries.
func (c *ProtocolSignatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

// RequirementSignature returns the requirement signature of the protocol:
// the minimal requirements on its Self, excluding `Self: P` itself.
func (c *ProtocolSignatureCache) RequirementSignature(protocol *ProtocolType) ([]Requirement, error) {
	entry := c.entry(protocol)
	entry.requirementsOnce.Do(func() {
		entry.requirements, entry.err = c.computeRequirementSignature(protocol)
		entry.requirementsComputed.Store(true)
	})
	return entry.requirements, entry.err
}

// peekRequirementSignature returns the requirement signature of the protocol,
// if it is already computed.
func (c *ProtocolSignatureCache) peekRequirementSignature(protocol *ProtocolType) ([]Requirement, bool) {
	c.mu.Lock()
	entry, ok := c.entries.Get(protocol)
	c.mu.Unlock()

	if !ok || !entry.requirementsComputed.Load() || entry.err != nil {
		return nil, false
	}
	return entry.requirements, true
}

func (c *ProtocolSignatureCache) computeRequirementSignature(protocol *ProtocolType) ([]Requirement, error) {
	var start time.Time
	if c.config.TracingEnabled && c.config.OnRecordTrace != nil {
		start = time.Now()
	}

	err := c.checkInheritance(protocol)
	if err != nil {
		return nil, err
	}

	for _, inherited := range protocol.InheritedProtocols {
		// errors of inherited protocols are reported when they are used
		_, _ = c.RequirementSignature(inherited)
	}

	builder := NewGenericSignatureBuilder(&c.config)
	builder.requirementSignatureProtocol = protocol
	builder.AddGenericParameter(ProtocolSelfType)
	builder.addRequirement(
		NewConformanceRequirement(ProtocolSelfType, protocol),
		builder.sources.forRequirementSignature(ProtocolSelfType, protocol),
		ResolutionKindWellFormed,
	)

	signature := builder.ComputeGenericSignature(false, protocol)

	logger := c.config.logger()
	logger.Debug().
		Str("protocol", string(protocol.ID())).
		Int("requirements", len(signature.Requirements())).
		Msg("computed requirement signature")

	if c.config.TracingEnabled && c.config.OnRecordTrace != nil {
		reportRequirementSignatureTrace(&c.config, protocol, len(signature.Requirements()), time.Since(start))
	}

	return signature.Requirements(), signature.Err()
}

// checkInheritance reports circular inheritance of the protocol.
func (c *ProtocolSignatureCache) checkInheritance(protocol *ProtocolType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.node(protocol)

	visited := map[*ProtocolType]struct{}{}
	worklist := []*ProtocolType{protocol}
	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}

		dependencies := make([]*deps.Node[*ProtocolType], len(current.InheritedProtocols))
		for i, inherited := range current.InheritedProtocols {
			dependencies[i] = c.node(inherited)
			worklist = append(worklist, inherited)
		}
		c.node(current).SetDependencies(dependencies...)
	}

	_, err := node.AllDependencies()
	if err == nil {
		return nil
	}

	circularErr, ok := err.(deps.CircularDependencyError[*ProtocolType])
	if !ok {
		return err
	}

	return &CircularProtocolInheritanceError{
		Protocol:  circularErr.Dependent.Value,
		Inherited: circularErr.Dependency.Value,
	}
}

// node returns the inheritance graph node of the protocol. The lock must be held.
func (c *ProtocolSignatureCache) node(protocol *ProtocolType) *deps.Node[*ProtocolType] {
	node, ok := c.nodes[protocol]
	if !ok {
		node = deps.NewNode(protocol)
		c.nodes[protocol] = node
	}
	return node
}

// GenericSignature returns the generic signature `<Self where Self: P>` of the protocol.
func (c *ProtocolSignatureCache) GenericSignature(protocol *ProtocolType) *GenericSignature {
	entry := c.entry(protocol)
	entry.signatureOnce.Do(func() {
		entry.signature = computeProtocolGenericSignature(&c.config, protocol)
	})
	return entry.signature
}
