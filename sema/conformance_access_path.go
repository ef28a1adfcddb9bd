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
	"strings"
	"time"

	"github.com/turbolent/prettier"

	"github.com/onflow/generics/common"
)

// ConformanceAccessPathEntry is one step of a conformance access path:
// the conformance of the subject to the protocol.
// The subject of each step after the first is expressed in terms of
// the Self of the protocol of the previous step.
type ConformanceAccessPathEntry struct {
	Subject  Type
	Protocol *ProtocolType
}

func (e ConformanceAccessPathEntry) String() string {
	return e.Subject.String() + ": " + e.Protocol.String()
}

// ConformanceAccessPath describes how the conformance of a type to a protocol
// is reached from the explicit requirements of a signature:
// the first step is an explicit requirement,
// and each following step is a requirement of the protocol of the previous step.
type ConformanceAccessPath struct {
	Entries []ConformanceAccessPathEntry
}

func (p *ConformanceAccessPath) Len() int {
	return len(p.Entries)
}

func (p *ConformanceAccessPath) String() string {
	var sb strings.Builder
	for i, entry := range p.Entries {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		sb.WriteByte('(')
		sb.WriteString(entry.String())
		sb.WriteByte(')')
	}
	return sb.String()
}

var accessPathSeparatorDoc prettier.Doc = prettier.Concat{
	prettier.Text(" ->"),
	prettier.Line{},
}

func (p *ConformanceAccessPath) Doc() prettier.Doc {
	entryDocs := make([]prettier.Doc, len(p.Entries))
	for i, entry := range p.Entries {
		entryDocs[i] = prettier.Text("(" + entry.String() + ")")
	}
	return prettier.Group{
		Doc: prettier.Join(accessPathSeparatorDoc, entryDocs...),
	}
}

type accessPathKey struct {
	protocol *ProtocolType
	ty       TypeID
}

// GetConformanceAccessPath returns the path through the requirements of the signature
// which proves the conformance of the dependent type to the protocol.
//
// The path is computed without holding the lock of the signature,
// as it may query the signatures of protocols.
func (s *GenericSignature) GetConformanceAccessPath(ty Type, protocol *ProtocolType) (*ConformanceAccessPath, error) {
	config := s.canonical.config

	var start time.Time
	if config.TracingEnabled && config.OnRecordTrace != nil {
		start = time.Now()
	}

	canonical := s.canonical

	canonical.mu.Lock()
	builder := canonical.builder()
	canonicalType := builder.canonicalTypeInContext(ty)
	key := accessPathKey{
		ty:       canonicalType.ID(),
		protocol: protocol,
	}
	if path, ok := canonical.accessPaths[key]; ok {
		canonical.mu.Unlock()
		return path, nil
	}
	source, rootType := builder.conformanceSource(canonicalType, protocol)
	canonical.mu.Unlock()

	if source == nil {
		return nil, &MissingConformanceError{
			Type:     ty,
			Protocol: protocol,
		}
	}

	path, err := buildConformanceAccessPath(config, source, protocol, rootType)
	if err != nil {
		return nil, err
	}

	canonical.mu.Lock()
	if existing, ok := canonical.accessPaths[key]; ok {
		path = existing
	} else {
		if canonical.accessPaths == nil {
			canonical.accessPaths = map[accessPathKey]*ConformanceAccessPath{}
		}
		canonical.accessPaths[key] = path
	}
	canonical.mu.Unlock()

	if config.TracingEnabled && config.OnRecordTrace != nil {
		reportConformanceAccessPathTrace(config, ty, protocol, path.Len(), time.Since(start))
	}

	return path, nil
}

// conformanceSource returns the best source of the conformance of the type to the protocol,
// and the canonical type of the root of that source.
// Sources which derive the conformance from itself are avoided.
func (b *GenericSignatureBuilder) conformanceSource(ty Type, protocol *ProtocolType) (*RequirementSource, Type) {
	resolved, ok := b.resolveInContext(ty)
	if !ok || resolved.isConcrete() {
		return nil, nil
	}

	class := b.class(resolved.archetype)
	constraints, ok := class.conformsTo.Get(protocol)
	if !ok {
		return nil, nil
	}

	var best, bestSelfDerived *RequirementSource
	for _, constraint := range constraints {
		source := constraint.Source
		if source.isSelfDerivedConformance(class, protocol, b.classOfKnownType) {
			if bestSelfDerived == nil || source.Compare(bestSelfDerived) < 0 {
				bestSelfDerived = source
			}
			continue
		}
		if best == nil || source.Compare(best) < 0 {
			best = source
		}
	}
	if best == nil {
		best = bestSelfDerived
	}

	return best, b.canonicalTypeInContext(best.RootType())
}

// conformanceSource returns the best source of the conformance in the signature, see GenericSignatureBuilder.conformanceSource.
func (s *GenericSignature) conformanceSource(ty Type, protocol *ProtocolType) (source *RequirementSource, rootType Type) {
	s.withBuilder(func(builder *GenericSignatureBuilder) {
		source, rootType = builder.conformanceSource(ty, protocol)
	})
	return
}

type accessPathTask struct {
	source          *RequirementSource
	conformingProto *ProtocolType
	rootType        Type
	// requirementSignatureProto is the protocol in whose signature the source was found, if any
	requirementSignatureProto *ProtocolType
	// afterParent is set for the step of a protocol requirement,
	// which is added once the path to its parent is built
	afterParent bool
}

// buildConformanceAccessPath walks the derivation of a conformance from its root,
// adding a step for every protocol requirement along the way.
func buildConformanceAccessPath(
	config *Config,
	source *RequirementSource,
	protocol *ProtocolType,
	rootType Type,
) (*ConformanceAccessPath, error) {

	var entries []ConformanceAccessPathEntry

	addEntry := func(subject Type, protocol *ProtocolType) {
		common.UseMemory(config.MemoryGauge, common.AccessPathEntryMemoryUsage)
		entries = append(entries, ConformanceAccessPathEntry{
			Subject:  subject,
			Protocol: protocol,
		})
	}

	stack := []accessPathTask{
		{
			source:          source,
			conformingProto: protocol,
			rootType:        rootType,
		},
	}

	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		source := task.source

		if task.afterParent {
			inProtocol := source.protocol
			protocolSignature := protocolGenericSignature(config, inProtocol)

			if source.usesRequirementSignature || task.requirementSignatureProto != nil {
				subject := protocolSignature.GetCanonicalTypeInContext(source.storedType)
				addEntry(subject, task.conformingProto)
				continue
			}

			// find the conformance in the protocol's own signature,
			// without any details of the enclosing context
			storedType := eraseAssociatedTypes(source.storedType)
			innerSource, localRootType := protocolSignature.conformanceSource(storedType, task.conformingProto)
			if innerSource == nil {
				return nil, &MissingConformanceError{
					Type:     storedType,
					Protocol: task.conformingProto,
				}
			}

			stack = append(stack, accessPathTask{
				source:                    innerSource,
				conformingProto:           task.conformingProto,
				rootType:                  localRootType,
				requirementSignatureProto: inProtocol,
			})
			continue
		}

		switch {
		case source.IsProtocolRequirement():
			after := task
			after.afterParent = true
			stack = append(
				stack,
				after,
				accessPathTask{
					source:                    source.Parent,
					conformingProto:           source.protocol,
					rootType:                  task.rootType,
					requirementSignatureProto: task.requirementSignatureProto,
				},
			)

		case source.Kind == RequirementSourceKindSuperclass,
			source.Kind == RequirementSourceKindConcrete:

			addEntry(source.affectedType, task.conformingProto)

		case source.Parent != nil:
			parent := task
			parent.source = source.Parent
			stack = append(stack, parent)

		default:
			// skip the trivial step of a protocol's own Self
			if len(entries) > 0 &&
				entries[len(entries)-1].Protocol == task.conformingProto &&
				task.rootType.Equal(ProtocolSelfType) {

				continue
			}

			addEntry(task.rootType, task.conformingProto)
		}
	}

	return &ConformanceAccessPath{
		Entries: entries,
	}, nil
}

// eraseAssociatedTypes replaces the members of dependent types with name-only members.
func eraseAssociatedTypes(ty Type) Type {
	return transformType(ty, func(dependent Type) Type {
		member, ok := dependent.(*DependentMemberType)
		if !ok {
			return dependent
		}
		return NewUnresolvedDependentMemberType(eraseAssociatedTypes(member.Base), member.Name)
	})
}

// protocolGenericSignature returns the signature `<Self where Self: P>` of the protocol.
func protocolGenericSignature(config *Config, protocol *ProtocolType) *GenericSignature {
	if config.ProtocolSignatures != nil {
		return config.ProtocolSignatures.GenericSignature(protocol)
	}
	return computeProtocolGenericSignature(config, protocol)
}

func computeProtocolGenericSignature(config *Config, protocol *ProtocolType) *GenericSignature {
	builder := NewGenericSignatureBuilder(config)
	builder.AddGenericParameter(ProtocolSelfType)
	builder.AddRequirement(NewConformanceRequirement(ProtocolSelfType, protocol), false)
	return builder.ComputeGenericSignature(false, nil)
}
