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

// A utility program that computes the generic signatures of the contexts in a declaration file.

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/turbolent/prettier"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onflow/generics/declfile"
	"github.com/onflow/generics/errors"
	"github.com/onflow/generics/sema"
)

var contextFlag = flag.String("context", "", "only compute the signature of the context with the given name")
var widthFlag = flag.Int("width", 80, "maximum line width of printed signatures")
var warningsFlag = flag.Bool("warnings", false, "report redundant requirements as warnings")
var encodeFlag = flag.Bool("encode", false, "print the hex-encoded canonical encoding of each signature")
var colorFlag = flag.Bool("color", true, "colorize the output")
var debugFlag = flag.Bool("debug", false, "log the decisions of the signature builder")
var traceFlag = flag.Bool("trace", false, "log the duration of signature computations")
var jsonFlag = flag.Bool("json", false, "print the results as JSON")
var jqFlag = flag.String("jq", "", "filter the JSON results with the given jq query (implies -json)")

func main() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: signature [flags] <declarations.yaml>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	declarations, err := declfile.LoadFile(args[0])
	if err != nil {
		log.Fatal().Err(err).Str("path", args[0]).Msg("failed to load declarations")
	}

	config := newConfig()

	contexts := declarations.Contexts()
	if *contextFlag != "" {
		context := declarations.Context(*contextFlag)
		if context == nil {
			log.Fatal().Str("context", *contextFlag).Msg("unknown context")
		}
		contexts = []*declfile.Context{context}
	}

	p := &printer{
		out:    os.Stdout,
		colors: aurora.New(aurora.WithColors(*colorFlag)),
		width:  *widthFlag,
	}

	var failed bool
	if *jsonFlag || *jqFlag != "" {
		failed = !p.printJSON(contexts, config)
	} else {
		for _, context := range contexts {
			if !p.printContext(context, config) {
				failed = true
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func newConfig() *sema.Config {
	logger := log.Logger

	config := &sema.Config{
		SignatureCache:            sema.NewSignatureCache(),
		Logger:                    &logger,
		TracingEnabled:            *traceFlag,
		RedundancyWarningsEnabled: *warningsFlag,
	}
	config.ProtocolSignatures = sema.NewProtocolSignatureCache(config)

	if *traceFlag {
		config.OnRecordTrace = func(
			_ *sema.GenericSignatureBuilder,
			operationName string,
			duration time.Duration,
			attrs []attribute.KeyValue,
		) {
			event := log.Info().
				Str("operation", operationName).
				Dur("duration", duration)
			for _, attr := range attrs {
				event = event.Str(string(attr.Key), attr.Value.Emit())
			}
			event.Msg("trace")
		}
	}

	return config
}

type printer struct {
	out    io.Writer
	colors *aurora.Aurora
	width  int
}

func (p *printer) printf(format string, args ...any) {
	_, err := fmt.Fprintf(p.out, format, args...)
	if err != nil {
		panic(err)
	}
}

func (p *printer) pretty(doc prettier.Doc) string {
	var sb strings.Builder
	prettier.Prettier(&sb, doc, p.width, "    ")
	return sb.String()
}

// printContext prints the signature of the context and the access paths of its queries.
// It returns false if the signature is invalid.
func (p *printer) printContext(context *declfile.Context, config *sema.Config) bool {
	signature := context.Signature(config)

	p.printf("%s%s\n", p.colors.Bold(context.Name), p.pretty(signature.Doc()))

	for _, err := range signature.Errors() {
		p.printError(p.colors.BrightRed("error").Bold().String(), err)
	}
	for _, warning := range signature.Warnings() {
		p.printError(p.colors.Yellow("warning").Bold().String(), warning)
	}

	if !*warningsFlag {
		for _, requirement := range signature.RedundantRequirements() {
			p.printf("  %s %s\n", p.colors.Faint("redundant:"), requirement)
		}
	}

	if *encodeFlag && !signature.IsInvalid() {
		encoded, err := signature.Encode()
		if err != nil {
			p.printError(p.colors.BrightRed("error").Bold().String(), err)
		} else {
			p.printf("  %s %s\n", p.colors.Faint("encoded:"), hex.EncodeToString(encoded))
		}
	}

	for _, query := range context.Queries {
		protocol := query.Constraint.(*sema.ProtocolType)
		path, err := signature.GetConformanceAccessPath(query.Subject, protocol)
		if err != nil {
			p.printError(p.colors.BrightRed("error").Bold().String(), err)
			continue
		}
		p.printf("  %s %s\n", p.colors.Cyan(query.String()+":"), p.pretty(path.Doc()))
	}

	p.printf("\n")

	return !signature.IsInvalid()
}

func (p *printer) printError(label string, err error) {
	p.printf("  %s: %s\n", label, err)

	if secondaryError, ok := err.(errors.SecondaryError); ok {
		if message := secondaryError.SecondaryError(); message != "" {
			p.printf("    %s\n", message)
		}
	}

	if hasErrorNotes, ok := err.(errors.ErrorNotes); ok {
		for _, note := range hasErrorNotes.ErrorNotes() {
			p.printf("    %s %s\n", p.colors.Faint("note:"), note.Message())
		}
	}

	if parentError, ok := err.(errors.ParentError); ok {
		for _, child := range parentError.ChildErrors() {
			p.printError(label, child)
		}
	}
}
