// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/drspec/internal/confidence"
	"github.com/kraklabs/drspec/internal/contractdoc"
	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runContract executes the 'contract' CLI command: the submission
// entry point external agents call with their generated contract JSON,
// plus fetch and offline validation.
func runContract(args []string, globals GlobalFlags) {
	usage := func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec contract <verb> [options]

Verbs:
  submit <function_id> [--file F] [--confidence C] [--agent A]
        Validate and store a contract (reads JSON from --file or stdin).
        Confidence is on [0,100]; at or above the configured threshold
        the function becomes VERIFIED, below it NEEDS_REVIEW.
  get <function_id>
        Print the stored contract with its confidence.
  validate [--file F]
        Validate contract JSON without touching the database.
`)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "submit":
		runContractSubmit(rest, globals, usage)
	case "get":
		runContractGet(rest, globals, usage)
	case "validate":
		runContractValidate(rest, globals)
	default:
		usage()
		os.Exit(1)
	}
}

func readDocumentArg(globals GlobalFlags, file string) []byte {
	var raw []byte
	var err error
	if file == "" || file == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON,
			fmt.Sprintf("cannot read contract document: %v", err), nil))
	}
	return raw
}

// toCoreError maps a contractdoc validation failure onto the envelope's
// error codes.
func toCoreError(err error) error {
	ve, ok := err.(*contractdoc.ValidationError)
	if !ok {
		return err
	}
	code := coreerrors.CodeInvalidSchema
	if ve.Kind == contractdoc.ErrInvalidJSON {
		code = coreerrors.CodeInvalidJSON
	}
	return coreerrors.Validation(code, ve.Message, nil)
}

func runContractSubmit(args []string, globals GlobalFlags, usage func()) {
	fs := flag.NewFlagSet("contract submit", flag.ExitOnError)
	file := fs.String("file", "", "Contract JSON file (default: stdin)")
	confidenceArg := fs.Float64("confidence", 0, "Submitted confidence on [0,100]")
	agent := fs.String("agent", "", "Optional agent tag; appends a reasoning trace")
	tracePayload := fs.String("trace", "", "JSON payload for the reasoning trace")
	script := fs.String("script", "", "Optional verification script file to cache with the contract")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	id := requireFunctionID(globals, fs.Arg(0))

	raw := readDocumentArg(globals, *file)
	doc, err := contractdoc.Parse(raw)
	if err != nil {
		fail(globals, toCoreError(err))
	}
	canonical, err := doc.Marshal()
	if err != nil {
		fail(globals, coreerrors.Internal("re-encode contract document", err))
	}

	var scriptText string
	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON,
				fmt.Sprintf("cannot read verification script: %v", err), nil))
		}
		scriptText = string(data)
	}

	var trace *domain.ReasoningTrace
	if *agent != "" {
		payload := *tracePayload
		if payload == "" {
			payload = "{}"
		}
		if !json.Valid([]byte(payload)) {
			fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON, "trace payload is not valid JSON", nil))
		}
		trace = &domain.ReasoningTrace{FunctionID: id, Agent: domain.AgentTag(*agent), Payload: payload}
	}

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()

	repo := repository.New(s)
	status, err := repo.UpsertContract(ctx, domain.Contract{
		FunctionID:         id,
		Document:           string(canonical),
		Confidence:         *confidenceArg,
		VerificationScript: scriptText,
	}, trace)
	if err != nil {
		fail(globals, err)
	}

	emit(globals, map[string]any{
		"function_id": id,
		"status":      status,
		"confidence":  confidence.Normalize(*confidenceArg),
	})
	if !globals.JSON {
		ui.Successf("Contract stored; %s is now %s", id, status)
	}
}

func runContractGet(args []string, globals GlobalFlags, usage func()) {
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}
	id := requireFunctionID(globals, args[0])

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()
	repo := repository.New(s)

	c, err := repo.GetContract(ctx, id)
	if err != nil {
		fail(globals, err)
	}
	findings, err := repo.VisionFindings(ctx, id)
	if err != nil {
		fail(globals, err)
	}

	base := confidence.DisplayPercent(c.Confidence)
	adjusted := confidence.AdjustedPercent(base, findings)

	emit(globals, map[string]any{
		"function_id":        id,
		"document":           json.RawMessage(c.Document),
		"confidence":         c.Confidence,
		"confidence_percent": base,
		"adjusted_percent":   adjusted,
		"confidence_level":   confidence.BucketFor(c.Confidence),
		"has_cached_script":  c.VerificationScript != "",
		"updated_at":         c.UpdatedAt,
	})
	if !globals.JSON {
		level := confidence.BucketFor(c.Confidence)
		if adjusted == base {
			fmt.Printf("%s  confidence %s (%s)\n", id, ui.ConfidenceText(base), level)
		} else {
			fmt.Printf("%s  confidence %s shown as %s after open findings (%s)\n", id, ui.ConfidenceText(base), ui.ConfidenceText(adjusted), level)
		}
		fmt.Println(c.Document)
	}
}

func runContractValidate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("contract validate", flag.ExitOnError)
	file := fs.String("file", "", "Contract JSON file (default: stdin)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	raw := readDocumentArg(globals, *file)
	doc, err := contractdoc.Parse(raw)
	if err != nil {
		fail(globals, toCoreError(err))
	}

	emit(globals, map[string]any{
		"valid":      true,
		"invariants": len(doc.Invariants),
	})
	if !globals.JSON {
		ui.Successf("Valid contract with %d invariants", len(doc.Invariants))
	}
}
