// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/drspec/internal/bootstrap"
	"github.com/kraklabs/drspec/internal/config"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/ui"
	"github.com/kraklabs/drspec/internal/verify"
	flag "github.com/spf13/pflag"
)

// runVerify executes the 'verify' CLI command: run the contract's
// cached verification script (or one supplied with --script) against
// an input/expected-output pair in an isolated subprocess.
func runVerify(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	scriptFile := fs.String("script", "", "Verification script file (default: the contract's cached script)")
	inputArg := fs.String("input", "{}", "Input payload as JSON")
	outputArg := fs.String("output", "null", "Expected output as JSON")
	timeoutArg := fs.Duration("timeout", 0, "Wall-time limit (default from config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec verify <function_id> [options]

Runs a contract-derived verification script in a subprocess with a
minimized environment and a hard timeout. The script receives
{"input": ..., "output": ...} on stdin and must print
{"passed": bool, "message": str, "invariants_checked": int,
"invariants_passed": int} on stdout.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	id := requireFunctionID(globals, fs.Arg(0))

	var input, expected any
	if err := json.Unmarshal([]byte(*inputArg), &input); err != nil {
		fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON, fmt.Sprintf("--input: %v", err), nil))
	}
	if err := json.Unmarshal([]byte(*outputArg), &expected); err != nil {
		fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON, fmt.Sprintf("--output: %v", err), nil))
	}

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()

	var script string
	if *scriptFile != "" {
		data, err := os.ReadFile(*scriptFile)
		if err != nil {
			fail(globals, coreerrors.Validation(coreerrors.CodeInvalidJSON,
				fmt.Sprintf("cannot read verification script: %v", err), nil))
		}
		script = string(data)
	} else {
		c, err := repository.New(s).GetContract(ctx, id)
		if err != nil {
			fail(globals, err)
		}
		if c.VerificationScript == "" {
			fail(globals, coreerrors.Absence(coreerrors.CodeContractNotFound,
				fmt.Sprintf("contract for %q has no cached verification script; pass --script", id), nil))
		}
		script = c.VerificationScript
	}

	timeout := *timeoutArg
	if timeout == 0 {
		cfg, err := config.Load(bootstrap.ConfigPath(globals.Root))
		if err == nil {
			timeout = time.Duration(cfg.VerificationTimeoutSeconds) * time.Second
		}
	}

	result, err := verify.New(timeout, "", nil).Run(ctx, script, input, expected)
	if err != nil {
		fail(globals, coreerrors.Execution(coreerrors.CodeExecutionError, err.Error(), nil, err))
	}

	emit(globals, result)
	if globals.JSON {
		if result.Status != verify.StatusSuccess {
			os.Exit(1)
		}
		return
	}

	switch result.Status {
	case verify.StatusSuccess:
		if result.Output.Passed {
			ui.Successf("Passed: %d/%d invariants in %s", result.Output.InvariantsPassed, result.Output.InvariantsChecked, result.Duration)
		} else {
			ui.Warningf("Failed: %s (%d/%d invariants)", result.Output.Message, result.Output.InvariantsPassed, result.Output.InvariantsChecked)
		}
	case verify.StatusTimeout:
		ui.Errorf("Timed out: %s", result.Message)
		os.Exit(1)
	default:
		ui.Errorf("%s: %s", result.Status, result.Message)
		os.Exit(1)
	}
}
