// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/hints"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runHints executes the 'hints' CLI command: extract the
// @invariant/@pre/@post/@requires annotations a developer left in a
// function's comments, as seed material for its contract.
func runHints(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("hints", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec hints <function_id>

Scans the function's body for machine-readable contract annotations in
comments and docstrings, e.g.:

  # @invariant: result is never negative
  # @pre: x must be a finite float
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	id := requireFunctionID(globals, fs.Arg(0))

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()

	a, err := repository.New(s).GetArtifact(ctx, id)
	if err != nil {
		fail(globals, err)
	}

	found := hints.Extract(a.Body, a.Language, a.StartLine)
	emit(globals, found)
	if globals.JSON {
		return
	}
	if len(found) == 0 {
		ui.Info("No annotations found")
		return
	}
	for _, h := range found {
		fmt.Printf("%s:%d  @%s  %s\n", a.FilePath, h.Line, h.Kind, h.Text)
	}
}
