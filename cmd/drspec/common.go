// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/drspec/internal/bootstrap"
	"github.com/kraklabs/drspec/internal/envelope"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/store"
	"github.com/kraklabs/drspec/internal/ui"
)

// openStore opens the project database or exits with
// DB_NOT_INITIALIZED, honoring --json.
func openStore(ctx context.Context, globals GlobalFlags) *store.Store {
	s, err := bootstrap.OpenExisting(ctx, globals.Root)
	if err != nil {
		fail(globals, coreerrors.State(coreerrors.CodeDBNotInitialized, err.Error(), nil))
	}
	return s
}

// emit writes a successful result: the envelope when --json is set, or
// nothing (callers print their own human output) otherwise.
func emit(globals GlobalFlags, data any) {
	if !globals.JSON {
		return
	}
	if err := envelope.WriteStdout(envelope.Ok(data)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fail reports err and exits non-zero. With --json the envelope goes
// to stdout; otherwise a human-readable line goes to stderr, with any
// fuzzy-match suggestions underneath.
func fail(globals GlobalFlags, err error) {
	if globals.JSON {
		_ = envelope.WriteStdout(envelope.Err(err))
		os.Exit(1)
	}
	ui.Errorf("%v", err)
	if ce, ok := coreerrors.As(err); ok {
		if suggestions, ok := ce.Details["suggestions"].([]string); ok && len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "Did you mean:\n")
			for _, s := range suggestions {
				fmt.Fprintf(os.Stderr, "  %s\n", s)
			}
		}
	}
	os.Exit(1)
}

// extractJSONFlag honors a trailing --json anywhere in a subcommand's
// arguments, since agents habitually append it (`drspec queue pop
// --json`). Global parsing stops at the subcommand, so it lands here.
func extractJSONFlag(args []string, globals *GlobalFlags) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--json" {
			globals.JSON = true
			globals.Quiet = true
			continue
		}
		out = append(out, a)
	}
	return out
}

// requireFunctionID validates the "<path>::<name>" grammar: a
// non-empty path segment, the literal "::", and a non-empty name
// segment, split on the first "::" only.
func requireFunctionID(globals GlobalFlags, raw string) string {
	idx := strings.Index(raw, "::")
	if idx <= 0 || idx+2 >= len(raw) {
		fail(globals, coreerrors.Validation(coreerrors.CodeInvalidFunctionID,
			fmt.Sprintf("%q is not a valid function id (expected <path>::<name>)", raw),
			map[string]any{"function_id": raw}))
	}
	return raw
}
