// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/scan"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runIndex executes the 'index' CLI command: walk the source tree,
// extract every function, and upsert the results. New and changed
// functions land in the work queue unless --no-queue is set.
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	noQueue := fs.Bool("no-queue", false, "Index without creating queue entries")
	nonRecursive := fs.Bool("non-recursive", false, "Only scan files directly under the root")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec index [options]

Scans the project tree for Python, JavaScript/TypeScript, and C/C++
source, extracts every function, and updates the index. Functions whose
normalized body changed are marked STALE and re-queued; whitespace and
comment edits are recognized as harmless and change nothing.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()

	bar := NewSpinner(globals, "Scanning source tree")
	result, err := scan.Scan(globals.Root, !*nonRecursive, nil)
	FinishSpinner(bar)
	if err != nil {
		fail(globals, err)
	}

	repo := repository.New(s)
	summary, err := repo.SyncScan(ctx, result, !*noQueue)
	if err != nil {
		fail(globals, err)
	}

	emit(globals, map[string]any{
		"functions": len(result.Functions),
		"new":       summary.New,
		"changed":   summary.Changed,
		"unchanged": summary.Unchanged,
		"errors":    summary.Errors,
	})
	if !globals.JSON {
		ui.Successf("Indexed %d functions: %d new, %d changed, %d unchanged",
			len(result.Functions), summary.New, summary.Changed, summary.Unchanged)
		for _, fe := range summary.Errors {
			ui.Warningf("%s: %s", fe.Path, fe.Message)
		}
	}
}
