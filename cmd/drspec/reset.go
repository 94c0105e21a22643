// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/bootstrap"
	flag "github.com/spf13/pflag"
)

// runReset executes the 'reset' CLI command, deleting the project's
// entire _drspec/ directory. This is the only way artifacts are ever
// deleted.
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec reset [options]

Deletes the project's _drspec/ directory: the function index, all
contracts, the work queue, the dependency graph, and the learning log.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete all contracts and learning data for the project.\n")
		os.Exit(1)
	}

	dataDir := bootstrap.DataDir(globals.Root)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "No drspec data found at %s\n", dataDir)
		os.Exit(0)
	}

	fmt.Printf("Resetting project (deleting %s)...\n", dataDir)
	if err := bootstrap.Reset(globals.Root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reset complete. All project data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  drspec init     Re-create the data directory")
	fmt.Println("  drspec index    Rebuild the function index")
}
