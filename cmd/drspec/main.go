// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the drspec CLI: an offline index of every
// function in a mixed-language source tree, with per-function
// behavioral contracts, a work queue driving external
// contract-generation agents, a call-dependency graph, and a bug-fix
// learning log mined from version control.
//
// Usage:
//
//	drspec init                        Create the _drspec/ data directory
//	drspec index                       Scan the tree and update the index
//	drspec status [--json]             Show project status
//	drspec queue <verb> [...]          Work-queue operations
//	drspec contract <verb> [...]       Submit/fetch/validate contracts
//	drspec graph <function_id>         Dependency-graph traversal
//	drspec verify <function_id>        Run a contract's verification script
//	drspec hints <function_id>         Extract @invariant/@pre/@post hints
//	drspec learn                       Mine bug-fix commits into the learning log
//	drspec report [--html]             Render a project summary
//	drspec reset --yes                 Delete all project data
package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries the options every subcommand honors.
type GlobalFlags struct {
	Root    string
	JSON    bool
	Quiet   bool
	NoColor bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		root        = flag.String("root", ".", "Project root (where _drspec/ lives)")
		jsonOut     = flag.Bool("json", false, "Machine-readable JSON envelope output")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `drspec - function contract index

Usage:
  drspec <command> [options]

Commands:
  init          Create the _drspec/ data directory and database
  index         Scan the source tree and update the function index
  status        Show index, queue, and graph statistics
  queue         Work-queue operations (push, pop, peek, complete, retry, ...)
  contract      Submit, fetch, or validate a function contract
  graph         Traverse the call-dependency graph
  verify        Run a contract's verification script against test data
  hints         Extract @invariant/@pre/@post/@requires annotations
  learn         Mine version-control history for bug-fix patterns
  report        Render a Markdown (or HTML) project summary
  install-hook  Install a git post-commit hook that runs 'drspec learn'
  reset         Delete all project data (destructive!)
  completion    Print a shell completion script

Global Options:
  --root        Project root (default: current directory)
  --json        Emit the machine-readable response envelope
  --no-color    Disable colored output
  -q, --quiet   Quiet mode (no progress bars)
  --version     Show version and exit

Examples:
  drspec init
  drspec index
  drspec queue pop --json
  drspec contract submit src/x.py::f --file contract.json
  drspec graph src/x.py::f --depth 3 --direction callees
  drspec learn --apply

Data Storage:
  Data is stored locally in <root>/_drspec/contracts.db

Environment Variables:
  DRSPEC_CONFIDENCE_THRESHOLD         Override the VERIFIED threshold
  DRSPEC_MAX_ATTEMPTS                 Override the queue attempt budget
  DRSPEC_VERIFICATION_TIMEOUT_SECONDS Override the verification timeout

`)
	}

	// Stop global parsing at the subcommand so its own flags reach the
	// subcommand's FlagSet untouched.
	flag.CommandLine.SetInterspersed(false)
	flag.Parse()

	if *showVersion {
		fmt.Printf("drspec version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{Root: *root, JSON: *jsonOut, Quiet: *quiet || *jsonOut, NoColor: *noColor}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := extractJSONFlag(args[1:], &globals)

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "queue":
		runQueue(cmdArgs, globals)
	case "contract":
		runContract(cmdArgs, globals)
	case "graph":
		runGraph(cmdArgs, globals)
	case "verify":
		runVerify(cmdArgs, globals)
	case "hints":
		runHints(cmdArgs, globals)
	case "learn":
		runLearn(cmdArgs, globals)
	case "report":
		runReport(cmdArgs, globals)
	case "install-hook":
		runInstallHook(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
