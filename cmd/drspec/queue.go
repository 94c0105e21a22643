// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/queue"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runQueue executes the 'queue' CLI command and its verbs. External
// agents drive their work loop through `queue pop --json` and
// `queue complete`/`queue retry`.
func runQueue(args []string, globals GlobalFlags) {
	usage := func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec queue <verb> [options]

Verbs:
  pop                              Claim the next pending entry
  peek [-n N] [--all]              Inspect upcoming entries without claiming
  push <function_id> [--priority]  Enqueue (or re-arm) an entry
  complete <function_id> [--error] Finish a claimed entry
  retry <function_id> [--reason]   Send an entry back to PENDING
  prioritize <function_id> <prio>  Change an entry's priority
  remove <function_id>             Delete an entry
  clear-completed                  Delete every COMPLETED entry
  stats                            Count entries by status
`)
	}
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()
	q := queue.New(s.DB())

	verb, rest := args[0], args[1:]
	switch verb {
	case "pop":
		entry, err := q.Pop(ctx)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, entry)
		if !globals.JSON {
			ui.Infof("Claimed %s (attempt %d/%d, reason %s)", entry.FunctionID, entry.Attempts, entry.MaxAttempts, entry.Reason)
		}

	case "peek":
		fs := flag.NewFlagSet("queue peek", flag.ExitOnError)
		n := fs.Int("n", 10, "How many entries to show")
		all := fs.Bool("all", false, "Include PROCESSING entries, not just PENDING")
		if err := fs.Parse(rest); err != nil {
			os.Exit(1)
		}
		entries, err := q.Peek(ctx, *n, *all)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, entries)
		if !globals.JSON {
			for _, e := range entries {
				fmt.Printf("%4d  %s  %-18s %s\n", e.Priority, ui.QueueStatusText(e.Status), e.Reason, e.FunctionID)
			}
			if len(entries) == 0 {
				ui.Info("Queue is empty")
			}
		}

	case "push":
		fs := flag.NewFlagSet("queue push", flag.ExitOnError)
		priority := fs.Int("priority", domain.DefaultPriority, "Priority (lower pops first)")
		reason := fs.String("reason", string(domain.ReasonManualRetry), "Queue reason")
		if err := fs.Parse(rest); err != nil {
			os.Exit(1)
		}
		if fs.NArg() != 1 {
			usage()
			os.Exit(1)
		}
		id := requireFunctionID(globals, fs.Arg(0))
		if err := q.Push(ctx, id, domain.QueueReason(*reason), *priority); err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"function_id": id, "priority": *priority})
		if !globals.JSON {
			ui.Successf("Queued %s at priority %d", id, *priority)
		}

	case "complete":
		fs := flag.NewFlagSet("queue complete", flag.ExitOnError)
		errMsg := fs.String("error", "", "Failure message; marks the entry FAILED")
		if err := fs.Parse(rest); err != nil {
			os.Exit(1)
		}
		if fs.NArg() != 1 {
			usage()
			os.Exit(1)
		}
		id := requireFunctionID(globals, fs.Arg(0))
		if err := q.Complete(ctx, id, *errMsg == "", *errMsg); err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"function_id": id})
		if !globals.JSON {
			ui.Successf("Completed %s", id)
		}

	case "retry":
		fs := flag.NewFlagSet("queue retry", flag.ExitOnError)
		reason := fs.String("reason", string(domain.ReasonManualRetry), "Queue reason (MANUAL_RETRY rewinds the attempt budget)")
		if err := fs.Parse(rest); err != nil {
			os.Exit(1)
		}
		if fs.NArg() != 1 {
			usage()
			os.Exit(1)
		}
		id := requireFunctionID(globals, fs.Arg(0))
		if err := q.Retry(ctx, id, domain.QueueReason(*reason)); err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"function_id": id})
		if !globals.JSON {
			ui.Successf("Re-queued %s", id)
		}

	case "prioritize":
		if len(rest) != 2 {
			usage()
			os.Exit(1)
		}
		id := requireFunctionID(globals, rest[0])
		var priority int
		if _, err := fmt.Sscanf(rest[1], "%d", &priority); err != nil {
			usage()
			os.Exit(1)
		}
		if err := q.Prioritize(ctx, id, priority); err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"function_id": id, "priority": priority})

	case "remove":
		if len(rest) != 1 {
			usage()
			os.Exit(1)
		}
		id := requireFunctionID(globals, rest[0])
		if err := q.Remove(ctx, id); err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"function_id": id})

	case "clear-completed":
		n, err := q.ClearCompleted(ctx)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, map[string]any{"removed": n})
		if !globals.JSON {
			ui.Successf("Removed %d completed entries", n)
		}

	case "stats":
		stats, err := q.ComputeStats(ctx)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, stats)
		if !globals.JSON {
			fmt.Printf("pending %d, processing %d, completed %d, failed %d\n",
				stats.Pending, stats.Processing, stats.Completed, stats.Failed)
		}

	default:
		usage()
		os.Exit(1)
	}
}
