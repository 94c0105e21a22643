// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/learning"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/ui"
	"github.com/kraklabs/drspec/internal/vcs"
	flag "github.com/spf13/pflag"
)

// lastMinedKey is the config-table checkpoint recording how far into
// history the miner has already walked.
const lastMinedKey = "last_mined_commit"

// runLearn executes the 'learn' CLI command: walk unmined commits,
// classify bug fixes, mine patterns, and append to the learning log.
// With --apply, strengthening is written back into contracts.
func runLearn(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("learn", flag.ExitOnError)
	apply := fs.Bool("apply", false, "Write suggested invariants and confidence boosts back into contracts")
	since := fs.String("since", "", "Mine commits after this SHA (default: the stored checkpoint)")
	all := fs.Bool("all", false, "Ignore the checkpoint and mine the whole history")
	summaryOnly := fs.Bool("summary", false, "Print learning-log aggregates instead of mining")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec learn [options]

Walks the project's git history since the last mined commit. Commits
whose message reads as a bug fix are parsed; each fix pattern found in
a changed function is recorded in the learning log, and matching
contract invariants earn a confidence boost.

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
	log := learning.New(s.DB())

	if *summaryOnly {
		summary, err := log.Summarize(ctx)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, summary)
		if !globals.JSON {
			fmt.Printf("%d events (%d in the last 7 days), %d contract modifications\n",
				summary.TotalEvents, summary.EventsLast7Days, summary.ContractsModified)
			for _, c := range summary.ByCategory {
				fmt.Printf("  %-20s %d\n", c.Category, c.Count)
			}
		}
		return
	}

	walker := vcs.NewWalker(globals.Root, nil)
	if !walker.IsGitRepository() {
		fail(globals, fmt.Errorf("%s is not a git repository", globals.Root))
	}

	checkpoint := *since
	if checkpoint == "" && !*all {
		_ = s.DB().QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, lastMinedKey).Scan(&checkpoint)
	}

	miner := learning.NewMiner(walker, repository.New(s), log, nil)
	miner.Apply = *apply

	outcomes, err := miner.Run(ctx, checkpoint)
	if err != nil {
		fail(globals, err)
	}

	if head, err := walker.HeadSHA(); err == nil {
		_, _ = s.DB().ExecContext(ctx, `
			INSERT INTO config(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, lastMinedKey, head)
	}

	mined, events := 0, 0
	for _, o := range outcomes {
		if o.Mined {
			mined++
		}
		events += o.EventsRecorded
	}
	emit(globals, map[string]any{
		"commits_walked": len(outcomes),
		"bug_fixes":      mined,
		"events":         events,
	})
	if !globals.JSON {
		ui.Successf("Walked %d commits, mined %d bug fixes, recorded %d learning events", len(outcomes), mined, events)
	}
}
