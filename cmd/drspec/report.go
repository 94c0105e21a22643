// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/learning"
	"github.com/kraklabs/drspec/internal/queue"
	"github.com/kraklabs/drspec/internal/report"
	"github.com/kraklabs/drspec/internal/repository"
	flag "github.com/spf13/pflag"
)

// runReport executes the 'report' CLI command: a Markdown (or HTML)
// summary of the index, queue, graph, and learning log.
func runReport(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	html := fs.Bool("html", false, "Render HTML instead of Markdown")
	out := fs.String("out", "", "Write to a file instead of stdout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec report [options]

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

	graphStats, err := depgraph.New(s.DB()).ComputeStats(ctx)
	if err != nil {
		fail(globals, err)
	}
	queueStats, err := queue.New(s.DB()).ComputeStats(ctx)
	if err != nil {
		fail(globals, err)
	}
	learnSummary, err := learning.New(s.DB()).Summarize(ctx)
	if err != nil {
		fail(globals, err)
	}
	byStatus, err := repository.New(s).CountByStatus(ctx)
	if err != nil {
		fail(globals, err)
	}

	data := report.Data{
		ProjectRoot: globals.Root,
		GeneratedAt: time.Now().UTC(),
		Graph:       graphStats,
		Queue:       queueStats,
		Learning:    learnSummary,
		ByStatus:    byStatus,
	}

	var rendered []byte
	if *html {
		rendered, err = report.HTML(data)
		if err != nil {
			fail(globals, err)
		}
	} else {
		rendered = []byte(report.Markdown(data))
	}

	if *out != "" {
		if err := os.WriteFile(*out, rendered, 0o644); err != nil {
			fail(globals, err)
		}
		return
	}
	fmt.Print(string(rendered))
}
