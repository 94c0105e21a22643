// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/queue"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// StatusResult is the project status for JSON output.
type StatusResult struct {
	Root       string         `json:"root"`
	Functions  int            `json:"functions"`
	Contracts  int            `json:"contracts"`
	Edges      int            `json:"edges"`
	ByStatus   map[string]int `json:"by_status"`
	Queue      queue.Stats    `json:"queue"`
	Timestamp  time.Time      `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying index, queue,
// and dependency-graph statistics.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec status [--json]

Shows how many functions are indexed, their lifecycle statuses, queue
depth, and dependency-edge counts.
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()

	repo := repository.New(s)
	byStatus, err := repo.CountByStatus(ctx)
	if err != nil {
		fail(globals, err)
	}
	graphStats, err := depgraph.New(s.DB()).ComputeStats(ctx)
	if err != nil {
		fail(globals, err)
	}
	queueStats, err := queue.New(s.DB()).ComputeStats(ctx)
	if err != nil {
		fail(globals, err)
	}

	result := StatusResult{
		Root:      globals.Root,
		Functions: graphStats.TotalArtifacts,
		Contracts: graphStats.WithContracts,
		Edges:     graphStats.TotalEdges,
		ByStatus:  byStatus,
		Queue:     queueStats,
		Timestamp: time.Now().UTC(),
	}
	emit(globals, result)
	if globals.JSON {
		return
	}

	ui.Header("drspec status")
	fmt.Printf("%s %d functions, %d with contracts, %d call edges\n",
		ui.Label("Index:"), result.Functions, result.Contracts, result.Edges)
	for _, st := range []domain.ArtifactStatus{domain.StatusPending, domain.StatusVerified, domain.StatusNeedsReview, domain.StatusStale, domain.StatusBroken} {
		if n := byStatus[string(st)]; n > 0 {
			fmt.Printf("  %s: %s\n", ui.StatusText(st), ui.CountText(n))
		}
	}
	fmt.Printf("%s %d pending, %d processing, %d completed, %d failed\n",
		ui.Label("Queue:"), queueStats.Pending, queueStats.Processing, queueStats.Completed, queueStats.Failed)
}
