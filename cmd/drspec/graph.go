// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runGraph executes the 'graph' CLI command: a bounded BFS over the
// call-dependency edges, or whole-graph statistics with 'graph stats'.
func runGraph(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	depth := fs.Int("depth", 2, "Traversal depth, 1-5")
	direction := fs.String("direction", "callees", "callers, callees, or both")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec graph <function_id> [options]
       drspec graph stats

Walks the call-dependency graph out from a function. Cycle edges are
flagged rather than followed forever.

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

	ctx := context.Background()
	s := openStore(ctx, globals)
	defer s.Close()
	g := depgraph.New(s.DB())

	if fs.Arg(0) == "stats" {
		stats, err := g.ComputeStats(ctx)
		if err != nil {
			fail(globals, err)
		}
		emit(globals, stats)
		if !globals.JSON {
			fmt.Printf("%d functions, %d edges, %d with contracts\n",
				stats.TotalArtifacts, stats.TotalEdges, stats.WithContracts)
			if len(stats.TopIncoming) > 0 {
				ui.SubHeader("Most called")
				for _, d := range stats.TopIncoming {
					fmt.Printf("  %4d  %s\n", d.Count, d.FunctionID)
				}
			}
			if len(stats.TopOutgoing) > 0 {
				ui.SubHeader("Most calling")
				for _, d := range stats.TopOutgoing {
					fmt.Printf("  %4d  %s\n", d.Count, d.FunctionID)
				}
			}
		}
		return
	}

	id := requireFunctionID(globals, fs.Arg(0))
	dir, err := depgraph.ParseDirection(*direction)
	if err != nil {
		fail(globals, err)
	}

	result, err := g.GetGraph(ctx, id, *depth, dir)
	if err != nil {
		fail(globals, err)
	}

	emit(globals, result)
	if globals.JSON {
		return
	}

	for _, n := range result.Nodes {
		marker := ""
		if n.HasContract {
			marker = " " + ui.DimText("[contract]")
		}
		fmt.Printf("%s%-12s %s (%s)%s\n", strings.Repeat("  ", n.Depth), n.Relationship, n.FunctionID, ui.StatusText(n.Status), marker)
	}
	if result.HasCycles {
		ui.Warning("Graph contains cycles")
	}
	if result.Truncated {
		ui.Warning("Traversal truncated at the node-exploration limit")
	}
}
