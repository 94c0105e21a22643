// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package report renders human-readable project summaries: a Markdown
// document built from the index, queue, graph, and learning-log
// aggregates, optionally converted to HTML for editor preview panes.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/learning"
	"github.com/kraklabs/drspec/internal/queue"
)

// Data is everything a report aggregates.
type Data struct {
	ProjectRoot string
	GeneratedAt time.Time
	Graph       depgraph.Stats
	Queue       queue.Stats
	Learning    learning.Summary
	ByStatus    map[string]int
}

// Markdown renders the report as a Markdown document.
func Markdown(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# drspec report\n\n")
	fmt.Fprintf(&b, "Project: `%s`  \nGenerated: %s\n\n", d.ProjectRoot, d.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Index\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Functions indexed | %d |\n", d.Graph.TotalArtifacts)
	fmt.Fprintf(&b, "| With contracts | %d |\n", d.Graph.WithContracts)
	fmt.Fprintf(&b, "| Dependency edges | %d |\n\n", d.Graph.TotalEdges)

	if len(d.ByStatus) > 0 {
		fmt.Fprintf(&b, "### By status\n\n| Status | Count |\n|---|---|\n")
		for _, s := range []string{"PENDING", "VERIFIED", "NEEDS_REVIEW", "STALE", "BROKEN"} {
			if n, ok := d.ByStatus[s]; ok {
				fmt.Fprintf(&b, "| %s | %d |\n", s, n)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Queue\n\n")
	fmt.Fprintf(&b, "| Status | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| PENDING | %d |\n| PROCESSING | %d |\n| COMPLETED | %d |\n| FAILED | %d |\n\n",
		d.Queue.Pending, d.Queue.Processing, d.Queue.Completed, d.Queue.Failed)

	if len(d.Graph.TopIncoming) > 0 {
		fmt.Fprintf(&b, "## Most depended-on functions\n\n| Function | Callers |\n|---|---|\n")
		for _, dc := range d.Graph.TopIncoming {
			fmt.Fprintf(&b, "| `%s` | %d |\n", dc.FunctionID, dc.Count)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Learning log\n\n")
	fmt.Fprintf(&b, "%d events recorded, %d contract modifications, %d in the last 7 days.\n\n",
		d.Learning.TotalEvents, d.Learning.ContractsModified, d.Learning.EventsLast7Days)
	if len(d.Learning.ByCategory) > 0 {
		fmt.Fprintf(&b, "| Pattern | Count |\n|---|---|\n")
		for _, c := range d.Learning.ByCategory {
			fmt.Fprintf(&b, "| %s | %d |\n", c.Category, c.Count)
		}
		b.WriteString("\n")
	}
	if len(d.Learning.PerFunction) > 0 {
		fmt.Fprintf(&b, "### Most-patched functions\n\n| Function | Patterns | Boost | Invariants added |\n|---|---|---|---|\n")
		for i, f := range d.Learning.PerFunction {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "| `%s` | %d | %.2f | %d |\n", f.FunctionID, f.Patterns, f.TotalBoost, f.InvariantsAdded)
		}
		b.WriteString("\n")
	}

	return b.String()
}

var renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts the Markdown report to a standalone HTML fragment.
func HTML(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(Markdown(d)), &buf); err != nil {
		return nil, fmt.Errorf("report: render html: %w", err)
	}
	return buf.Bytes(), nil
}
