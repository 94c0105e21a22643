// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/learning"
	"github.com/kraklabs/drspec/internal/queue"
)

func sampleData() Data {
	return Data{
		ProjectRoot: "/work/project",
		GeneratedAt: time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC),
		Graph: depgraph.Stats{
			TotalArtifacts: 42,
			TotalEdges:     17,
			WithContracts:  9,
			TopIncoming:    []depgraph.DegreeCount{{FunctionID: "util.py::log", Count: 12}},
		},
		Queue: queue.Stats{Pending: 3, Completed: 9},
		Learning: learning.Summary{
			TotalEvents:     5,
			EventsLast7Days: 2,
			ByCategory:      []learning.CategoryCount{{Category: "null_check", Count: 4}},
			PerFunction:     []learning.FunctionRollup{{FunctionID: "util.py::log", Patterns: 3, TotalBoost: 0.15}},
		},
		ByStatus: map[string]int{"VERIFIED": 9, "PENDING": 33},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleData())
	assert.Contains(t, md, "# drspec report")
	assert.Contains(t, md, "| Functions indexed | 42 |")
	assert.Contains(t, md, "| VERIFIED | 9 |")
	assert.Contains(t, md, "`util.py::log`")
	assert.Contains(t, md, "| null_check | 4 |")
}

func TestHTML(t *testing.T) {
	html, err := HTML(sampleData())
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")
	assert.Contains(t, string(html), "<table>")
}
