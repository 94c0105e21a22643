// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package learning

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/scan"
	"github.com/kraklabs/drspec/internal/store"
	"github.com/kraklabs/drspec/internal/vcs"
)

func newTestLog(t *testing.T) (*Log, *store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s.DB()), s, ctx
}

func seedArtifact(t *testing.T, s *store.Store, functionID string) {
	t.Helper()
	_, err := s.DB().Exec(`
		INSERT INTO artifacts(function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at)
		VALUES (?, 'x.py', 'f', 'f', 'def f()', 'h', 'python', 1, 4, '', 'PENDING', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, functionID)
	require.NoError(t, err)
}

func TestLog_RecordTruncatesLongFields(t *testing.T) {
	log, s, ctx := newTestLog(t)
	seedArtifact(t, s, "x.py::f")

	id, err := log.Record(ctx, domain.LearningEvent{
		Commit:             "abc123",
		CommitMessage:      strings.Repeat("m", 600),
		FunctionID:         "x.py::f",
		PatternCategory:    "null_check",
		PatternDescription: strings.Repeat("d", 1200),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	events, err := log.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, events[0].CommitMessage, 500)
	assert.Len(t, events[0].PatternDescription, 1000)
}

func TestLog_Summarize(t *testing.T) {
	log, s, ctx := newTestLog(t)
	seedArtifact(t, s, "x.py::f")
	seedArtifact(t, s, "x.py::g")

	for _, ev := range []domain.LearningEvent{
		{Commit: "c1", FunctionID: "x.py::f", PatternCategory: "null_check", ConfidenceBoost: 0.05, InvariantsAdded: 1, InvariantsValidated: 1, ContractModified: true},
		{Commit: "c1", FunctionID: "x.py::g", PatternCategory: "null_check"},
		{Commit: "c2", FunctionID: "x.py::f", PatternCategory: "bounds_check", ConfidenceBoost: 0.05},
	} {
		_, err := log.Record(ctx, ev)
		require.NoError(t, err)
	}

	summary, err := log.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalEvents)
	assert.Equal(t, 1, summary.ContractsModified)
	assert.Equal(t, 3, summary.EventsLast7Days)

	require.NotEmpty(t, summary.ByCategory)
	assert.Equal(t, "null_check", summary.ByCategory[0].Category)
	assert.Equal(t, 2, summary.ByCategory[0].Count)

	require.NotEmpty(t, summary.PerFunction)
	assert.Equal(t, "x.py::f", summary.PerFunction[0].FunctionID)
	assert.Equal(t, 2, summary.PerFunction[0].Patterns)
	assert.InDelta(t, 0.10, summary.PerFunction[0].TotalBoost, 1e-9)
}

// initMinedRepo builds a git repo whose second commit is the classic
// guard-the-nil-input bug fix.
func initMinedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "--quiet")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	src := "def f(x):\n    return x.value\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.py"), []byte(src), 0o644))
	run("add", "x.py")
	run("commit", "--quiet", "-m", "Initial commit")

	fixed := "def f(x):\n    if x is None:\n        return None\n    return x.value\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.py"), []byte(fixed), 0o644))
	run("commit", "--quiet", "-am", "Fix #42: guard null input")

	return dir
}

func TestMiner_MineCommitEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := initMinedRepo(t)
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(dir, "contracts.db"))
	require.NoError(t, err)
	defer s.Close()

	repo := repository.New(s)
	scanned, err := scan.Scan(dir, true, nil)
	require.NoError(t, err)
	_, err = repo.SyncScan(ctx, scanned, true)
	require.NoError(t, err)

	walker := vcs.NewWalker(dir, nil)
	log := New(s.DB())
	miner := NewMiner(walker, repo, log, nil)

	commits, err := walker.CommitsSince("")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	skipOutcome, err := miner.MineCommit(ctx, commits[0])
	require.NoError(t, err)
	assert.False(t, skipOutcome.Mined, "'Initial commit' is not a bug fix")

	outcome, err := miner.MineCommit(ctx, commits[1])
	require.NoError(t, err)
	assert.True(t, outcome.Mined)
	assert.GreaterOrEqual(t, outcome.BugFixScore, 0.6)
	assert.Equal(t, 1, outcome.EventsRecorded)

	events, err := log.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "x.py::f", events[0].FunctionID)
	assert.Equal(t, "null_check", events[0].PatternCategory)
	assert.GreaterOrEqual(t, events[0].InvariantsAdded, 1, "strengthening proposes at least the HIGH null-guard invariant")
}
