// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/scan"
)

// syncFixture scans root and upserts everything, returning the summary.
func syncFixture(t *testing.T, repo *Repository, ctx context.Context, root string) SyncSummary {
	t.Helper()
	result, err := scan.Scan(root, true, nil)
	require.NoError(t, err)
	summary, err := repo.SyncScan(ctx, result, true)
	require.NoError(t, err)
	return summary
}

func TestSyncScan_NewFunctionEndToEnd(t *testing.T) {
	repo, ctx := newTestRepo(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.py"), []byte("def f(x):\n    return x+1\n"), 0o644))

	summary := syncFixture(t, repo, ctx, root)
	assert.Equal(t, 1, summary.New)

	a, err := repo.GetArtifact(ctx, "f.py::f")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, a.Status)

	var priority, attempts int
	var status domain.QueueStatus
	var reason domain.QueueReason
	row := repo.db.QueryRowContext(ctx, `SELECT priority, attempts, status, reason FROM queue_entries WHERE function_id = 'f.py::f'`)
	require.NoError(t, row.Scan(&priority, &attempts, &status, &reason))
	assert.Equal(t, domain.DefaultPriority, priority)
	assert.Zero(t, attempts)
	assert.Equal(t, domain.QueuePending, status)
	assert.Equal(t, domain.ReasonNew, reason)
}

func TestSyncScan_WhitespaceEditChangesNothing(t *testing.T) {
	repo, ctx := newTestRepo(t)
	root := t.TempDir()
	path := filepath.Join(root, "f.py")
	require.NoError(t, os.WriteFile(path, []byte("def f(x):\n    return x+1\n"), 0o644))
	syncFixture(t, repo, ctx, root)

	first, err := repo.GetArtifact(ctx, "f.py::f")
	require.NoError(t, err)

	// Reformat: extra blank line and deeper indentation, same tokens.
	require.NoError(t, os.WriteFile(path, []byte("\ndef f(x):\n        return x+1\n"), 0o644))
	summary := syncFixture(t, repo, ctx, root)
	assert.Zero(t, summary.New)
	assert.Zero(t, summary.Changed)
	assert.Equal(t, 1, summary.Unchanged)

	second, err := repo.GetArtifact(ctx, "f.py::f")
	require.NoError(t, err)
	assert.Equal(t, first.CodeHash, second.CodeHash)
	assert.Equal(t, first.Status, second.Status)
}

func TestSyncScan_SemanticEditStalesVerified(t *testing.T) {
	repo, ctx := newTestRepo(t)
	root := t.TempDir()
	path := filepath.Join(root, "f.py")
	require.NoError(t, os.WriteFile(path, []byte("def f(x):\n    return x+1\n"), 0o644))
	syncFixture(t, repo, ctx, root)

	first, err := repo.GetArtifact(ctx, "f.py::f")
	require.NoError(t, err)

	_, err = repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "f.py::f", Document: validDocument(t), Confidence: 95,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("def f(x):\n    return x-1\n"), 0o644))
	summary := syncFixture(t, repo, ctx, root)
	assert.Equal(t, 1, summary.Changed)

	second, err := repo.GetArtifact(ctx, "f.py::f")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStale, second.Status)
	assert.NotEqual(t, first.CodeHash, second.CodeHash)

	var reason domain.QueueReason
	row := repo.db.QueryRowContext(ctx, `SELECT reason FROM queue_entries WHERE function_id = 'f.py::f'`)
	require.NoError(t, row.Scan(&reason))
	assert.Equal(t, domain.ReasonHashMismatch, reason)
}

func TestSyncScan_RecordsSameFileCallEdges(t *testing.T) {
	repo, ctx := newTestRepo(t)
	root := t.TempDir()
	src := "def helper(x):\n    return x * 2\n\ndef main(x):\n    return helper(x) + 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "m.py"), []byte(src), 0o644))
	syncFixture(t, repo, ctx, root)

	var n int
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dependencies WHERE caller_id = 'm.py::main' AND callee_id = 'm.py::helper'`)
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 1, n)
}
