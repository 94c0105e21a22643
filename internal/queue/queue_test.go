// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/store"
)

func newTestQueue(t *testing.T, functionIDs ...string) (*Queue, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Now()
	for _, id := range functionIDs {
		_, err := s.DB().ExecContext(ctx, `
			INSERT INTO artifacts(function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at)
			VALUES (?, 'a.py', ?, ?, 'def f()', 'h', 'python', 1, 2, '', 'PENDING', ?, ?)
		`, id, id, id, now, now)
		require.NoError(t, err)
	}
	return New(s.DB()), ctx
}

func TestQueue_PushPopOrdersByPriority(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 200))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 50))

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fn-b", first.FunctionID, "lower priority value pops first")
	assert.Equal(t, domain.QueueProcessing, first.Status)
	assert.Equal(t, 1, first.Attempts)
}

func TestQueue_PushRejectsUnknownReason(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	err := q.Push(ctx, "fn-a", domain.QueueReason("WHIM"), 0)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, ce.Code)
}

func TestQueue_PushOnExistingEntryKeepsAttempts(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))
	_, err := q.Pop(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonHashMismatch, 10))

	e, err := q.Get(ctx, "fn-a")
	require.NoError(t, err)
	assert.Equal(t, domain.QueuePending, e.Status)
	assert.Equal(t, domain.ReasonHashMismatch, e.Reason)
	assert.Equal(t, 10, e.Priority)
	assert.Equal(t, 1, e.Attempts, "push must not reset the attempt counter")
}

func TestQueue_PopNeverReturnsSameEntryTwiceWithoutRetry(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))

	_, err := q.Pop(ctx)
	require.NoError(t, err)

	_, err = q.Pop(ctx)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeQueueEmpty, ce.Code)
}

func TestQueue_AttemptBudgetRetiresEntry(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))

	for i := 0; i < domain.DefaultMaxAttempts; i++ {
		_, err := q.Pop(ctx)
		require.NoError(t, err, "pop %d should still be within budget", i+1)
		require.NoError(t, q.Retry(ctx, "fn-a", domain.ReasonDependencyChanged))
	}

	// Attempts hit max_attempts and Retry preserves the counter, so the
	// entry is PENDING but permanently invisible to Pop.
	e, err := q.Get(ctx, "fn-a")
	require.NoError(t, err)
	assert.Equal(t, domain.QueuePending, e.Status)
	assert.Equal(t, domain.DefaultMaxAttempts, e.Attempts)

	_, err = q.Pop(ctx)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeQueueEmpty, ce.Code)
}

func TestQueue_ManualRetryRewindsAttempts(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))
	for i := 0; i < domain.DefaultMaxAttempts; i++ {
		_, err := q.Pop(ctx)
		require.NoError(t, err)
		require.NoError(t, q.Retry(ctx, "fn-a", domain.ReasonDependencyChanged))
	}

	require.NoError(t, q.Retry(ctx, "fn-a", domain.ReasonManualRetry))

	e, err := q.Pop(ctx)
	require.NoError(t, err, "a manual retry grants a fresh budget")
	assert.Equal(t, 1, e.Attempts)
	assert.Equal(t, domain.ReasonManualRetry, e.Reason)
}

func TestQueue_CompleteSuccessAndFailure(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 1))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 2))

	_, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, "fn-a", true, ""))
	a, err := q.Get(ctx, "fn-a")
	require.NoError(t, err)
	assert.Equal(t, domain.QueueCompleted, a.Status)
	assert.Empty(t, a.ErrorMessage)

	_, err = q.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, "fn-b", false, "agent crashed"))
	b, err := q.Get(ctx, "fn-b")
	require.NoError(t, err)
	assert.Equal(t, domain.QueueFailed, b.Status)
	assert.Equal(t, "agent crashed", b.ErrorMessage)
}

func TestQueue_RetryClearsErrorMessage(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))
	_, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, "fn-a", false, "boom"))

	require.NoError(t, q.Retry(ctx, "fn-a", domain.ReasonDependencyChanged))
	e, err := q.Get(ctx, "fn-a")
	require.NoError(t, err)
	assert.Equal(t, domain.QueuePending, e.Status)
	assert.Empty(t, e.ErrorMessage)
	assert.Equal(t, domain.ReasonDependencyChanged, e.Reason)
}

func TestQueue_PeekReturnsOrderedWithoutMutating(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b", "fn-c")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 30))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 10))
	require.NoError(t, q.Push(ctx, "fn-c", domain.ReasonNew, 20))

	entries, err := q.Peek(ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fn-b", entries[0].FunctionID)
	assert.Equal(t, "fn-c", entries[1].FunctionID)
	assert.Zero(t, entries[0].Attempts, "peek must not touch attempts")
}

func TestQueue_PeekIncludeAllCoversProcessing(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 1))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 2))
	_, err := q.Pop(ctx)
	require.NoError(t, err)

	pendingOnly, err := q.Peek(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)

	all, err := q.Peek(ctx, 10, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQueue_PrioritizeChangesPopOrder(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 100))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 100))
	require.NoError(t, q.Prioritize(ctx, "fn-b", 1))

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fn-b", first.FunctionID)
}

func TestQueue_RemoveAndClearCompleted(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 0))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 0))

	require.NoError(t, q.Remove(ctx, "fn-a"))

	_, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, "fn-b", true, ""))

	n, err := q.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueue_RetryUnknownEntryIsAbsence(t *testing.T) {
	q, ctx := newTestQueue(t)
	err := q.Retry(ctx, "ghost", domain.ReasonManualRetry)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeQueueItemNotFound, ce.Code)
}

func TestQueue_ComputeStats(t *testing.T) {
	q, ctx := newTestQueue(t, "fn-a", "fn-b", "fn-c")
	require.NoError(t, q.Push(ctx, "fn-a", domain.ReasonNew, 1))
	require.NoError(t, q.Push(ctx, "fn-b", domain.ReasonNew, 2))
	require.NoError(t, q.Push(ctx, "fn-c", domain.ReasonNew, 3))

	_, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, "fn-a", true, ""))
	_, err = q.Pop(ctx)
	require.NoError(t, err)

	stats, err := q.ComputeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, stats.Failed)
}
