// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package queue implements the work-queue state machine — push, pop,
// peek, complete, retry, prioritize, remove, and clear_completed —
// over the queue_entries table internal/repository also writes to when
// an artifact is first created or goes stale. External agents pop
// entries, produce a contract, and either submit it (which closes the
// entry) or report failure through complete/retry.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/metrics"
)

// Queue is the shared handle every queue operation hangs off.
type Queue struct {
	db *sql.DB
}

// New wraps a *sql.DB already migrated by internal/store.
func New(db *sql.DB) *Queue {
	return &Queue{db: db}
}

const entryCols = `function_id, priority, status, reason, attempts, max_attempts, error_message, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (domain.QueueEntry, error) {
	var e domain.QueueEntry
	err := row.Scan(&e.FunctionID, &e.Priority, &e.Status, &e.Reason, &e.Attempts, &e.MaxAttempts, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Push enqueues functionID with the given priority and reason. If the
// entry already exists its priority and reason are updated and its
// status returns to PENDING, but the attempt counter is left alone: an
// entry that burned through its budget stays retired until Retry with
// reason MANUAL_RETRY (or remove-then-push) rewinds it. A zero
// priority falls back to the default.
func (q *Queue) Push(ctx context.Context, functionID string, reason domain.QueueReason, priority int) error {
	if !validReason(reason) {
		return coreerrors.Validation(coreerrors.CodeValidationError,
			fmt.Sprintf("unknown queue reason %q", reason), nil)
	}
	if priority == 0 {
		priority = domain.DefaultPriority
	}
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO queue_entries(`+entryCols+`)
		VALUES (?, ?, ?, ?, 0, ?, '', ?, ?)
		ON CONFLICT(function_id) DO UPDATE SET
			priority = excluded.priority,
			status = excluded.status,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`, functionID, priority, domain.QueuePending, reason, domain.DefaultMaxAttempts, now, now)
	if err != nil {
		return coreerrors.Internal(fmt.Sprintf("queue: push %s", functionID), err)
	}
	metrics.RecordQueuePush()
	return nil
}

func validReason(r domain.QueueReason) bool {
	switch r {
	case domain.ReasonNew, domain.ReasonHashMismatch, domain.ReasonDependencyChanged, domain.ReasonManualRetry:
		return true
	}
	return false
}

// Pop atomically claims the next eligible PENDING entry — lowest
// priority value first, ties broken by oldest created_at — marks it
// PROCESSING, and increments its attempt counter. Entries whose
// attempts already reached max_attempts are never eligible. Returns a
// State-kind QUEUE_EMPTY error when nothing qualifies. Pop is the only
// operation that increments attempts.
func (q *Queue) Pop(ctx context.Context) (domain.QueueEntry, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QueueEntry{}, coreerrors.Internal("queue: pop begin tx", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+entryCols+`
		FROM queue_entries
		WHERE status = ? AND attempts < max_attempts
		ORDER BY priority ASC, created_at ASC
		LIMIT 1
	`, domain.QueuePending)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueEntry{}, coreerrors.State(coreerrors.CodeQueueEmpty, "queue is empty", nil)
	}
	if err != nil {
		return domain.QueueEntry{}, coreerrors.Internal("queue: pop select", err)
	}

	now := time.Now().UTC()
	e.Attempts++
	e.Status = domain.QueueProcessing
	e.UpdatedAt = now
	if _, err := tx.ExecContext(ctx, `
		UPDATE queue_entries SET status = ?, attempts = ?, updated_at = ? WHERE function_id = ?
	`, e.Status, e.Attempts, now, e.FunctionID); err != nil {
		return domain.QueueEntry{}, coreerrors.Internal("queue: pop claim", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.QueueEntry{}, coreerrors.Internal("queue: pop commit", err)
	}
	metrics.RecordQueuePop()
	return e, nil
}

// Peek returns the next n entries in the order Pop would consider
// them, without mutating anything. With includeAll, entries in any
// non-terminal status (PENDING or PROCESSING) are listed; otherwise
// only PENDING ones.
func (q *Queue) Peek(ctx context.Context, n int, includeAll bool) ([]domain.QueueEntry, error) {
	if n <= 0 {
		n = 1
	}
	query := `
		SELECT ` + entryCols + `
		FROM queue_entries
		WHERE status = ?
		ORDER BY priority ASC, created_at ASC
		LIMIT ?`
	args := []any{domain.QueuePending, n}
	if includeAll {
		query = `
		SELECT ` + entryCols + `
		FROM queue_entries
		WHERE status IN (?, ?)
		ORDER BY priority ASC, created_at ASC
		LIMIT ?`
		args = []any{domain.QueuePending, domain.QueueProcessing, n}
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.Internal("queue: peek", err)
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, coreerrors.Internal("queue: peek scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("queue: peek rows", err)
	}
	return out, nil
}

// Complete finishes a PROCESSING entry: COMPLETED on success, FAILED
// (with the supplied error message) otherwise.
func (q *Queue) Complete(ctx context.Context, functionID string, success bool, errorMessage string) error {
	status := domain.QueueCompleted
	if !success {
		status = domain.QueueFailed
		metrics.RecordQueueFailed()
	} else {
		errorMessage = ""
	}
	return q.setStatus(ctx, functionID, status, errorMessage)
}

// Retry resets an entry to PENDING, clears its error message, and
// records why. The attempt counter is preserved for every reason
// except MANUAL_RETRY, which rewinds it to zero — a human asking for
// another run is granting a fresh budget, while automated re-queues
// must not resurrect an entry that already failed its way out.
func (q *Queue) Retry(ctx context.Context, functionID string, reason domain.QueueReason) error {
	if !validReason(reason) {
		return coreerrors.Validation(coreerrors.CodeValidationError,
			fmt.Sprintf("unknown queue reason %q", reason), nil)
	}
	now := time.Now().UTC()
	query := `UPDATE queue_entries SET status = ?, reason = ?, error_message = '', updated_at = ? WHERE function_id = ?`
	if reason == domain.ReasonManualRetry {
		query = `UPDATE queue_entries SET status = ?, reason = ?, error_message = '', attempts = 0, updated_at = ? WHERE function_id = ?`
	}
	res, err := q.db.ExecContext(ctx, query, domain.QueuePending, reason, now, functionID)
	if err != nil {
		return coreerrors.Internal("queue: retry", err)
	}
	return requireRow(res, functionID)
}

func (q *Queue) setStatus(ctx context.Context, functionID string, status domain.QueueStatus, errorMessage string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE queue_entries SET status = ?, error_message = ?, updated_at = ? WHERE function_id = ?
	`, status, errorMessage, time.Now().UTC(), functionID)
	if err != nil {
		return coreerrors.Internal(fmt.Sprintf("queue: set %s", status), err)
	}
	return requireRow(res, functionID)
}

func requireRow(res sql.Result, functionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return coreerrors.Internal("queue: rows affected", err)
	}
	if n == 0 {
		return coreerrors.Absence(coreerrors.CodeQueueItemNotFound, fmt.Sprintf("queue entry %q not found", functionID), nil)
	}
	return nil
}

// Prioritize changes an entry's priority, reordering where Pop picks
// it up next.
func (q *Queue) Prioritize(ctx context.Context, functionID string, priority int) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE queue_entries SET priority = ?, updated_at = ? WHERE function_id = ?
	`, priority, time.Now().UTC(), functionID)
	if err != nil {
		return coreerrors.Internal("queue: prioritize", err)
	}
	return requireRow(res, functionID)
}

// Remove deletes a queue entry outright, regardless of status.
func (q *Queue) Remove(ctx context.Context, functionID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE function_id = ?`, functionID)
	if err != nil {
		return coreerrors.Internal("queue: remove", err)
	}
	return requireRow(res, functionID)
}

// ClearCompleted deletes every COMPLETED entry and reports how many
// rows were removed.
func (q *Queue) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE status = ?`, domain.QueueCompleted)
	if err != nil {
		return 0, coreerrors.Internal("queue: clear_completed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, coreerrors.Internal("queue: rows affected", err)
	}
	return n, nil
}

// Stats counts entries by status for the status surfaces, and feeds
// the queue-depth gauge.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// ComputeStats tallies the queue by status.
func (q *Queue) ComputeStats(ctx context.Context) (Stats, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM queue_entries GROUP BY status`)
	if err != nil {
		return Stats{}, coreerrors.Internal("queue: stats", err)
	}
	defer rows.Close()

	var s Stats
	for rows.Next() {
		var status domain.QueueStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, coreerrors.Internal("queue: stats scan", err)
		}
		switch status {
		case domain.QueuePending:
			s.Pending = count
		case domain.QueueProcessing:
			s.Processing = count
		case domain.QueueCompleted:
			s.Completed = count
		case domain.QueueFailed:
			s.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, coreerrors.Internal("queue: stats rows", err)
	}
	metrics.SetQueueDepth(s.Pending)
	return s, nil
}

// Get returns the entry for functionID regardless of status.
func (q *Queue) Get(ctx context.Context, functionID string) (domain.QueueEntry, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM queue_entries WHERE function_id = ?`, functionID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueEntry{}, coreerrors.Absence(coreerrors.CodeQueueItemNotFound,
			fmt.Sprintf("queue entry %q not found", functionID), nil)
	}
	if err != nil {
		return domain.QueueEntry{}, coreerrors.Internal("queue: get", err)
	}
	return e, nil
}
