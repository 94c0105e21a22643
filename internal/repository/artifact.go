// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

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

// UpsertResult reports what UpsertArtifact actually did, so callers
// (the scanner, the CLI) can report "3 new, 1 changed, 40 unchanged"
// summaries without a second query.
type UpsertResult struct {
	Artifact domain.Artifact
	Created  bool
	Changed  bool // code_hash differed from the stored row
	Queued   bool
}

// UpsertArtifact records one extracted function. A brand-new
// function_id is inserted as PENDING and queued with reason NEW. An
// existing artifact whose code_hash is unchanged only has its
// signature/line numbers refreshed: a file can be reformatted around a
// function without its body changing, and that must not disturb its
// status or the queue. An existing artifact whose code_hash changed is
// re-queued with reason HASH_MISMATCH; its status moves to STALE only
// from VERIFIED or NEEDS_REVIEW — a BROKEN or still-PENDING function
// has nothing to invalidate.
func (r *Repository) UpsertArtifact(ctx context.Context, a domain.Artifact) (UpsertResult, error) {
	return r.upsertArtifact(ctx, a, true)
}

// UpsertArtifactNoQueue is UpsertArtifact with queueing disabled, for
// callers that want to index without generating work items.
func (r *Repository) UpsertArtifactNoQueue(ctx context.Context, a domain.Artifact) (UpsertResult, error) {
	return r.upsertArtifact(ctx, a, false)
}

func (r *Repository) upsertArtifact(ctx context.Context, a domain.Artifact, queueing bool) (UpsertResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, coreerrors.Internal("upsert_artifact: begin tx", err)
	}
	defer tx.Rollback()

	var existingHash string
	var existingStatus domain.ArtifactStatus
	row := tx.QueryRowContext(ctx, `SELECT code_hash, status FROM artifacts WHERE function_id = ?`, a.FunctionID)
	err = row.Scan(&existingHash, &existingStatus)

	now := time.Now().UTC()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		a.Status = domain.StatusPending
		a.CreatedAt = now
		a.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts(function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.FunctionID, a.FilePath, a.Name, a.QualifiedName, a.Signature, a.CodeHash, a.Language, a.StartLine, a.EndLine, a.Parent, a.Status, a.CreatedAt, a.UpdatedAt); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: insert", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO artifact_bodies(function_id, body) VALUES (?, ?)
		`, a.FunctionID, a.Body); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: insert body", err)
		}
		if queueing {
			if err := enqueue(ctx, tx, a.FunctionID, domain.ReasonNew, now); err != nil {
				return UpsertResult{}, err
			}
		}
		if err := tx.Commit(); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: commit", err)
		}
		metrics.RecordArtifactCreated()
		return UpsertResult{Artifact: a, Created: true, Queued: queueing}, nil

	case err != nil:
		return UpsertResult{}, coreerrors.Internal("upsert_artifact: lookup", err)

	case existingHash == a.CodeHash:
		if _, err := tx.ExecContext(ctx, `
			UPDATE artifacts SET signature = ?, start_line = ?, end_line = ?, parent = ?, updated_at = ?
			WHERE function_id = ?
		`, a.Signature, a.StartLine, a.EndLine, a.Parent, now, a.FunctionID); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: refresh", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE artifact_bodies SET body = ? WHERE function_id = ?`, a.Body, a.FunctionID); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: refresh body", err)
		}
		if err := tx.Commit(); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: commit", err)
		}
		a.Status = existingStatus
		a.UpdatedAt = now
		return UpsertResult{Artifact: a, Changed: false}, nil

	default:
		newStatus := existingStatus
		if existingStatus == domain.StatusVerified || existingStatus == domain.StatusNeedsReview {
			newStatus = domain.StatusStale
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE artifacts SET signature = ?, code_hash = ?, start_line = ?, end_line = ?, parent = ?, status = ?, updated_at = ?
			WHERE function_id = ?
		`, a.Signature, a.CodeHash, a.StartLine, a.EndLine, a.Parent, newStatus, now, a.FunctionID); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: mark stale", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE artifact_bodies SET body = ? WHERE function_id = ?`, a.Body, a.FunctionID); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: refresh body", err)
		}
		if queueing {
			if err := enqueue(ctx, tx, a.FunctionID, domain.ReasonHashMismatch, now); err != nil {
				return UpsertResult{}, err
			}
		}
		if err := tx.Commit(); err != nil {
			return UpsertResult{}, coreerrors.Internal("upsert_artifact: commit", err)
		}
		if newStatus == domain.StatusStale {
			metrics.RecordArtifactStale()
		}
		a.Status = newStatus
		a.UpdatedAt = now
		return UpsertResult{Artifact: a, Changed: true, Queued: queueing}, nil
	}
}

// enqueue inserts a PENDING queue entry for functionID, or re-arms an
// existing one. The attempt counter carries over on conflict: a row
// that already burned through its budget stays retired until someone
// deliberately rewinds it (queue.Retry with reason MANUAL_RETRY, or
// remove-then-push).
func enqueue(ctx context.Context, tx *sql.Tx, functionID string, reason domain.QueueReason, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO queue_entries(function_id, priority, status, reason, attempts, max_attempts, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, '', ?, ?)
		ON CONFLICT(function_id) DO UPDATE SET
			priority = excluded.priority,
			status = excluded.status,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`, functionID, domain.DefaultPriority, domain.QueuePending, reason, domain.DefaultMaxAttempts, now, now)
	if err != nil {
		return coreerrors.Internal(fmt.Sprintf("upsert_artifact: enqueue %s", functionID), err)
	}
	metrics.RecordQueuePush()
	return nil
}

// GetArtifact fetches a single artifact by function_id, returning an
// Absence error decorated with fuzzy-match suggestions when it doesn't
// exist.
func (r *Repository) GetArtifact(ctx context.Context, functionID string) (domain.Artifact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT a.function_id, a.file_path, a.name, a.qualified_name, a.signature, b.body, a.code_hash, a.language, a.start_line, a.end_line, a.parent, a.status, a.created_at, a.updated_at
		FROM artifacts a JOIN artifact_bodies b ON b.function_id = a.function_id
		WHERE a.function_id = ?
	`, functionID)

	var a domain.Artifact
	err := row.Scan(&a.FunctionID, &a.FilePath, &a.Name, &a.QualifiedName, &a.Signature, &a.Body, &a.CodeHash, &a.Language, &a.StartLine, &a.EndLine, &a.Parent, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		suggestions, sErr := r.SuggestFunctionIDs(ctx, functionID, maxSuggestions)
		if sErr != nil {
			suggestions = nil
		}
		return domain.Artifact{}, coreerrors.Absence(coreerrors.CodeFunctionNotFound,
			fmt.Sprintf("function %q not found", functionID),
			map[string]any{"function_id": functionID, "suggestions": suggestions})
	}
	if err != nil {
		return domain.Artifact{}, coreerrors.Internal("get_artifact: scan", err)
	}
	return a, nil
}

// ListArtifacts returns artifact metadata (no bodies) for every known
// function, optionally filtered by status. Bodies stay in their own
// table so listing never pulls full function text.
func (r *Repository) ListArtifacts(ctx context.Context, status domain.ArtifactStatus) ([]domain.Artifact, error) {
	query := `
		SELECT function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at
		FROM artifacts`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY function_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.Internal("list_artifacts: query", err)
	}
	defer rows.Close()

	return scanArtifactRows(rows, "list_artifacts")
}

// ArtifactsInFile returns the artifacts extracted from one source file,
// ordered by start line.
func (r *Repository) ArtifactsInFile(ctx context.Context, filePath string) ([]domain.Artifact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at
		FROM artifacts WHERE file_path = ?
		ORDER BY start_line
	`, filePath)
	if err != nil {
		return nil, coreerrors.Internal("artifacts_in_file: query", err)
	}
	defer rows.Close()

	return scanArtifactRows(rows, "artifacts_in_file")
}

// CountByStatus tallies artifacts per lifecycle status for the status
// and report surfaces.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM artifacts GROUP BY status`)
	if err != nil {
		return nil, coreerrors.Internal("count_by_status: query", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, coreerrors.Internal("count_by_status: scan", err)
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("count_by_status: rows", err)
	}
	return out, nil
}

func scanArtifactRows(rows *sql.Rows, op string) ([]domain.Artifact, error) {
	var out []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		if err := rows.Scan(&a.FunctionID, &a.FilePath, &a.Name, &a.QualifiedName, &a.Signature, &a.CodeHash, &a.Language, &a.StartLine, &a.EndLine, &a.Parent, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, coreerrors.Internal(op+": scan", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal(op+": rows", err)
	}
	return out, nil
}
