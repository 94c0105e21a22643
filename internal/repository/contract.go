// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kraklabs/drspec/internal/confidence"
	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/metrics"
)

// childRow is a verbatim snapshot of one row from a table that
// references function_id, captured so it can be deleted and reinserted
// unchanged around the contract write.
type childRow struct {
	table string
	cols  []string
	vals  []any
}

// preservedTables lists every table the contract-upsert dance must
// empty and restore around the write, keyed by function_id. Dependency
// edges are handled separately because they reference function_id from
// two columns.
var preservedTables = []struct {
	name string
	cols []string
}{
	{"queue_entries", []string{"function_id", "priority", "status", "reason", "attempts", "max_attempts", "error_message", "created_at", "updated_at"}},
	{"reasoning_traces", []string{"id", "function_id", "agent", "payload", "created_at"}},
	{"vision_findings", []string{"id", "function_id", "type", "significance", "description", "location", "suggested_invariant", "status", "resolution", "plot_ref", "created_at"}},
}

var dependencyCols = []string{"caller_id", "callee_id", "created_at"}

// UpsertContract replaces whatever contract previously existed for
// c.FunctionID, recomputes the artifact's status from the submitted
// confidence against the configured threshold, and preserves every row
// referencing function_id across the write: reasoning traces, vision
// findings, and dependency edges (both directions) come back
// byte-for-byte; the queue entry comes back with its priority, reason,
// and attempt counter intact but its status forced to COMPLETED,
// because a submitted contract closes the work item. The whole
// operation is one transaction: either all of it lands or none of it
// does. c.Confidence may arrive on either the [0,1] or the legacy
// [0,100] scale; it is normalized before storage.
//
// If trace is non-nil it is appended as a fresh reasoning trace after
// the preserved rows are restored.
func (r *Repository) UpsertContract(ctx context.Context, c domain.Contract, trace *domain.ReasoningTrace) (domain.ArtifactStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", coreerrors.Internal("upsert_contract: begin tx", err)
	}
	defer tx.Rollback()

	var exists int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts WHERE function_id = ?`, c.FunctionID)
	if err := row.Scan(&exists); err != nil {
		return "", coreerrors.Internal("upsert_contract: lookup artifact", err)
	}
	if exists == 0 {
		// Release the transaction's connection first: the store runs on a
		// single connection, so the suggestion query would wait on it
		// forever.
		_ = tx.Rollback()
		suggestions, _ := r.SuggestFunctionIDs(ctx, c.FunctionID, maxSuggestions)
		return "", coreerrors.Absence(coreerrors.CodeFunctionNotFound,
			fmt.Sprintf("function %q not found", c.FunctionID),
			map[string]any{"function_id": c.FunctionID, "suggestions": suggestions})
	}

	preserved, deps, err := snapshotChildren(ctx, tx, c.FunctionID)
	if err != nil {
		return "", err
	}
	if err := deleteChildren(ctx, tx, c.FunctionID); err != nil {
		return "", err
	}

	score := confidence.Normalize(c.Confidence)
	threshold := r.confidenceThreshold(ctx, tx)
	newStatus := confidence.StatusFor(score, threshold)
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE artifacts SET status = ?, updated_at = ? WHERE function_id = ?`, newStatus, now, c.FunctionID); err != nil {
		return "", coreerrors.Integrity("upsert_contract: update artifact status", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO contracts(function_id, document, confidence, verification_script, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(function_id) DO UPDATE SET
			document = excluded.document,
			confidence = excluded.confidence,
			verification_script = excluded.verification_script,
			updated_at = excluded.updated_at
	`, c.FunctionID, c.Document, score, c.VerificationScript, now, now); err != nil {
		return "", coreerrors.Integrity("upsert_contract: write contract", err)
	}

	if err := restoreChildren(ctx, tx, preserved, now); err != nil {
		return "", err
	}
	if err := restoreDependencies(ctx, tx, deps); err != nil {
		return "", err
	}

	if trace != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reasoning_traces(function_id, agent, payload, created_at) VALUES (?, ?, ?, ?)
		`, c.FunctionID, trace.Agent, trace.Payload, now); err != nil {
			return "", coreerrors.Internal("upsert_contract: append trace", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", coreerrors.Internal("upsert_contract: commit", err)
	}
	metrics.RecordContractWritten()
	return newStatus, nil
}

// confidenceThreshold reads the configured status-transition threshold
// from the config table, normalized to [0,1]. Falls back to the
// documented default when the key is absent or unparseable.
func (r *Repository) confidenceThreshold(ctx context.Context, tx *sql.Tx) float64 {
	var raw string
	row := tx.QueryRowContext(ctx, `SELECT value FROM config WHERE key = 'confidence_threshold'`)
	if err := row.Scan(&raw); err != nil {
		return confidence.DefaultThreshold
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return confidence.DefaultThreshold
	}
	return confidence.Normalize(v)
}

func snapshotChildren(ctx context.Context, tx *sql.Tx, functionID string) ([]childRow, []childRow, error) {
	var out []childRow
	for _, t := range preservedTables {
		rows, err := snapshotQuery(ctx, tx,
			fmt.Sprintf(`SELECT %s FROM %s WHERE function_id = ?`, joinCols(t.cols), t.name),
			t.name, t.cols, functionID)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rows...)
	}

	deps, err := snapshotQuery(ctx, tx,
		fmt.Sprintf(`SELECT %s FROM dependencies WHERE caller_id = ? OR callee_id = ?`, joinCols(dependencyCols)),
		"dependencies", dependencyCols, functionID, functionID)
	if err != nil {
		return nil, nil, err
	}
	return out, deps, nil
}

func snapshotQuery(ctx context.Context, tx *sql.Tx, query, table string, cols []string, args ...any) ([]childRow, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, coreerrors.Internal(fmt.Sprintf("upsert_contract: snapshot %s", table), err)
	}
	defer rows.Close()

	var out []childRow
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, coreerrors.Internal(fmt.Sprintf("upsert_contract: scan %s", table), err)
		}
		out = append(out, childRow{table: table, cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal(fmt.Sprintf("upsert_contract: rows %s", table), err)
	}
	return out, nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, functionID string) error {
	for _, t := range preservedTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE function_id = ?`, t.name), functionID); err != nil {
			return coreerrors.Internal(fmt.Sprintf("upsert_contract: delete %s", t.name), err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dependencies WHERE caller_id = ? OR callee_id = ?`, functionID, functionID); err != nil {
		return coreerrors.Internal("upsert_contract: delete dependencies", err)
	}
	return nil
}

// restoreChildren reinserts every snapshot row. Queue entries are the
// one exception to the byte-for-byte rule: their status comes back as
// COMPLETED (the contract submission closed the work item) while
// priority, reason, attempts, and max_attempts carry over untouched.
func restoreChildren(ctx context.Context, tx *sql.Tx, rows []childRow, now time.Time) error {
	for _, row := range rows {
		vals := row.vals
		if row.table == "queue_entries" {
			vals = append([]any{}, row.vals...)
			for i, col := range row.cols {
				switch col {
				case "status":
					vals[i] = string(domain.QueueCompleted)
				case "updated_at":
					vals[i] = now
				}
			}
		}
		placeholders := make([]string, len(row.cols))
		for i := range placeholders {
			placeholders[i] = "?"
		}
		query := fmt.Sprintf(`INSERT INTO %s(%s) VALUES (%s)`, row.table, joinCols(row.cols), joinCols(placeholders))
		if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
			return coreerrors.Integrity(fmt.Sprintf("upsert_contract: restore %s", row.table), err)
		}
	}
	return nil
}

func restoreDependencies(ctx context.Context, tx *sql.Tx, rows []childRow) error {
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dependencies(caller_id, callee_id, created_at) VALUES (?, ?, ?)
			ON CONFLICT(caller_id, callee_id) DO NOTHING
		`, row.vals...); err != nil {
			return coreerrors.Integrity("upsert_contract: restore dependencies", err)
		}
	}
	return nil
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

// GetContract fetches the contract for function_id, with the same
// fuzzy-suggestion treatment as GetArtifact on absence. The stored
// confidence is normalized on read so callers always see [0,1].
func (r *Repository) GetContract(ctx context.Context, functionID string) (domain.Contract, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT function_id, document, confidence, verification_script, created_at, updated_at
		FROM contracts WHERE function_id = ?
	`, functionID)

	var c domain.Contract
	err := row.Scan(&c.FunctionID, &c.Document, &c.Confidence, &c.VerificationScript, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		suggestions, _ := r.SuggestFunctionIDs(ctx, functionID, maxSuggestions)
		return domain.Contract{}, coreerrors.Absence(coreerrors.CodeContractNotFound,
			fmt.Sprintf("contract for %q not found", functionID),
			map[string]any{"function_id": functionID, "suggestions": suggestions})
	}
	if err != nil {
		return domain.Contract{}, coreerrors.Internal("get_contract: scan", err)
	}
	c.Confidence = confidence.Normalize(c.Confidence)
	return c, nil
}

// AddReasoningTrace appends one agent trace for functionID.
func (r *Repository) AddReasoningTrace(ctx context.Context, t domain.ReasoningTrace) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reasoning_traces(function_id, agent, payload, created_at) VALUES (?, ?, ?, ?)
	`, t.FunctionID, t.Agent, t.Payload, time.Now().UTC())
	if err != nil {
		return coreerrors.Internal("add_reasoning_trace: insert", err)
	}
	return nil
}

// ReasoningTraces lists every trace recorded for functionID, oldest
// first.
func (r *Repository) ReasoningTraces(ctx context.Context, functionID string) ([]domain.ReasoningTrace, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, function_id, agent, payload, created_at FROM reasoning_traces
		WHERE function_id = ? ORDER BY id
	`, functionID)
	if err != nil {
		return nil, coreerrors.Internal("reasoning_traces: query", err)
	}
	defer rows.Close()

	var out []domain.ReasoningTrace
	for rows.Next() {
		var t domain.ReasoningTrace
		if err := rows.Scan(&t.ID, &t.FunctionID, &t.Agent, &t.Payload, &t.CreatedAt); err != nil {
			return nil, coreerrors.Internal("reasoning_traces: scan", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("reasoning_traces: rows", err)
	}
	return out, nil
}

// AddVisionFinding records one analyst observation for functionID.
func (r *Repository) AddVisionFinding(ctx context.Context, f domain.VisionFinding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vision_findings(function_id, type, significance, description, location, suggested_invariant, status, resolution, plot_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.FunctionID, f.Type, f.Significance, f.Description, f.Location, f.SuggestedInvariant, f.Status, f.Resolution, f.PlotRef, time.Now().UTC())
	if err != nil {
		return coreerrors.Internal("add_vision_finding: insert", err)
	}
	return nil
}

// VisionFindings lists every finding recorded for functionID, oldest
// first.
func (r *Repository) VisionFindings(ctx context.Context, functionID string) ([]domain.VisionFinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, function_id, type, significance, description, location, suggested_invariant, status, resolution, plot_ref, created_at
		FROM vision_findings WHERE function_id = ? ORDER BY id
	`, functionID)
	if err != nil {
		return nil, coreerrors.Internal("vision_findings: query", err)
	}
	defer rows.Close()

	var out []domain.VisionFinding
	for rows.Next() {
		var f domain.VisionFinding
		if err := rows.Scan(&f.ID, &f.FunctionID, &f.Type, &f.Significance, &f.Description, &f.Location, &f.SuggestedInvariant, &f.Status, &f.Resolution, &f.PlotRef, &f.CreatedAt); err != nil {
			return nil, coreerrors.Internal("vision_findings: scan", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("vision_findings: rows", err)
	}
	return out, nil
}
