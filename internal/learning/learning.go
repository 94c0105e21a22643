// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package learning is the append-only log of mined bug-fix patterns
// and the miner that feeds it: one row per (commit, function, pattern)
// considered, whether or not a contract modification was actually
// applied, plus the aggregate views the status and report surfaces
// read.
package learning

import (
	"context"
	"database/sql"
	"time"

	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/metrics"
)

// Field truncation limits keep pathological commit messages and
// generated descriptions from bloating the log.
const (
	maxCommitMessageLen = 500
	maxDescriptionLen   = 1000
)

// Log wraps the learning_events table.
type Log struct {
	db *sql.DB
}

// New wraps a *sql.DB already migrated by internal/store.
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Record appends one learning event and returns its id. The commit
// message and pattern description are truncated to their limits.
func (l *Log) Record(ctx context.Context, ev domain.LearningEvent) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO learning_events(commit_hash, commit_message, function_id, pattern_category, pattern_description, contract_modified, confidence_boost, invariants_added, invariants_validated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.Commit, truncate(ev.CommitMessage, maxCommitMessageLen), ev.FunctionID,
		ev.PatternCategory, truncate(ev.PatternDescription, maxDescriptionLen),
		ev.ContractModified, ev.ConfidenceBoost, ev.InvariantsAdded, ev.InvariantsValidated,
		time.Now().UTC())
	if err != nil {
		return 0, coreerrors.Internal("learning: record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, coreerrors.Internal("learning: last insert id", err)
	}
	metrics.RecordLearningEvent()
	return id, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// Events lists the most recent entries, newest first.
func (l *Log) Events(ctx context.Context, limit int) ([]domain.LearningEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, commit_hash, commit_message, function_id, pattern_category, pattern_description, contract_modified, confidence_boost, invariants_added, invariants_validated, created_at
		FROM learning_events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, coreerrors.Internal("learning: events", err)
	}
	defer rows.Close()

	var out []domain.LearningEvent
	for rows.Next() {
		var ev domain.LearningEvent
		if err := rows.Scan(&ev.ID, &ev.Commit, &ev.CommitMessage, &ev.FunctionID, &ev.PatternCategory, &ev.PatternDescription, &ev.ContractModified, &ev.ConfidenceBoost, &ev.InvariantsAdded, &ev.InvariantsValidated, &ev.CreatedAt); err != nil {
			return nil, coreerrors.Internal("learning: events scan", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("learning: events rows", err)
	}
	return out, nil
}

// CategoryCount is one slice of the per-category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// FunctionRollup aggregates everything learned about one function.
type FunctionRollup struct {
	FunctionID          string  `json:"function_id"`
	Patterns            int     `json:"patterns"`
	TotalBoost          float64 `json:"total_boost"`
	InvariantsAdded     int     `json:"invariants_added"`
	InvariantsValidated int     `json:"invariants_validated"`
}

// Summary is the aggregate view of the whole log.
type Summary struct {
	TotalEvents       int              `json:"total_events"`
	ContractsModified int              `json:"contracts_modified"`
	EventsLast7Days   int              `json:"events_last_7_days"`
	ByCategory        []CategoryCount  `json:"by_category"`
	PerFunction       []FunctionRollup `json:"per_function"`
}

// Summarize computes the log's aggregate views in a handful of
// queries.
func (l *Log) Summarize(ctx context.Context) (Summary, error) {
	var s Summary

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(contract_modified), 0) FROM learning_events`)
	if err := row.Scan(&s.TotalEvents, &s.ContractsModified); err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize totals", err)
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	row = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_events WHERE created_at >= ?`, weekAgo)
	if err := row.Scan(&s.EventsLast7Days); err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize window", err)
	}

	catRows, err := l.db.QueryContext(ctx, `
		SELECT pattern_category, COUNT(*) AS n FROM learning_events
		GROUP BY pattern_category ORDER BY n DESC, pattern_category ASC`)
	if err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize categories", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var c CategoryCount
		if err := catRows.Scan(&c.Category, &c.Count); err != nil {
			return Summary{}, coreerrors.Internal("learning: summarize categories scan", err)
		}
		s.ByCategory = append(s.ByCategory, c)
	}
	if err := catRows.Err(); err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize categories rows", err)
	}

	fnRows, err := l.db.QueryContext(ctx, `
		SELECT function_id, COUNT(*), COALESCE(SUM(confidence_boost), 0),
		       COALESCE(SUM(invariants_added), 0), COALESCE(SUM(invariants_validated), 0)
		FROM learning_events GROUP BY function_id ORDER BY COUNT(*) DESC, function_id ASC`)
	if err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize functions", err)
	}
	defer fnRows.Close()
	for fnRows.Next() {
		var f FunctionRollup
		if err := fnRows.Scan(&f.FunctionID, &f.Patterns, &f.TotalBoost, &f.InvariantsAdded, &f.InvariantsValidated); err != nil {
			return Summary{}, coreerrors.Internal("learning: summarize functions scan", err)
		}
		s.PerFunction = append(s.PerFunction, f)
	}
	if err := fnRows.Err(); err != nil {
		return Summary{}, coreerrors.Internal("learning: summarize functions rows", err)
	}
	return s, nil
}
