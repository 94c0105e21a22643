// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package store

// migrations is applied in order against a fresh or existing database.
// Each entry's index+1 is its schema version; schema_migrations tracks
// the highest version already applied so re-opening an existing
// _drspec/contracts.db is idempotent.
var migrations = []string{
	// v1: core schema.
	`
	CREATE TABLE IF NOT EXISTS artifacts (
		function_id     TEXT PRIMARY KEY,
		file_path       TEXT NOT NULL,
		name            TEXT NOT NULL,
		qualified_name  TEXT NOT NULL,
		signature       TEXT NOT NULL,
		code_hash       TEXT NOT NULL,
		language        TEXT NOT NULL,
		start_line      INTEGER NOT NULL,
		end_line        INTEGER NOT NULL,
		parent          TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artifact_bodies (
		function_id TEXT PRIMARY KEY REFERENCES artifacts(function_id) ON DELETE CASCADE,
		body        TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contracts (
		function_id         TEXT PRIMARY KEY REFERENCES artifacts(function_id) ON DELETE CASCADE,
		document            TEXT NOT NULL,
		confidence          REAL NOT NULL,
		verification_script TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMP NOT NULL,
		updated_at          TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS queue_entries (
		function_id   TEXT PRIMARY KEY REFERENCES artifacts(function_id) ON DELETE CASCADE,
		priority      INTEGER NOT NULL,
		status        TEXT NOT NULL,
		reason        TEXT NOT NULL,
		attempts      INTEGER NOT NULL DEFAULT 0,
		max_attempts  INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dependencies (
		caller_id  TEXT NOT NULL REFERENCES artifacts(function_id) ON DELETE CASCADE,
		callee_id  TEXT NOT NULL REFERENCES artifacts(function_id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (caller_id, callee_id)
	);

	CREATE TABLE IF NOT EXISTS reasoning_traces (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		function_id TEXT NOT NULL REFERENCES artifacts(function_id) ON DELETE CASCADE,
		agent       TEXT NOT NULL,
		payload     TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vision_findings (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		function_id         TEXT NOT NULL REFERENCES artifacts(function_id) ON DELETE CASCADE,
		type                TEXT NOT NULL,
		significance        TEXT NOT NULL,
		description         TEXT NOT NULL,
		location            TEXT NOT NULL DEFAULT '',
		suggested_invariant TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		resolution          TEXT NOT NULL DEFAULT '',
		plot_ref            TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS learning_events (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		commit_hash          TEXT NOT NULL,
		commit_message       TEXT NOT NULL,
		function_id          TEXT NOT NULL REFERENCES artifacts(function_id) ON DELETE CASCADE,
		pattern_category     TEXT NOT NULL,
		pattern_description  TEXT NOT NULL,
		contract_modified    INTEGER NOT NULL,
		confidence_boost     REAL NOT NULL,
		invariants_added     INTEGER NOT NULL,
		invariants_validated INTEGER NOT NULL,
		created_at           TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_meta (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		root_path      TEXT NOT NULL,
		last_full_scan TIMESTAMP,
		schema_version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queue_status_priority ON queue_entries(status, priority, created_at);
	CREATE INDEX IF NOT EXISTS idx_dependencies_callee ON dependencies(callee_id);
	CREATE INDEX IF NOT EXISTS idx_artifacts_file_path ON artifacts(file_path);
	`,
}
