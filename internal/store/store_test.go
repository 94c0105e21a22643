// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contracts.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrationsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contracts.db")

	s1, err := Open(ctx, path)
	require.NoError(t, err)
	v1, err := s1.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, len(migrations), v1)
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()
	v2, err := s2.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO queue_entries(function_id, priority, status, reason, attempts, max_attempts, error_message, created_at, updated_at)
		VALUES ('missing-fn', 100, 'pending', 'new_function', 0, 3, '', ?, ?)
	`, time.Now(), time.Now())
	require.Error(t, err, "queue_entries must reject rows referencing an artifact that does not exist")
}

func TestOpen_CascadeDeletesChildren(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO artifacts(function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at)
		VALUES ('fn-1', 'a.go', 'Foo', 'pkg.Foo', 'func Foo()', 'deadbeef', 'go', 1, 3, '', 'new', ?, ?)
	`, now, now)
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `
		INSERT INTO queue_entries(function_id, priority, status, reason, attempts, max_attempts, error_message, created_at, updated_at)
		VALUES ('fn-1', 100, 'pending', 'new_function', 0, 3, '', ?, ?)
	`, now, now)
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `DELETE FROM artifacts WHERE function_id = 'fn-1'`)
	require.NoError(t, err)

	var count int
	row := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_entries WHERE function_id = 'fn-1'`)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 0, count)
}
