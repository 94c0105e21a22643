// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package repository owns every multi-step write against the shared
// database: the artifact-upsert protocol the scanner drives, the
// contract-upsert dance that rewrites a function's child rows around a
// contract submission, and the fuzzy-match suggestions absence errors
// carry.
package repository

import (
	"database/sql"

	"github.com/kraklabs/drspec/internal/store"
)

// Repository is the shared handle every repository-layer method hangs
// off. It holds no state beyond the database connection.
type Repository struct {
	db *sql.DB
}

// New wraps an open Store.
func New(s *store.Store) *Repository {
	return &Repository{db: s.DB()}
}
