// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

import (
	"context"
	"time"

	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/scan"
)

// SyncSummary reports what a full scan+upsert pass did, so a caller
// (the CLI's `index` command) can print "3 new, 1 changed, 40
// unchanged" without issuing a second query.
type SyncSummary struct {
	New       int
	Changed   int
	Unchanged int
	Errors    []scan.FileError
}

// SyncScan upserts every function a scan.Result found. New artifacts
// land in the queue with reason NEW and changed ones with
// HASH_MISMATCH via UpsertArtifact itself; pass queueing=false to
// index without generating work items.
func (r *Repository) SyncScan(ctx context.Context, result scan.Result, queueing bool) (SyncSummary, error) {
	summary := SyncSummary{Errors: result.FileErrors}
	for _, fn := range result.Functions {
		a := domain.Artifact{
			FunctionID:    fn.FunctionID,
			FilePath:      fn.FilePath,
			Name:          fn.Name,
			QualifiedName: fn.QualifiedName,
			Signature:     fn.Signature,
			Body:          fn.Body,
			CodeHash:      fn.CodeHash,
			Language:      fn.Language,
			StartLine:     fn.StartLine,
			EndLine:       fn.EndLine,
			Parent:        fn.Parent,
		}
		res, err := r.upsertArtifact(ctx, a, queueing)
		if err != nil {
			return summary, err
		}
		switch {
		case res.Created:
			summary.New++
		case res.Changed:
			summary.Changed++
		default:
			summary.Unchanged++
		}
	}

	// Same-file call edges discovered by the parsers. Both endpoints
	// were just upserted, so the foreign keys hold; edges to functions
	// that were deduplicated away are simply skipped.
	now := time.Now().UTC()
	for _, call := range result.Calls {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO dependencies(caller_id, callee_id, created_at)
			SELECT ?, ?, ?
			WHERE EXISTS (SELECT 1 FROM artifacts WHERE function_id = ?)
			  AND EXISTS (SELECT 1 FROM artifacts WHERE function_id = ?)
			ON CONFLICT(caller_id, callee_id) DO NOTHING
		`, call.CallerID, call.CalleeID, now, call.CallerID, call.CalleeID); err != nil {
			return summary, coreerrors.Internal("sync_scan: record call edge", err)
		}
	}
	return summary, nil
}
