// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/store"
)

// SetupTestStore creates a throwaway on-disk store under t.TempDir()
// with the full schema applied. The store is closed automatically when
// the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    s := testing.SetupTestStore(t)
//	    testing.InsertTestArtifact(t, s, "a.py::f", "f", "a.py", 1, 3)
//	    // ...
//	}
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "contracts.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// InsertTestArtifact seeds one PENDING artifact row (with an empty
// body) directly, bypassing the repository's upsert protocol, for
// tests that need fixture rows without queue side effects.
func InsertTestArtifact(t *testing.T, s *store.Store, functionID, name, filePath string, startLine, endLine int) {
	t.Helper()
	InsertTestArtifactWithStatus(t, s, functionID, name, filePath, startLine, endLine, domain.StatusPending)
}

// InsertTestArtifactWithStatus is InsertTestArtifact with an explicit
// status.
func InsertTestArtifactWithStatus(t *testing.T, s *store.Store, functionID, name, filePath string, startLine, endLine int, status domain.ArtifactStatus) {
	t.Helper()

	now := time.Now().UTC()
	_, err := s.DB().Exec(`
		INSERT INTO artifacts(function_id, file_path, name, qualified_name, signature, code_hash, language, start_line, end_line, parent, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)
	`, functionID, filePath, name, name, "def "+name+"()", "hash-"+functionID, "python", startLine, endLine, status, now, now)
	if err != nil {
		t.Fatalf("failed to insert test artifact: %v", err)
	}
	_, err = s.DB().Exec(`INSERT INTO artifact_bodies(function_id, body) VALUES (?, '')`, functionID)
	if err != nil {
		t.Fatalf("failed to insert test artifact body: %v", err)
	}
}

// InsertTestDependency seeds one caller -> callee edge.
func InsertTestDependency(t *testing.T, s *store.Store, callerID, calleeID string) {
	t.Helper()

	_, err := s.DB().Exec(`
		INSERT INTO dependencies(caller_id, callee_id, created_at) VALUES (?, ?, ?)
	`, callerID, calleeID, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to insert test dependency: %v", err)
	}
}

// InsertTestContract seeds a contract row with a minimal valid
// document for functionID.
func InsertTestContract(t *testing.T, s *store.Store, functionID string, confidence float64) {
	t.Helper()

	doc := `{"function_signature":"def ` + functionID + `()","intent_summary":"test fixture contract","invariants":[{"name":"always_returns","logic":"returns a value","criticality":"LOW","on_fail":"warn"}]}`
	now := time.Now().UTC()
	_, err := s.DB().Exec(`
		INSERT INTO contracts(function_id, document, confidence, verification_script, created_at, updated_at)
		VALUES (?, ?, ?, '', ?, ?)
	`, functionID, doc, confidence, now, now)
	if err != nil {
		t.Fatalf("failed to insert test contract: %v", err)
	}
}

// InsertTestQueueEntry seeds a queue entry in an arbitrary state.
func InsertTestQueueEntry(t *testing.T, s *store.Store, functionID string, priority int, status domain.QueueStatus, reason domain.QueueReason, attempts int) {
	t.Helper()

	now := time.Now().UTC()
	_, err := s.DB().Exec(`
		INSERT INTO queue_entries(function_id, priority, status, reason, attempts, max_attempts, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', ?, ?)
	`, functionID, priority, status, reason, attempts, domain.DefaultMaxAttempts, now, now)
	if err != nil {
		t.Fatalf("failed to insert test queue entry: %v", err)
	}
}

// InsertTestReasoningTrace seeds one agent trace for functionID.
func InsertTestReasoningTrace(t *testing.T, s *store.Store, functionID string, agent domain.AgentTag, payload string) {
	t.Helper()

	_, err := s.DB().Exec(`
		INSERT INTO reasoning_traces(function_id, agent, payload, created_at) VALUES (?, ?, ?, ?)
	`, functionID, agent, payload, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to insert test reasoning trace: %v", err)
	}
}
