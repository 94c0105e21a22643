// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/contractdoc"
	"github.com/kraklabs/drspec/internal/domain"
	"github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/store"
)

func newTestRepo(t *testing.T) (*Repository, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), ctx
}

func sampleArtifact(hash string) domain.Artifact {
	return domain.Artifact{
		FunctionID:    "pkg/a.py::Foo",
		FilePath:      "pkg/a.py",
		Name:          "Foo",
		QualifiedName: "Foo",
		Signature:     "def Foo()",
		Body:          "def Foo():\n    return 1",
		CodeHash:      hash,
		Language:      domain.LangPython,
		StartLine:     1,
		EndLine:       3,
	}
}

func validDocument(t *testing.T) string {
	t.Helper()
	doc := contractdoc.Document{
		FunctionSignature: "def Foo()",
		IntentSummary:     "Does the thing reliably under test.",
		Invariants: []contractdoc.Invariant{
			{Name: "returns", Logic: "result is not None", Criticality: contractdoc.CriticalityHigh, OnFail: contractdoc.OnFailError},
		},
	}
	raw, err := doc.Marshal()
	require.NoError(t, err)
	return string(raw)
}

func TestUpsertArtifact_NewFunctionIsQueued(t *testing.T) {
	repo, ctx := newTestRepo(t)

	res, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Queued)
	assert.Equal(t, domain.StatusPending, res.Artifact.Status)

	var priority, attempts int
	var reason domain.QueueReason
	var status domain.QueueStatus
	row := repo.db.QueryRowContext(ctx, `SELECT priority, attempts, reason, status FROM queue_entries WHERE function_id = ?`, "pkg/a.py::Foo")
	require.NoError(t, row.Scan(&priority, &attempts, &reason, &status))
	assert.Equal(t, domain.DefaultPriority, priority)
	assert.Zero(t, attempts)
	assert.Equal(t, domain.ReasonNew, reason)
	assert.Equal(t, domain.QueuePending, status)
}

func TestUpsertArtifact_SameHashOnlyRefreshesMetadata(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	a := sampleArtifact("hash1")
	a.StartLine = 10
	a.EndLine = 12
	res, err := repo.UpsertArtifact(ctx, a)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Queued)

	got, err := repo.GetArtifact(ctx, "pkg/a.py::Foo")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status, "status must not change on a harmless metadata refresh")
	assert.Equal(t, 10, got.StartLine)
}

func TestUpsertArtifact_SameHashKeepsVerified(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)
	_, err = repo.UpsertContract(ctx, domain.Contract{FunctionID: "pkg/a.py::Foo", Document: validDocument(t), Confidence: 90}, nil)
	require.NoError(t, err)

	_, err = repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	got, err := repo.GetArtifact(ctx, "pkg/a.py::Foo")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status, "re-scanning an unchanged body must not move VERIFIED")
}

func TestUpsertArtifact_HashMismatchMarksVerifiedStale(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)
	_, err = repo.UpsertContract(ctx, domain.Contract{FunctionID: "pkg/a.py::Foo", Document: validDocument(t), Confidence: 90}, nil)
	require.NoError(t, err)

	res, err := repo.UpsertArtifact(ctx, sampleArtifact("hash2"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Queued)
	assert.Equal(t, domain.StatusStale, res.Artifact.Status)

	var reason domain.QueueReason
	row := repo.db.QueryRowContext(ctx, `SELECT reason FROM queue_entries WHERE function_id = ?`, "pkg/a.py::Foo")
	require.NoError(t, row.Scan(&reason))
	assert.Equal(t, domain.ReasonHashMismatch, reason)
}

func TestUpsertArtifact_HashMismatchLeavesPendingAndBroken(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	res, err := repo.UpsertArtifact(ctx, sampleArtifact("hash2"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.Artifact.Status, "PENDING has nothing to invalidate")

	_, err = repo.db.ExecContext(ctx, `UPDATE artifacts SET status = ? WHERE function_id = ?`, domain.StatusBroken, "pkg/a.py::Foo")
	require.NoError(t, err)
	res, err = repo.UpsertArtifact(ctx, sampleArtifact("hash3"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBroken, res.Artifact.Status, "BROKEN survives a body change")
}

func TestGetArtifact_NotFoundCarriesSuggestions(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	_, err = repo.GetArtifact(ctx, "pkg/a.py::Fo")
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFunctionNotFound, ce.Code)
	suggestions, _ := ce.Details["suggestions"].([]string)
	assert.Contains(t, suggestions, "pkg/a.py::Foo")
}

func TestSuggestFunctionIDs_FallsBackToPathPrefix(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	suggestions, err := repo.SuggestFunctionIDs(ctx, "pkg/a.py::zzz_nothing_like_it", 5)
	require.NoError(t, err)
	assert.Contains(t, suggestions, "pkg/a.py::Foo", "path-prefix fallback should fire when no name matches")
}

func TestUpsertContract_PreservesChildrenAndCompletesQueue(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	// Put the queue entry into PROCESSING with one burned attempt, the
	// state an agent-submitted contract normally arrives in.
	_, err = repo.db.ExecContext(ctx, `UPDATE queue_entries SET status = ?, attempts = 1 WHERE function_id = ?`, domain.QueueProcessing, "pkg/a.py::Foo")
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO reasoning_traces(function_id, agent, payload, created_at) VALUES (?, ?, ?, ?)
	`, "pkg/a.py::Foo", domain.AgentProposer, `{"step":1}`, time.Now())
	require.NoError(t, err)

	status, err := repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "pkg/a.py::Foo",
		Document:   validDocument(t),
		Confidence: 85,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, status)

	var payload string
	row := repo.db.QueryRowContext(ctx, `SELECT payload FROM reasoning_traces WHERE function_id = ?`, "pkg/a.py::Foo")
	require.NoError(t, row.Scan(&payload))
	assert.Equal(t, `{"step":1}`, payload, "the trace must survive byte-for-byte")

	var qStatus domain.QueueStatus
	var attempts, priority int
	var reason domain.QueueReason
	row = repo.db.QueryRowContext(ctx, `SELECT status, attempts, priority, reason FROM queue_entries WHERE function_id = ?`, "pkg/a.py::Foo")
	require.NoError(t, row.Scan(&qStatus, &attempts, &priority, &reason))
	assert.Equal(t, domain.QueueCompleted, qStatus, "contract submission closes the work item")
	assert.Equal(t, 1, attempts, "the attempt counter must carry over")
	assert.Equal(t, domain.DefaultPriority, priority)
	assert.Equal(t, domain.ReasonNew, reason)

	fetched, err := repo.GetContract(ctx, "pkg/a.py::Foo")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, fetched.Confidence, 1e-9, "a [0,100] submission is stored normalized")
}

func TestUpsertContract_PreservesDependencyEdges(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	other := sampleArtifact("hash9")
	other.FunctionID = "pkg/b.py::Bar"
	other.FilePath = "pkg/b.py"
	other.Name = "Bar"
	other.QualifiedName = "Bar"
	_, err = repo.UpsertArtifact(ctx, other)
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO dependencies(caller_id, callee_id, created_at) VALUES (?, ?, ?), (?, ?, ?)
	`, "pkg/a.py::Foo", "pkg/b.py::Bar", time.Now(), "pkg/b.py::Bar", "pkg/a.py::Foo", time.Now())
	require.NoError(t, err)

	_, err = repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "pkg/a.py::Foo",
		Document:   validDocument(t),
		Confidence: 0.9,
	}, nil)
	require.NoError(t, err)

	var n int
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dependencies`)
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 2, n, "edges in both directions must survive the dance")
}

func TestUpsertContract_AppendsSubmitterTrace(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	_, err = repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "pkg/a.py::Foo",
		Document:   validDocument(t),
		Confidence: 0.8,
	}, &domain.ReasoningTrace{Agent: domain.AgentCritic, Payload: `{"verdict":"ok"}`})
	require.NoError(t, err)

	traces, err := repo.ReasoningTraces(ctx, "pkg/a.py::Foo")
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, domain.AgentCritic, traces[0].Agent)
}

func TestUpsertContract_LowConfidenceNeedsReview(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	status, err := repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "pkg/a.py::Foo",
		Document:   validDocument(t),
		Confidence: 0.4,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsReview, status)
}

func TestUpsertContract_ThresholdFromConfigTable(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `INSERT INTO config(key, value) VALUES ('confidence_threshold', '50')`)
	require.NoError(t, err)

	status, err := repo.UpsertContract(ctx, domain.Contract{
		FunctionID: "pkg/a.py::Foo",
		Document:   validDocument(t),
		Confidence: 0.6,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, status, "a lowered threshold verifies lower scores")
}

func TestUpsertContract_UnknownFunctionIsAbsence(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertContract(ctx, domain.Contract{FunctionID: "ghost", Document: `{}`, Confidence: 0.9}, nil)
	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFunctionNotFound, ce.Code)
}

func TestVisionFindingsRoundTrip(t *testing.T) {
	repo, ctx := newTestRepo(t)
	_, err := repo.UpsertArtifact(ctx, sampleArtifact("hash1"))
	require.NoError(t, err)

	require.NoError(t, repo.AddVisionFinding(ctx, domain.VisionFinding{
		FunctionID:   "pkg/a.py::Foo",
		Type:         domain.FindingOutlier,
		Significance: domain.SignificanceHigh,
		Description:  "spike at x=0",
		Status:       domain.VisionFindingNew,
	}))

	findings, err := repo.VisionFindings(ctx, "pkg/a.py::Foo")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingOutlier, findings[0].Type)
	assert.Equal(t, domain.SignificanceHigh, findings[0].Significance)
}
