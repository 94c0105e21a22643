// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package domain holds the entity types shared by the store, repository,
// queue, dependency-graph, and learning-log packages. None of the types
// here know how they are persisted; that is the store's job.
package domain

import "time"

// ArtifactStatus is the lifecycle position of an extracted function.
type ArtifactStatus string

const (
	StatusPending     ArtifactStatus = "PENDING"
	StatusVerified    ArtifactStatus = "VERIFIED"
	StatusNeedsReview ArtifactStatus = "NEEDS_REVIEW"
	StatusStale       ArtifactStatus = "STALE"
	StatusBroken      ArtifactStatus = "BROKEN"
	StatusUnknown     ArtifactStatus = "UNKNOWN"
)

// Language tags recognized by the parsers.
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangCPP        = "cpp"
)

// Artifact is a single extracted function, keyed by FunctionID.
type Artifact struct {
	FunctionID    string         `json:"function_id"`
	FilePath      string         `json:"file_path"`
	Name          string         `json:"name"`
	QualifiedName string         `json:"qualified_name"`
	Signature     string         `json:"signature"`
	Body          string         `json:"body,omitempty"`
	CodeHash      string         `json:"code_hash"`
	Language      string         `json:"language"`
	StartLine     int            `json:"start_line"`
	EndLine       int            `json:"end_line"`
	Parent        string         `json:"parent,omitempty"` // enclosing class/namespace, empty if none
	Status        ArtifactStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// QueueReason explains why an artifact landed in the queue.
type QueueReason string

const (
	ReasonNew               QueueReason = "NEW"
	ReasonHashMismatch      QueueReason = "HASH_MISMATCH"
	ReasonDependencyChanged QueueReason = "DEPENDENCY_CHANGED"
	ReasonManualRetry       QueueReason = "MANUAL_RETRY"
)

// QueueStatus is the lifecycle position of a queue entry.
type QueueStatus string

const (
	QueuePending    QueueStatus = "PENDING"
	QueueProcessing QueueStatus = "PROCESSING"
	QueueCompleted  QueueStatus = "COMPLETED"
	QueueFailed     QueueStatus = "FAILED"
)

// DefaultMaxAttempts is the default number of pops a queue entry
// tolerates before it becomes permanently invisible to pop.
const DefaultMaxAttempts = 3

// DefaultPriority is used by push when the caller doesn't specify one.
const DefaultPriority = 100

// QueueEntry is one-to-one with an Artifact awaiting external processing.
type QueueEntry struct {
	FunctionID   string      `json:"function_id"`
	Priority     int         `json:"priority"`
	Status       QueueStatus `json:"status"`
	Reason       QueueReason `json:"reason"`
	Attempts     int         `json:"attempts"`
	MaxAttempts  int         `json:"max_attempts"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Dependency is a directed caller -> callee edge between two artifacts.
type Dependency struct {
	CallerID  string    `json:"caller_id"`
	CalleeID  string    `json:"callee_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentTag identifies which kind of external agent produced a reasoning trace.
type AgentTag string

const (
	AgentProposer      AgentTag = "proposer"
	AgentCritic        AgentTag = "critic"
	AgentJudge         AgentTag = "judge"
	AgentVisionAnalyst AgentTag = "vision_analyst"
	AgentLibrarian     AgentTag = "librarian"
	AgentDebugger      AgentTag = "debugger"
)

// ReasoningTrace is an append-only audit record of an agent's intermediate
// reasoning about a function.
type ReasoningTrace struct {
	ID         int64     `json:"id"`
	FunctionID string    `json:"function_id"`
	Agent      AgentTag  `json:"agent"`
	Payload    string    `json:"payload"` // opaque JSON
	CreatedAt  time.Time `json:"created_at"`
}

// VisionFindingType categorizes an analyst observation.
type VisionFindingType string

const (
	FindingOutlier        VisionFindingType = "outlier"
	FindingDiscontinuity  VisionFindingType = "discontinuity"
	FindingBoundary       VisionFindingType = "boundary"
	FindingCorrelation    VisionFindingType = "correlation"
	FindingMissingPattern VisionFindingType = "missing_pattern"
)

// Significance ranks how much a vision finding should influence confidence.
type Significance string

const (
	SignificanceHigh   Significance = "HIGH"
	SignificanceMedium Significance = "MEDIUM"
	SignificanceLow    Significance = "LOW"
)

// VisionFindingStatus tracks whether a finding still needs action.
type VisionFindingStatus string

const (
	VisionFindingNew       VisionFindingStatus = "NEW"
	VisionFindingAddressed VisionFindingStatus = "ADDRESSED"
	VisionFindingIgnored   VisionFindingStatus = "IGNORED"
)

// VisionFinding is an analyst-supplied observation about a function's
// observed behavior, typically derived from a rendered plot.
type VisionFinding struct {
	ID                 int64               `json:"id"`
	FunctionID         string              `json:"function_id"`
	Type               VisionFindingType   `json:"type"`
	Significance       Significance        `json:"significance"`
	Description        string              `json:"description"`
	Location           string              `json:"location,omitempty"`
	SuggestedInvariant string              `json:"suggested_invariant,omitempty"`
	Status             VisionFindingStatus `json:"status"`
	Resolution         string              `json:"resolution,omitempty"`
	PlotRef            string              `json:"plot_ref,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// Contract is one-to-one with an Artifact that has been analyzed. Document
// holds the validated contract JSON verbatim; Confidence is always stored
// normalized to [0,1] (legacy [0,100] rows are normalized on read, see
// internal/confidence).
type Contract struct {
	FunctionID         string    `json:"function_id"`
	Document           string    `json:"document"` // opaque JSON, see internal/contractdoc
	Confidence         float64   `json:"confidence"`
	VerificationScript string    `json:"verification_script,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// LearningEvent is an append-only record of a mined bug-fix pattern.
type LearningEvent struct {
	ID                  int64     `json:"id"`
	Commit              string    `json:"commit"`
	CommitMessage       string    `json:"commit_message"`
	FunctionID          string    `json:"function_id"`
	PatternCategory     string    `json:"pattern_category"`
	PatternDescription  string    `json:"pattern_description"`
	ContractModified    bool      `json:"contract_modified"`
	ConfidenceBoost     float64   `json:"confidence_boost"`
	InvariantsAdded     int       `json:"invariants_added"`
	InvariantsValidated int       `json:"invariants_validated"`
	CreatedAt           time.Time `json:"created_at"`
}
