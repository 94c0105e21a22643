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

package drspec

import (
	"context"
	"strings"

	"github.com/kraklabs/drspec/internal/bootstrap"
	"github.com/kraklabs/drspec/internal/confidence"
	"github.com/kraklabs/drspec/internal/contractdoc"
	"github.com/kraklabs/drspec/internal/depgraph"
	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/learning"
	"github.com/kraklabs/drspec/internal/queue"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/scan"
	"github.com/kraklabs/drspec/internal/store"
)

// Client is the embedded entry point external tooling links against:
// contract-generation agents, editor integrations, and visualizers all
// drive the index through it rather than opening the database
// themselves. One Client owns one open database handle; Close it when
// done.
type Client struct {
	root  string
	store *store.Store
	repo  *repository.Repository
	queue *queue.Queue
	graph *depgraph.Graph
	log   *learning.Log
}

// Open connects to an initialized project at root. Returns a
// DB_NOT_INITIALIZED state error when `drspec init` has not run.
func Open(ctx context.Context, root string) (*Client, error) {
	s, err := bootstrap.OpenExisting(ctx, root)
	if err != nil {
		return nil, coreerrors.State(coreerrors.CodeDBNotInitialized, err.Error(), nil)
	}
	return &Client{
		root:  root,
		store: s,
		repo:  repository.New(s),
		queue: queue.New(s.DB()),
		graph: depgraph.New(s.DB()),
		log:   learning.New(s.DB()),
	}, nil
}

// Close releases the database handle.
func (c *Client) Close() error { return c.store.Close() }

// ValidateFunctionID enforces the "<path>::<name>" grammar: non-empty
// path segment, the literal "::", non-empty name segment, split on the
// first "::" only.
func ValidateFunctionID(raw string) error {
	idx := strings.Index(raw, "::")
	if idx <= 0 || idx+2 >= len(raw) {
		return coreerrors.Validation(coreerrors.CodeInvalidFunctionID,
			"function id must be <path>::<name>", map[string]any{"function_id": raw})
	}
	return nil
}

// Scan walks the project tree and upserts every extracted function,
// queueing new and changed ones unless queueing is false.
func (c *Client) Scan(ctx context.Context, queueing bool) (repository.SyncSummary, error) {
	result, err := scan.Scan(c.root, true, nil)
	if err != nil {
		return repository.SyncSummary{}, coreerrors.State(coreerrors.CodeScanError, err.Error(), nil)
	}
	return c.repo.SyncScan(ctx, result, queueing)
}

// GetArtifact fetches one indexed function.
func (c *Client) GetArtifact(ctx context.Context, functionID string) (domain.Artifact, error) {
	if err := ValidateFunctionID(functionID); err != nil {
		return domain.Artifact{}, err
	}
	return c.repo.GetArtifact(ctx, functionID)
}

// SubmitContract validates rawDocument, stores it for functionID with
// the submitted confidence (on either scale), optionally records the
// submitting agent's reasoning trace, and returns the artifact status
// the submission produced.
func (c *Client) SubmitContract(ctx context.Context, functionID string, rawDocument []byte, submittedConfidence float64, trace *domain.ReasoningTrace) (domain.ArtifactStatus, error) {
	if err := ValidateFunctionID(functionID); err != nil {
		return "", err
	}
	doc, err := contractdoc.Parse(rawDocument)
	if err != nil {
		ve, ok := err.(*contractdoc.ValidationError)
		if !ok {
			return "", err
		}
		code := coreerrors.CodeInvalidSchema
		if ve.Kind == contractdoc.ErrInvalidJSON {
			code = coreerrors.CodeInvalidJSON
		}
		return "", coreerrors.Validation(code, ve.Message, nil)
	}
	canonical, err := doc.Marshal()
	if err != nil {
		return "", coreerrors.Internal("re-encode contract document", err)
	}
	return c.repo.UpsertContract(ctx, domain.Contract{
		FunctionID: functionID,
		Document:   string(canonical),
		Confidence: submittedConfidence,
	}, trace)
}

// GetContract fetches a contract together with its display-scale
// confidence, adjusted for open vision findings.
func (c *Client) GetContract(ctx context.Context, functionID string) (domain.Contract, int, error) {
	if err := ValidateFunctionID(functionID); err != nil {
		return domain.Contract{}, 0, err
	}
	contract, err := c.repo.GetContract(ctx, functionID)
	if err != nil {
		return domain.Contract{}, 0, err
	}
	findings, err := c.repo.VisionFindings(ctx, functionID)
	if err != nil {
		return domain.Contract{}, 0, err
	}
	adjusted := confidence.AdjustedPercent(confidence.DisplayPercent(contract.Confidence), findings)
	return contract, adjusted, nil
}

// NextWorkItem claims the next queue entry for an agent.
func (c *Client) NextWorkItem(ctx context.Context) (domain.QueueEntry, error) {
	return c.queue.Pop(ctx)
}

// ReportFailure marks a claimed work item FAILED with the agent's
// error message. Re-queueing is a separate, deliberate step:
// RetryWorkItem or a fresh push.
func (c *Client) ReportFailure(ctx context.Context, functionID, message string) error {
	return c.queue.Complete(ctx, functionID, false, message)
}

// RetryWorkItem returns a FAILED (or stuck PROCESSING) entry to
// PENDING. Reason MANUAL_RETRY also rewinds the attempt counter.
func (c *Client) RetryWorkItem(ctx context.Context, functionID string, reason domain.QueueReason) error {
	return c.queue.Retry(ctx, functionID, reason)
}

// Graph runs a bounded dependency traversal.
func (c *Client) Graph(ctx context.Context, functionID string, depth int, direction depgraph.Direction) (depgraph.Result, error) {
	if err := ValidateFunctionID(functionID); err != nil {
		return depgraph.Result{}, err
	}
	return c.graph.GetGraph(ctx, functionID, depth, direction)
}

// AddVisionFinding records an analyst observation for functionID.
func (c *Client) AddVisionFinding(ctx context.Context, f domain.VisionFinding) error {
	if err := ValidateFunctionID(f.FunctionID); err != nil {
		return err
	}
	return c.repo.AddVisionFinding(ctx, f)
}

// LearningSummary returns the learning log's aggregate view.
func (c *Client) LearningSummary(ctx context.Context) (learning.Summary, error) {
	return c.log.Summarize(ctx)
}
