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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/drspec/internal/bootstrap"
	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
)

func newTestClient(t *testing.T) (*Client, context.Context) {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "math.py"),
		[]byte("def add_one(x):\n    return x + 1\n"), 0o644))

	_, err := bootstrap.InitProject(ctx, bootstrap.ProjectConfig{Root: root}, nil)
	require.NoError(t, err)

	c, err := Open(ctx, root)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, ctx
}

func TestOpen_UninitializedProject(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	ce, ok := coreerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, coreerrors.CodeDBNotInitialized, ce.Code)
}

func TestValidateFunctionID(t *testing.T) {
	assert.NoError(t, ValidateFunctionID("a.py::f"))
	assert.Error(t, ValidateFunctionID("a.py"))
	assert.Error(t, ValidateFunctionID("::f"))
	assert.Error(t, ValidateFunctionID("a.py::"))
}

func TestClient_AgentWorkLoop(t *testing.T) {
	c, ctx := newTestClient(t)

	summary, err := c.Scan(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.New)

	item, err := c.NextWorkItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, "math.py::add_one", item.FunctionID)
	assert.Equal(t, domain.QueueProcessing, item.Status)

	contractJSON := []byte(`{
		"function_signature": "def add_one(x)",
		"intent_summary": "Returns its argument incremented by one.",
		"invariants": [
			{"name": "increments", "logic": "result == x + 1", "criticality": "HIGH", "on_fail": "error"}
		]
	}`)
	status, err := c.SubmitContract(ctx, item.FunctionID, contractJSON, 85, &domain.ReasoningTrace{
		Agent: domain.AgentProposer, Payload: `{"step":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, status)

	contract, adjusted, err := c.GetContract(ctx, item.FunctionID)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, contract.Confidence, 1e-9)
	assert.Equal(t, 85, adjusted)
}

func TestClient_VisionFindingLowersDisplayedConfidence(t *testing.T) {
	c, ctx := newTestClient(t)
	_, err := c.Scan(ctx, true)
	require.NoError(t, err)

	contractJSON := []byte(`{
		"function_signature": "def add_one(x)",
		"intent_summary": "Returns its argument incremented by one.",
		"invariants": [
			{"name": "increments", "logic": "result == x + 1", "criticality": "HIGH", "on_fail": "error"}
		]
	}`)
	_, err = c.SubmitContract(ctx, "math.py::add_one", contractJSON, 90, nil)
	require.NoError(t, err)

	require.NoError(t, c.AddVisionFinding(ctx, domain.VisionFinding{
		FunctionID:   "math.py::add_one",
		Type:         domain.FindingBoundary,
		Significance: domain.SignificanceHigh,
		Description:  "behavior flips at x = 2**31",
		Status:       domain.VisionFindingNew,
	}))

	contract, adjusted, err := c.GetContract(ctx, "math.py::add_one")
	require.NoError(t, err)
	assert.InDelta(t, 0.90, contract.Confidence, 1e-9, "the stored score never changes")
	assert.Equal(t, 75, adjusted, "an open HIGH finding subtracts 15 display points")
}

func TestClient_SubmitContract_RejectsBadDocument(t *testing.T) {
	c, ctx := newTestClient(t)
	_, err := c.Scan(ctx, true)
	require.NoError(t, err)

	_, err = c.SubmitContract(ctx, "math.py::add_one", []byte(`{"function_signature":""}`), 80, nil)
	ce, ok := coreerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, coreerrors.CodeInvalidSchema, ce.Code)

	_, err = c.SubmitContract(ctx, "math.py::add_one", []byte(`{nope`), 80, nil)
	ce, ok = coreerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, coreerrors.CodeInvalidJSON, ce.Code)
}
