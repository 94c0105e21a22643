// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordArtifactCreated(t *testing.T) {
	m.init()
	before := testutil.ToFloat64(m.artifactsCreated)
	RecordArtifactCreated()
	after := testutil.ToFloat64(m.artifactsCreated)
	assert.Equal(t, before+1, after)
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.queueDepth))
}

func TestRecordVerificationRun(t *testing.T) {
	before := testutil.ToFloat64(m.verificationFailures)
	RecordVerificationRun(50*time.Millisecond, false)
	assert.Equal(t, before+1, testutil.ToFloat64(m.verificationFailures))
}
