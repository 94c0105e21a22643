// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/drspec/internal/domain"
)

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0.72, Normalize(72), 0.0001, "legacy [0,100] scores must be divided down")
	assert.InDelta(t, 0.72, Normalize(0.72), 0.0001, "already-normalized scores pass through")
	assert.Equal(t, 0.0, Normalize(-5))
	assert.Equal(t, 1.0, Normalize(250), "legacy scores clamp at 100")
}

func TestDisplayPercent(t *testing.T) {
	assert.Equal(t, 72, DisplayPercent(0.72))
	assert.Equal(t, 72, DisplayPercent(72), "legacy rows display as-is")
	assert.Equal(t, 100, DisplayPercent(1.0))
	assert.Equal(t, 85, DisplayPercent(0.849))
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketHigh, BucketFor(0.9))
	assert.Equal(t, BucketGood, BucketFor(0.7))
	assert.Equal(t, BucketModerate, BucketFor(0.5))
	assert.Equal(t, BucketLow, BucketFor(0.1))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusVerified, StatusFor(0.70, DefaultThreshold))
	assert.Equal(t, domain.StatusNeedsReview, StatusFor(0.69, DefaultThreshold))
	assert.Equal(t, domain.StatusVerified, StatusFor(0.60, 0.50), "a lowered threshold verifies lower scores")
}

func TestAdjustedPercent_OnlyPenalizesUnresolved(t *testing.T) {
	findings := []domain.VisionFinding{
		{Significance: domain.SignificanceHigh, Status: domain.VisionFindingNew},
		{Significance: domain.SignificanceMedium, Status: domain.VisionFindingAddressed},
		{Significance: domain.SignificanceLow, Status: domain.VisionFindingNew},
	}
	assert.Equal(t, 72, AdjustedPercent(90, findings), "90 - 15 - 3; the ADDRESSED finding contributes nothing")
}

func TestAdjustedPercent_ClampsToZero(t *testing.T) {
	findings := make([]domain.VisionFinding, 7)
	for i := range findings {
		findings[i] = domain.VisionFinding{Significance: domain.SignificanceHigh, Status: domain.VisionFindingNew}
	}
	assert.Equal(t, 0, AdjustedPercent(90, findings))
}
