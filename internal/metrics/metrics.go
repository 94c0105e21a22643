// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes Prometheus counters/histograms for the core
// pipeline: a package-level struct guarded by sync.Once, registered
// once, with small Record* helpers wrapping each metric so callers
// never touch prometheus types directly.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type coreMetrics struct {
	once sync.Once

	artifactsCreated prometheus.Counter
	artifactsStale   prometheus.Counter
	contractsWritten prometheus.Counter

	queuePushed prometheus.Counter
	queuePopped prometheus.Counter
	queueFailed prometheus.Counter
	queueDepth  prometheus.Gauge

	verificationRuns     prometheus.Counter
	verificationFailures prometheus.Counter
	verificationDuration prometheus.Histogram

	learningEventsRecorded prometheus.Counter
}

var m coreMetrics

func (c *coreMetrics) init() {
	c.once.Do(func() {
		c.artifactsCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_artifacts_created_total", Help: "Artifacts inserted for the first time"})
		c.artifactsStale = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_artifacts_stale_total", Help: "Artifacts marked STALE by a code_hash mismatch"})
		c.contractsWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_contracts_written_total", Help: "Contracts written via upsert_contract"})

		c.queuePushed = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_queue_pushed_total", Help: "Queue entries pushed"})
		c.queuePopped = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_queue_popped_total", Help: "Queue entries popped"})
		c.queueFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_queue_failed_total", Help: "Queue entries that exhausted their attempt budget"})
		c.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{Name: "drspec_queue_depth", Help: "Current number of PENDING queue entries"})

		c.verificationRuns = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_verification_runs_total", Help: "Verification subprocess invocations"})
		c.verificationFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_verification_failures_total", Help: "Verification subprocess failures (non-zero exit or timeout)"})
		c.verificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "drspec_verification_duration_seconds", Help: "Verification subprocess wall time", Buckets: prometheus.DefBuckets})

		c.learningEventsRecorded = prometheus.NewCounter(prometheus.CounterOpts{Name: "drspec_learning_events_recorded_total", Help: "Bug-fix pattern events recorded"})

		prometheus.MustRegister(
			c.artifactsCreated, c.artifactsStale, c.contractsWritten,
			c.queuePushed, c.queuePopped, c.queueFailed, c.queueDepth,
			c.verificationRuns, c.verificationFailures, c.verificationDuration,
			c.learningEventsRecorded,
		)
	})
}

// RecordArtifactCreated increments the new-artifact counter.
func RecordArtifactCreated() { m.init(); m.artifactsCreated.Inc() }

// RecordArtifactStale increments the stale-artifact counter.
func RecordArtifactStale() { m.init(); m.artifactsStale.Inc() }

// RecordContractWritten increments the contract-write counter.
func RecordContractWritten() { m.init(); m.contractsWritten.Inc() }

// RecordQueuePush increments the queue-push counter.
func RecordQueuePush() { m.init(); m.queuePushed.Inc() }

// RecordQueuePop increments the queue-pop counter.
func RecordQueuePop() { m.init(); m.queuePopped.Inc() }

// RecordQueueFailed increments the attempt-budget-exhausted counter.
func RecordQueueFailed() { m.init(); m.queueFailed.Inc() }

// SetQueueDepth reports the current PENDING queue size.
func SetQueueDepth(depth int) { m.init(); m.queueDepth.Set(float64(depth)) }

// RecordVerificationRun records one verification subprocess invocation
// and its wall-clock duration; ok distinguishes a clean pass from a
// failure/timeout.
func RecordVerificationRun(d time.Duration, ok bool) {
	m.init()
	m.verificationRuns.Inc()
	m.verificationDuration.Observe(d.Seconds())
	if !ok {
		m.verificationFailures.Inc()
	}
}

// RecordLearningEvent increments the mined-pattern counter.
func RecordLearningEvent() { m.init(); m.learningEventsRecorded.Inc() }
