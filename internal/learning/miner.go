// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package learning

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kraklabs/drspec/internal/contractdoc"
	"github.com/kraklabs/drspec/internal/diffminer"
	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
	"github.com/kraklabs/drspec/internal/repository"
	"github.com/kraklabs/drspec/internal/vcs"
)

// Miner drives the learning pipeline over a repository's commit
// history: classify each commit, parse its diff, map hunks to indexed
// functions, mine patterns, optionally strengthen contracts, and log
// everything.
type Miner struct {
	walker *vcs.Walker
	repo   *repository.Repository
	log    *Log
	logger *slog.Logger

	// Apply controls whether strengthening is written back into
	// contracts (boosted confidence plus suggested invariants) or only
	// recorded in the log for review.
	Apply bool
}

// NewMiner wires the mining pipeline together.
func NewMiner(walker *vcs.Walker, repo *repository.Repository, log *Log, logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{walker: walker, repo: repo, log: log, logger: logger}
}

// CommitOutcome summarizes what mining one commit produced.
type CommitOutcome struct {
	Commit           string  `json:"commit"`
	BugFixScore      float64 `json:"bug_fix_score"`
	Mined            bool    `json:"mined"`
	Patterns         int     `json:"patterns"`
	EventsRecorded   int     `json:"events_recorded"`
	ContractsTouched int     `json:"contracts_touched"`
}

// MineCommit analyzes a single commit. Commits whose message scores
// below the bug-fix threshold are skipped (Mined=false). For each
// function the diff touches that exists in the index, every mined
// pattern produces one learning event; when Apply is set and the
// function has a contract, the strengthening (boosted confidence plus
// accepted suggestions) is written back through the contract-upsert
// protocol.
func (m *Miner) MineCommit(ctx context.Context, commit vcs.Commit) (CommitOutcome, error) {
	out := CommitOutcome{Commit: commit.SHA, BugFixScore: diffminer.ScoreBugFix(commit.Message)}
	if out.BugFixScore < diffminer.BugFixThreshold {
		return out, nil
	}
	out.Mined = true

	diffText, err := m.walker.Show(commit.SHA)
	if err != nil {
		return out, err
	}
	files, err := diffminer.ParseDiff(diffText)
	if err != nil {
		return out, err
	}

	modified := diffminer.ModifiedFunctions(files, func(path string) ([]byte, error) {
		return m.walker.FileAt(commit.SHA, path)
	})

	for _, mf := range modified {
		var patterns []diffminer.Pattern
		for _, h := range mf.Hunks {
			p, ok := diffminer.CategorizeHunk(h)
			if !ok {
				continue
			}
			p.FilePath = mf.FilePath
			patterns = append(patterns, p)
		}
		if len(patterns) == 0 {
			continue
		}
		out.Patterns += len(patterns)

		if _, err := m.repo.GetArtifact(ctx, mf.FunctionID); err != nil {
			// Functions the index doesn't know (new in this commit,
			// or outside the scanned roots) can't satisfy the log's
			// foreign key; skip them.
			m.logger.Debug("learning.mine.unindexed", "function_id", mf.FunctionID)
			continue
		}

		existing, doc := m.existingContract(ctx, mf.FunctionID)
		st := diffminer.Strengthen(patterns, mf.Function.Name, doc)

		modifiedContract := false
		if m.Apply && existing != nil && (st.ConfidenceBoost > 0 || len(st.Suggestions) > 0) {
			if err := m.applyStrengthening(ctx, *existing, doc, st); err != nil {
				m.logger.Warn("learning.apply.failed", "function_id", mf.FunctionID, "error", err)
			} else {
				modifiedContract = true
				out.ContractsTouched++
			}
		}

		for _, p := range patterns {
			_, err := m.log.Record(ctx, domain.LearningEvent{
				Commit:              commit.SHA,
				CommitMessage:       commit.Message,
				FunctionID:          mf.FunctionID,
				PatternCategory:     string(p.Category),
				PatternDescription:  p.Description,
				ContractModified:    modifiedContract,
				ConfidenceBoost:     st.ConfidenceBoost,
				InvariantsAdded:     len(st.Suggestions),
				InvariantsValidated: len(st.ValidatedInvariants),
			})
			if err != nil {
				return out, err
			}
			out.EventsRecorded++
		}
	}

	m.logger.Info("learning.mine.commit",
		"commit", commit.SHA, "score", out.BugFixScore,
		"patterns", out.Patterns, "events", out.EventsRecorded)
	return out, nil
}

// existingContract fetches and decodes the function's contract, if
// any. A contract whose document no longer validates is treated as
// absent rather than aborting the mine.
func (m *Miner) existingContract(ctx context.Context, functionID string) (*domain.Contract, *contractdoc.Document) {
	c, err := m.repo.GetContract(ctx, functionID)
	if err != nil {
		return nil, nil
	}
	doc, err := contractdoc.Parse([]byte(c.Document))
	if err != nil {
		return &c, nil
	}
	return &c, doc
}

// applyStrengthening appends the accepted suggestions to the contract
// document, bumps its confidence by the earned boost, and resubmits it
// through the child-preserving upsert protocol.
func (m *Miner) applyStrengthening(ctx context.Context, c domain.Contract, doc *contractdoc.Document, st diffminer.Strengthening) error {
	if doc == nil {
		return coreerrors.Validation(coreerrors.CodeInvalidSchema,
			"contract document does not validate; not strengthening it", nil)
	}
	for _, s := range st.Suggestions {
		doc.Invariants = append(doc.Invariants, s.Invariant)
	}
	raw, err := doc.Marshal()
	if err != nil {
		return coreerrors.Internal("learning: marshal strengthened contract", err)
	}

	boosted := c.Confidence + st.ConfidenceBoost
	if boosted > 1 {
		boosted = 1
	}
	c.Document = string(raw)
	c.Confidence = boosted
	_, err = m.repo.UpsertContract(ctx, c, nil)
	return err
}

// Run mines every commit reachable from HEAD but not from sinceSHA,
// oldest first. A commit whose mining fails is logged as a warning and
// left out of the returned outcomes; the remaining commits are still
// mined.
func (m *Miner) Run(ctx context.Context, sinceSHA string) ([]CommitOutcome, error) {
	commits, err := m.walker.CommitsSince(sinceSHA)
	if err != nil {
		return nil, err
	}
	out := make([]CommitOutcome, 0, len(commits))
	for _, c := range commits {
		o, err := m.MineCommit(ctx, c)
		if err != nil {
			m.logger.Warn("learning.mine.error", "commit", c.SHA, "error", err)
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// MarshalOutcomes renders outcomes as pretty JSON for the CLI surface.
func MarshalOutcomes(outcomes []CommitOutcome) ([]byte, error) {
	return json.MarshalIndent(outcomes, "", "  ")
}
