// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package vcs walks a git repository's commit history so the
// diffminer/learning components can mine each commit for bug-fix
// patterns. Everything here shells out to git against a single
// checkout; stderr from a failed subcommand is surfaced in the
// returned error's details.
package vcs

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	coreerrors "github.com/kraklabs/drspec/internal/errors"
)

// Commit is one entry in a repository's history.
type Commit struct {
	SHA     string
	Message string
}

// Walker runs git subcommands against a single repository checkout.
type Walker struct {
	repoPath string
	logger   *slog.Logger
}

// NewWalker builds a Walker rooted at repoPath.
func NewWalker(repoPath string, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{repoPath: repoPath, logger: logger}
}

// IsGitRepository reports whether repoPath is inside a git working tree.
func (w *Walker) IsGitRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = w.repoPath
	return cmd.Run() == nil
}

// HeadSHA returns the current HEAD commit.
func (w *Walker) HeadSHA() (string, error) {
	return w.resolveRef("HEAD")
}

func (w *Walker) resolveRef(ref string) (string, error) {
	cmd := exec.Command("git", "rev-parse", ref)
	cmd.Dir = w.repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", gitErr("git rev-parse", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CommitsSince lists every commit reachable from HEAD but not from
// sinceSHA, oldest first, so callers can process history in
// chronological order. An empty sinceSHA lists the whole history.
func (w *Walker) CommitsSince(sinceSHA string) ([]Commit, error) {
	rangeArg := "HEAD"
	if sinceSHA != "" {
		rangeArg = sinceSHA + "..HEAD"
	}

	cmd := exec.Command("git", "log", "--reverse", "--pretty=format:%H%x1f%B%x1e", rangeArg)
	cmd.Dir = w.repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, gitErr("git log", rangeArg, err)
	}

	var commits []Commit
	for _, record := range strings.Split(string(out), "\x1e") {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, "\x1f", 2)
		if len(parts) != 2 {
			continue
		}
		commits = append(commits, Commit{SHA: parts[0], Message: strings.TrimSpace(parts[1])})
	}
	return commits, nil
}

// Show returns the unified diff introduced by a single commit.
func (w *Walker) Show(sha string) (string, error) {
	cmd := exec.Command("git", "show", "--format=", sha)
	cmd.Dir = w.repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", gitErr("git show", sha, err)
	}
	return string(out), nil
}

// FileAt returns a file's content as of a given commit.
func (w *Walker) FileAt(sha, path string) ([]byte, error) {
	cmd := exec.Command("git", "show", sha+":"+path)
	cmd.Dir = w.repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, gitErr("git show", sha+":"+path, err)
	}
	return out, nil
}

// ChangedPaths lists files touched by a single commit.
func (w *Walker) ChangedPaths(sha string) ([]string, error) {
	cmd := exec.Command("git", "show", "--name-only", "--format=", sha)
	cmd.Dir = w.repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, gitErr("git show --name-only", sha, err)
	}

	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func gitErr(verb, arg string, err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return coreerrors.Execution(coreerrors.CodeExecutionError,
			fmt.Sprintf("%s %s failed", verb, arg), map[string]any{"stderr": string(exitErr.Stderr)}, err)
	}
	return coreerrors.Execution(coreerrors.CodeExecutionError, fmt.Sprintf("%s %s failed", verb, arg), nil, err)
}
