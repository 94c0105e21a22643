// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}

	run("init", "--quiet")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0o644))
	run("add", "a.txt")
	run("commit", "--quiet", "-m", "Initial commit")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\ntwo\n"), 0o644))
	run("commit", "--quiet", "-am", "Fix nil check in a.txt handler")

	return dir
}

func TestWalker_IsGitRepository(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWalker(dir, nil)
	assert.True(t, w.IsGitRepository())

	notRepo := NewWalker(t.TempDir(), nil)
	assert.False(t, notRepo.IsGitRepository())
}

func TestWalker_HeadSHA(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWalker(dir, nil)
	sha, err := w.HeadSHA()
	require.NoError(t, err)
	assert.Len(t, sha, 40)
}

func TestWalker_CommitsSince(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWalker(dir, nil)

	commits, err := w.CommitsSince("")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "Initial commit", commits[0].Message)
	assert.Equal(t, "Fix nil check in a.txt handler", commits[1].Message)
}

func TestWalker_CommitsSinceRef(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWalker(dir, nil)

	all, err := w.CommitsSince("")
	require.NoError(t, err)
	first := all[0].SHA

	commits, err := w.CommitsSince(first)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Fix nil check in a.txt handler", commits[0].Message)
}

func TestWalker_ShowAndChangedPaths(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWalker(dir, nil)

	commits, err := w.CommitsSince("")
	require.NoError(t, err)
	last := commits[len(commits)-1]

	diff, err := w.Show(last.SHA)
	require.NoError(t, err)
	assert.Contains(t, diff, "a.txt")

	paths, err := w.ChangedPaths(last.SHA)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, paths)
}
