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

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
)

const postCommitHookContent = `#!/bin/sh
# drspec learning hook - mines each new commit for bug-fix patterns
# Installed by: drspec install-hook
# Remove with: drspec install-hook --remove

drspec -q learn 2>/dev/null &
`

// runInstallHook executes the 'install-hook' CLI command, managing a
// git post-commit hook that runs the learning miner after each commit
// so bug-fix patterns land in the log without anyone remembering to
// run 'drspec learn'.
//
// Flags:
//   - --force: Overwrite existing hook (default: false)
//   - --remove: Remove the hook instead of installing (default: false)
func runInstallHook(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("install-hook", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing hook")
	remove := fs.Bool("remove", false, "Remove the hook instead of installing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec install-hook [options]

Installs a git post-commit hook that runs 'drspec learn' in the
background after each commit, keeping the bug-fix learning log current.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	gitDir, err := findGitDir(globals.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if *remove {
		if err := removeHook(hookPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Removed post-commit hook.")
		return
	}

	if _, err := os.Stat(hookPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: a post-commit hook already exists at %s\n", hookPath)
		fmt.Fprintf(os.Stderr, "Pass --force to overwrite it.\n")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(hookPath, []byte(postCommitHookContent), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Installed post-commit hook at %s\n", hookPath)
}

// findGitDir resolves the repository's .git directory from root.
func findGitDir(root string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s is not a git repository", root)
	}
	gitDir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}
	return gitDir, nil
}

func removeHook(hookPath string) error {
	data, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("no post-commit hook installed")
	}
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "drspec learn") {
		return fmt.Errorf("the post-commit hook at %s was not installed by drspec; refusing to remove it", hookPath)
	}
	return os.Remove(hookPath)
}
