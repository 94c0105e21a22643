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

	flag "github.com/spf13/pflag"
)

// bashCompletionTemplate is the bash completion script for drspec.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for drspec
# Installation:
#   source <(drspec completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(drspec completion bash)' >> ~/.bashrc

_drspec_completion() {
    local cur prev commands
    commands="init index status queue contract graph verify hints learn report install-hook reset completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Global flags
    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --root --json --no-color -q" -- ${cur}) )
        return 0
    fi

    # First argument: complete commands
    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    # Command-specific completion
    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        index)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--no-queue --non-recursive" -- ${cur}) )
            fi
            ;;
        queue)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "pop peek push complete retry prioritize remove clear-completed stats" -- ${cur}) )
            fi
            ;;
        contract)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "submit get validate" -- ${cur}) )
            fi
            ;;
        graph)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--depth --direction" -- ${cur}) )
            fi
            ;;
        learn)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--apply --since --all --summary" -- ${cur}) )
            fi
            ;;
        report)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--html --out" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        install-hook)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--force --remove" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _drspec_completion drspec
`

// zshCompletionTemplate is the zsh completion script for drspec.
const zshCompletionTemplate = `#compdef drspec

# Zsh completion script for drspec
# Installation:
#   1. Ensure compinit is loaded (add to ~/.zshrc if not present):
#      autoload -U compinit; compinit
#   2. Save this script to a directory in your fpath:
#      drspec completion zsh > "${fpath[1]}/_drspec"
#   3. Reload completions:
#      rm -f ~/.zcompdump; compinit

_drspec() {
    local -a commands
    commands=(
        'init:Create the _drspec/ data directory'
        'index:Scan the source tree and update the index'
        'status:Show project status'
        'queue:Work-queue operations'
        'contract:Submit, fetch, or validate a contract'
        'graph:Traverse the call-dependency graph'
        'verify:Run a verification script'
        'hints:Extract contract annotations from comments'
        'learn:Mine bug-fix commits into the learning log'
        'report:Render a project summary'
        'install-hook:Install git post-commit hook'
        'reset:Delete all project data'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--root[Project root]:directory:_files -/' \
        '--json[Machine-readable JSON envelope output]' \
        '--no-color[Disable colored output]' \
        '-q[Quiet mode]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                index)
                    _arguments \
                        '--no-queue[Index without creating queue entries]' \
                        '--non-recursive[Only scan files directly under the root]'
                    ;;
                queue)
                    _arguments '1:verb:(pop peek push complete retry prioritize remove clear-completed stats)'
                    ;;
                contract)
                    _arguments '1:verb:(submit get validate)'
                    ;;
                graph)
                    _arguments \
                        '--depth[Traversal depth, 1-5]:depth:' \
                        '--direction[Edge direction]:direction:(callers callees both)'
                    ;;
                learn)
                    _arguments \
                        '--apply[Write strengthening back into contracts]' \
                        '--since[Mine commits after this SHA]:sha:' \
                        '--all[Mine the whole history]' \
                        '--summary[Print learning-log aggregates]'
                    ;;
                reset)
                    _arguments '--yes[Skip confirmation prompt]'
                    ;;
                install-hook)
                    _arguments \
                        '--force[Overwrite existing hook]' \
                        '--remove[Remove the hook]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_drspec
`

// fishCompletionTemplate is the fish completion script for drspec.
const fishCompletionTemplate = `# Fish completion script for drspec
# Installation:
#   1. Load completions for current session:
#      drspec completion fish | source
#   2. Install permanently:
#      drspec completion fish > ~/.config/fish/completions/drspec.fish

# Commands
complete -c drspec -f -n "__fish_use_subcommand" -a "init" -d "Create the _drspec/ data directory"
complete -c drspec -f -n "__fish_use_subcommand" -a "index" -d "Scan the source tree and update the index"
complete -c drspec -f -n "__fish_use_subcommand" -a "status" -d "Show project status"
complete -c drspec -f -n "__fish_use_subcommand" -a "queue" -d "Work-queue operations"
complete -c drspec -f -n "__fish_use_subcommand" -a "contract" -d "Submit, fetch, or validate a contract"
complete -c drspec -f -n "__fish_use_subcommand" -a "graph" -d "Traverse the call-dependency graph"
complete -c drspec -f -n "__fish_use_subcommand" -a "verify" -d "Run a verification script"
complete -c drspec -f -n "__fish_use_subcommand" -a "hints" -d "Extract contract annotations"
complete -c drspec -f -n "__fish_use_subcommand" -a "learn" -d "Mine bug-fix commits"
complete -c drspec -f -n "__fish_use_subcommand" -a "report" -d "Render a project summary"
complete -c drspec -f -n "__fish_use_subcommand" -a "install-hook" -d "Install git post-commit hook"
complete -c drspec -f -n "__fish_use_subcommand" -a "reset" -d "Delete all project data (destructive!)"
complete -c drspec -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

# Global flags
complete -c drspec -l version -d "Show version and exit"
complete -c drspec -l root -d "Project root" -r
complete -c drspec -l json -d "Machine-readable JSON envelope output"
complete -c drspec -l no-color -d "Disable colored output"

# queue verbs
complete -c drspec -n "__fish_seen_subcommand_from queue" -f -a "pop peek push complete retry prioritize remove clear-completed stats"

# contract verbs
complete -c drspec -n "__fish_seen_subcommand_from contract" -f -a "submit get validate"

# graph command flags
complete -c drspec -n "__fish_seen_subcommand_from graph" -l depth -d "Traversal depth, 1-5" -r
complete -c drspec -n "__fish_seen_subcommand_from graph" -l direction -d "callers, callees, or both" -r

# learn command flags
complete -c drspec -n "__fish_seen_subcommand_from learn" -l apply -d "Write strengthening back into contracts"
complete -c drspec -n "__fish_seen_subcommand_from learn" -l summary -d "Print learning-log aggregates"

# reset command flags
complete -c drspec -n "__fish_seen_subcommand_from reset" -l yes -d "Skip confirmation prompt"

# install-hook command flags
complete -c drspec -n "__fish_seen_subcommand_from install-hook" -l force -d "Overwrite existing hook"
complete -c drspec -n "__fish_seen_subcommand_from install-hook" -l remove -d "Remove the hook"

# completion command arguments
complete -c drspec -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c drspec -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c drspec -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion executes the 'completion' CLI command, generating
// shell-specific completion scripts for bash, zsh, or fish.
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec completion <shell>

Generate shell completion scripts for bash, zsh, or fish.

Examples:
  source <(drspec completion bash)
  drspec completion zsh > "${fpath[1]}/_drspec"
  drspec completion fish > ~/.config/fish/completions/drspec.fish
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	switch fs.Arg(0) {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		fmt.Fprintf(os.Stderr, "Error: shell %q is not supported. Valid options: bash, zsh, fish\n", fs.Arg(0))
		os.Exit(1)
	}
}
