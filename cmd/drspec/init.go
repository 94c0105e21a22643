// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/drspec/internal/bootstrap"
	"github.com/kraklabs/drspec/internal/ui"
	flag "github.com/spf13/pflag"
)

// runInit executes the 'init' CLI command, creating the _drspec/ data
// directory, the embedded database with its schema, and the YAML
// config seed. Safe to run repeatedly.
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drspec init

Creates <root>/_drspec/ with:
  contracts.db   The embedded database (schema applied)
  config.yaml    Tuning knobs (confidence threshold, attempt budget, ...)
  agents/        Drop location for agent prompt templates
  plots/         Drop location for externally-rendered plots
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	info, err := bootstrap.InitProject(context.Background(), bootstrap.ProjectConfig{Root: globals.Root}, nil)
	if err != nil {
		fail(globals, err)
	}

	emit(globals, map[string]any{
		"root":     info.Root,
		"data_dir": info.DataDir,
		"db_path":  info.DBPath,
	})
	if !globals.JSON {
		ui.Successf("Initialized drspec project at %s", info.DataDir)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  drspec index     Scan the source tree")
		fmt.Println("  drspec status    See what was indexed")
	}
}
