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

// Package bootstrap handles drspec project initialization and setup.
//
// It creates the per-project `_drspec/` data directory — the embedded
// database, the `agents/` prompt-template drop location, the `plots/`
// image drop location, and the YAML config seed — and ensures the
// schema exists before any other component touches the store.
//
// # Initialization Workflow
//
// A typical workflow for setting up a new project:
//
//	// Initialize the project (creates _drspec/ and the database)
//	info, err := bootstrap.InitProject(ctx, bootstrap.ProjectConfig{
//	    Root: "/path/to/project",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Project initialized at: %s\n", info.DataDir)
//
//	// Later, open the project for queries
//	s, err := bootstrap.OpenExisting(ctx, "/path/to/project")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
// # Idempotency
//
// InitProject is idempotent: calling it multiple times on the same
// project is safe and will not corrupt existing data. This makes it
// suitable for use in scripts and automated workflows.
package bootstrap
