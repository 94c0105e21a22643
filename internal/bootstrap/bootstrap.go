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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/drspec/internal/config"
	"github.com/kraklabs/drspec/internal/store"
)

// DataDirName is the per-project directory drspec keeps next to the
// code it indexes.
const DataDirName = "_drspec"

// DBFileName is the embedded database file inside DataDirName.
const DBFileName = "contracts.db"

// ProjectConfig holds configuration for initializing a project.
type ProjectConfig struct {
	// Root is the project root the data directory is created under.
	Root string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	Root       string
	DataDir    string
	DBPath     string
	ConfigPath string
}

// DataDir returns the project's data directory path for a given root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// DBPath returns the database file path for a given root.
func DBPath(root string) string {
	return filepath.Join(root, DataDirName, DBFileName)
}

// ConfigPath returns the YAML config seed path for a given root.
func ConfigPath(root string) string {
	return filepath.Join(root, DataDirName, "config.yaml")
}

// InitProject initializes a drspec project under cfg.Root. The
// function is idempotent: calling it multiple times is safe.
//
// It creates the `_drspec/` directory with its `agents/` and `plots/`
// subdirectories, seeds `config.yaml` with the documented defaults
// when absent, opens (creating if necessary) the database file, runs
// migrations, and reconciles the YAML settings into the config table.
func InitProject(ctx context.Context, cfg ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}

	dataDir := DataDir(cfg.Root)
	logger.Info("bootstrap.project.init.start", "root", cfg.Root, "data_dir", dataDir)

	for _, dir := range []string{dataDir, filepath.Join(dataDir, "agents"), filepath.Join(dataDir, "plots")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	cfgPath := ConfigPath(cfg.Root)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			return nil, fmt.Errorf("seed config: %w", err)
		}
	}
	settings, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := DBPath(cfg.Root)
	s, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := reconcileConfig(ctx, s, settings); err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.complete", "db", dbPath)
	return &ProjectInfo{
		Root:       cfg.Root,
		DataDir:    dataDir,
		DBPath:     dbPath,
		ConfigPath: cfgPath,
	}, nil
}

// reconcileConfig writes the YAML settings into the config table.
// Existing keys are overwritten: the YAML file (plus environment
// overrides) is the source of truth at startup.
func reconcileConfig(ctx context.Context, s *store.Store, settings config.Config) error {
	for k, v := range settings.AsKeyValues() {
		if _, err := s.DB().ExecContext(ctx, `
			INSERT INTO config(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("reconcile config %s: %w", k, err)
		}
	}
	return nil
}

// OpenExisting opens a project's database, failing with a clear error
// when the project was never initialized.
func OpenExisting(ctx context.Context, root string) (*store.Store, error) {
	dbPath := DBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no drspec project at %s (run `drspec init` first)", root)
	}
	return store.Open(ctx, dbPath)
}

// Reset deletes the project's data directory entirely. Destructive and
// deliberate: only the explicit `drspec reset` path calls it.
func Reset(root string) error {
	return os.RemoveAll(DataDir(root))
}
