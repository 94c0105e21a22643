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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProject_CreatesLayoutAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	info, err := InitProject(ctx, ProjectConfig{Root: root}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "_drspec"), info.DataDir)

	for _, p := range []string{
		info.DBPath,
		info.ConfigPath,
		filepath.Join(info.DataDir, "agents"),
		filepath.Join(info.DataDir, "plots"),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, "expected %s to exist", p)
	}

	// Second init must not error or clobber anything.
	_, err = InitProject(ctx, ProjectConfig{Root: root}, nil)
	require.NoError(t, err)
}

func TestInitProject_SeedsConfigTable(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	_, err := InitProject(ctx, ProjectConfig{Root: root}, nil)
	require.NoError(t, err)

	s, err := OpenExisting(ctx, root)
	require.NoError(t, err)
	defer s.Close()

	var threshold string
	row := s.DB().QueryRowContext(ctx, `SELECT value FROM config WHERE key = 'confidence_threshold'`)
	require.NoError(t, row.Scan(&threshold))
	assert.Equal(t, "70", threshold)
}

func TestOpenExisting_FailsWithoutInit(t *testing.T) {
	_, err := OpenExisting(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestReset_RemovesDataDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	_, err := InitProject(ctx, ProjectConfig{Root: root}, nil)
	require.NoError(t, err)

	require.NoError(t, Reset(root))
	_, err = os.Stat(DataDir(root))
	assert.True(t, os.IsNotExist(err))
}
